package database

import (
	"database/sql"
	"errors"
	"fmt"
)

var (
	ErrUnsupportedOperation = errors.New("unsupported operation")
	ErrParseFailure         = errors.New("unrecognized query shape")
	ErrInvalidCounter       = errors.New("invalid statistic counter")

	// ErrNoRows is returned by Get and First when nothing matches.
	ErrNoRows = sql.ErrNoRows
)

// BackendError reports a failure of the underlying engine or network call.
type BackendError struct {
	Backend Backend
	Op      string
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *BackendError) Error() string {
	msg := fmt.Sprintf("%s backend: %s failed", e.Backend, e.Op)
	if e.Status != 0 {
		msg += fmt.Sprintf(" with status %d", e.Status)
	}
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
