package database

import (
	"fmt"
	"regexp"
)

// Op is the kind of operation an Intent performs.
type Op int

const (
	OpSelect Op = iota + 1
	OpInsert
	OpUpdate
	OpDelete
)

func (o Op) String() string {
	switch o {
	case OpSelect:
		return "SELECT"
	case OpInsert:
		return "INSERT"
	case OpUpdate:
		return "UPDATE"
	case OpDelete:
		return "DELETE"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

type currentTimestamp struct{}

// CurrentTimestamp stands in for the storage clock in a Value, Set or Where.
var CurrentTimestamp = currentTimestamp{}

// Condition is a single column equality. A nil Value matches NULL.
type Condition struct {
	Column string
	Value  any
}

type Field struct {
	Column string
	Value  any
}

type Order struct {
	Column string
	Desc   bool
}

// Intent is the backend-agnostic form of one data operation. Callers either build it
// directly with Select/Insert/Update/Delete or get one from Translate.
type Intent struct {
	Op         Op
	Table      string
	Columns    []string
	Conditions []Condition
	Order      *Order
	Limit      int
	Values     []Field
	Set        []Field
}

func Select(table string, columns ...string) *Intent {
	return &Intent{Op: OpSelect, Table: table, Columns: columns}
}

func Insert(table string) *Intent {
	return &Intent{Op: OpInsert, Table: table}
}

func Update(table string) *Intent {
	return &Intent{Op: OpUpdate, Table: table}
}

func Delete(table string) *Intent {
	return &Intent{Op: OpDelete, Table: table}
}

func (in *Intent) Where(column string, value any) *Intent {
	in.Conditions = append(in.Conditions, Condition{Column: column, Value: value})
	return in
}

func (in *Intent) OrderBy(column string, desc bool) *Intent {
	in.Order = &Order{Column: column, Desc: desc}
	return in
}

func (in *Intent) Take(n int) *Intent {
	in.Limit = n
	return in
}

func (in *Intent) Value(column string, value any) *Intent {
	in.Values = append(in.Values, Field{Column: column, Value: value})
	return in
}

func (in *Intent) Assign(column string, value any) *Intent {
	in.Set = append(in.Set, Field{Column: column, Value: value})
	return in
}

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate rejects intents that no backend can run safely. Identifiers end up inside SQL
// text on the SQL engines, so they are restricted to plain names.
func (in *Intent) Validate() error {
	if in == nil {
		return fmt.Errorf("%w: nil intent", ErrParseFailure)
	}
	switch in.Op {
	case OpSelect, OpInsert, OpUpdate, OpDelete:
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedOperation, in.Op)
	}
	if !identPattern.MatchString(in.Table) {
		return fmt.Errorf("%w: invalid table name %q", ErrParseFailure, in.Table)
	}
	for _, c := range in.Columns {
		if !identPattern.MatchString(c) {
			return fmt.Errorf("%w: invalid column %q", ErrParseFailure, c)
		}
	}
	for _, c := range in.Conditions {
		if !identPattern.MatchString(c.Column) {
			return fmt.Errorf("%w: invalid column %q", ErrParseFailure, c.Column)
		}
	}
	if in.Order != nil && !identPattern.MatchString(in.Order.Column) {
		return fmt.Errorf("%w: invalid order column %q", ErrParseFailure, in.Order.Column)
	}
	if in.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrParseFailure)
	}
	for _, f := range append(append([]Field{}, in.Values...), in.Set...) {
		if !identPattern.MatchString(f.Column) {
			return fmt.Errorf("%w: invalid column %q", ErrParseFailure, f.Column)
		}
	}

	switch in.Op {
	case OpInsert:
		if len(in.Values) == 0 {
			return fmt.Errorf("%w: insert into %s without values", ErrParseFailure, in.Table)
		}
	case OpUpdate:
		if len(in.Set) == 0 {
			return fmt.Errorf("%w: update of %s without assignments", ErrParseFailure, in.Table)
		}
		if len(in.Conditions) == 0 {
			return fmt.Errorf("%w: update of %s without conditions", ErrParseFailure, in.Table)
		}
	case OpDelete:
		if len(in.Conditions) == 0 {
			return fmt.Errorf("%w: delete from %s without conditions", ErrParseFailure, in.Table)
		}
	}
	return nil
}
