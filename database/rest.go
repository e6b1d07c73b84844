package database

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const restPrefix = "/rest/v1/"

// restEngine replays intents against a PostgREST (Supabase) table API.
type restEngine struct {
	base   *url.URL
	apiKey string
	client *http.Client
	now    func() time.Time
}

// OpenREST points the store at a Supabase project URL. A nil client gets a 10s timeout.
func OpenREST(baseURL, apiKey string, client *http.Client, opts ...Option) (*Store, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/") + restPrefix)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid rest url %q", baseURL)
	}
	if apiKey == "" {
		return nil, fmt.Errorf("rest api key is required")
	}
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}

	eng := &restEngine{base: u, apiKey: apiKey, client: client, now: time.Now}
	return newStore(BackendREST, eng, opts...), nil
}

func (e *restEngine) raw(ctx context.Context, query string, args []any, _ bool) (*outcome, error) {
	in, err := Translate(query, args)
	if err != nil {
		return nil, err
	}
	return e.dispatch(ctx, normalizeIntent(in))
}

func (e *restEngine) dispatch(ctx context.Context, in *Intent) (*outcome, error) {
	filters := url.Values{}
	for _, c := range in.Conditions {
		filters.Add(c.Column, e.filter(c.Value))
	}

	switch in.Op {
	case OpSelect:
		sel := "*"
		if len(in.Columns) > 0 {
			sel = strings.Join(in.Columns, ",")
		}
		filters.Set("select", sel)
		if in.Order != nil {
			dir := "asc"
			if in.Order.Desc {
				dir = "desc"
			}
			filters.Set("order", in.Order.Column+"."+dir)
		}
		if in.Limit > 0 {
			filters.Set("limit", strconv.Itoa(in.Limit))
		}
		rows, err := e.rows(ctx, http.MethodGet, in.Table, filters, nil)
		if err != nil {
			return nil, err
		}
		return &outcome{rows: rows}, nil

	case OpInsert:
		rows, err := e.rows(ctx, http.MethodPost, in.Table, nil, e.record(in.Values))
		if err != nil {
			return nil, err
		}
		out := &outcome{rows: rows, result: Result{RowsAffected: int64(len(rows))}}
		if len(rows) > 0 {
			if id, err := toInt64(rows[0]["id"]); err == nil {
				out.result.LastInsertID = id
			}
		}
		return out, nil

	case OpUpdate:
		rows, err := e.rows(ctx, http.MethodPatch, in.Table, filters, e.record(in.Set))
		if err != nil {
			return nil, err
		}
		return &outcome{rows: rows, result: Result{RowsAffected: int64(len(rows))}}, nil

	case OpDelete:
		rows, err := e.rows(ctx, http.MethodDelete, in.Table, filters, nil)
		if err != nil {
			return nil, err
		}
		return &outcome{rows: rows, result: Result{RowsAffected: int64(len(rows))}}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, in.Op)
}

func (e *restEngine) bumpCounter(ctx context.Context, restaurantID int64, day string, counter Counter) error {
	body := map[string]any{
		"p_restaurant_id": restaurantID,
		"p_date":          day,
		"p_counter":       string(counter),
	}
	_, err := e.send(ctx, http.MethodPost, "rpc/add_statistic", nil, body)
	return err
}

func (e *restEngine) close() error {
	e.client.CloseIdleConnections()
	return nil
}

func (e *restEngine) rows(ctx context.Context, method, path string, query url.Values, body any) ([]Row, error) {
	data, err := e.send(ctx, method, path, query, body)
	if err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return []Row{}, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var rows []Row
	if err := dec.Decode(&rows); err != nil {
		return nil, &BackendError{Backend: BackendREST, Op: method + " " + path, Err: fmt.Errorf("decode response: %w", err)}
	}
	return rows, nil
}

type restError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (e *restEngine) send(ctx context.Context, method, path string, query url.Values, body any) ([]byte, error) {
	op := method + " " + path
	target := e.base.ResolveReference(&url.URL{Path: path, RawQuery: query.Encode()})

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, &BackendError{Backend: BackendREST, Op: op, Err: err}
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, &BackendError{Backend: BackendREST, Op: op, Err: err}
	}
	req.Header.Set("apikey", e.apiKey)
	req.Header.Set("Authorization", "Bearer "+e.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		req.Header.Set("Prefer", "return=representation")
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return nil, &BackendError{Backend: BackendREST, Op: op, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &BackendError{Backend: BackendREST, Op: op, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		berr := &BackendError{Backend: BackendREST, Op: op, Status: resp.StatusCode}
		var re restError
		if json.Unmarshal(data, &re) == nil && re.Message != "" {
			berr.Code = re.Code
			berr.Message = re.Message
		} else {
			berr.Message = strings.TrimSpace(string(data))
		}
		return nil, berr
	}
	return data, nil
}

func (e *restEngine) filter(v any) string {
	if v == nil {
		return "is.null"
	}
	return "eq." + e.format(v)
}

func (e *restEngine) format(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case time.Time:
		return x.UTC().Format(time.RFC3339Nano)
	case currentTimestamp:
		return e.now().UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprint(v)
}

func (e *restEngine) record(fields []Field) map[string]any {
	rec := make(map[string]any, len(fields))
	for _, f := range fields {
		if _, ok := f.Value.(currentTimestamp); ok {
			rec[f.Column] = e.now().UTC()
			continue
		}
		rec[f.Column] = f.Value
	}
	return rec
}
