package database

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
)

var returningPattern = regexp.MustCompile(`(?i)\bRETURNING\b`)

// sqlEngine forwards text queries straight to a database/sql handle and renders intents
// into the same text form.
type sqlEngine struct {
	backend Backend
	db      *sql.DB
	// postgres has no LastInsertId; inserts are run with RETURNING id instead.
	rebind    bool
	returning bool
}

func (e *sqlEngine) raw(ctx context.Context, query string, args []any, wantRows bool) (*outcome, error) {
	if e.rebind {
		query = Rebind(query)
	}

	if e.returning && isInsert(query) {
		return e.insertReturning(ctx, query, args)
	}

	if wantRows {
		rows, err := e.query(ctx, query, args)
		if err != nil {
			return nil, err
		}
		return &outcome{rows: rows}, nil
	}

	res, err := e.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, e.fail("exec", err)
	}
	var out outcome
	out.result.RowsAffected, _ = res.RowsAffected()
	if isInsert(query) {
		if id, err := res.LastInsertId(); err == nil {
			out.result.LastInsertID = id
		}
	}
	return &out, nil
}

func (e *sqlEngine) insertReturning(ctx context.Context, query string, args []any) (*outcome, error) {
	if !returningPattern.MatchString(query) {
		query = strings.TrimSuffix(strings.TrimSpace(query), ";") + " RETURNING id"
	}
	rows, err := e.query(ctx, query, args)
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
}

func (e *sqlEngine) query(ctx context.Context, query string, args []any) ([]Row, error) {
	rows, err := e.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, e.fail("query", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, e.fail("query", err)
	}

	result := []Row{}
	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, e.fail("scan", err)
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
				continue
			}
			row[col] = values[i]
		}
		result = append(result, row)
	}
	if err := rows.Err(); err != nil {
		return nil, e.fail("query", err)
	}
	return result, nil
}

func (e *sqlEngine) dispatch(ctx context.Context, in *Intent) (*outcome, error) {
	query, args := renderSQL(in)
	return e.raw(ctx, query, args, in.Op == OpSelect)
}

func (e *sqlEngine) bumpCounter(ctx context.Context, restaurantID int64, day string, counter Counter) error {
	query := fmt.Sprintf(`INSERT INTO statistics (restaurant_id, date, %[1]s)
		VALUES (?, ?, 1)
		ON CONFLICT(restaurant_id, date)
		DO UPDATE SET %[1]s = statistics.%[1]s + 1`, counter)
	if e.rebind {
		query = Rebind(query)
	}
	if _, err := e.db.ExecContext(ctx, query, restaurantID, day); err != nil {
		return e.fail("add statistic", err)
	}
	return nil
}

func (e *sqlEngine) close() error {
	return e.db.Close()
}

func (e *sqlEngine) fail(op string, err error) error {
	return &BackendError{Backend: e.backend, Op: op, Err: err}
}

func isInsert(query string) bool {
	fields := strings.Fields(query)
	return len(fields) > 0 && strings.EqualFold(fields[0], "INSERT")
}

// renderSQL writes an intent as ?-placeholder SQL. Identifiers were checked by Validate.
func renderSQL(in *Intent) (string, []any) {
	var (
		b    strings.Builder
		args []any
	)

	bind := func(v any) string {
		if _, ok := v.(currentTimestamp); ok {
			return "CURRENT_TIMESTAMP"
		}
		args = append(args, v)
		return "?"
	}

	switch in.Op {
	case OpSelect:
		cols := "*"
		if len(in.Columns) > 0 {
			cols = strings.Join(in.Columns, ", ")
		}
		fmt.Fprintf(&b, "SELECT %s FROM %s", cols, in.Table)
	case OpInsert:
		cols := make([]string, len(in.Values))
		vals := make([]string, len(in.Values))
		for i, f := range in.Values {
			cols[i] = f.Column
			vals[i] = bind(f.Value)
		}
		fmt.Fprintf(&b, "INSERT INTO %s (%s) VALUES (%s)", in.Table, strings.Join(cols, ", "), strings.Join(vals, ", "))
	case OpUpdate:
		sets := make([]string, len(in.Set))
		for i, f := range in.Set {
			sets[i] = f.Column + " = " + bind(f.Value)
		}
		fmt.Fprintf(&b, "UPDATE %s SET %s", in.Table, strings.Join(sets, ", "))
	case OpDelete:
		fmt.Fprintf(&b, "DELETE FROM %s", in.Table)
	}

	if len(in.Conditions) > 0 {
		conds := make([]string, len(in.Conditions))
		for i, c := range in.Conditions {
			if c.Value == nil {
				conds[i] = c.Column + " IS NULL"
				continue
			}
			conds[i] = c.Column + " = " + bind(c.Value)
		}
		b.WriteString(" WHERE " + strings.Join(conds, " AND "))
	}

	if in.Op == OpSelect {
		if in.Order != nil {
			dir := "ASC"
			if in.Order.Desc {
				dir = "DESC"
			}
			fmt.Fprintf(&b, " ORDER BY %s %s", in.Order.Column, dir)
		}
		if in.Limit > 0 {
			fmt.Fprintf(&b, " LIMIT %d", in.Limit)
		}
	}
	return b.String(), args
}
