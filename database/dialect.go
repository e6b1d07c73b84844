package database

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	serialPrimaryKey = regexp.MustCompile(`(?i)\bINTEGER\s+PRIMARY\s+KEY\s+AUTOINCREMENT\b`)
	dialectTokens    = []struct {
		pattern *regexp.Regexp
		repl    string
	}{
		{regexp.MustCompile(`\bAUTOINCREMENT\b`), "SERIAL"},
		{regexp.MustCompile(`\bDATETIME\b`), "TIMESTAMP"},
		{regexp.MustCompile(`\bREAL\b`), "DECIMAL"},
	}
	ddlKeywords = map[string]bool{"CREATE": true, "ALTER": true, "DROP": true}
)

// RewriteDialect maps embedded-engine type tokens in schema statements to their postgres
// equivalents. Statements that are not DDL come back untouched.
func RewriteDialect(script string) string {
	stmts := splitStatements(script)
	for i, stmt := range stmts {
		fields := strings.Fields(stmt)
		if len(fields) == 0 || !ddlKeywords[strings.ToUpper(fields[0])] {
			continue
		}
		stmt = serialPrimaryKey.ReplaceAllString(stmt, "SERIAL PRIMARY KEY")
		for _, tok := range dialectTokens {
			stmt = tok.pattern.ReplaceAllString(stmt, tok.repl)
		}
		stmts[i] = stmt
	}
	return strings.Join(stmts, ";")
}

// splitStatements cuts on semicolons outside quoted strings. The separators are dropped;
// joining the pieces with ";" restores the input.
func splitStatements(script string) []string {
	var stmts []string
	inQuote := false
	start := 0
	for i := 0; i < len(script); i++ {
		switch script[i] {
		case '\'':
			inQuote = !inQuote
		case ';':
			if !inQuote {
				stmts = append(stmts, script[start:i])
				start = i + 1
			}
		}
	}
	return append(stmts, script[start:])
}

// Rebind rewrites ? placeholders to $1..$n, leaving quoted strings alone.
func Rebind(query string) string {
	var b strings.Builder
	b.Grow(len(query) + 8)
	inQuote := false
	n := 0
	for i := 0; i < len(query); i++ {
		ch := query[i]
		switch {
		case ch == '\'':
			inQuote = !inQuote
			b.WriteByte(ch)
		case ch == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(ch)
		}
	}
	return b.String()
}

// normalizeArg brings caller values to the handful of types every engine accepts.
// Flags are stored as 0/1 integers.
func normalizeArg(v any) any {
	switch x := v.(type) {
	case bool:
		if x {
			return int64(1)
		}
		return int64(0)
	case *bool:
		if x == nil {
			return nil
		}
		return normalizeArg(*x)
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case *time.Time:
		if x == nil {
			return nil
		}
		return *x
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case int:
		return int64(x)
	case int32:
		return int64(x)
	case uint:
		return int64(x)
	case uint32:
		return int64(x)
	case float32:
		return float64(x)
	}
	return v
}

func normalizeArgs(args []any) []any {
	out := make([]any, len(args))
	for i, a := range args {
		out[i] = normalizeArg(a)
	}
	return out
}

func toInt64(v any) (int64, error) {
	switch x := v.(type) {
	case int64:
		return x, nil
	case float64:
		if x != math.Trunc(x) || math.Abs(x) > math.MaxInt64 {
			return 0, fmt.Errorf("%v is not an integer", x)
		}
		return int64(x), nil
	case string:
		return strconv.ParseInt(x, 10, 64)
	case []byte:
		return strconv.ParseInt(string(x), 10, 64)
	case json.Number:
		return x.Int64()
	}
	return 0, fmt.Errorf("cannot use %T as an integer", v)
}
