package database

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	spacePattern  = regexp.MustCompile(`\s+`)
	andPattern    = regexp.MustCompile(`(?i)\s+AND\s+`)
	clausePattern = regexp.MustCompile(`(?i)\b(WHERE|ORDER\s+BY|LIMIT|GROUP\s+BY|HAVING|JOIN|UNION|OFFSET|RETURNING)\b`)

	selectPattern = regexp.MustCompile(`(?i)^SELECT\s+(.+?)\s+FROM\s+(.+)$`)
	insertPattern = regexp.MustCompile(`(?i)^INSERT\s+INTO\s+(\S+)\s*\(([^()]*)\)\s*VALUES\s*\(([^()]*)\)(?:\s+RETURNING\s+.+)?$`)
	updatePattern = regexp.MustCompile(`(?i)^UPDATE\s+(\S+)\s+SET\s+(.+?)(?:\s+(WHERE\s+.+))?$`)
	deletePattern = regexp.MustCompile(`(?i)^DELETE\s+FROM\s+(\S+)(?:\s+(.+))?$`)

	columnPattern = regexp.MustCompile(`^(?:[A-Za-z_]\w*\.)?([A-Za-z_]\w*)$`)
	equalPattern  = regexp.MustCompile(`^(?:[A-Za-z_]\w*\.)?([A-Za-z_]\w*)\s*=\s*(\S+)$`)
	isNullPattern = regexp.MustCompile(`(?i)^(?:[A-Za-z_]\w*\.)?([A-Za-z_]\w*)\s+IS\s+NULL$`)
	orderPattern  = regexp.MustCompile(`(?i)^(?:[A-Za-z_]\w*\.)?([A-Za-z_]\w*)(?:\s+(ASC|DESC))?$`)
	literalToken  = regexp.MustCompile("^\x00lit(\\d+)$")
	intPattern    = regexp.MustCompile(`^-?\d+$`)
	floatPattern  = regexp.MustCompile(`^-?\d+\.\d+$`)
)

var clauseKeywords = map[string]bool{
	"WHERE": true, "ORDER": true, "LIMIT": true, "GROUP": true, "HAVING": true,
	"JOIN": true, "INNER": true, "LEFT": true, "RIGHT": true, "FULL": true, "CROSS": true,
	"UNION": true, "OFFSET": true,
}

func parseFailure(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrParseFailure}, args...)...)
}

// Translate turns SQL-shaped text with ? placeholders into an Intent. Only the
// single-table, equality-only subset is understood; everything else is rejected with
// ErrParseFailure instead of degrading to a broader query.
func Translate(query string, params []any) (*Intent, error) {
	masked, literals, err := maskLiterals(query)
	if err != nil {
		return nil, err
	}
	stmt := strings.TrimSpace(spacePattern.ReplaceAllString(masked, " "))
	stmt = strings.TrimSpace(strings.TrimSuffix(stmt, ";"))
	if stmt == "" {
		return nil, parseFailure("empty query")
	}

	t := &translator{params: params, literals: literals}

	var in *Intent
	keyword := strings.ToUpper(strings.Fields(stmt)[0])
	switch keyword {
	case "SELECT":
		in, err = t.selectStmt(stmt)
	case "INSERT":
		in, err = t.insertStmt(stmt)
	case "UPDATE":
		in, err = t.updateStmt(stmt)
	case "DELETE":
		in, err = t.deleteStmt(stmt)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedOperation, keyword)
	}
	if err != nil {
		return nil, err
	}

	if t.pos != len(t.params) {
		return nil, parseFailure("query uses %d parameters, got %d", t.pos, len(t.params))
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}
	return in, nil
}

type translator struct {
	params   []any
	pos      int
	literals []string
}

func (t *translator) selectStmt(stmt string) (*Intent, error) {
	m := selectPattern.FindStringSubmatch(stmt)
	if m == nil {
		return nil, parseFailure("select without FROM")
	}

	columns, err := projection(m[1])
	if err != nil {
		return nil, err
	}

	tokens := strings.Fields(m[2])
	table := tokens[0]
	rest := tokens[1:]
	switch {
	case len(rest) >= 2 && strings.EqualFold(rest[0], "AS"):
		rest = rest[2:]
	case len(rest) >= 1 && !clauseKeywords[strings.ToUpper(rest[0])]:
		rest = rest[1:]
	}
	if strings.HasSuffix(table, ",") || (len(rest) > 0 && strings.HasPrefix(rest[0], ",")) {
		return nil, parseFailure("multi-table select")
	}

	in := Select(table, columns...)
	clauses, err := splitClauses(strings.Join(rest, " "), "WHERE", "ORDER BY", "LIMIT")
	if err != nil {
		return nil, err
	}
	if body, ok := clauses["WHERE"]; ok {
		if in.Conditions, err = t.where(body); err != nil {
			return nil, err
		}
	}
	if body, ok := clauses["ORDER BY"]; ok {
		if in.Order, err = orderBy(body); err != nil {
			return nil, err
		}
	}
	if body, ok := clauses["LIMIT"]; ok {
		if in.Limit, err = t.limit(body); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func (t *translator) insertStmt(stmt string) (*Intent, error) {
	m := insertPattern.FindStringSubmatch(stmt)
	if m == nil {
		return nil, parseFailure("insert must be INSERT INTO table (columns) VALUES (values)")
	}

	columns := splitList(m[2])
	values := splitList(m[3])
	if len(columns) != len(values) {
		return nil, parseFailure("insert has %d columns and %d values", len(columns), len(values))
	}

	in := Insert(m[1])
	for i, col := range columns {
		v, err := t.value(values[i])
		if err != nil {
			return nil, err
		}
		in.Value(col, v)
	}
	return in, nil
}

func (t *translator) updateStmt(stmt string) (*Intent, error) {
	m := updatePattern.FindStringSubmatch(stmt)
	if m == nil {
		return nil, parseFailure("update must be UPDATE table SET ...")
	}

	in := Update(m[1])
	for _, assignment := range splitList(m[2]) {
		am := equalPattern.FindStringSubmatch(assignment)
		if am == nil {
			return nil, parseFailure("unsupported assignment %q", assignment)
		}
		v, err := t.value(am[2])
		if err != nil {
			return nil, err
		}
		in.Assign(am[1], v)
	}

	clauses, err := splitClauses(m[3], "WHERE")
	if err != nil {
		return nil, err
	}
	if body, ok := clauses["WHERE"]; ok {
		if in.Conditions, err = t.where(body); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func (t *translator) deleteStmt(stmt string) (*Intent, error) {
	m := deletePattern.FindStringSubmatch(stmt)
	if m == nil {
		return nil, parseFailure("delete must be DELETE FROM table WHERE ...")
	}

	in := Delete(m[1])
	clauses, err := splitClauses(m[2], "WHERE")
	if err != nil {
		return nil, err
	}
	if body, ok := clauses["WHERE"]; ok {
		if in.Conditions, err = t.where(body); err != nil {
			return nil, err
		}
	}
	return in, nil
}

func (t *translator) where(body string) ([]Condition, error) {
	var conds []Condition
	for _, fragment := range andPattern.Split(body, -1) {
		fragment = strings.TrimSpace(fragment)
		if strings.ContainsAny(fragment, "()") {
			return nil, parseFailure("nested condition %q", fragment)
		}
		if m := isNullPattern.FindStringSubmatch(fragment); m != nil {
			conds = append(conds, Condition{Column: m[1]})
			continue
		}
		m := equalPattern.FindStringSubmatch(fragment)
		if m == nil || strings.EqualFold(m[2], "NULL") {
			return nil, parseFailure("unsupported condition %q", fragment)
		}
		v, err := t.value(m[2])
		if err != nil {
			return nil, err
		}
		// "col = NULL" matches nothing in SQL; callers spell it IS NULL
		if m[2] == "?" && normalizeArg(v) == nil {
			return nil, parseFailure("nil parameter for %s, use %s IS NULL", m[1], m[1])
		}
		conds = append(conds, Condition{Column: m[1], Value: v})
	}
	return conds, nil
}

func (t *translator) limit(body string) (int, error) {
	v, err := t.value(body)
	if err != nil {
		return 0, err
	}
	n, err := toInt64(normalizeArg(v))
	if err != nil || n < 0 {
		return 0, parseFailure("invalid limit %q", body)
	}
	return int(n), nil
}

func (t *translator) value(token string) (any, error) {
	token = strings.TrimSpace(token)
	switch strings.ToUpper(token) {
	case "?":
		if t.pos >= len(t.params) {
			return nil, parseFailure("not enough parameters")
		}
		v := t.params[t.pos]
		t.pos++
		return v, nil
	case "CURRENT_TIMESTAMP":
		return CurrentTimestamp, nil
	case "NULL":
		return nil, nil
	case "TRUE":
		return true, nil
	case "FALSE":
		return false, nil
	}
	if m := literalToken.FindStringSubmatch(token); m != nil {
		idx, _ := strconv.Atoi(m[1])
		if idx < len(t.literals) {
			return t.literals[idx], nil
		}
	}
	if intPattern.MatchString(token) {
		n, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return nil, parseFailure("invalid number %q", token)
		}
		return n, nil
	}
	if floatPattern.MatchString(token) {
		f, err := strconv.ParseFloat(token, 64)
		if err != nil {
			return nil, parseFailure("invalid number %q", token)
		}
		return f, nil
	}
	return nil, parseFailure("unsupported value %q", token)
}

func projection(list string) ([]string, error) {
	list = strings.TrimSpace(list)
	if list == "*" || strings.HasSuffix(list, ".*") && columnPattern.MatchString(strings.TrimSuffix(list, ".*")) {
		return nil, nil
	}
	var columns []string
	for _, item := range splitList(list) {
		m := columnPattern.FindStringSubmatch(item)
		if m == nil {
			return nil, parseFailure("unsupported select expression %q", item)
		}
		columns = append(columns, m[1])
	}
	return columns, nil
}

// orderBy honors the first column only.
func orderBy(body string) (*Order, error) {
	first := strings.TrimSpace(strings.Split(body, ",")[0])
	m := orderPattern.FindStringSubmatch(first)
	if m == nil {
		return nil, parseFailure("unsupported order %q", first)
	}
	return &Order{Column: m[1], Desc: strings.EqualFold(m[2], "DESC")}, nil
}

func splitClauses(tail string, allowed ...string) (map[string]string, error) {
	out := make(map[string]string)
	tail = strings.TrimSpace(tail)
	if tail == "" {
		return out, nil
	}

	locs := clausePattern.FindAllStringSubmatchIndex(tail, -1)
	if len(locs) == 0 || locs[0][0] != 0 {
		return nil, parseFailure("unexpected %q", tail)
	}

	next := 0
	for i, loc := range locs {
		keyword := strings.ToUpper(spacePattern.ReplaceAllString(tail[loc[2]:loc[3]], " "))
		rank := -1
		for j, a := range allowed {
			if a == keyword {
				rank = j
			}
		}
		if rank < 0 {
			return nil, parseFailure("%s is not supported", keyword)
		}
		if rank < next {
			return nil, parseFailure("%s out of place", keyword)
		}
		next = rank + 1

		end := len(tail)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		body := strings.TrimSpace(tail[loc[1]:end])
		if body == "" {
			return nil, parseFailure("empty %s clause", keyword)
		}
		out[keyword] = body
	}
	return out, nil
}

func splitList(list string) []string {
	parts := strings.Split(list, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return parts
}

// maskLiterals swaps quoted strings for NUL-prefixed tokens so keywords, commas and ?
// inside them never reach the clause parser.
func maskLiterals(query string) (string, []string, error) {
	if strings.ContainsRune(query, 0) {
		return "", nil, parseFailure("NUL byte in query")
	}
	var b strings.Builder
	var literals []string
	for i := 0; i < len(query); i++ {
		if query[i] != '\'' {
			b.WriteByte(query[i])
			continue
		}

		var lit strings.Builder
		closed := false
		for i++; i < len(query); i++ {
			if query[i] == '\'' {
				if i+1 < len(query) && query[i+1] == '\'' {
					lit.WriteByte('\'')
					i++
					continue
				}
				closed = true
				break
			}
			lit.WriteByte(query[i])
		}
		if !closed {
			return "", nil, parseFailure("unterminated string literal")
		}
		fmt.Fprintf(&b, " \x00lit%d ", len(literals))
		literals = append(literals, lit.String())
	}
	return b.String(), literals, nil
}
