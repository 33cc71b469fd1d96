// Package store is a small collection-oriented layer over gorm: one
// Collection per table, parameterized filters and context-scoped
// transactions.
package store

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidFilter = errors.New("invalid filter")
)

var fieldPattern = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// Filter is a parameterized WHERE expression. Field names are checked
// against a strict identifier pattern and values are always bound, so
// record ids or search text never reach the SQL string.
// The zero Filter matches everything.
type Filter struct {
	sql  string
	vars []any
	err  error
}

func (f Filter) IsZero() bool { return f.sql == "" && f.err == nil }

// SQL returns the expression and its bind variables.
func (f Filter) SQL() (string, []any, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	return f.sql, f.vars, nil
}

func checkField(field string) error {
	if !fieldPattern.MatchString(field) {
		return fmt.Errorf("%w: field %q", ErrInvalidFilter, field)
	}
	return nil
}

func compare(field, op string, v any) Filter {
	if err := checkField(field); err != nil {
		return Filter{err: err}
	}
	return Filter{sql: field + " " + op + " ?", vars: []any{v}}
}

func Eq(field string, v any) Filter  { return compare(field, "=", v) }
func Neq(field string, v any) Filter { return compare(field, "<>", v) }
func Gt(field string, v any) Filter  { return compare(field, ">", v) }
func Gte(field string, v any) Filter { return compare(field, ">=", v) }
func Lt(field string, v any) Filter  { return compare(field, "<", v) }
func Lte(field string, v any) Filter { return compare(field, "<=", v) }

// Like is a case-insensitive substring match.
func Like(field, substr string) Filter {
	if err := checkField(field); err != nil {
		return Filter{err: err}
	}
	return Filter{
		sql:  "LOWER(" + field + ") LIKE ?",
		vars: []any{"%" + escapeLike(strings.ToLower(substr)) + "%"},
	}
}

// In matches any of values; an empty list matches nothing.
func In[V any](field string, values []V) Filter {
	if err := checkField(field); err != nil {
		return Filter{err: err}
	}
	if len(values) == 0 {
		return Filter{sql: "1 = 0"}
	}
	vs := make([]any, len(values))
	for i, v := range values {
		vs[i] = v
	}
	return Filter{sql: field + " IN ?", vars: []any{vs}}
}

// IsNull matches rows where field is NULL.
func IsNull(field string) Filter {
	if err := checkField(field); err != nil {
		return Filter{err: err}
	}
	return Filter{sql: field + " IS NULL"}
}

func And(filters ...Filter) Filter { return join(" AND ", filters) }
func Or(filters ...Filter) Filter  { return join(" OR ", filters) }

func join(sep string, filters []Filter) Filter {
	var parts []string
	var vars []any
	for _, f := range filters {
		if f.err != nil {
			return f
		}
		if f.sql == "" {
			continue
		}
		parts = append(parts, "("+f.sql+")")
		vars = append(vars, f.vars...)
	}
	switch len(parts) {
	case 0:
		return Filter{}
	case 1:
		return Filter{sql: strings.TrimSuffix(strings.TrimPrefix(parts[0], "("), ")"), vars: vars}
	}
	return Filter{sql: strings.Join(parts, sep), vars: vars}
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ParseSort turns "-rank,name" into ORDER BY terms.
func ParseSort(sort string) ([]string, error) {
	if strings.TrimSpace(sort) == "" {
		return nil, nil
	}
	var out []string
	for _, part := range strings.Split(sort, ",") {
		part = strings.TrimSpace(part)
		dir := "ASC"
		switch {
		case strings.HasPrefix(part, "-"):
			dir = "DESC"
			part = part[1:]
		case strings.HasPrefix(part, "+"):
			part = part[1:]
		}
		if err := checkField(part); err != nil {
			return nil, err
		}
		out = append(out, part+" "+dir)
	}
	return out, nil
}

var expandPattern = regexp.MustCompile(`^[A-Z][A-Za-z0-9]*(\.[A-Z][A-Za-z0-9]*)*$`)

func checkExpand(name string) error {
	if !expandPattern.MatchString(name) {
		return fmt.Errorf("%w: expand %q", ErrInvalidFilter, name)
	}
	return nil
}
