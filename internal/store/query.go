package store

import (
	"fmt"
	"regexp"
	"strings"
)

// Op is a filter operator.
type Op string

const (
	OpEqual         Op = "=="
	OpNotEqual      Op = "!="
	OpArrayContains Op = "array-contains"
)

// Filter restricts a query to documents whose field matches Value.
type Filter struct {
	Field string
	Op    Op
	Value any
}

// Query is a compound query over one collection. The zero value lists the
// whole collection in creation order.
type Query struct {
	Filters    []Filter
	OrderBy    string
	Descending bool
	Limit      int
}

// Where returns a copy of q with an added filter.
func (q Query) Where(field string, op Op, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Op: op, Value: value})
	return q
}

// Order returns a copy of q ordered by field.
func (q Query) Order(field string, descending bool) Query {
	q.OrderBy = field
	q.Descending = descending
	return q
}

// Take returns a copy of q limited to n documents.
func (q Query) Take(n int) Query {
	q.Limit = n
	return q
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// validField guards field names, which are interpolated into JSON paths.
func validField(field string) error {
	if !fieldPattern.MatchString(field) {
		return fmt.Errorf("invalid field name %q", field)
	}
	return nil
}

// sqlValue converts a filter value to what json_extract returns for it.
func sqlValue(v any) any {
	if b, ok := v.(bool); ok {
		if b {
			return 1
		}
		return 0
	}
	return v
}

// build renders the query as SQL over the documents table.
func (q Query) build(collection string) (string, []any, error) {
	var sb strings.Builder
	args := []any{collection}

	sb.WriteString(`SELECT id, data, create_time, update_time FROM documents WHERE collection = ?`)

	for _, f := range q.Filters {
		if err := validField(f.Field); err != nil {
			return "", nil, err
		}
		path := "'$." + f.Field + "'"
		switch f.Op {
		case OpEqual:
			sb.WriteString(` AND json_extract(data, ` + path + `) = ?`)
			args = append(args, sqlValue(f.Value))
		case OpNotEqual:
			sb.WriteString(` AND (json_extract(data, ` + path + `) IS NULL OR json_extract(data, ` + path + `) != ?)`)
			args = append(args, sqlValue(f.Value))
		case OpArrayContains:
			sb.WriteString(` AND EXISTS (SELECT 1 FROM json_each(documents.data, ` + path + `) WHERE json_each.value = ?)`)
			args = append(args, sqlValue(f.Value))
		default:
			return "", nil, fmt.Errorf("unsupported operator %q", f.Op)
		}
	}

	if q.OrderBy != "" {
		if err := validField(q.OrderBy); err != nil {
			return "", nil, err
		}
		dir := "ASC"
		if q.Descending {
			dir = "DESC"
		}
		sb.WriteString(` ORDER BY json_extract(data, '$.` + q.OrderBy + `') ` + dir + `, create_time ASC, id ASC`)
	} else {
		sb.WriteString(` ORDER BY create_time ASC, id ASC`)
	}

	if q.Limit > 0 {
		sb.WriteString(` LIMIT ?`)
		args = append(args, q.Limit)
	}

	return sb.String(), args, nil
}
