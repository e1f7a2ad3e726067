package builder

import (
	"fmt"
	"strings"
)

// SQLBuilder composes read queries for the export repositories. Conditions
// use "?" placeholders which Build renumbers to Postgres "$n" markers.
type SQLBuilder struct {
	table   string
	columns []string
	joins   []string
	where   []condition
	groupBy []string
	orderBy []string
	limit   int
	offset  int
}

type condition struct {
	sql  string
	args []interface{}
}

// NewSQLBuilder creates a new instance of SQLBuilder.
func NewSQLBuilder() *SQLBuilder {
	return &SQLBuilder{}
}

// Select specifies the columns to retrieve.
func (b *SQLBuilder) Select(cols ...string) *SQLBuilder {
	b.columns = append(b.columns, cols...)
	return b
}

// From specifies the table to select from.
func (b *SQLBuilder) From(table string) *SQLBuilder {
	b.table = table
	return b
}

// Join adds a JOIN clause.
func (b *SQLBuilder) Join(joinType, table, on string) *SQLBuilder {
	b.joins = append(b.joins, fmt.Sprintf("%s JOIN %s ON %s", joinType, table, on))
	return b
}

// Where adds a condition; conditions are combined with AND.
func (b *SQLBuilder) Where(cond string, args ...interface{}) *SQLBuilder {
	b.where = append(b.where, condition{sql: cond, args: args})
	return b
}

// WhereIf adds the condition only when ok is true.
func (b *SQLBuilder) WhereIf(ok bool, cond string, args ...interface{}) *SQLBuilder {
	if ok {
		return b.Where(cond, args...)
	}
	return b
}

// WhereIn adds "col IN (...)" for vals. An empty vals matches nothing.
func (b *SQLBuilder) WhereIn(col string, vals ...interface{}) *SQLBuilder {
	if len(vals) == 0 {
		return b.Where("1 = 0")
	}
	marks := strings.TrimSuffix(strings.Repeat("?, ", len(vals)), ", ")
	return b.Where(fmt.Sprintf("%s IN (%s)", col, marks), vals...)
}

// GroupBy adds GROUP BY columns.
func (b *SQLBuilder) GroupBy(cols ...string) *SQLBuilder {
	b.groupBy = append(b.groupBy, cols...)
	return b
}

// OrderBy adds an ORDER BY clause.
func (b *SQLBuilder) OrderBy(order string) *SQLBuilder {
	b.orderBy = append(b.orderBy, order)
	return b
}

// Limit adds a LIMIT clause.
func (b *SQLBuilder) Limit(limit int) *SQLBuilder {
	b.limit = limit
	return b
}

// Offset adds an OFFSET clause.
func (b *SQLBuilder) Offset(offset int) *SQLBuilder {
	b.offset = offset
	return b
}

// Build constructs the final SQL string and arguments.
func (b *SQLBuilder) Build() (string, []interface{}) {
	var sb strings.Builder
	var args []interface{}

	sb.WriteString("SELECT ")
	if len(b.columns) == 0 {
		sb.WriteString("*")
	} else {
		sb.WriteString(strings.Join(b.columns, ", "))
	}
	sb.WriteString(" FROM ")
	sb.WriteString(b.table)
	for _, join := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(join)
	}

	if len(b.where) > 0 {
		conds := make([]string, len(b.where))
		for i, c := range b.where {
			conds[i] = renumber(c.sql, len(args)+1)
			args = append(args, c.args...)
		}
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(conds, " AND "))
	}

	if len(b.groupBy) > 0 {
		sb.WriteString(" GROUP BY ")
		sb.WriteString(strings.Join(b.groupBy, ", "))
	}
	if len(b.orderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orderBy, ", "))
	}
	if b.limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", b.limit))
	}
	if b.offset > 0 {
		sb.WriteString(fmt.Sprintf(" OFFSET %d", b.offset))
	}

	return sb.String(), args
}

// BuildSafe is Build with a check that every argument has a placeholder.
func (b *SQLBuilder) BuildSafe() (string, []interface{}, error) {
	query, args := b.Build()
	want := 0
	for _, c := range b.where {
		want += strings.Count(c.sql, "?")
	}
	if want != len(args) {
		return "", nil, fmt.Errorf("placeholder count (%d) does not match argument count (%d)", want, len(args))
	}
	return query, args, nil
}

// renumber replaces each "?" in s with "$n", starting at first.
func renumber(s string, first int) string {
	var sb strings.Builder
	n := first
	for _, r := range s {
		if r == '?' {
			sb.WriteString(fmt.Sprintf("$%d", n))
			n++
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}
