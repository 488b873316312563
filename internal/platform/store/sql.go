package store

import (
	"fmt"
	"strings"
)

// Columns maps wire field names to SQL column expressions.
type Columns map[string]string

// Allowed returns the field set accepted by Query.Validate.
func (c Columns) Allowed() map[string]bool {
	out := make(map[string]bool, len(c))
	for k := range c {
		out[k] = true
	}
	return out
}

// SQLQuery builds a parameterised SELECT from a Query. Placeholders are
// numbered from 1 in the order clauses are added.
type SQLQuery struct {
	table   string
	cols    string
	columns Columns
	where   string
	args    []any
	idx     int
	orderBy string
	limit   int
	offset  int
}

func NewSQLQuery(table, cols string, columns Columns) *SQLQuery {
	return &SQLQuery{table: table, cols: cols, columns: columns, idx: 1}
}

// Apply translates q into WHERE and ORDER BY fragments. defaultOrder is used
// when q has no sort keys.
func (s *SQLQuery) Apply(q Query, defaultOrder string) error {
	if err := q.Validate(s.columns.Allowed()); err != nil {
		return err
	}
	for _, c := range q.Where {
		clause := s.condition(c)
		s.where += " AND " + clause
	}
	for _, g := range q.WhereGroups {
		if clause := s.group(g); clause != "" {
			s.where += " AND " + clause
		}
	}

	var parts []string
	for _, k := range q.OrderBy {
		dir := "ASC"
		if k.Direction == Desc {
			dir = "DESC"
		}
		parts = append(parts, fmt.Sprintf("%s %s NULLS LAST", s.columns[k.Field], dir))
	}
	if len(parts) > 0 {
		s.orderBy = strings.Join(parts, ", ")
	} else {
		s.orderBy = defaultOrder
	}
	s.limit, s.offset = q.Limit, q.Offset
	return nil
}

func (s *SQLQuery) group(g Group) string {
	var subs []string
	for _, sg := range g.SubGroups {
		var conds []string
		for _, c := range sg.Conditions {
			conds = append(conds, s.condition(c))
		}
		if len(conds) > 0 {
			subs = append(subs, "("+strings.Join(conds, " AND ")+")")
		}
	}
	if len(subs) == 0 {
		return ""
	}
	sep := " AND "
	if g.Operator == Or {
		sep = " OR "
	}
	return "(" + strings.Join(subs, sep) + ")"
}

func (s *SQLQuery) condition(c Condition) string {
	col := s.columns[c.Field]
	switch c.Operator {
	case Contains:
		clause := fmt.Sprintf("%s::text ILIKE '%%' || $%d || '%%'", col, s.idx)
		s.push(escapeLike(fmt.Sprint(Normalize(c.Values[0]))))
		return clause
	case GreaterThanOrEqual:
		clause := fmt.Sprintf("%s >= $%d", col, s.idx)
		s.push(sqlValue(c.Values[0]))
		return clause
	case LessThanOrEqual:
		clause := fmt.Sprintf("%s <= $%d", col, s.idx)
		s.push(sqlValue(c.Values[0]))
		return clause
	}
	if len(c.Values) == 0 {
		return col + " IS NULL"
	}
	if len(c.Values) == 1 {
		clause := fmt.Sprintf("%s = $%d", col, s.idx)
		s.push(sqlValue(c.Values[0]))
		return clause
	}
	holders := make([]string, len(c.Values))
	for i, v := range c.Values {
		holders[i] = fmt.Sprintf("$%d", s.idx)
		s.push(sqlValue(v))
	}
	return fmt.Sprintf("%s IN (%s)", col, strings.Join(holders, ", "))
}

func (s *SQLQuery) push(v any) {
	s.args = append(s.args, v)
	s.idx++
}

// sqlValue passes typed values through and parses date strings so they bind
// against timestamp columns.
func sqlValue(v any) any {
	if str, ok := v.(string); ok {
		if t, ok := ParseTime(str); ok {
			return t
		}
	}
	return v
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// Idx returns the next placeholder number.
func (s *SQLQuery) Idx() int { return s.idx }

func (s *SQLQuery) CountSQL() string {
	return fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE 1=1%s", s.table, s.where)
}

func (s *SQLQuery) CountArgs() []any {
	return s.args
}

// DataSQL returns the row query. A zero limit selects every row.
func (s *SQLQuery) DataSQL() string {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE 1=1%s", s.cols, s.table, s.where)
	if s.orderBy != "" {
		sql += " ORDER BY " + s.orderBy
	}
	if s.limit > 0 {
		sql += fmt.Sprintf(" LIMIT $%d OFFSET $%d", s.idx, s.idx+1)
	} else if s.offset > 0 {
		sql += fmt.Sprintf(" OFFSET $%d", s.idx)
	}
	return sql
}

func (s *SQLQuery) DataArgs() []any {
	out := make([]any, len(s.args), len(s.args)+2)
	copy(out, s.args)
	if s.limit > 0 {
		return append(out, s.limit, s.offset)
	}
	if s.offset > 0 {
		return append(out, s.offset)
	}
	return out
}
