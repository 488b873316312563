package store

import (
	"strconv"
	"strings"
	"time"
)

// Matches reports whether e satisfies every Where condition and every
// WhereGroup of q. Unknown fields never match.
func Matches(q Query, e Entity) bool {
	for _, c := range q.Where {
		if !matchCondition(c, e) {
			return false
		}
	}
	for _, g := range q.WhereGroups {
		if !matchGroup(g, e) {
			return false
		}
	}
	return true
}

func matchGroup(g Group, e Entity) bool {
	if len(g.SubGroups) == 0 {
		return true
	}
	for _, sg := range g.SubGroups {
		ok := true
		for _, c := range sg.Conditions {
			if !matchCondition(c, e) {
				ok = false
				break
			}
		}
		if g.Operator == Or && ok {
			return true
		}
		if g.Operator != Or && !ok {
			return false
		}
	}
	return g.Operator != Or
}

func matchCondition(c Condition, e Entity) bool {
	raw, known := e.Field(c.Field)
	if !known {
		return false
	}
	val := Normalize(raw)

	switch c.Operator {
	case ExactMatch:
		if len(c.Values) == 0 {
			return val == nil
		}
		for _, operand := range c.Values {
			if equalValues(val, coerce(val, operand)) {
				return true
			}
		}
		return false
	case Contains:
		if val == nil || len(c.Values) == 0 {
			return false
		}
		needle := strings.ToLower(toString(Normalize(c.Values[0])))
		return strings.Contains(strings.ToLower(toString(val)), needle)
	case GreaterThanOrEqual, LessThanOrEqual:
		if val == nil || len(c.Values) == 0 {
			return false
		}
		cmp, ok := Compare(val, coerce(val, c.Values[0]))
		if !ok {
			return false
		}
		if c.Operator == GreaterThanOrEqual {
			return cmp >= 0
		}
		return cmp <= 0
	}
	return false
}

func equalValues(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ta, ok := a.(time.Time); ok {
		tb, ok := b.(time.Time)
		return ok && ta.Equal(tb)
	}
	cmp, ok := Compare(a, b)
	return ok && cmp == 0
}

func toString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case time.Time:
		return x.Format(time.RFC3339)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	}
	return ""
}
