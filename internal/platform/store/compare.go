package store

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DateLayouts are the layouts accepted when a string is compared with a
// time-valued field.
var DateLayouts = []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"}

// ParseTime parses s using DateLayouts.
func ParseTime(s string) (time.Time, bool) {
	for _, layout := range DateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// Normalize reduces a field value to one of nil, string, float64, bool or
// time.Time so values of different Go types can be compared.
func Normalize(v any) any {
	switch x := v.(type) {
	case nil:
		return nil
	case string:
		return x
	case *string:
		if x == nil {
			return nil
		}
		return *x
	case time.Time:
		if x.IsZero() {
			return nil
		}
		return x
	case *time.Time:
		if x == nil || x.IsZero() {
			return nil
		}
		return *x
	case uuid.UUID:
		if x == uuid.Nil {
			return nil
		}
		return x.String()
	case *uuid.UUID:
		if x == nil || *x == uuid.Nil {
			return nil
		}
		return x.String()
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case *int:
		if x == nil {
			return nil
		}
		return float64(*x)
	case float32:
		return float64(x)
	case float64:
		return x
	case bool:
		return x
	case *bool:
		if x == nil {
			return nil
		}
		return *x
	case []string:
		return strings.Join(x, ", ")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

// coerce converts a query operand to the normalized type of the field value
// it is compared against.
func coerce(field, operand any) any {
	op := Normalize(operand)
	s, isString := op.(string)
	if !isString {
		return op
	}
	switch field.(type) {
	case time.Time:
		if t, ok := ParseTime(s); ok {
			return t
		}
	case float64:
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f
		}
	case bool:
		if b, err := strconv.ParseBool(s); err == nil {
			return b
		}
	}
	return op
}

// Compare orders two normalized values of the same kind. ok is false when
// the values cannot be ordered against each other.
func Compare(a, b any) (cmp int, ok bool) {
	switch x := a.(type) {
	case string:
		y, isStr := b.(string)
		if !isStr {
			return 0, false
		}
		return strings.Compare(x, y), true
	case float64:
		y, isNum := b.(float64)
		if !isNum {
			return 0, false
		}
		switch {
		case x < y:
			return -1, true
		case x > y:
			return 1, true
		}
		return 0, true
	case time.Time:
		y, isTime := b.(time.Time)
		if !isTime {
			return 0, false
		}
		return x.Compare(y), true
	case bool:
		y, isBool := b.(bool)
		if !isBool {
			return 0, false
		}
		switch {
		case x == y:
			return 0, true
		case !x:
			return -1, true
		}
		return 1, true
	}
	return 0, false
}
