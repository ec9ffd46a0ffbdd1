package data

import "time"

// Compare orders two non-null cell values of the same logical type.
// Returns -1, 0 or 1, and false when the values are not comparable
// (mixed incompatible types, or a type with no defined order).
//
// Integer and float values compare against each other numerically, since
// filter literals arrive through JSON where every number is a float64.
func Compare(a, b interface{}) (int, bool) {
	switch av := a.(type) {
	case int64:
		if bf, ok := AsFloat(b); ok {
			return compareFloat(float64(av), bf), true
		}
	case float64:
		if bf, ok := AsFloat(b); ok {
			return compareFloat(av, bf), true
		}
	case string:
		if bv, ok := b.(string); ok {
			switch {
			case av < bv:
				return -1, true
			case av > bv:
				return 1, true
			}
			return 0, true
		}
	case bool:
		if bv, ok := b.(bool); ok {
			// false orders before true
			switch {
			case !av && bv:
				return -1, true
			case av && !bv:
				return 1, true
			}
			return 0, true
		}
	case time.Time:
		if bv, ok := b.(time.Time); ok {
			switch {
			case av.Before(bv):
				return -1, true
			case av.After(bv):
				return 1, true
			}
			return 0, true
		}
	}
	return 0, false
}

// Equal reports whether two non-null cell values are equal under Compare.
func Equal(a, b interface{}) bool {
	cmp, ok := Compare(a, b)
	return ok && cmp == 0
}

// AsFloat converts a numeric cell value to float64.
func AsFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// AsInt converts a cell value to int64 when it carries a whole number.
func AsInt(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case float64:
		if n == float64(int64(n)) {
			return int64(n), true
		}
	}
	return 0, false
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
