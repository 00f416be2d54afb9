package internal

import (
	"math"
	"reflect"
)

// SameValue reports whether a and b are the same value.
// Values of different or non-comparable types are never the same.
func SameValue(a, b any) (same bool) {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	ta := reflect.TypeOf(a)
	if ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}

	// comparable structs and arrays may still hold non-comparable interface values
	defer func() {
		if recover() != nil {
			same = false
		}
	}()

	return a == b
}

// Unchanged is what setters use to skip notifying: like SameValue, but NaN equals NaN.
func Unchanged(oldValue, newValue any) bool {
	if SameValue(oldValue, newValue) {
		return true
	}

	return isNaN(oldValue) && isNaN(newValue)
}

// IsComposite reports whether v is a value whose content can change
// without the value itself comparing different.
func IsComposite(v any) bool {
	if v == nil {
		return false
	}

	switch reflect.TypeOf(v).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Pointer:
		return true
	default:
		return false
	}
}

func isNaN(v any) bool {
	switch f := v.(type) {
	case float64:
		return math.IsNaN(f)
	case float32:
		return math.IsNaN(float64(f))
	default:
		return false
	}
}
