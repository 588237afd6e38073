package leads

import (
	"encoding/json"
	"math/big"
	"reflect"
	"strconv"
)

// Equal reports whether two field values are the same. Comparison is
// type-strict: the string "1" never equals the number 1. Numbers compare by
// numeric value, so 1 and 1.0 are equal. Nested leads compare field by field
// regardless of key order.
func Equal(a, b any) bool {
	switch av := a.(type) {
	case nil:
		return b == nil
	case string:
		bv, ok := b.(string)
		return ok && av == bv
	case bool:
		bv, ok := b.(bool)
		return ok && av == bv
	case json.Number:
		bv, ok := b.(json.Number)
		return ok && numbersEqual(av, bv)
	case Lead:
		bv, ok := b.(Lead)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for _, k := range av.keys {
			other, present := bv.values[k]
			if !present || !Equal(av.values[k], other) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return reflect.DeepEqual(a, b)
	}
}

// KeyEqual reports whether two identity-key values identify the same entity.
// Absent or null keys never match anything, including each other.
func KeyEqual(a any, aok bool, b any, bok bool) bool {
	if !aok || !bok || a == nil || b == nil {
		return false
	}
	return Equal(a, b)
}

func numbersEqual(a, b json.Number) bool {
	if a == b {
		return true
	}
	af, _, errA := big.ParseFloat(string(a), 10, 256, big.ToNearestEven)
	bf, _, errB := big.ParseFloat(string(b), 10, 256, big.ToNearestEven)
	if errA != nil || errB != nil {
		return false
	}
	return af.Cmp(bf) == 0
}

// FormatValue renders a field value for human-readable output. Strings are
// written as-is; other values use their JSON form.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "null"
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		b, err := marshalJSONValue(v)
		if err != nil {
			return reflect.ValueOf(v).String()
		}
		return string(b)
	}
}
