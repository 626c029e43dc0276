package comparator

import (
	"fmt"
	"reflect"
	"strconv"

	streamyerrors "github.com/alexisbeaulieu97/streamy/pkg/errors"
)

func deepEqual(a, b any) bool {
	af, aIsNum := numericValue(a)
	bf, bIsNum := numericValue(b)
	if aIsNum && bIsNum {
		return af == bf
	}
	return reflect.DeepEqual(a, b)
}

// numericValue reports whether v is a Go numeric kind (not a numeric
// string) and its float64 value, so JSON-decoded ints/floats compare equal
// regardless of which concrete type the decoder chose.
func numericValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	default:
		return 0, false
	}
}

func bothFloat(name string, actual, expected any) (float64, float64, error) {
	a, err := toFloat(actual)
	if err != nil {
		return 0, 0, streamyerrors.NewComparatorError(name, fmt.Sprintf("cannot compare values: %v", err))
	}
	e, err := toFloat(expected)
	if err != nil {
		return 0, 0, streamyerrors.NewComparatorError(name, fmt.Sprintf("cannot compare values: %v", err))
	}
	return a, e, nil
}

func toFloat(v any) (float64, error) {
	f, ok := toFloatQuiet(v)
	if !ok {
		return 0, fmt.Errorf("value %v is not numeric", v)
	}
	return f, nil
}

func toFloatQuiet(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

func toInt(v any) (int, error) {
	switch n := v.(type) {
	case int:
		return n, nil
	case int32:
		return int(n), nil
	case int64:
		return int(n), nil
	case float64:
		return int(n), nil
	case string:
		i, err := strconv.Atoi(n)
		if err != nil {
			return 0, err
		}
		return i, nil
	default:
		return 0, fmt.Errorf("value %v is not an integer", v)
	}
}

func lengthOf(v any) (int, bool) {
	switch t := v.(type) {
	case string:
		return len(t), true
	case []any:
		return len(t), true
	case map[string]any:
		return len(t), true
	default:
		rv := reflect.ValueOf(v)
		switch rv.Kind() {
		case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
			return rv.Len(), true
		default:
			return 0, false
		}
	}
}
