// Package comparator implements the closed catalogue of two-argument
// comparison predicates used by the validation engine (spec §4.3), grounded
// on apisix/validation/comparators.py's Comparators class.
package comparator

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	streamyerrors "github.com/alexisbeaulieu97/streamy/pkg/errors"
)

// Func is a named two-argument predicate: (actual, expected) -> bool.
type Func func(actual, expected any) (bool, error)

var registry = map[string]Func{
	"eq":           eq,
	"ne":           ne,
	"gt":           gt,
	"lt":           lt,
	"ge":           ge,
	"le":           le,
	"contains":     contains,
	"not_contains": notContains,
	"regex":        matchRegex,
	"type":         matchType,
	"in":           inList,
	"not_in":       notInList,
	"length_eq":    lengthEq,
	"length_gt":    lengthGt,
	"length_lt":    lengthLt,
	"is_empty":     isEmpty,
	"is_null":      isNull,
	"exists":       exists,
	"status_code":  statusCode,
	"between":      between,
}

// Get looks up a comparator by name. Unknown names raise ComparatorError.
func Get(name string) (Func, error) {
	fn, ok := registry[name]
	if !ok {
		return nil, streamyerrors.NewComparatorError(name, "unknown comparator")
	}
	return fn, nil
}

// IsKnown reports whether name is a registered comparator (used by config
// validation to reject unknown ValidationRule.Type values at parse time).
func IsKnown(name string) bool {
	_, ok := registry[name]
	return ok
}

func eq(actual, expected any) (bool, error) {
	return deepEqual(actual, expected), nil
}

func ne(actual, expected any) (bool, error) {
	return !deepEqual(actual, expected), nil
}

func gt(actual, expected any) (bool, error) {
	a, e, err := bothFloat("gt", actual, expected)
	if err != nil {
		return false, err
	}
	return a > e, nil
}

func lt(actual, expected any) (bool, error) {
	a, e, err := bothFloat("lt", actual, expected)
	if err != nil {
		return false, err
	}
	return a < e, nil
}

func ge(actual, expected any) (bool, error) {
	a, e, err := bothFloat("ge", actual, expected)
	if err != nil {
		return false, err
	}
	return a >= e, nil
}

func le(actual, expected any) (bool, error) {
	a, e, err := bothFloat("le", actual, expected)
	if err != nil {
		return false, err
	}
	return a <= e, nil
}

func contains(actual, expected any) (bool, error) {
	switch v := actual.(type) {
	case string:
		s, ok := expected.(string)
		if !ok {
			return false, nil
		}
		return strings.Contains(v, s), nil
	case []any:
		for _, item := range v {
			if deepEqual(item, expected) {
				return true, nil
			}
		}
		return false, nil
	case map[string]any:
		key, ok := expected.(string)
		if !ok {
			return false, nil
		}
		_, exists := v[key]
		return exists, nil
	default:
		return false, nil
	}
}

func notContains(actual, expected any) (bool, error) {
	ok, err := contains(actual, expected)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func matchRegex(actual, expected any) (bool, error) {
	s, ok := actual.(string)
	if !ok {
		return false, nil
	}
	pattern, ok := expected.(string)
	if !ok {
		return false, streamyerrors.NewComparatorError("regex", "expected must be a string pattern")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false, streamyerrors.NewComparatorError("regex", fmt.Sprintf("invalid regex pattern: %v", err))
	}
	return re.MatchString(s), nil
}

func matchType(actual, expected any) (bool, error) {
	name, ok := expected.(string)
	if !ok {
		return false, nil
	}
	switch name {
	case "str":
		_, ok := actual.(string)
		return ok, nil
	case "int":
		switch actual.(type) {
		case int, int32, int64:
			return true, nil
		case float64:
			f := actual.(float64)
			return f == float64(int64(f)), nil
		default:
			return false, nil
		}
	case "float":
		_, ok := actual.(float64)
		return ok, nil
	case "bool":
		_, ok := actual.(bool)
		return ok, nil
	case "list":
		_, ok := actual.([]any)
		return ok, nil
	case "dict":
		_, ok := actual.(map[string]any)
		return ok, nil
	case "null":
		return actual == nil, nil
	default:
		return false, nil
	}
}

func inList(actual, expected any) (bool, error) {
	list, ok := expected.([]any)
	if !ok {
		return false, nil
	}
	for _, item := range list {
		if deepEqual(item, actual) {
			return true, nil
		}
	}
	return false, nil
}

func notInList(actual, expected any) (bool, error) {
	ok, err := inList(actual, expected)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func lengthEq(actual, expected any) (bool, error) {
	n, ok := lengthOf(actual)
	if !ok {
		return false, nil
	}
	exp, err := toInt(expected)
	if err != nil {
		return false, nil
	}
	return n == exp, nil
}

func lengthGt(actual, expected any) (bool, error) {
	n, ok := lengthOf(actual)
	if !ok {
		return false, nil
	}
	exp, err := toInt(expected)
	if err != nil {
		return false, nil
	}
	return n > exp, nil
}

func lengthLt(actual, expected any) (bool, error) {
	n, ok := lengthOf(actual)
	if !ok {
		return false, nil
	}
	exp, err := toInt(expected)
	if err != nil {
		return false, nil
	}
	return n < exp, nil
}

func isEmpty(actual, _ any) (bool, error) {
	if actual == nil {
		return true, nil
	}
	n, ok := lengthOf(actual)
	if !ok {
		return false, nil
	}
	return n == 0, nil
}

func isNull(actual, _ any) (bool, error) {
	return actual == nil, nil
}

func exists(actual, _ any) (bool, error) {
	if actual == nil {
		return false, nil
	}
	if n, ok := lengthOf(actual); ok {
		return n > 0, nil
	}
	return true, nil
}

func statusCode(actual, expected any) (bool, error) {
	actualCode, err := toInt(actual)
	if err != nil {
		return false, nil
	}
	expectedStr := strings.ToLower(fmt.Sprintf("%v", expected))

	if strings.Contains(expectedStr, "xx") {
		prefix := strings.ReplaceAll(expectedStr, "xx", "")
		actualPrefix := strconv.Itoa(actualCode)[:1]
		return prefix == actualPrefix, nil
	}

	expectedCode, err := toInt(expected)
	if err != nil {
		return false, nil
	}
	return actualCode == expectedCode, nil
}

func between(actual, expected any) (bool, error) {
	bounds, ok := expected.([]any)
	if !ok || len(bounds) != 2 {
		return false, streamyerrors.NewComparatorError("between", "expected must be a [min, max] pair")
	}
	a, err := toFloat(actual)
	if err != nil {
		return false, streamyerrors.NewComparatorError("between", fmt.Sprintf("cannot compare values: %v", err))
	}
	min, err := toFloat(bounds[0])
	if err != nil {
		return false, streamyerrors.NewComparatorError("between", fmt.Sprintf("cannot compare values: %v", err))
	}
	max, err := toFloat(bounds[1])
	if err != nil {
		return false, streamyerrors.NewComparatorError("between", fmt.Sprintf("cannot compare values: %v", err))
	}
	return a >= min && a <= max, nil
}
