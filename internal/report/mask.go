package report

import "strings"

// sensitivePatterns names the substrings (case-insensitive, matched against
// a key name) that mark a value for masking in the emitted report, mirroring
// the distillation's ResultCollector default pattern list.
var sensitivePatterns = []string{"password", "pwd", "token", "secret", "key", "auth"}

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, p := range sensitivePatterns {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}

// maskVariables masks entries of a variable map whose key matches a
// sensitive pattern, recursing into nested maps/slices the same way
// maskValue does so an extracted object value can't smuggle a secret field
// past the top-level key check.
func maskVariables(vars map[string]any) map[string]any {
	if vars == nil {
		return nil
	}
	masked := make(map[string]any, len(vars))
	for k, v := range vars {
		if isSensitiveKey(k) {
			masked[k] = "***"
			continue
		}
		masked[k] = maskValue(v)
	}
	return masked
}

// maskValue recursively masks any map/slice structure, used for response
// bodies where a sensitive field may be nested arbitrarily deep.
func maskValue(data any) any {
	switch v := data.(type) {
	case map[string]any:
		masked := make(map[string]any, len(v))
		for k, val := range v {
			if isSensitiveKey(k) {
				masked[k] = "***"
				continue
			}
			masked[k] = maskValue(val)
		}
		return masked
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			out[i] = maskValue(item)
		}
		return out
	default:
		return data
	}
}
