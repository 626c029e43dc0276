// Package template implements the `{{expr}}` renderer (spec §4.1): a
// single-pass, non-recursive expander over expr-lang/expr, plus the shared
// truthy-token helper reused by every step-control check (skip_if/only_if,
// wait conditions, loop while-conditions).
package template

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/expr-lang/expr"

	streamyerrors "github.com/alexisbeaulieu97/streamy/pkg/errors"
)

var exprPattern = regexp.MustCompile(`\{\{(.*?)\}\}`)

// Render replaces every `{{expression}}` occurrence in s with the result of
// compiling and running that expression against vars. Non-string leaves
// pass through render_dict unchanged; plain strings with no `{{` are
// returned as-is (template idempotence). Expansion is single-pass: if the
// substituted value itself contains `{{...}}`, it is not re-rendered.
func Render(s string, vars map[string]any) (string, error) {
	if !strings.Contains(s, "{{") {
		return s, nil
	}

	var firstErr error
	result := exprPattern.ReplaceAllStringFunc(s, func(match string) string {
		if firstErr != nil {
			return match
		}
		body := strings.TrimSpace(match[2 : len(match)-2])
		value, err := Eval(body, vars)
		if err != nil {
			firstErr = streamyerrors.NewTemplateError(body, err)
			return match
		}
		return stringify(value)
	})
	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Eval compiles and runs a single expression body (without the surrounding
// `{{ }}`) against vars. Unknown identifiers resolve to nil rather than a
// compile error, per spec §4.1.
func Eval(body string, vars map[string]any) (any, error) {
	program, err := expr.Compile(body, expr.Env(vars), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	return expr.Run(program, vars)
}

func stringify(v any) string {
	if v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

// RenderDict walks a nested map/sequence, rendering every leaf string via
// Render. Non-string leaves (numbers, bools, nil) are returned unchanged.
// Recursion follows the value's own shape, so depth is bounded by the input.
func RenderDict(value any, vars map[string]any) (any, error) {
	switch v := value.(type) {
	case string:
		return Render(v, vars)
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, item := range v {
			rendered, err := RenderDict(item, vars)
			if err != nil {
				return nil, err
			}
			out[k] = rendered
		}
		return out, nil
	case []any:
		out := make([]any, len(v))
		for i, item := range v {
			rendered, err := RenderDict(item, vars)
			if err != nil {
				return nil, err
			}
			out[i] = rendered
		}
		return out, nil
	default:
		return v, nil
	}
}

// truthyTokens is the shared truthy-token set (spec §4.7.3), generalised to
// every conditional step control (skip_if/only_if/loop while/wait
// condition) rather than kept wait-specific.
var truthyTokens = map[string]bool{
	"true":    true,
	"1":       true,
	"yes":     true,
	"y":       true,
	"ok":      true,
	"success": true,
}

// IsTruthy renders condition against vars and reports whether the result is
// one of the shared truthy tokens (case-insensitive).
func IsTruthy(condition string, vars map[string]any) (bool, error) {
	rendered, err := Render(condition, vars)
	if err != nil {
		return false, err
	}
	return truthyTokens[strings.ToLower(strings.TrimSpace(rendered))], nil
}
