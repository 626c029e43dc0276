// Package validation implements the validation engine (spec §4.5): running
// a ValidationRule list against a response envelope without
// short-circuiting, so the report is always complete.
package validation

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"

	"github.com/alexisbeaulieu97/streamy/internal/comparator"
	"github.com/alexisbeaulieu97/streamy/internal/config"
	"github.com/alexisbeaulieu97/streamy/internal/model"
)

// Validate runs every rule against envelope and returns one ValidationResult
// per rule, in order. No rule's failure stops evaluation of the rest.
func Validate(rules []config.ValidationRule, envelope map[string]any) []model.ValidationResult {
	results := make([]model.ValidationResult, 0, len(rules))
	for _, rule := range rules {
		results = append(results, validateOne(rule, envelope))
	}
	return results
}

func validateOne(rule config.ValidationRule, envelope map[string]any) model.ValidationResult {
	actual, err := resolvePath(rule.Type, rule.Path, envelope)
	if err != nil {
		return model.ValidationResult{
			Passed:      false,
			Type:        rule.Type,
			Path:        rule.Path,
			Expected:    rule.Expect,
			Description: rule.Description,
			Error:       err.Error(),
		}
	}

	cmp, err := comparator.Get(rule.Type)
	if err != nil {
		return model.ValidationResult{
			Passed:      false,
			Type:        rule.Type,
			Path:        rule.Path,
			Actual:      actual,
			Expected:    rule.Expect,
			Description: rule.Description,
			Error:       err.Error(),
		}
	}

	passed, err := cmp(actual, rule.Expect)
	if err != nil {
		return model.ValidationResult{
			Passed:      false,
			Type:        rule.Type,
			Path:        rule.Path,
			Actual:      actual,
			Expected:    rule.Expect,
			Description: rule.Description,
			Error:       err.Error(),
		}
	}

	result := model.ValidationResult{
		Passed:      passed,
		Type:        rule.Type,
		Path:        rule.Path,
		Actual:      actual,
		Expected:    rule.Expect,
		Description: rule.Description,
	}
	if !passed {
		result.Error = comparator.DescribeFailure(rule.Type, rule.Path, actual, rule.Expect)
	}
	return result
}

// resolvePath resolves rule.Path against envelope. The special path "$"
// returns the whole envelope; "status_code" rules always evaluate against
// the full envelope (so "$.status_code" is meaningful) rather than the
// body, per spec §4.5 step 2.
func resolvePath(ruleType, path string, envelope map[string]any) (any, error) {
	if path == "$" {
		return envelope, nil
	}

	target := envelope
	if ruleType != "status_code" {
		if body, ok := envelope["body"]; ok {
			if bodyMap, ok := body.(map[string]any); ok {
				target = bodyMap
			} else if path == "$.body" || path == "body" {
				return body, nil
			}
		}
	}

	encoded, err := json.Marshal(target)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %q: %w", path, err)
	}

	trimmed := path
	if trimmed == "$" {
		return target, nil
	}
	result := gjson.Get(string(encoded), normalizeGJSONPath(trimmed))
	if !result.Exists() {
		return nil, nil
	}
	return result.Value(), nil
}

func normalizeGJSONPath(path string) string {
	if len(path) >= 2 && path[0] == '$' && path[1] == '.' {
		return path[2:]
	}
	if len(path) >= 1 && path[0] == '$' {
		return path[1:]
	}
	return path
}
