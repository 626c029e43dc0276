package config

import (
	"fmt"
	"strings"

	streamyerrors "github.com/alexisbeaulieu97/streamy/pkg/errors"
)

// ValidateConfig performs structural and cross-field validation on an entire
// test case (spec §3 invariants, §4.6).
func ValidateConfig(tc *TestCase) error {
	if tc == nil {
		return streamyerrors.NewValidationError("test_case", "test case is nil", nil)
	}

	v := validatorInstance()
	if err := v.Struct(tc); err != nil {
		return convertValidationError(err)
	}

	stepIndex := make(map[string]int, len(tc.Steps))

	for i, step := range tc.Steps {
		if _, exists := stepIndex[step.Name]; exists {
			return streamyerrors.NewValidationError(fieldForStep(i, "name"), fmt.Sprintf("duplicate step name %q", step.Name), nil)
		}

		if err := ValidateStep(step); err != nil {
			return err
		}

		stepIndex[step.Name] = i
	}

	for i, step := range tc.Steps {
		for _, dep := range step.DependsOn {
			index, ok := stepIndex[dep]
			if !ok {
				return streamyerrors.NewValidationError(fieldForStep(i, "depends_on"), fmt.Sprintf("references unknown step %q", dep), nil)
			}
			if index >= i {
				return streamyerrors.NewValidationError(fieldForStep(i, "depends_on"), fmt.Sprintf("depends_on %q must reference an earlier step", dep), nil)
			}
		}
	}

	if cycle := detectCycle(tc.Steps); len(cycle) > 0 {
		return streamyerrors.NewValidationError("steps", fmt.Sprintf("dependency cycle detected: %s", strings.Join(cycle, " -> ")), nil)
	}

	if tc.Config.ActiveProfile != "" {
		if _, ok := tc.Config.Profiles[tc.Config.ActiveProfile]; !ok {
			return streamyerrors.NewValidationError("config.active_profile", fmt.Sprintf("active_profile %q is not a key of profiles", tc.Config.ActiveProfile), nil)
		}
	}

	for _, hook := range tc.Setup {
		if err := ValidateStep(hook); err != nil {
			return err
		}
	}
	for _, hook := range tc.Teardown {
		if err := ValidateStep(hook); err != nil {
			return err
		}
	}

	return nil
}
