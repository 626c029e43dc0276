package config

import (
	"fmt"

	"github.com/alexisbeaulieu97/streamy/internal/comparator"
	streamyerrors "github.com/alexisbeaulieu97/streamy/pkg/errors"
)

// ValidateStep inspects a single step for structural correctness independent
// of its siblings, recursing into nested step sequences (setup/teardown,
// loop_steps, concurrent steps).
func ValidateStep(step Step) error {
	v := validatorInstance()
	if err := v.Struct(step); err != nil {
		return convertValidationError(err)
	}

	switch step.Type {
	case "request":
		if step.Request == nil {
			return streamyerrors.NewValidationError(step.Name, "request configuration is required", nil)
		}
		if err := v.Struct(step.Request); err != nil {
			return convertValidationError(err)
		}
	case "database":
		if step.Database == nil {
			return streamyerrors.NewValidationError(step.Name, "database configuration is required", nil)
		}
		if err := v.Struct(step.Database); err != nil {
			return convertValidationError(err)
		}
	case "wait":
		if err := validateWaitStep(step); err != nil {
			return err
		}
	case "loop":
		if err := validateLoopStep(step); err != nil {
			return err
		}
	case "concurrent":
		if step.Concurrent == nil {
			return streamyerrors.NewValidationError(step.Name, "concurrent configuration is required", nil)
		}
		if err := v.Struct(step.Concurrent); err != nil {
			return convertValidationError(err)
		}
		for _, nested := range step.Concurrent.Steps {
			if err := ValidateStep(nested); err != nil {
				return err
			}
		}
	case "script":
		if step.Script == nil {
			return streamyerrors.NewValidationError(step.Name, "script configuration is required", nil)
		}
		if err := v.Struct(step.Script); err != nil {
			return convertValidationError(err)
		}
		if err := validateScriptStep(step); err != nil {
			return err
		}
	default:
		return streamyerrors.NewValidationError(step.Name, fmt.Sprintf("unknown step type %q", step.Type), nil)
	}

	for i, rule := range step.Validations {
		if !comparator.IsKnown(rule.Type) {
			return streamyerrors.NewValidationError(
				fieldForValidation(0, i, "type"),
				fmt.Sprintf("step %q: unknown comparator %q", step.Name, rule.Type),
				nil,
			)
		}
	}

	for i, extractor := range step.Extractors {
		if extractor.Index < 0 {
			return streamyerrors.NewValidationError(
				fieldForExtractor(0, i, "index"),
				fmt.Sprintf("step %q: extractor index must be non-negative", step.Name),
				nil,
			)
		}
	}

	for _, hook := range step.Setup {
		if err := ValidateStep(hook); err != nil {
			return err
		}
	}
	for _, hook := range step.Teardown {
		if err := ValidateStep(hook); err != nil {
			return err
		}
	}

	return nil
}

// validateWaitStep enforces the seconds XOR condition invariant (spec §3/§4.7.3).
func validateWaitStep(step Step) error {
	w := step.Wait
	if w == nil {
		return streamyerrors.NewValidationError(step.Name, "wait configuration is required", nil)
	}

	if w.SecondsSet == w.ConditionSet {
		return streamyerrors.NewValidationError(step.Name, "wait step requires exactly one of seconds or condition", nil)
	}

	if w.SecondsSet {
		if *w.Seconds < 0 {
			return streamyerrors.NewValidationError(step.Name, "wait.seconds must not be negative", nil)
		}
		return nil
	}

	if w.Interval <= 0 {
		return streamyerrors.NewValidationError(step.Name, "wait.interval must be positive for a conditional wait", nil)
	}
	if w.MaxWait <= 0 {
		return streamyerrors.NewValidationError(step.Name, "wait.max_wait must be positive for a conditional wait", nil)
	}
	if step.Timeout > 0 && w.MaxWait > float64(step.Timeout) {
		return streamyerrors.NewValidationError(step.Name, "wait.max_wait must not exceed the step timeout", nil)
	}

	return nil
}

// validateLoopStep enforces the loop_count/loop_condition XOR invariant tied
// to loop_type (spec §3/§4.7.4) and recurses into loop_steps.
func validateLoopStep(step Step) error {
	l := step.Loop
	if l == nil {
		return streamyerrors.NewValidationError(step.Name, "loop configuration is required", nil)
	}

	switch l.LoopType {
	case "for":
		if !l.LoopCountSet || l.LoopCount == nil {
			return streamyerrors.NewValidationError(step.Name, "loop_type 'for' requires loop_count", nil)
		}
		if l.LoopConditionSet {
			return streamyerrors.NewValidationError(step.Name, "loop_type 'for' must not set loop_condition", nil)
		}
		if *l.LoopCount < 0 {
			return streamyerrors.NewValidationError(step.Name, "loop_count must not be negative", nil)
		}
	case "while":
		if !l.LoopConditionSet {
			return streamyerrors.NewValidationError(step.Name, "loop_type 'while' requires loop_condition", nil)
		}
		if l.LoopCountSet {
			return streamyerrors.NewValidationError(step.Name, "loop_type 'while' must not set loop_count", nil)
		}
	}

	for _, nested := range l.LoopSteps {
		if err := ValidateStep(nested); err != nil {
			return err
		}
	}

	return nil
}

// validateScriptStep enforces §4.7.6's closed-language contract: only the
// `expr` language is registered, so allow_imports — meaningless for expr —
// is rejected outright for any other language tag rather than silently
// ignored.
func validateScriptStep(step Step) error {
	s := step.Script
	if s.Language != "expr" {
		return streamyerrors.NewValidationError(step.Name, fmt.Sprintf("unsupported script language %q", s.Language), nil)
	}
	return nil
}
