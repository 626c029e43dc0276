package engine

import (
	"context"

	"github.com/alexisbeaulieu97/streamy/internal/config"
	"github.com/alexisbeaulieu97/streamy/internal/logger"
	"github.com/alexisbeaulieu97/streamy/internal/model"
)

// Options configures a single test-case run (spec §4.8).
type Options struct {
	ProfileName string
	// FailFast stops the run at the first failed/errored top-level step
	// instead of continuing and gating only that step's dependents.
	FailFast bool
}

// RunTestCase executes every top-level step of tc in order, applying
// continue-on-failure semantics by default, and returns the ordered
// results that report.Collect aggregates into a TestCaseResult.
func RunTestCase(ctx context.Context, tc config.TestCase, log *logger.Logger) []model.StepResult {
	return RunTestCaseWithOptions(ctx, tc, log, Options{})
}

// RunTestCaseWithOptions is RunTestCase with explicit Options.
func RunTestCaseWithOptions(ctx context.Context, tc config.TestCase, log *logger.Logger, opts Options) []model.StepResult {
	execCtx := NewExecutionContext(tc.Config, opts.ProfileName, log)

	runCaseHooks(ctx, tc.Setup, "case setup", execCtx)

	results := make([]model.StepResult, 0, len(tc.Steps))
	aborted := false

	for _, step := range tc.Steps {
		if aborted {
			result := model.StepResult{Name: step.Name, Status: model.StatusSkipped}
			execCtx.Results[step.Name] = result
			results = append(results, result)
			continue
		}

		result := RunStep(ctx, step, execCtx.Vars, execCtx)
		results = append(results, result)

		if result.Status == model.StatusFailure || result.Status == model.StatusError {
			if opts.FailFast {
				aborted = true
			}
		}
	}

	runCaseHooks(ctx, tc.Teardown, "case teardown", execCtx)

	return results
}

// runCaseHooks runs the case-level setup/teardown list through the ordinary
// step lifecycle (spec §4.8 steps 1 and 4). Like step-level hooks, failures
// are logged only — they never gate the case's own status.
func runCaseHooks(ctx context.Context, hooks []config.Step, label string, execCtx *ExecutionContext) {
	for _, hook := range hooks {
		result := RunStep(ctx, hook, execCtx.Vars, execCtx)
		if result.Status == model.StatusFailure || result.Status == model.StatusError {
			msg := label + " step failed"
			if result.ErrorInfo != nil {
				msg = result.ErrorInfo.Message
			}
			execCtx.Log.WithFields(map[string]any{"hook": hook.Name}).Warn(msg)
		}
	}
}
