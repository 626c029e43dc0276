// Package loop implements the loop step runner (spec §4.7.4): a "for"
// count-bound iteration or a "while" condition-bound iteration over a
// nested step sequence, each iteration scoped so its bindings don't leak
// past the loop.
package loop

import (
	"context"
	"fmt"

	"github.com/alexisbeaulieu97/streamy/internal/config"
	"github.com/alexisbeaulieu97/streamy/internal/model"
	"github.com/alexisbeaulieu97/streamy/internal/plugin"
	"github.com/alexisbeaulieu97/streamy/internal/template"
	"github.com/alexisbeaulieu97/streamy/internal/variables"
	streamyerrors "github.com/alexisbeaulieu97/streamy/pkg/errors"
)

// maxWhileIterations bounds "while" loops lacking a loop_count, guarding
// against a condition that never turns falsy.
const maxWhileIterations = 1000

// Runner iterates a nested step sequence, binding loop_variable and
// delegating each nested step to the injected StepRunner so retries,
// validation, and extraction all run through the same lifecycle as a
// top-level step.
type Runner struct{}

func New() *Runner { return &Runner{} }

func (r *Runner) Type() string { return "loop" }

func (r *Runner) Run(ctx context.Context, step config.Step, vars *variables.Manager, runStep plugin.StepRunner) (map[string]any, error) {
	l := step.Loop
	if l == nil {
		return nil, streamyerrors.NewExecutionError(step.Name, fmt.Errorf("loop step has no loop configuration"))
	}
	if runStep == nil {
		return nil, streamyerrors.NewExecutionError(step.Name, fmt.Errorf("loop step requires a step runner"))
	}

	var iterationResults [][]model.StepResult
	var iterations, successCount, failureCount int

	switch l.LoopType {
	case "for":
		iterations = *l.LoopCount
		for i := 0; i < iterations; i++ {
			results := runIteration(ctx, l, vars, runStep, i)
			iterationResults = append(iterationResults, results)
			if iterationFailed(results) {
				failureCount++
			} else {
				successCount++
			}
		}
	case "while":
		for i := 0; i < maxWhileIterations; i++ {
			truthy, err := template.IsTruthy(l.LoopCondition, vars.All())
			if err != nil {
				return nil, err
			}
			if !truthy {
				break
			}
			results := runIteration(ctx, l, vars, runStep, i)
			iterationResults = append(iterationResults, results)
			if iterationFailed(results) {
				failureCount++
			} else {
				successCount++
			}
			iterations = i + 1
		}
	default:
		return nil, streamyerrors.NewExecutionError(step.Name, fmt.Errorf("unsupported loop_type %q", l.LoopType))
	}

	return map[string]any{
		"loop_count":    iterations,
		"success_count": successCount,
		"failure_count": failureCount,
		"iterations":    iterationResults,
	}, nil
}

// iterationFailed reports whether any nested step in an iteration did not
// succeed, for the loop's success_count/failure_count tally.
func iterationFailed(results []model.StepResult) bool {
	for _, result := range results {
		if result.Status == model.StatusFailure || result.Status == model.StatusError {
			return true
		}
	}
	return false
}

// runIteration scopes loop_variable and the nested steps' extracted
// bindings to this iteration via Guard, then reverts on exit so the next
// iteration (or the steps following the loop) don't see stale bindings. A
// failing nested step does not abort the iteration or the loop: every
// nested step still runs, per the loop's continue-on-failure policy.
func runIteration(ctx context.Context, l *config.LoopStep, vars *variables.Manager, runStep plugin.StepRunner, index int) []model.StepResult {
	revert := vars.Guard()
	defer revert()

	if l.LoopVariable != "" {
		vars.Set(l.LoopVariable, index)
	}

	results := make([]model.StepResult, 0, len(l.LoopSteps))
	for _, nested := range l.LoopSteps {
		results = append(results, runStep(ctx, nested, vars))
	}
	return results
}
