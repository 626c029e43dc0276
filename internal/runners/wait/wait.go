// Package wait implements the wait step runner (spec §4.7.3): either a
// fixed sleep or a condition polled at an interval until truthy or
// max_wait elapses.
package wait

import (
	"context"
	"fmt"
	"time"

	"github.com/alexisbeaulieu97/streamy/internal/config"
	"github.com/alexisbeaulieu97/streamy/internal/plugin"
	"github.com/alexisbeaulieu97/streamy/internal/template"
	"github.com/alexisbeaulieu97/streamy/internal/variables"
	streamyerrors "github.com/alexisbeaulieu97/streamy/pkg/errors"
)

// Runner performs a fixed sleep or a conditional poll.
type Runner struct{}

func New() *Runner { return &Runner{} }

func (r *Runner) Type() string { return "wait" }

func (r *Runner) Run(ctx context.Context, step config.Step, vars *variables.Manager, _ plugin.StepRunner) (map[string]any, error) {
	w := step.Wait
	if w == nil {
		return nil, streamyerrors.NewExecutionError(step.Name, fmt.Errorf("wait step has no wait configuration"))
	}

	if w.SecondsSet {
		return runFixed(ctx, step.Name, *w.Seconds)
	}
	return runConditional(ctx, step.Name, w, vars)
}

func runFixed(ctx context.Context, stepName string, seconds float64) (map[string]any, error) {
	if seconds < 0 {
		return nil, streamyerrors.NewExecutionError(stepName, fmt.Errorf("wait.seconds must not be negative"))
	}

	start := time.Now()

	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return nil, streamyerrors.NewTimeoutError(stepName, "context deadline exceeded during fixed wait")
	case <-timer.C:
	}

	return map[string]any{
		"wait_type":           "fixed",
		"wait_seconds":        seconds,
		"actual_wait_seconds": time.Since(start).Seconds(),
	}, nil
}

func runConditional(ctx context.Context, stepName string, w *config.WaitStep, vars *variables.Manager) (map[string]any, error) {
	interval := w.Interval
	if interval <= 0 {
		interval = 0.1
	}

	start := time.Now()
	deadline := start.Add(time.Duration(w.MaxWait * float64(time.Second)))
	ticker := time.NewTicker(time.Duration(interval * float64(time.Second)))
	defer ticker.Stop()

	pollCount := 0
	for {
		truthy, err := template.IsTruthy(w.Condition, vars.All())
		if err != nil {
			return nil, err
		}
		pollCount++
		if truthy {
			return map[string]any{
				"wait_type":       "conditional",
				"condition":       w.Condition,
				"result":          true,
				"elapsed_seconds": time.Since(start).Seconds(),
				"poll_count":      pollCount,
			}, nil
		}

		if time.Now().After(deadline) {
			return nil, streamyerrors.NewTimeoutError(stepName, fmt.Sprintf("condition %q not satisfied within max_wait=%gs", w.Condition, w.MaxWait))
		}

		select {
		case <-ctx.Done():
			return nil, streamyerrors.NewTimeoutError(stepName, "context deadline exceeded during conditional wait")
		case <-ticker.C:
		}
	}
}
