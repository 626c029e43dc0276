// Package concurrent implements the concurrent step runner (spec §4.7.5):
// runs its nested steps in parallel over a bounded worker pool, each branch
// isolated on its own variable-manager clone, merging extracted bindings
// back in declaration order once every branch completes.
package concurrent

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/alexisbeaulieu97/streamy/internal/config"
	"github.com/alexisbeaulieu97/streamy/internal/model"
	"github.com/alexisbeaulieu97/streamy/internal/plugin"
	"github.com/alexisbeaulieu97/streamy/internal/variables"
	streamyerrors "github.com/alexisbeaulieu97/streamy/pkg/errors"
)

// defaultPoolSize backs the worker pool when the case's concurrent_threads
// setting can't be resolved from the variable environment.
const defaultPoolSize = 3

// Runner fans the nested steps out across a bounded goroutine pool.
type Runner struct{}

func New() *Runner { return &Runner{} }

func (r *Runner) Type() string { return "concurrent" }

func (r *Runner) Run(ctx context.Context, step config.Step, vars *variables.Manager, runStep plugin.StepRunner) (map[string]any, error) {
	c := step.Concurrent
	if c == nil {
		return nil, streamyerrors.NewExecutionError(step.Name, fmt.Errorf("concurrent step has no concurrent configuration"))
	}
	if runStep == nil {
		return nil, streamyerrors.NewExecutionError(step.Name, fmt.Errorf("concurrent step requires a step runner"))
	}

	poolSize := resolvePoolSize(vars)

	branchVars := make([]*variables.Manager, len(c.Steps))
	results := make([]model.StepResult, len(c.Steps))

	sem := semaphore.NewWeighted(int64(poolSize))
	g, gctx := errgroup.WithContext(ctx)

	for i, nested := range c.Steps {
		i, nested := i, nested
		branchVars[i] = vars.Clone()
		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)
			results[i] = runStep(gctx, nested, branchVars[i])
			return nil
		})
	}

	// errgroup's Wait only returns non-nil when a Go func itself returns an
	// error; branch step failures are recorded as StepResult.Status and
	// never abort sibling branches (spec §4.7.5 — branches run to
	// completion independently).
	_ = g.Wait()

	for _, branch := range branchVars {
		vars.MergeExtracted(branch)
	}

	statuses := make(map[string]any, len(results))
	for _, res := range results {
		statuses[res.Name] = res.Status
	}

	return map[string]any{
		"branches": len(c.Steps),
		"body":     statuses,
	}, nil
}

func resolvePoolSize(vars *variables.Manager) int {
	cfg, ok := vars.Get("config")
	if !ok {
		return defaultPoolSize
	}
	m, ok := cfg.(map[string]any)
	if !ok {
		return defaultPoolSize
	}
	threads, ok := m["concurrent_threads"].(int)
	if !ok || threads <= 0 {
		return defaultPoolSize
	}
	return threads
}
