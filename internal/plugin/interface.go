// Package plugin holds the runner registry: the pluggable contract each of
// the six step kinds (request/database/wait/loop/concurrent/script)
// implements so the engine can dispatch on config.Step.Type without a type
// switch at the call site.
package plugin

import (
	"context"

	"github.com/alexisbeaulieu97/streamy/internal/config"
	"github.com/alexisbeaulieu97/streamy/internal/model"
	"github.com/alexisbeaulieu97/streamy/internal/variables"
)

// StepRunner invokes the full step lifecycle (gate/setup/attempt-loop/
// teardown, spec §4.7) for a nested step. The loop and concurrent runners
// use it to run their nested step sequences through the same machinery as
// top-level steps, without importing the engine package directly (which
// would create an import cycle, since the engine imports this package to
// dispatch on step type).
type StepRunner func(ctx context.Context, step config.Step, vars *variables.Manager) model.StepResult

// Runner performs the variant-specific I/O for one step kind (spec §4.7
// step 3b — "perform the variant-specific I/O"). Rendering (C1+C2),
// validation (C5), extraction (C4), and retry are all owned by the engine's
// shared lifecycle; a Runner only executes and returns the response
// envelope as a plain map (internal/model.ResponseEnvelope.ToMap shape). A
// non-nil error means the step could not run at all (as opposed to running
// and failing its validations).
type Runner interface {
	// Type returns the config.Step.Type this runner handles, e.g. "request".
	Type() string

	// Run executes the already-rendered step against vars. runStep is only
	// used by the loop and concurrent runners to execute nested steps.
	Run(ctx context.Context, step config.Step, vars *variables.Manager, runStep StepRunner) (map[string]any, error)
}
