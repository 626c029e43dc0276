package engine

import (
	"github.com/alexisbeaulieu97/streamy/internal/config"
	"github.com/alexisbeaulieu97/streamy/internal/logger"
	"github.com/alexisbeaulieu97/streamy/internal/model"
	"github.com/alexisbeaulieu97/streamy/internal/variables"
)

// ExecutionContext is the shared state threaded through every step of a
// single test-case run (spec §4.8): the variable manager (the run's one
// piece of mutable shared state, per §5), prior StepResults keyed by name
// for depends_on gating, and the logger.
type ExecutionContext struct {
	Vars    *variables.Manager
	Log     *logger.Logger
	Config  config.GlobalConfig
	Results map[string]model.StepResult
}

// NewExecutionContext builds a fresh ExecutionContext, injecting the
// `config` mapping and layering the active profile (spec §4.8 step 1).
func NewExecutionContext(cfg config.GlobalConfig, profileName string, log *logger.Logger) *ExecutionContext {
	return &ExecutionContext{
		Vars:    variables.New(cfg, profileName),
		Log:     log,
		Config:  cfg,
		Results: make(map[string]model.StepResult),
	}
}
