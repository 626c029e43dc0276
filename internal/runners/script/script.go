// Package script implements the script step runner (spec §4.7.6): compiles
// and runs the step's inline source against the current variable
// environment via expr-lang/expr, folding any returned map back into the
// extracted layer.
package script

import (
	"context"
	"fmt"

	"github.com/expr-lang/expr"

	"github.com/alexisbeaulieu97/streamy/internal/config"
	"github.com/alexisbeaulieu97/streamy/internal/plugin"
	"github.com/alexisbeaulieu97/streamy/internal/variables"
	streamyerrors "github.com/alexisbeaulieu97/streamy/pkg/errors"
)

// Runner evaluates a script step's source. Only language "expr" is
// registered (config.validateScriptStep already rejects anything else at
// parse time); allow_imports has no effect on this interpreter, since
// expr-lang/expr has no import statement to gate.
type Runner struct{}

func New() *Runner { return &Runner{} }

func (r *Runner) Type() string { return "script" }

func (r *Runner) Run(ctx context.Context, step config.Step, vars *variables.Manager, _ plugin.StepRunner) (map[string]any, error) {
	s := step.Script
	if s == nil {
		return nil, streamyerrors.NewExecutionError(step.Name, fmt.Errorf("script step has no script configuration"))
	}
	if s.Language != "expr" {
		return nil, streamyerrors.NewScriptError(step.Name, fmt.Errorf("unsupported script language %q", s.Language))
	}

	env := vars.All()
	program, err := expr.Compile(s.Source, expr.Env(env), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, streamyerrors.NewScriptError(step.Name, err)
	}

	result, err := expr.Run(program, env)
	if err != nil {
		return nil, streamyerrors.NewScriptError(step.Name, err)
	}

	if bindings, ok := result.(map[string]any); ok {
		vars.SetAll(bindings)
	}

	return map[string]any{
		"body": result,
	}, nil
}
