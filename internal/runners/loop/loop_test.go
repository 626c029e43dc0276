package loop

import (
	"context"
	"testing"

	"github.com/alexisbeaulieu97/streamy/internal/config"
	"github.com/alexisbeaulieu97/streamy/internal/model"
	"github.com/alexisbeaulieu97/streamy/internal/variables"
	"github.com/stretchr/testify/require"
)

func fakeRunStep(statuses map[string]string, seen *[]int, varName string) func(ctx context.Context, step config.Step, vars *variables.Manager) model.StepResult {
	return func(ctx context.Context, step config.Step, vars *variables.Manager) model.StepResult {
		if v, ok := vars.Get(varName); ok {
			if idx, ok := v.(int); ok {
				*seen = append(*seen, idx)
			}
		}
		status := statuses[step.Name]
		if status == "" {
			status = model.StatusSuccess
		}
		return model.StepResult{Name: step.Name, Status: status}
	}
}

func TestRunForIteratesLoopCount(t *testing.T) {
	t.Parallel()

	count := 3
	nested := []config.Step{{Name: "inner", Type: "request"}}
	step := config.Step{
		Name: "loop",
		Type: "loop",
		Loop: &config.LoopStep{
			LoopType:     "for",
			LoopCount:    &count,
			LoopCountSet: true,
			LoopVariable: "idx",
			LoopSteps:    nested,
		},
	}

	var seen []int
	r := New()
	vars := variables.New(config.GlobalConfig{}, "")

	envelope, err := r.Run(context.Background(), step, vars, fakeRunStep(nil, &seen, "idx"))
	require.NoError(t, err)
	require.Equal(t, 3, envelope["loop_count"])
	require.Equal(t, 3, envelope["success_count"])
	require.Equal(t, 0, envelope["failure_count"])
	require.Equal(t, []int{0, 1, 2}, seen)

	iterations, ok := envelope["iterations"].([][]model.StepResult)
	require.True(t, ok)
	require.Len(t, iterations, 3)
	require.Equal(t, "inner", iterations[0][0].Name)

	// loop_variable does not leak past the loop.
	_, ok = vars.Get("idx")
	require.False(t, ok)
}

func TestRunForRecordsPerIterationFailureAndContinues(t *testing.T) {
	t.Parallel()

	count := 2
	nested := []config.Step{
		{Name: "a", Type: "request"},
		{Name: "b", Type: "request"},
	}
	step := config.Step{
		Name: "loop",
		Type: "loop",
		Loop: &config.LoopStep{LoopType: "for", LoopCount: &count, LoopCountSet: true, LoopSteps: nested},
	}

	var seen []int
	r := New()
	vars := variables.New(config.GlobalConfig{}, "")

	envelope, err := r.Run(context.Background(), step, vars, fakeRunStep(map[string]string{"a": model.StatusFailure}, &seen, "idx"))
	require.NoError(t, err)
	require.Equal(t, 2, envelope["loop_count"])
	require.Equal(t, 0, envelope["success_count"])
	require.Equal(t, 2, envelope["failure_count"])

	iterations, ok := envelope["iterations"].([][]model.StepResult)
	require.True(t, ok)
	require.Len(t, iterations, 2)
	// both nested steps run in every iteration despite "a" failing.
	require.Len(t, iterations[0], 2)
	require.Equal(t, model.StatusFailure, iterations[0][0].Status)
	require.Equal(t, model.StatusSuccess, iterations[0][1].Status)
}

func TestRunWhileStopsWhenConditionFalsy(t *testing.T) {
	t.Parallel()

	nested := []config.Step{{Name: "inner", Type: "request"}}
	step := config.Step{
		Name: "loop",
		Type: "loop",
		Loop: &config.LoopStep{LoopType: "while", LoopCondition: "{{continue}}", LoopConditionSet: true, LoopSteps: nested},
	}

	r := New()
	vars := variables.New(config.GlobalConfig{}, "")
	vars.Set("continue", "false")

	var seen []int
	envelope, err := r.Run(context.Background(), step, vars, fakeRunStep(nil, &seen, "idx"))
	require.NoError(t, err)
	require.Equal(t, 0, envelope["loop_count"])
}

func TestRunRejectsMissingStepRunner(t *testing.T) {
	t.Parallel()

	count := 1
	step := config.Step{
		Name: "loop",
		Type: "loop",
		Loop: &config.LoopStep{LoopType: "for", LoopCount: &count, LoopCountSet: true, LoopSteps: []config.Step{{Name: "inner", Type: "request"}}},
	}

	r := New()
	vars := variables.New(config.GlobalConfig{}, "")
	_, err := r.Run(context.Background(), step, vars, nil)
	require.Error(t, err)
}
