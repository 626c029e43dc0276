package wait

import (
	"context"
	"testing"
	"time"

	"github.com/alexisbeaulieu97/streamy/internal/config"
	"github.com/alexisbeaulieu97/streamy/internal/variables"
	streamyerrors "github.com/alexisbeaulieu97/streamy/pkg/errors"
	"github.com/stretchr/testify/require"
)

func TestRunFixedSleep(t *testing.T) {
	t.Parallel()

	seconds := 0.01
	step := config.Step{
		Name: "pause",
		Type: "wait",
		Wait: &config.WaitStep{Seconds: &seconds, SecondsSet: true},
	}

	r := New()
	vars := variables.New(config.GlobalConfig{}, "")

	start := time.Now()
	envelope, err := r.Run(context.Background(), step, vars, nil)
	require.NoError(t, err)
	require.GreaterOrEqual(t, time.Since(start), 10*time.Millisecond)
	require.Equal(t, "fixed", envelope["wait_type"])
	require.Equal(t, 0.01, envelope["wait_seconds"])
	require.GreaterOrEqual(t, envelope["actual_wait_seconds"], 0.01)
}

func TestRunFixedRejectsNegativeSeconds(t *testing.T) {
	t.Parallel()

	seconds := -1.0
	step := config.Step{
		Name: "pause",
		Type: "wait",
		Wait: &config.WaitStep{Seconds: &seconds, SecondsSet: true},
	}

	r := New()
	vars := variables.New(config.GlobalConfig{}, "")
	_, err := r.Run(context.Background(), step, vars, nil)
	require.Error(t, err)
}

func TestRunConditionalSatisfiesImmediately(t *testing.T) {
	t.Parallel()

	step := config.Step{
		Name: "poll",
		Type: "wait",
		Wait: &config.WaitStep{Condition: "{{ready}}", ConditionSet: true, Interval: 0.01, MaxWait: 1},
	}

	r := New()
	vars := variables.New(config.GlobalConfig{}, "")
	vars.Set("ready", "true")

	envelope, err := r.Run(context.Background(), step, vars, nil)
	require.NoError(t, err)
	require.Equal(t, "conditional", envelope["wait_type"])
	require.Equal(t, true, envelope["result"])
	require.NotNil(t, envelope["elapsed_seconds"])
}

func TestRunConditionalTimesOut(t *testing.T) {
	t.Parallel()

	step := config.Step{
		Name: "poll",
		Type: "wait",
		Wait: &config.WaitStep{Condition: "{{ready}}", ConditionSet: true, Interval: 0.01, MaxWait: 0.05},
	}

	r := New()
	vars := variables.New(config.GlobalConfig{}, "")
	vars.Set("ready", "false")

	_, err := r.Run(context.Background(), step, vars, nil)
	require.Error(t, err)

	var timeoutErr *streamyerrors.TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
}

func TestRunMissingWaitConfigErrors(t *testing.T) {
	t.Parallel()

	step := config.Step{Name: "bad", Type: "wait"}
	r := New()
	vars := variables.New(config.GlobalConfig{}, "")

	_, err := r.Run(context.Background(), step, vars, nil)
	require.Error(t, err)
}
