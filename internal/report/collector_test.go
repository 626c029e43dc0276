package report

import (
	"testing"
	"time"

	"github.com/alexisbeaulieu97/streamy/internal/config"
	"github.com/alexisbeaulieu97/streamy/internal/model"
	"github.com/stretchr/testify/require"
)

func TestCollectDerivesPassedStatus(t *testing.T) {
	now := time.Now()
	steps := []model.StepResult{
		{Name: "a", Status: model.StatusSuccess, StartTime: now, EndTime: now.Add(time.Second)},
		{Name: "b", Status: model.StatusSuccess, StartTime: now.Add(time.Second), EndTime: now.Add(2 * time.Second)},
	}

	result := Collect(config.TestCase{Name: "case"}, steps)
	require.Equal(t, model.CaseStatusPassed, result.Status)
	require.Equal(t, 2, result.Statistics.TotalSteps)
	require.Equal(t, 2, result.Statistics.PassedSteps)
	require.InDelta(t, 100.0, result.Statistics.PassRate, 0.001)
}

func TestCollectDerivesFailedStatusOnAnyFailure(t *testing.T) {
	now := time.Now()
	steps := []model.StepResult{
		{Name: "a", Status: model.StatusFailure, StartTime: now, EndTime: now.Add(time.Second)},
		{Name: "b", Status: model.StatusSkipped, StartTime: now, EndTime: now},
	}

	result := Collect(config.TestCase{Name: "case"}, steps)
	require.Equal(t, model.CaseStatusFailed, result.Status)
	require.Equal(t, 1, result.Statistics.FailedSteps)
	require.Equal(t, 1, result.Statistics.SkippedSteps)
}

func TestCollectDerivesSkippedStatusWhenEveryStepSkipped(t *testing.T) {
	steps := []model.StepResult{
		{Name: "a", Status: model.StatusSkipped},
		{Name: "b", Status: model.StatusSkipped},
	}

	result := Collect(config.TestCase{Name: "case"}, steps)
	require.Equal(t, model.CaseStatusSkipped, result.Status)
}

func TestCollectUnionsFinalVariablesLaterWins(t *testing.T) {
	steps := []model.StepResult{
		{Name: "a", Status: model.StatusSuccess, ExtractedVars: map[string]any{"x": 1}},
		{Name: "b", Status: model.StatusSuccess, ExtractedVars: map[string]any{"x": 2, "y": 3}},
	}

	result := Collect(config.TestCase{Name: "case"}, steps)
	require.Equal(t, 2, result.FinalVariables["x"])
	require.Equal(t, 3, result.FinalVariables["y"])
}

func TestCollectEmptyStepsProducesZeroPassRate(t *testing.T) {
	result := Collect(config.TestCase{Name: "case"}, nil)
	require.Equal(t, 0.0, result.Statistics.PassRate)
	require.Equal(t, model.CaseStatusSkipped, result.Status)
}
