// Package report implements the result collector (spec §4.9): aggregates a
// test case's StepResults into a TestCaseResult, then serialises that
// aggregate to the v2.0 JSON shape spec §6 defines, masking sensitive data
// along the way.
package report

import (
	"time"

	"github.com/alexisbeaulieu97/streamy/internal/config"
	"github.com/alexisbeaulieu97/streamy/internal/model"
)

// Collect aggregates step results into a TestCaseResult: status derivation,
// min/max timestamps, pass/fail/skip counters, and the final_variables union
// (later step wins on key clash, matching declaration order).
func Collect(tc config.TestCase, steps []model.StepResult) model.TestCaseResult {
	var start, end time.Time
	var passed, failed, skipped int
	finalVars := make(map[string]any)

	for i, s := range steps {
		if i == 0 || s.StartTime.Before(start) {
			start = s.StartTime
		}
		if s.EndTime.After(end) {
			end = s.EndTime
		}

		switch s.Status {
		case model.StatusSuccess:
			passed++
		case model.StatusFailure, model.StatusError:
			failed++
		case model.StatusSkipped:
			skipped++
		}

		for k, v := range s.ExtractedVars {
			finalVars[k] = v
		}
	}

	total := len(steps)
	status := model.CaseStatusPassed
	switch {
	case failed > 0:
		status = model.CaseStatusFailed
	case skipped == total:
		status = model.CaseStatusSkipped
	}

	passRate := 0.0
	if total > 0 {
		passRate = float64(passed) / float64(total) * 100
	}

	return model.TestCaseResult{
		Name:      tc.Name,
		Status:    status,
		StartTime: start,
		EndTime:   end,
		Statistics: model.Statistics{
			TotalSteps:   total,
			PassedSteps:  passed,
			FailedSteps:  failed,
			SkippedSteps: skipped,
			PassRate:     passRate,
		},
		Steps:          steps,
		FinalVariables: finalVars,
	}
}
