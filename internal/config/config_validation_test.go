package config

import (
	"testing"

	streamyerrors "github.com/alexisbeaulieu97/streamy/pkg/errors"
	"github.com/stretchr/testify/require"
)

func validTestCase() *TestCase {
	return &TestCase{
		Name: "smoke",
		Steps: []Step{
			{
				Name: "ping",
				Type: "request",
				Request: &RequestStep{
					Method: "GET",
					URL:    "https://api.example.com/ping",
				},
			},
		},
	}
}

func TestValidateConfigAcceptsValidTestCase(t *testing.T) {
	t.Parallel()
	require.NoError(t, ValidateConfig(validTestCase()))
}

func TestValidateConfigRejectsNil(t *testing.T) {
	t.Parallel()
	err := ValidateConfig(nil)
	require.Error(t, err)
}

func TestValidateConfigRejectsDuplicateStepNames(t *testing.T) {
	t.Parallel()

	tc := validTestCase()
	tc.Steps = append(tc.Steps, tc.Steps[0])

	err := ValidateConfig(tc)
	require.Error(t, err)
	var ve *streamyerrors.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestValidateConfigRejectsForwardDependsOn(t *testing.T) {
	t.Parallel()

	tc := validTestCase()
	tc.Steps[0].DependsOn = []string{"later"}
	tc.Steps = append(tc.Steps, Step{
		Name: "later",
		Type: "request",
		Request: &RequestStep{
			Method: "GET",
			URL:    "https://api.example.com/later",
		},
	})

	err := ValidateConfig(tc)
	require.Error(t, err)
}

func TestValidateConfigRejectsUnknownDependsOn(t *testing.T) {
	t.Parallel()

	tc := validTestCase()
	tc.Steps[0].DependsOn = []string{"ghost"}

	err := ValidateConfig(tc)
	require.Error(t, err)
}

func TestValidateConfigDetectsDependencyCycle(t *testing.T) {
	t.Parallel()

	tc := validTestCase()
	tc.Steps[0].Name = "a"
	tc.Steps[0].DependsOn = nil
	tc.Steps = append(tc.Steps, Step{
		Name:      "b",
		Type:      "request",
		DependsOn: []string{"a"},
		Request:   &RequestStep{Method: "GET", URL: "https://api.example.com/b"},
	})
	// Retroactively wire a cycle: a depends on b, b depends on a.
	tc.Steps[0].DependsOn = []string{"b"}

	err := ValidateConfig(tc)
	require.Error(t, err)
}

func TestValidateConfigRejectsUnknownActiveProfile(t *testing.T) {
	t.Parallel()

	tc := validTestCase()
	tc.Config.ActiveProfile = "prod"

	err := ValidateConfig(tc)
	require.Error(t, err)
}

func TestValidateConfigAcceptsKnownActiveProfile(t *testing.T) {
	t.Parallel()

	tc := validTestCase()
	tc.Config.ActiveProfile = "prod"
	tc.Config.Profiles = map[string]ProfileConfig{
		"prod": {BaseURL: "https://prod.example.com"},
	}

	require.NoError(t, ValidateConfig(tc))
}

func TestValidateStepWaitRequiresExactlyOneField(t *testing.T) {
	t.Parallel()

	neither := Step{Name: "w", Type: "wait", Wait: &WaitStep{}}
	require.Error(t, ValidateStep(neither))

	both := Step{Name: "w", Type: "wait", Wait: &WaitStep{SecondsSet: true, ConditionSet: true}}
	require.Error(t, ValidateStep(both))

	seconds := 1.5
	fixedOnly := Step{Name: "w", Type: "wait", Wait: &WaitStep{Seconds: &seconds, SecondsSet: true}}
	require.NoError(t, ValidateStep(fixedOnly))
}

func TestValidateStepWaitRejectsMaxWaitBeyondTimeout(t *testing.T) {
	t.Parallel()

	step := Step{
		Name:    "poll",
		Type:    "wait",
		Timeout: 1,
		Wait: &WaitStep{
			Condition:    "{{ready}}",
			ConditionSet: true,
			Interval:     0.1,
			MaxWait:      5,
		},
	}
	require.Error(t, ValidateStep(step))
}

func TestValidateStepLoopRequiresMatchingField(t *testing.T) {
	t.Parallel()

	nested := []Step{{Name: "inner", Type: "request", Request: &RequestStep{Method: "GET", URL: "https://x"}}}

	missingCount := Step{Name: "l", Type: "loop", Loop: &LoopStep{LoopType: "for", LoopSteps: nested}}
	require.Error(t, ValidateStep(missingCount))

	count := 3
	valid := Step{Name: "l", Type: "loop", Loop: &LoopStep{LoopType: "for", LoopCount: &count, LoopCountSet: true, LoopSteps: nested}}
	require.NoError(t, ValidateStep(valid))

	missingCondition := Step{Name: "l", Type: "loop", Loop: &LoopStep{LoopType: "while", LoopSteps: nested}}
	require.Error(t, ValidateStep(missingCondition))
}

func TestValidateStepRejectsUnknownComparator(t *testing.T) {
	t.Parallel()

	step := Step{
		Name:    "check",
		Type:    "request",
		Request: &RequestStep{Method: "GET", URL: "https://x"},
		Validations: []ValidationRule{
			{Type: "bogus", Path: "$.status_code", Expect: 200},
		},
	}
	require.Error(t, ValidateStep(step))
}

func TestValidateStepScriptRejectsNonExprLanguage(t *testing.T) {
	t.Parallel()

	step := Step{Name: "s", Type: "script", Script: &ScriptStep{Source: "1+1", Language: "python", AllowImports: true}}
	require.Error(t, ValidateStep(step))

	valid := Step{Name: "s", Type: "script", Script: &ScriptStep{Source: "1+1", Language: "expr"}}
	require.NoError(t, ValidateStep(valid))
}
