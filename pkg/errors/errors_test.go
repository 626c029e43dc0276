package errors

import (
	"context"
	stdErrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseErrorWrapsUnderlying(t *testing.T) {
	t.Parallel()

	underlying := fmt.Errorf("unexpected token")
	err := NewParseError("config.yaml", 12, underlying)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "config.yaml", parseErr.Path)
	require.Equal(t, 12, parseErr.Line)
	require.True(t, stdErrors.Is(err, underlying))
	require.Contains(t, err.Error(), "config.yaml")
}

func TestValidationErrorAggregatesFields(t *testing.T) {
	t.Parallel()

	err := NewValidationError("steps[1].depends_on", "references unknown step", nil)

	var validationErr *ValidationError
	require.ErrorAs(t, err, &validationErr)
	require.Equal(t, "steps[1].depends_on", validationErr.Field)
	require.Contains(t, validationErr.Message, "references unknown step")
}

func TestExecutionErrorIncludesStepContext(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("command failed")
	err := NewExecutionError("install_git", underlying)

	var executionErr *ExecutionError
	require.ErrorAs(t, err, &executionErr)
	require.Equal(t, "install_git", executionErr.StepID)
	require.True(t, stdErrors.Is(err, underlying))
}

func TestPluginErrorIncludesPluginName(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("not supported")
	err := NewPluginError("command", underlying)

	var pluginErr *PluginError
	require.ErrorAs(t, err, &pluginErr)
	require.Equal(t, "command", pluginErr.Plugin)
	require.True(t, stdErrors.Is(err, underlying))
}

func TestTemplateErrorIncludesExpression(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("unexpected token")
	err := NewTemplateError("user.id +", underlying)

	var templateErr *TemplateError
	require.ErrorAs(t, err, &templateErr)
	require.Equal(t, "user.id +", templateErr.Expression)
	require.True(t, stdErrors.Is(err, underlying))
	require.Contains(t, err.Error(), "user.id +")
}

func TestComparatorErrorIncludesComparatorName(t *testing.T) {
	t.Parallel()

	err := NewComparatorError("between", "expected exactly 2 bounds")

	var comparatorErr *ComparatorError
	require.ErrorAs(t, err, &comparatorErr)
	require.Equal(t, "between", comparatorErr.Comparator)
	require.Contains(t, err.Error(), "expected exactly 2 bounds")
}

func TestCategoryClassifiesKnownErrorTypes(t *testing.T) {
	t.Parallel()

	require.Equal(t, "parsing", Category(NewTemplateError("x", stdErrors.New("boom"))))
	require.Equal(t, "assertion", Category(NewComparatorError("eq", "mismatch")))
	require.Equal(t, "parsing", Category(NewValidationError("field", "bad", nil)))
	require.Equal(t, "system", Category(stdErrors.New("anything else")))
	require.Equal(t, "", Category(nil))
}

func TestCategoryUnwrapsExecutionError(t *testing.T) {
	t.Parallel()

	wrapped := NewExecutionError("step1", NewComparatorError("eq", "mismatch"))
	require.Equal(t, "assertion", Category(wrapped))
}

func TestTimeoutErrorIncludesStepID(t *testing.T) {
	t.Parallel()

	err := NewTimeoutError("poll_ready", "max_wait elapsed")
	var timeoutErr *TimeoutError
	require.ErrorAs(t, err, &timeoutErr)
	require.Equal(t, "poll_ready", timeoutErr.StepID)
	require.Equal(t, "timeout", Category(err))
}

func TestNetworkErrorUnwraps(t *testing.T) {
	t.Parallel()

	underlying := stdErrors.New("connection refused")
	err := NewNetworkError("fetch", underlying)
	require.True(t, stdErrors.Is(err, underlying))
	require.Equal(t, "network", Category(err))
}

func TestScriptErrorIsBusinessCategory(t *testing.T) {
	t.Parallel()

	err := NewScriptError("transform", stdErrors.New("division by zero"))
	require.Equal(t, "business", Category(err))
}

func TestCategoryDeadlineExceededIsTimeout(t *testing.T) {
	t.Parallel()

	require.Equal(t, "timeout", Category(context.DeadlineExceeded))
}
