package template

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderIdempotentOnPlainText(t *testing.T) {
	t.Parallel()

	cases := []string{"", "hello world", "no braces here", "https://api.example.com/ping"}
	for _, s := range cases {
		out, err := Render(s, map[string]any{"anything": 1})
		require.NoError(t, err)
		require.Equal(t, s, out)
	}
}

func TestRenderDottedPathAndIndexing(t *testing.T) {
	t.Parallel()

	vars := map[string]any{
		"user":  map[string]any{"name": "ada"},
		"items": []any{"first", "second"},
	}

	out, err := Render("hello {{user.name}}, item {{items[0]}}", vars)
	require.NoError(t, err)
	require.Equal(t, "hello ada, item first", out)
}

func TestRenderUnknownNameResolvesToEmpty(t *testing.T) {
	t.Parallel()

	out, err := Render("value={{missing}}", map[string]any{})
	require.NoError(t, err)
	require.Equal(t, "value=", out)
}

func TestRenderIsSinglePass(t *testing.T) {
	t.Parallel()

	vars := map[string]any{"inner": "{{never_rendered}}"}
	out, err := Render("{{inner}}", vars)
	require.NoError(t, err)
	require.Equal(t, "{{never_rendered}}", out)
}

func TestRenderNonStringInputsUnchangedViaRenderDict(t *testing.T) {
	t.Parallel()

	vars := map[string]any{"name": "ada"}
	input := map[string]any{
		"count": 5,
		"flag":  true,
		"label": "hi {{name}}",
		"nested": map[string]any{
			"list": []any{"a {{name}}", 2, nil},
		},
	}

	out, err := RenderDict(input, vars)
	require.NoError(t, err)

	result, ok := out.(map[string]any)
	require.True(t, ok)
	require.Equal(t, 5, result["count"])
	require.Equal(t, true, result["flag"])
	require.Equal(t, "hi ada", result["label"])

	nested := result["nested"].(map[string]any)
	list := nested["list"].([]any)
	require.Equal(t, "a ada", list[0])
	require.Equal(t, 2, list[1])
	require.Nil(t, list[2])
}

func TestRenderRaisesTemplateErrorOnBadExpression(t *testing.T) {
	t.Parallel()

	_, err := Render("{{1 +}}", map[string]any{})
	require.Error(t, err)
}

func TestIsTruthyAcceptsTokenSet(t *testing.T) {
	t.Parallel()

	vars := map[string]any{"flag": "yes"}
	ok, err := IsTruthy("{{flag}}", vars)
	require.NoError(t, err)
	require.True(t, ok)

	vars["flag"] = "no"
	ok, err = IsTruthy("{{flag}}", vars)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestIsTruthyCaseInsensitive(t *testing.T) {
	t.Parallel()

	vars := map[string]any{"flag": "SUCCESS"}
	ok, err := IsTruthy("{{flag}}", vars)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestEvalComparison(t *testing.T) {
	t.Parallel()

	vars := map[string]any{"count": 5}
	out, err := Eval("count == 5", vars)
	require.NoError(t, err)
	require.Equal(t, true, out)
}
