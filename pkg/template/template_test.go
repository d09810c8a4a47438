package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prosaga/prosaga/pkg/template"
)

func TestRenderWithContext(t *testing.T) {
	t.Parallel()

	out, err := template.RenderWithContext(
		"order {{ .data.order_id }} for process {{ .process.id }} ({{ .metadata.source }})",
		"p-1",
		map[string]any{"order_id": "o-42"},
		map[string]any{"source": "api"},
	)
	require.NoError(t, err)
	assert.Equal(t, "order o-42 for process p-1 (api)", out)
}

func TestRender_MissingKeysRenderZeroValue(t *testing.T) {
	t.Parallel()

	out, err := template.RenderWithContext("value: {{ .data.nope }}", "p-1", map[string]any{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "value: <no value>", out)
}

func TestRender_NowFunc(t *testing.T) {
	t.Parallel()

	out, err := template.Render("at {{ now }}", nil)
	require.NoError(t, err)
	assert.Regexp(t, `at \d{4}-\d{2}-\d{2}T`, out)
}

func TestRender_ParseError(t *testing.T) {
	t.Parallel()

	_, err := template.Render("{{ .data.unclosed", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse template")
}
