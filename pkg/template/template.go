// Package template renders step configuration strings against the live
// process context, so params can reference earlier step output.
package template

import (
	"fmt"
	"strings"
	"text/template"
	"time"
)

// RenderWithContext renders input with the process context exposed as
// .data, .metadata and .process.
func RenderWithContext(input string, processID string, data, metadata map[string]any) (string, error) {
	return Render(input, map[string]any{
		"data":     data,
		"metadata": metadata,
		"process": map[string]any{
			"id": processID,
		},
	})
}

func Render(templateStr string, data any) (string, error) {
	tmpl, err := template.
		New("step_param").
		Funcs(template.FuncMap{
			"now": func() string {
				return time.Now().UTC().Format(time.RFC3339)
			},
		}).
		Option("missingkey=zero").
		Parse(templateStr)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %q: %w", templateStr, err)
	}

	var buf strings.Builder

	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render template %q: %w", templateStr, err)
	}

	return buf.String(), nil
}
