package util

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
)

var templateFuncs = template.FuncMap{
	"default": func(defaultVal any, val any) any {
		if val == nil || val == "" {
			return defaultVal
		}
		return val
	},
	"upper": strings.ToUpper,
	"lower": strings.ToLower,
	"trim":  strings.TrimSpace,
	"join": func(sep string, items []string) string {
		return strings.Join(items, sep)
	},
}

// RenderTemplate renders text as a Go text/template against data. Text
// without template markers is returned unchanged.
func RenderTemplate(text string, data map[string]any) (string, error) {
	if !strings.Contains(text, "{{") {
		return text, nil
	}

	tmpl, err := template.New("instruction").Funcs(templateFuncs).Option("missingkey=zero").Parse(text)
	if err != nil {
		return "", fmt.Errorf("parse template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render template: %w", err)
	}

	return buf.String(), nil
}
