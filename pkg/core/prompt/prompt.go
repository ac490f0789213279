// Package prompt is the prompt library behind the MCP prompts registry
// and the categorization pipeline. Templates are defined in code (see
// accounting.go) and rendered with Go text/template variables.
package prompt

import (
	"bytes"
	"fmt"
	"text/template"
)

// Template is one reusable prompt with metadata.
type Template struct {
	ID           string     // unique identifier (e.g. "categorize.transactions")
	Name         string     // external MCP prompt name (e.g. "categorize_transactions")
	Description  string     // purpose, shown in prompts/list
	SystemPrompt string     // fixed system prompt
	UserTmpl     string     // Go template for the user message
	Variables    []Variable // variables the user template consumes
}

// Variable declares one template variable.
type Variable struct {
	Name        string
	Description string
	Required    bool
	Default     string
}

// RenderUser executes the user template with the given variables,
// applying declared defaults and rejecting missing required values.
func (t *Template) RenderUser(vars map[string]interface{}) (string, error) {
	if vars == nil {
		vars = map[string]interface{}{}
	}
	for _, v := range t.Variables {
		if _, ok := vars[v.Name]; ok {
			continue
		}
		if v.Required {
			return "", fmt.Errorf("prompt %s: required variable %q missing", t.ID, v.Name)
		}
		vars[v.Name] = v.Default
	}

	tmpl, err := template.New(t.ID).Option("missingkey=zero").Parse(t.UserTmpl)
	if err != nil {
		return "", fmt.Errorf("prompt %s: bad template: %w", t.ID, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, vars); err != nil {
		return "", fmt.Errorf("prompt %s: render: %w", t.ID, err)
	}
	return buf.String(), nil
}
