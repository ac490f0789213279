package mcp

import (
	"fmt"
	"math"
	"strings"

	"agentic_accounting/pkg/core/errs"
)

// ToolInputSchema is the JSON-schema subset tools advertise: an object
// with typed properties, required names, enum membership, numeric ranges
// and arrays of primitives. Anything richer belongs in the handler.
type ToolInputSchema struct {
	Type       string              `json:"type"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
}

// Property describes one argument.
type Property struct {
	Type        string    `json:"type"`
	Description string    `json:"description,omitempty"`
	Enum        []string  `json:"enum,omitempty"`
	Minimum     *float64  `json:"minimum,omitempty"`
	Maximum     *float64  `json:"maximum,omitempty"`
	Items       *Property `json:"items,omitempty"`
	Default     any       `json:"default,omitempty"`
}

// ObjectSchema starts a fluent schema definition.
func ObjectSchema() ToolInputSchema {
	return ToolInputSchema{Type: "object", Properties: map[string]Property{}}
}

// WithString adds a string property.
func (s ToolInputSchema) WithString(name, description string) ToolInputSchema {
	s.Properties[name] = Property{Type: "string", Description: description}
	return s
}

// WithEnum adds a string property restricted to the given values.
func (s ToolInputSchema) WithEnum(name, description string, values ...string) ToolInputSchema {
	s.Properties[name] = Property{Type: "string", Description: description, Enum: values}
	return s
}

// WithNumber adds a number property.
func (s ToolInputSchema) WithNumber(name, description string) ToolInputSchema {
	s.Properties[name] = Property{Type: "number", Description: description}
	return s
}

// WithInteger adds an integer property bounded by min..max.
func (s ToolInputSchema) WithInteger(name, description string, min, max float64) ToolInputSchema {
	s.Properties[name] = Property{Type: "integer", Description: description, Minimum: &min, Maximum: &max}
	return s
}

// WithBoolean adds a boolean property.
func (s ToolInputSchema) WithBoolean(name, description string) ToolInputSchema {
	s.Properties[name] = Property{Type: "boolean", Description: description}
	return s
}

// WithStringArray adds an array-of-strings property.
func (s ToolInputSchema) WithStringArray(name, description string) ToolInputSchema {
	s.Properties[name] = Property{
		Type:        "array",
		Description: description,
		Items:       &Property{Type: "string"},
	}
	return s
}

// WithObject adds a free-form object property (string-keyed map).
func (s ToolInputSchema) WithObject(name, description string) ToolInputSchema {
	s.Properties[name] = Property{Type: "object", Description: description}
	return s
}

// Require marks names as mandatory.
func (s ToolInputSchema) Require(names ...string) ToolInputSchema {
	s.Required = append(s.Required, names...)
	return s
}

// ValidateArguments checks args against the schema subset. Violations are
// ValidationError domain errors naming the offending field; the framework
// renders them as isError tool results before the handler runs.
func ValidateArguments(schema ToolInputSchema, args map[string]any) error {
	for _, name := range schema.Required {
		if _, ok := args[name]; !ok {
			return errs.Validationf("missing required argument %q", name)
		}
	}
	for name, value := range args {
		prop, known := schema.Properties[name]
		if !known {
			// Unknown arguments are tolerated: clients may send
			// metadata the schema does not advertise.
			continue
		}
		if err := validateValue(name, prop, value); err != nil {
			return err
		}
	}
	return nil
}

func validateValue(name string, prop Property, value any) error {
	switch prop.Type {
	case "string":
		s, ok := value.(string)
		if !ok {
			return errs.Validationf("argument %q: expected string, got %T", name, value)
		}
		if len(prop.Enum) > 0 && !containsString(prop.Enum, s) {
			return errs.Validationf("argument %q: value %q not in {%s}", name, s, strings.Join(prop.Enum, ", "))
		}
	case "number", "integer":
		n, ok := toFloat(value)
		if !ok {
			return errs.Validationf("argument %q: expected %s, got %T", name, prop.Type, value)
		}
		if prop.Type == "integer" && n != math.Trunc(n) {
			return errs.Validationf("argument %q: expected integer, got %v", name, n)
		}
		if prop.Minimum != nil && n < *prop.Minimum {
			return errs.Validationf("argument %q: %v below minimum %v", name, n, *prop.Minimum)
		}
		if prop.Maximum != nil && n > *prop.Maximum {
			return errs.Validationf("argument %q: %v above maximum %v", name, n, *prop.Maximum)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return errs.Validationf("argument %q: expected boolean, got %T", name, value)
		}
	case "array":
		items, ok := normalizeArray(value)
		if !ok {
			return errs.Validationf("argument %q: expected array, got %T", name, value)
		}
		if prop.Items != nil {
			for i, item := range items {
				if err := validateValue(fmt.Sprintf("%s[%d]", name, i), *prop.Items, item); err != nil {
					return err
				}
			}
		}
	case "object":
		switch value.(type) {
		case map[string]any, map[string]string:
		default:
			return errs.Validationf("argument %q: expected object, got %T", name, value)
		}
	}
	return nil
}

func toFloat(value any) (float64, bool) {
	switch n := value.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	}
	return 0, false
}

func normalizeArray(value any) ([]any, bool) {
	switch arr := value.(type) {
	case []any:
		return arr, true
	case []string:
		out := make([]any, len(arr))
		for i, s := range arr {
			out[i] = s
		}
		return out, true
	}
	return nil, false
}

func containsString(haystack []string, needle string) bool {
	for _, s := range haystack {
		if s == needle {
			return true
		}
	}
	return false
}
