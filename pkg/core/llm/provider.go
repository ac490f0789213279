// Package llm abstracts the chat endpoints the categorizer and context
// summarizer talk to. A provider is an opaque prompt-in/text-out surface;
// everything accounting-specific (tool calls, validation, revalidation of
// suggestions) happens on this side of the boundary.
package llm

import "context"

// Provider is the interface every LLM backend implements.
type Provider interface {
	// GenerateResponse sends one prompt with an optional system prompt.
	// Recognized options: "model" (string override), "response_format"
	// (map with "type": "json_object"), "max_tokens" (int).
	GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error)
	// AdaptInstructions transforms raw instructions into the form the
	// model responds to best. Most providers pass through unchanged.
	AdaptInstructions(rawInstructions string) string
}

// wantsJSON reports whether the caller asked for a JSON object response.
func wantsJSON(options map[string]interface{}) bool {
	format, ok := options["response_format"].(map[string]interface{})
	return ok && format["type"] == "json_object"
}

// optionString reads a string option with a fallback.
func optionString(options map[string]interface{}, key, fallback string) string {
	if v, ok := options[key].(string); ok && v != "" {
		return v
	}
	return fallback
}
