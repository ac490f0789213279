package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	legacy "github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiLegacyProvider uses the earlier generative-ai-go SDK. Kept as a
// selectable backend for environments still pinned to it; behaviour
// matches GeminiProvider from the caller's side.
type GeminiLegacyProvider struct {
	Model string
}

var _ Provider = (*GeminiLegacyProvider)(nil)

func (p *GeminiLegacyProvider) GenerateResponse(ctx context.Context, prompt string, systemPrompt string, options map[string]interface{}) (string, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return "", fmt.Errorf("GEMINI_API_KEY_MISSING: set GEMINI_API_KEY to use the gemini-legacy provider")
	}

	client, err := legacy.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return "", fmt.Errorf("GEMINI_CLIENT_ERROR: %w", err)
	}
	defer client.Close()

	name := p.Model
	if name == "" {
		name = "gemini-1.5-flash"
	}
	name = optionString(options, "model", name)

	model := client.GenerativeModel(name)
	model.SetTemperature(0.1)
	if wantsJSON(options) {
		model.ResponseMIMEType = "application/json"
	}
	if systemPrompt != "" {
		model.SystemInstruction = &legacy.Content{
			Parts: []legacy.Part{legacy.Text(systemPrompt)},
		}
	}

	resp, err := model.GenerateContent(ctx, legacy.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("GEMINI_GENERATION_ERROR: %w", err)
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(legacy.Text); ok {
				b.WriteString(string(text))
			}
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("GEMINI_EMPTY_RESPONSE: model %s returned no text", name)
	}
	return b.String(), nil
}

func (p *GeminiLegacyProvider) AdaptInstructions(raw string) string {
	return raw
}
