package utils

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/text"
)

// CleanMarkdown strips conversational filler and outer code fences from a
// model response so the payload ("```json ... ```" and friends) parses
// cleanly.
func CleanMarkdown(input string) string {
	cleaned := strings.TrimSpace(input)

	for _, tag := range []string{"```json", "```markdown", "```"} {
		if strings.HasPrefix(cleaned, tag) && strings.HasSuffix(cleaned, "```") {
			cleaned = strings.TrimPrefix(cleaned, tag)
			cleaned = strings.TrimSuffix(cleaned, "```")
			cleaned = strings.TrimSpace(cleaned)
			break
		}
	}

	return cleaned
}

// ValidateMarkdown checks that a string parses as Markdown. Goldmark is
// permissive, so this guards against binary garbage rather than style;
// summaries and justifications pass through here before being stored.
func ValidateMarkdown(input string) bool {
	parser := goldmark.DefaultParser()
	reader := text.NewReader([]byte(input))
	doc := parser.Parse(reader)
	return doc != nil
}
