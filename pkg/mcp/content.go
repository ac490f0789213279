package mcp

import (
	"encoding/json"
	"fmt"
)

// Content part discriminators.
const (
	ContentTypeText     = "text"
	ContentTypeImage    = "image"
	ContentTypeResource = "resource"
)

// Content is one typed part of a tool result or prompt message.
type Content struct {
	Type string `json:"type"`
	// Text carries ContentTypeText parts.
	Text string `json:"text,omitempty"`
	// Data and MimeType carry ContentTypeImage parts (base64 payload).
	Data     string `json:"data,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
	// Resource carries ContentTypeResource parts.
	Resource *ResourceContents `json:"resource,omitempty"`
}

// NewTextContent builds a text part.
func NewTextContent(text string) Content {
	return Content{Type: ContentTypeText, Text: text}
}

// NewImageContent builds an image part from base64 data.
func NewImageContent(data, mimeType string) Content {
	return Content{Type: ContentTypeImage, Data: data, MimeType: mimeType}
}

// NewResourceContent embeds resource contents in a result.
func NewResourceContent(rc ResourceContents) Content {
	return Content{Type: ContentTypeResource, Resource: &rc}
}

// NewToolResultText wraps plain text in a success result.
func NewToolResultText(text string) *CallToolResult {
	return &CallToolResult{Content: []Content{NewTextContent(text)}}
}

// NewToolResultError wraps a message in an error-flagged result. The
// message is expected to start with its error-kind tag.
func NewToolResultError(message string) *CallToolResult {
	return &CallToolResult{
		Content: []Content{NewTextContent(message)},
		IsError: true,
	}
}

// NewToolResultJSON marshals v with 2-space indentation into a text part.
// Tool payloads are JSON documents carried as text content.
func NewToolResultJSON(v any) (*CallToolResult, error) {
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal tool result: %w", err)
	}
	return NewToolResultText(string(raw)), nil
}
