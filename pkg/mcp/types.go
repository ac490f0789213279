// Package mcp defines the Model-Context-Protocol message surface: the
// line-delimited JSON-RPC envelope, tool/resource/prompt descriptors,
// typed content parts and the JSON-schema subset tools advertise for their
// arguments. Servers build on pkg/mcp/server, callers on pkg/mcp/client.
package mcp

import "encoding/json"

// ProtocolVersion is the MCP revision this implementation speaks.
const ProtocolVersion = "2024-11-05"

// JSONRPCVersion is fixed by the JSON-RPC 2.0 envelope.
const JSONRPCVersion = "2.0"

// Method names understood by a tool server.
const (
	MethodInitialize    = "initialize"
	MethodInitialized   = "notifications/initialized"
	MethodPing          = "ping"
	MethodToolsList     = "tools/list"
	MethodToolsCall     = "tools/call"
	MethodResourcesList = "resources/list"
	MethodResourcesRead = "resources/read"
	MethodPromptsList   = "prompts/list"
	MethodPromptsGet    = "prompts/get"
	MethodShutdown      = "shutdown"
)

// JSON-RPC 2.0 error codes. Domain errors never use these: they travel as
// isError tool results. These codes cover transport and framework faults
// only.
const (
	CodeParseError     = -32700
	CodeInvalidRequest = -32600
	CodeMethodNotFound = -32601
	CodeInvalidParams  = -32602
	CodeInternalError  = -32603
)

// JSONRPCMessage is the single envelope for requests, notifications and
// responses. ID is kept raw so responses echo the caller's id bytes
// exactly, whether number or string.
type JSONRPCMessage struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id,omitempty"`
	Method  string          `json:"method,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
}

// IsNotification reports whether the message expects no response.
func (m *JSONRPCMessage) IsNotification() bool {
	return m.Method != "" && len(m.ID) == 0
}

// IsResponse reports whether the message answers an earlier request.
func (m *JSONRPCMessage) IsResponse() bool {
	return m.Method == "" && (len(m.Result) > 0 || m.Error != nil)
}

// RPCError is the JSON-RPC error object.
type RPCError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return e.Message
}

// Implementation identifies one side of the connection.
type Implementation struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// InitializeParams is the client half of capability negotiation.
type InitializeParams struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ClientCapabilities `json:"capabilities"`
	ClientInfo      Implementation     `json:"clientInfo"`
}

// InitializeResult is the server half of capability negotiation.
type InitializeResult struct {
	ProtocolVersion string             `json:"protocolVersion"`
	Capabilities    ServerCapabilities `json:"capabilities"`
	ServerInfo      Implementation     `json:"serverInfo"`
	Instructions    string             `json:"instructions,omitempty"`
}

// ClientCapabilities is accepted as-is; this implementation requires none.
type ClientCapabilities struct {
	Experimental map[string]any `json:"experimental,omitempty"`
}

// ServerCapabilities advertises which registries the server populated.
type ServerCapabilities struct {
	Tools     *ToolsCapability     `json:"tools,omitempty"`
	Resources *ResourcesCapability `json:"resources,omitempty"`
	Prompts   *PromptsCapability   `json:"prompts,omitempty"`
}

// ToolsCapability marks the tool registry as available.
type ToolsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// ResourcesCapability marks the resource registry as available.
type ResourcesCapability struct {
	Subscribe   bool `json:"subscribe,omitempty"`
	ListChanged bool `json:"listChanged,omitempty"`
}

// PromptsCapability marks the prompt registry as available.
type PromptsCapability struct {
	ListChanged bool `json:"listChanged,omitempty"`
}

// Tool describes one callable tool: its external name, human description
// and the schema its arguments are validated against.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	InputSchema ToolInputSchema `json:"inputSchema"`
}

// ListToolsResult answers tools/list.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// CallToolParams carries a tools/call invocation.
type CallToolParams struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// CallToolResult is an ordered sequence of content parts plus an error
// flag. Domain failures set IsError with the kind tag embedded in the
// text; transport faults never reach this type.
type CallToolResult struct {
	Content []Content `json:"content"`
	IsError bool      `json:"isError,omitempty"`
}

// Text concatenates the text parts of the result. Convenient for callers
// that expect a single text payload, which every accounting tool produces.
func (r *CallToolResult) Text() string {
	var out string
	for _, c := range r.Content {
		if c.Type == ContentTypeText {
			if out != "" {
				out += "\n"
			}
			out += c.Text
		}
	}
	return out
}

// Resource describes a readable URI the server exposes.
type Resource struct {
	URI         string `json:"uri"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
}

// ListResourcesResult answers resources/list.
type ListResourcesResult struct {
	Resources []Resource `json:"resources"`
}

// ReadResourceParams carries a resources/read invocation.
type ReadResourceParams struct {
	URI string `json:"uri"`
}

// ResourceContents is one block of a read resource.
type ResourceContents struct {
	URI      string `json:"uri"`
	MimeType string `json:"mimeType,omitempty"`
	Text     string `json:"text,omitempty"`
	Blob     string `json:"blob,omitempty"`
}

// ReadResourceResult answers resources/read.
type ReadResourceResult struct {
	Contents []ResourceContents `json:"contents"`
}

// Prompt describes a named message-template producer.
type Prompt struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Arguments   []PromptArgument `json:"arguments,omitempty"`
}

// PromptArgument is one templated variable of a prompt.
type PromptArgument struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Required    bool   `json:"required,omitempty"`
}

// ListPromptsResult answers prompts/list.
type ListPromptsResult struct {
	Prompts []Prompt `json:"prompts"`
}

// GetPromptParams carries a prompts/get invocation.
type GetPromptParams struct {
	Name      string            `json:"name"`
	Arguments map[string]string `json:"arguments,omitempty"`
}

// PromptMessage is one rendered chat message.
type PromptMessage struct {
	Role    string  `json:"role"`
	Content Content `json:"content"`
}

// GetPromptResult answers prompts/get.
type GetPromptResult struct {
	Description string          `json:"description,omitempty"`
	Messages    []PromptMessage `json:"messages"`
}

// NewRequest assembles a request envelope. Params must marshal cleanly.
func NewRequest(id json.RawMessage, method string, params any) (*JSONRPCMessage, error) {
	msg := &JSONRPCMessage{JSONRPC: JSONRPCVersion, ID: id, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		msg.Params = raw
	}
	return msg, nil
}

// NewResponse assembles a success response echoing the request id.
func NewResponse(id json.RawMessage, result any) (*JSONRPCMessage, error) {
	raw, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return &JSONRPCMessage{JSONRPC: JSONRPCVersion, ID: id, Result: raw}, nil
}

// NewErrorResponse assembles a JSON-RPC error response.
func NewErrorResponse(id json.RawMessage, code int, message string) *JSONRPCMessage {
	return &JSONRPCMessage{
		JSONRPC: JSONRPCVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	}
}
