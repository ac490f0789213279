package server

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/mcp"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	s := NewServer("test-accountant", "0.1.0")

	s.AddTool(mcp.Tool{
		Name:        "echo_amount",
		Description: "echoes a positive amount",
		InputSchema: mcp.ObjectSchema().
			WithNumber("amount", "gross amount").
			Require("amount"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		amount := req.GetFloat("amount", 0)
		if amount <= 0 {
			return nil, errs.Validationf("field amount: must be positive, got %v", amount)
		}
		return mcp.NewToolResultJSON(map[string]any{"success": true, "amount": amount})
	})

	s.AddResource(mcp.Resource{
		URI:      "accounting://chart",
		Name:     "Chart of Accounts",
		MimeType: "application/json",
	}, func(ctx context.Context) ([]mcp.ResourceContents, error) {
		return []mcp.ResourceContents{{URI: "accounting://chart", MimeType: "application/json", Text: "[]"}}, nil
	})

	s.AddPrompt(mcp.Prompt{Name: "categorize_transactions"}, func(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
		return &mcp.GetPromptResult{
			Messages: []mcp.PromptMessage{{Role: "user", Content: mcp.NewTextContent("categorize")}},
		}, nil
	})
	return s
}

func call(t *testing.T, s *Server, id, method string, params any) *mcp.JSONRPCMessage {
	t.Helper()
	req, err := mcp.NewRequest(json.RawMessage(id), method, params)
	require.NoError(t, err)
	raw, err := json.Marshal(req)
	require.NoError(t, err)

	respRaw := s.HandleMessage(context.Background(), raw)
	require.NotNil(t, respRaw, "expected a response for %s", method)

	var resp mcp.JSONRPCMessage
	require.NoError(t, json.Unmarshal(respRaw, &resp))
	return &resp
}

func toolResult(t *testing.T, resp *mcp.JSONRPCMessage) *mcp.CallToolResult {
	t.Helper()
	require.Nil(t, resp.Error, "unexpected JSON-RPC error: %+v", resp.Error)
	var result mcp.CallToolResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	return &result
}

func TestInitializeAdvertisesCapabilities(t *testing.T) {
	s := newTestServer(t)

	resp := call(t, s, "1", mcp.MethodInitialize, mcp.InitializeParams{
		ProtocolVersion: mcp.ProtocolVersion,
		ClientInfo:      mcp.Implementation{Name: "test-client", Version: "0.0.1"},
	})
	require.Nil(t, resp.Error)

	var result mcp.InitializeResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	assert.Equal(t, "test-accountant", result.ServerInfo.Name)
	assert.NotNil(t, result.Capabilities.Tools)
	assert.NotNil(t, result.Capabilities.Resources)
	assert.NotNil(t, result.Capabilities.Prompts)
}

func TestToolsListPreservesRegistrationOrder(t *testing.T) {
	s := newTestServer(t)
	s.AddTool(mcp.Tool{Name: "zz_last", InputSchema: mcp.ObjectSchema()}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultText("ok"), nil
	})

	resp := call(t, s, "2", mcp.MethodToolsList, nil)
	var result mcp.ListToolsResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Tools, 2)
	assert.Equal(t, "echo_amount", result.Tools[0].Name)
	assert.Equal(t, "zz_last", result.Tools[1].Name)
}

func TestToolsCallSuccess(t *testing.T) {
	s := newTestServer(t)

	resp := call(t, s, "3", mcp.MethodToolsCall, mcp.CallToolParams{
		Name:      "echo_amount",
		Arguments: map[string]any{"amount": 55.0},
	})
	result := toolResult(t, resp)
	assert.False(t, result.IsError)
	assert.Contains(t, result.Text(), `"success": true`)
}

func TestSchemaViolationBecomesValidationResult(t *testing.T) {
	s := newTestServer(t)

	resp := call(t, s, "4", mcp.MethodToolsCall, mcp.CallToolParams{
		Name:      "echo_amount",
		Arguments: map[string]any{"amount": "fifty"},
	})
	result := toolResult(t, resp)
	assert.True(t, result.IsError)
	assert.True(t, strings.HasPrefix(result.Text(), "ValidationError:"), "got %q", result.Text())
}

func TestDomainErrorBecomesErrorResult(t *testing.T) {
	s := newTestServer(t)

	resp := call(t, s, "5", mcp.MethodToolsCall, mcp.CallToolParams{
		Name:      "echo_amount",
		Arguments: map[string]any{"amount": -5.0},
	})
	result := toolResult(t, resp)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Text(), "ValidationError: field amount")
}

func TestUnknownToolIsTransportError(t *testing.T) {
	s := newTestServer(t)

	resp := call(t, s, "6", mcp.MethodToolsCall, mcp.CallToolParams{Name: "no_such_tool"})
	require.NotNil(t, resp.Error)
	assert.Equal(t, mcp.CodeInvalidParams, resp.Error.Code)
}

func TestUnknownMethodIsMethodNotFound(t *testing.T) {
	s := newTestServer(t)

	resp := call(t, s, "7", "tools/destroy", nil)
	require.NotNil(t, resp.Error)
	assert.Equal(t, mcp.CodeMethodNotFound, resp.Error.Code)
}

func TestResourcesRoundTrip(t *testing.T) {
	s := newTestServer(t)

	listResp := call(t, s, "8", mcp.MethodResourcesList, nil)
	var list mcp.ListResourcesResult
	require.NoError(t, json.Unmarshal(listResp.Result, &list))
	require.Len(t, list.Resources, 1)

	readResp := call(t, s, "9", mcp.MethodResourcesRead, mcp.ReadResourceParams{URI: "accounting://chart"})
	var read mcp.ReadResourceResult
	require.NoError(t, json.Unmarshal(readResp.Result, &read))
	require.Len(t, read.Contents, 1)
	assert.Equal(t, "[]", read.Contents[0].Text)
}

func TestPromptsRoundTrip(t *testing.T) {
	s := newTestServer(t)

	resp := call(t, s, "10", mcp.MethodPromptsGet, mcp.GetPromptParams{Name: "categorize_transactions"})
	var result mcp.GetPromptResult
	require.NoError(t, json.Unmarshal(resp.Result, &result))
	require.Len(t, result.Messages, 1)
	assert.Equal(t, "categorize", result.Messages[0].Content.Text)
}

func TestShutdownRefusesNewCalls(t *testing.T) {
	s := newTestServer(t)

	resp := call(t, s, "11", mcp.MethodShutdown, nil)
	require.Nil(t, resp.Error)

	after := call(t, s, "12", mcp.MethodToolsList, nil)
	require.NotNil(t, after.Error)
	assert.Contains(t, after.Error.Message, "shutting down")
}

func TestHandlerPanicIsIsolated(t *testing.T) {
	s := NewServer("panicky", "0.0.1")
	s.AddTool(mcp.Tool{Name: "boom", InputSchema: mcp.ObjectSchema()}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		panic("framework bug")
	})

	resp := call(t, s, "13", mcp.MethodToolsCall, mcp.CallToolParams{Name: "boom"})
	result := toolResult(t, resp)
	assert.True(t, result.IsError)
	assert.Contains(t, result.Text(), "IOError")
}

func TestServeProcessesLineDelimitedStream(t *testing.T) {
	s := newTestServer(t)

	var input bytes.Buffer
	for i, m := range []struct {
		method string
		params any
	}{
		{mcp.MethodInitialize, mcp.InitializeParams{ProtocolVersion: mcp.ProtocolVersion}},
		{mcp.MethodToolsCall, mcp.CallToolParams{Name: "echo_amount", Arguments: map[string]any{"amount": 11.0}}},
		{mcp.MethodShutdown, nil},
	} {
		req, err := mcp.NewRequest(json.RawMessage{byte('1' + i)}, m.method, m.params)
		require.NoError(t, err)
		raw, err := json.Marshal(req)
		require.NoError(t, err)
		input.Write(raw)
		input.WriteByte('\n')
	}

	var output bytes.Buffer
	require.NoError(t, Serve(context.Background(), s, &input, &output))

	responses := map[string]*mcp.JSONRPCMessage{}
	for _, line := range strings.Split(strings.TrimSpace(output.String()), "\n") {
		var msg mcp.JSONRPCMessage
		require.NoError(t, json.Unmarshal([]byte(line), &msg))
		responses[string(msg.ID)] = &msg
	}
	require.Len(t, responses, 3)
	for id, msg := range responses {
		assert.Nil(t, msg.Error, "response %s carried an error", id)
	}
}
