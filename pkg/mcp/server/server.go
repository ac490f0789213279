// Package server implements the tool-server half of the MCP contract:
// tool/resource/prompt registries, JSON-RPC dispatch, schema validation at
// the decode boundary, domain-error-to-result conversion and graceful
// shutdown. Transport lives in ServeStdio.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/mcp"
)

// ToolHandlerFunc executes one validated tool call. A returned domain
// error becomes an isError result; only transport faults surface as
// JSON-RPC errors.
type ToolHandlerFunc func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ResourceHandlerFunc produces the contents of a registered resource URI.
type ResourceHandlerFunc func(ctx context.Context) ([]mcp.ResourceContents, error)

// PromptHandlerFunc renders a registered prompt with caller arguments.
type PromptHandlerFunc func(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error)

type registeredTool struct {
	tool    mcp.Tool
	handler ToolHandlerFunc
}

type registeredResource struct {
	resource mcp.Resource
	handler  ResourceHandlerFunc
}

type registeredPrompt struct {
	prompt  mcp.Prompt
	handler PromptHandlerFunc
}

// Server owns the registries and the dispatch loop state for one tool
// server process.
type Server struct {
	info         mcp.Implementation
	instructions string
	callTimeout  time.Duration
	gracePeriod  time.Duration

	mu        sync.RWMutex
	tools     map[string]*registeredTool
	toolOrder []string
	resources map[string]*registeredResource
	resOrder  []string
	prompts   map[string]*registeredPrompt
	promOrder []string

	stateMu      sync.Mutex
	initialized  bool
	shuttingDown bool
	inFlight     sync.WaitGroup

	log *logrus.Entry
}

// Option configures a Server.
type Option func(*Server)

// WithInstructions sets the instructions string advertised on initialize.
func WithInstructions(s string) Option {
	return func(srv *Server) { srv.instructions = s }
}

// WithCallTimeout bounds each tool call; exceeding it yields a Timeout
// error result. Zero means no per-call deadline.
func WithCallTimeout(d time.Duration) Option {
	return func(srv *Server) { srv.callTimeout = d }
}

// WithGracePeriod bounds how long Shutdown waits for in-flight calls.
func WithGracePeriod(d time.Duration) Option {
	return func(srv *Server) { srv.gracePeriod = d }
}

// NewServer builds an empty server identified by name/version.
func NewServer(name, version string, opts ...Option) *Server {
	s := &Server{
		info:        mcp.Implementation{Name: name, Version: version},
		gracePeriod: 10 * time.Second,
		tools:       map[string]*registeredTool{},
		resources:   map[string]*registeredResource{},
		prompts:     map[string]*registeredPrompt{},
		log:         logrus.WithField("server", name),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AddTool registers a tool. Re-registering a name replaces the handler but
// keeps the original listing position.
func (s *Server) AddTool(tool mcp.Tool, handler ToolHandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.tools[tool.Name]; !exists {
		s.toolOrder = append(s.toolOrder, tool.Name)
	}
	s.tools[tool.Name] = &registeredTool{tool: tool, handler: handler}
}

// AddResource registers a readable URI.
func (s *Server) AddResource(resource mcp.Resource, handler ResourceHandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.resources[resource.URI]; !exists {
		s.resOrder = append(s.resOrder, resource.URI)
	}
	s.resources[resource.URI] = &registeredResource{resource: resource, handler: handler}
}

// AddPrompt registers a prompt template producer.
func (s *Server) AddPrompt(prompt mcp.Prompt, handler PromptHandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.prompts[prompt.Name]; !exists {
		s.promOrder = append(s.promOrder, prompt.Name)
	}
	s.prompts[prompt.Name] = &registeredPrompt{prompt: prompt, handler: handler}
}

// Name returns the server's advertised name.
func (s *Server) Name() string { return s.info.Name }

// ShuttingDown reports whether a shutdown request has been accepted.
func (s *Server) ShuttingDown() bool {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	return s.shuttingDown
}

// capabilities reflects which registries are populated.
func (s *Server) capabilities() mcp.ServerCapabilities {
	s.mu.RLock()
	defer s.mu.RUnlock()
	caps := mcp.ServerCapabilities{}
	if len(s.tools) > 0 {
		caps.Tools = &mcp.ToolsCapability{}
	}
	if len(s.resources) > 0 {
		caps.Resources = &mcp.ResourcesCapability{}
	}
	if len(s.prompts) > 0 {
		caps.Prompts = &mcp.PromptsCapability{}
	}
	return caps
}

// HandleMessage dispatches one raw JSON-RPC message and returns the
// marshalled response, or nil for notifications.
func (s *Server) HandleMessage(ctx context.Context, raw []byte) []byte {
	var msg mcp.JSONRPCMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return marshalMessage(mcp.NewErrorResponse(nil, mcp.CodeParseError, "parse error: invalid JSON"))
	}
	if msg.Method == "" {
		// A bare response has no business arriving at a server; drop it.
		return nil
	}

	s.stateMu.Lock()
	if s.shuttingDown && msg.Method != mcp.MethodShutdown {
		s.stateMu.Unlock()
		if msg.IsNotification() {
			return nil
		}
		return marshalMessage(mcp.NewErrorResponse(msg.ID, mcp.CodeInvalidRequest, "server is shutting down"))
	}
	s.inFlight.Add(1)
	s.stateMu.Unlock()
	defer s.inFlight.Done()

	response := s.dispatch(ctx, &msg)
	if response == nil || msg.IsNotification() {
		return nil
	}
	return marshalMessage(response)
}

func (s *Server) dispatch(ctx context.Context, msg *mcp.JSONRPCMessage) *mcp.JSONRPCMessage {
	s.log.WithField("method", msg.Method).Debug("dispatch")
	switch msg.Method {
	case mcp.MethodInitialize:
		return s.handleInitialize(msg)
	case mcp.MethodInitialized:
		return nil
	case mcp.MethodPing:
		return mustResponse(msg.ID, struct{}{})
	case mcp.MethodToolsList:
		return s.handleToolsList(msg)
	case mcp.MethodToolsCall:
		return s.handleToolsCall(ctx, msg)
	case mcp.MethodResourcesList:
		return s.handleResourcesList(msg)
	case mcp.MethodResourcesRead:
		return s.handleResourcesRead(ctx, msg)
	case mcp.MethodPromptsList:
		return s.handlePromptsList(msg)
	case mcp.MethodPromptsGet:
		return s.handlePromptsGet(ctx, msg)
	case mcp.MethodShutdown:
		return s.handleShutdown(msg)
	default:
		return mcp.NewErrorResponse(msg.ID, mcp.CodeMethodNotFound, fmt.Sprintf("method not found: %s", msg.Method))
	}
}

func (s *Server) handleInitialize(msg *mcp.JSONRPCMessage) *mcp.JSONRPCMessage {
	var params mcp.InitializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return mcp.NewErrorResponse(msg.ID, mcp.CodeInvalidParams, "invalid initialize params")
		}
	}
	s.stateMu.Lock()
	s.initialized = true
	s.stateMu.Unlock()
	s.log.WithField("client", params.ClientInfo.Name).Info("initialized")

	return mustResponse(msg.ID, mcp.InitializeResult{
		ProtocolVersion: mcp.ProtocolVersion,
		Capabilities:    s.capabilities(),
		ServerInfo:      s.info,
		Instructions:    s.instructions,
	})
}

func (s *Server) handleShutdown(msg *mcp.JSONRPCMessage) *mcp.JSONRPCMessage {
	s.stateMu.Lock()
	s.shuttingDown = true
	s.stateMu.Unlock()
	s.log.Info("shutdown requested")
	return mustResponse(msg.ID, struct{}{})
}

func (s *Server) handleToolsList(msg *mcp.JSONRPCMessage) *mcp.JSONRPCMessage {
	s.mu.RLock()
	tools := make([]mcp.Tool, 0, len(s.toolOrder))
	for _, name := range s.toolOrder {
		tools = append(tools, s.tools[name].tool)
	}
	s.mu.RUnlock()
	return mustResponse(msg.ID, mcp.ListToolsResult{Tools: tools})
}

func (s *Server) handleToolsCall(ctx context.Context, msg *mcp.JSONRPCMessage) *mcp.JSONRPCMessage {
	var params mcp.CallToolParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return mcp.NewErrorResponse(msg.ID, mcp.CodeInvalidParams, "invalid tools/call params")
	}

	s.mu.RLock()
	reg, ok := s.tools[params.Name]
	s.mu.RUnlock()
	if !ok {
		return mcp.NewErrorResponse(msg.ID, mcp.CodeInvalidParams, fmt.Sprintf("unknown tool: %s", params.Name))
	}

	if params.Arguments == nil {
		params.Arguments = map[string]any{}
	}
	if err := mcp.ValidateArguments(reg.tool.InputSchema, params.Arguments); err != nil {
		return mustResponse(msg.ID, mcp.NewToolResultError(err.Error()))
	}

	result := s.runTool(ctx, reg, mcp.CallToolRequest{Params: params})
	return mustResponse(msg.ID, result)
}

// runTool executes the handler with panic isolation, the optional per-call
// deadline and domain-error conversion.
func (s *Server) runTool(ctx context.Context, reg *registeredTool, req mcp.CallToolRequest) (result *mcp.CallToolResult) {
	if s.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.callTimeout)
		defer cancel()
	}

	defer func() {
		if r := recover(); r != nil {
			s.log.WithField("tool", reg.tool.Name).Errorf("handler panic: %v\n%s", r, debug.Stack())
			result = mcp.NewToolResultError(fmt.Sprintf("%s: internal failure in tool %s", errs.KindIO, reg.tool.Name))
		}
	}()

	res, err := reg.handler(ctx, req)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return mcp.NewToolResultError(errs.Timeoutf("tool %s exceeded the call deadline", reg.tool.Name).Error())
		}
		return mcp.NewToolResultError(err.Error())
	}
	if res == nil {
		res = mcp.NewToolResultText("")
	}
	return res
}

func (s *Server) handleResourcesList(msg *mcp.JSONRPCMessage) *mcp.JSONRPCMessage {
	s.mu.RLock()
	resources := make([]mcp.Resource, 0, len(s.resOrder))
	for _, uri := range s.resOrder {
		resources = append(resources, s.resources[uri].resource)
	}
	s.mu.RUnlock()
	return mustResponse(msg.ID, mcp.ListResourcesResult{Resources: resources})
}

func (s *Server) handleResourcesRead(ctx context.Context, msg *mcp.JSONRPCMessage) *mcp.JSONRPCMessage {
	var params mcp.ReadResourceParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return mcp.NewErrorResponse(msg.ID, mcp.CodeInvalidParams, "invalid resources/read params")
	}
	s.mu.RLock()
	reg, ok := s.resources[params.URI]
	s.mu.RUnlock()
	if !ok {
		return mcp.NewErrorResponse(msg.ID, mcp.CodeInvalidParams, fmt.Sprintf("unknown resource: %s", params.URI))
	}
	contents, err := reg.handler(ctx)
	if err != nil {
		return mcp.NewErrorResponse(msg.ID, mcp.CodeInternalError, err.Error())
	}
	return mustResponse(msg.ID, mcp.ReadResourceResult{Contents: contents})
}

func (s *Server) handlePromptsList(msg *mcp.JSONRPCMessage) *mcp.JSONRPCMessage {
	s.mu.RLock()
	prompts := make([]mcp.Prompt, 0, len(s.promOrder))
	for _, name := range s.promOrder {
		prompts = append(prompts, s.prompts[name].prompt)
	}
	s.mu.RUnlock()
	return mustResponse(msg.ID, mcp.ListPromptsResult{Prompts: prompts})
}

func (s *Server) handlePromptsGet(ctx context.Context, msg *mcp.JSONRPCMessage) *mcp.JSONRPCMessage {
	var params mcp.GetPromptParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		return mcp.NewErrorResponse(msg.ID, mcp.CodeInvalidParams, "invalid prompts/get params")
	}
	s.mu.RLock()
	reg, ok := s.prompts[params.Name]
	s.mu.RUnlock()
	if !ok {
		return mcp.NewErrorResponse(msg.ID, mcp.CodeInvalidParams, fmt.Sprintf("unknown prompt: %s", params.Name))
	}
	result, err := reg.handler(ctx, params.Arguments)
	if err != nil {
		return mcp.NewErrorResponse(msg.ID, mcp.CodeInternalError, err.Error())
	}
	return mustResponse(msg.ID, result)
}

// Shutdown waits for in-flight calls up to the grace period; afterwards
// the caller is expected to exit regardless.
func (s *Server) Shutdown(ctx context.Context) error {
	s.stateMu.Lock()
	s.shuttingDown = true
	s.stateMu.Unlock()

	done := make(chan struct{})
	go func() {
		s.inFlight.Wait()
		close(done)
	}()

	grace := s.gracePeriod
	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case <-done:
		s.log.Info("all in-flight calls drained")
		return nil
	case <-timer.C:
		s.log.Warnf("grace period %v elapsed with calls still in flight", grace)
		return errs.Timeoutf("shutdown grace period %v exceeded", grace)
	case <-ctx.Done():
		return ctx.Err()
	}
}

func mustResponse(id json.RawMessage, result any) *mcp.JSONRPCMessage {
	msg, err := mcp.NewResponse(id, result)
	if err != nil {
		// Results are our own types; a marshal failure is a programmer error.
		return mcp.NewErrorResponse(id, mcp.CodeInternalError, "failed to marshal result: "+err.Error())
	}
	return msg
}

func marshalMessage(msg *mcp.JSONRPCMessage) []byte {
	raw, err := json.Marshal(msg)
	if err != nil {
		raw, _ = json.Marshal(mcp.NewErrorResponse(msg.ID, mcp.CodeInternalError, "failed to marshal response"))
	}
	return raw
}
