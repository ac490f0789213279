// Package client launches MCP tool servers as child processes and talks
// line-delimited JSON-RPC to them over stdin/stdout. The categorization
// pipeline uses it to reach the Accountant server exactly the way any
// other MCP client would.
package client

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"agentic_accounting/pkg/mcp"
)

// maxLineBytes mirrors the server-side bound.
const maxLineBytes = 16 * 1024 * 1024

// Client is one live connection to a spawned tool server.
type Client struct {
	serverName string
	cmd        *exec.Cmd
	stdin      io.WriteCloser

	writeMu sync.Mutex
	mu      sync.Mutex
	pending map[string]chan *mcp.JSONRPCMessage
	nextID  atomic.Int64

	done     chan struct{}
	exitOnce sync.Once

	serverInfo mcp.Implementation
	log        *logrus.Entry
}

// Launch starts the server process and wires the message pump. Env entries
// are appended to the parent environment. The caller must Initialize
// before issuing tool calls and Close when finished.
func Launch(ctx context.Context, serverName, command string, args []string, env map[string]string) (*Client, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}
	// The child's stderr is its log channel; pass it through.
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("launch %s: stdin pipe: %w", serverName, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("launch %s: stdout pipe: %w", serverName, err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("launch %s: %w", serverName, err)
	}

	c := &Client{
		serverName: serverName,
		cmd:        cmd,
		stdin:      stdin,
		pending:    map[string]chan *mcp.JSONRPCMessage{},
		done:       make(chan struct{}),
		log:        logrus.WithField("client", serverName),
	}
	go c.readLoop(stdout)
	return c, nil
}

func (c *Client) readLoop(stdout io.Reader) {
	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var msg mcp.JSONRPCMessage
		if err := json.Unmarshal(line, &msg); err != nil {
			c.log.Warnf("discarding unparseable line from server: %v", err)
			continue
		}
		if !msg.IsResponse() {
			// Server-initiated notifications are legal; nothing here acts
			// on them.
			continue
		}
		c.deliver(&msg)
	}
	c.exitOnce.Do(func() { close(c.done) })
}

func (c *Client) deliver(msg *mcp.JSONRPCMessage) {
	key := string(msg.ID)
	c.mu.Lock()
	ch, ok := c.pending[key]
	if ok {
		delete(c.pending, key)
	}
	c.mu.Unlock()
	if ok {
		ch <- msg
	}
}

// request sends one request and waits for its response, the context or
// process exit — whichever happens first.
func (c *Client) request(ctx context.Context, method string, params any) (*mcp.JSONRPCMessage, error) {
	id := strconv.FormatInt(c.nextID.Add(1), 10)
	msg, err := mcp.NewRequest(json.RawMessage(id), method, params)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", method, err)
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("%s request: %w", method, err)
	}

	ch := make(chan *mcp.JSONRPCMessage, 1)
	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
	}()

	if err := c.writeLine(raw); err != nil {
		return nil, err
	}

	select {
	case resp := <-ch:
		if resp.Error != nil {
			return nil, fmt.Errorf("%s: server error %d: %s", method, resp.Error.Code, resp.Error.Message)
		}
		return resp, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-c.done:
		return nil, fmt.Errorf("%s: server %s exited before responding", method, c.serverName)
	}
}

// notify sends a notification (no response expected).
func (c *Client) notify(method string, params any) error {
	msg, err := mcp.NewRequest(nil, method, params)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	return c.writeLine(raw)
}

func (c *Client) writeLine(raw []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.stdin.Write(append(raw, '\n')); err != nil {
		return fmt.Errorf("write to %s: %w", c.serverName, err)
	}
	return nil
}

// Initialize performs capability negotiation and the initialized
// notification.
func (c *Client) Initialize(ctx context.Context, clientName, clientVersion string) (*mcp.InitializeResult, error) {
	resp, err := c.request(ctx, mcp.MethodInitialize, mcp.InitializeParams{
		ProtocolVersion: mcp.ProtocolVersion,
		ClientInfo:      mcp.Implementation{Name: clientName, Version: clientVersion},
	})
	if err != nil {
		return nil, err
	}
	var result mcp.InitializeResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("initialize: bad result: %w", err)
	}
	c.serverInfo = result.ServerInfo
	c.log.WithField("server", result.ServerInfo.Name).Info("initialized")
	if err := c.notify(mcp.MethodInitialized, struct{}{}); err != nil {
		return nil, err
	}
	return &result, nil
}

// ServerInfo returns the identity advertised on initialize.
func (c *Client) ServerInfo() mcp.Implementation { return c.serverInfo }

// ListTools fetches the server's tool catalogue.
func (c *Client) ListTools(ctx context.Context) ([]mcp.Tool, error) {
	resp, err := c.request(ctx, mcp.MethodToolsList, nil)
	if err != nil {
		return nil, err
	}
	var result mcp.ListToolsResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("tools/list: bad result: %w", err)
	}
	return result.Tools, nil
}

// CallTool invokes one tool. Domain failures come back as IsError results,
// not Go errors; callers inspect the flag.
func (c *Client) CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	resp, err := c.request(ctx, mcp.MethodToolsCall, mcp.CallToolParams{Name: name, Arguments: args})
	if err != nil {
		return nil, err
	}
	var result mcp.CallToolResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("tools/call %s: bad result: %w", name, err)
	}
	return &result, nil
}

// ReadResource fetches a registered resource URI.
func (c *Client) ReadResource(ctx context.Context, uri string) ([]mcp.ResourceContents, error) {
	resp, err := c.request(ctx, mcp.MethodResourcesRead, mcp.ReadResourceParams{URI: uri})
	if err != nil {
		return nil, err
	}
	var result mcp.ReadResourceResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("resources/read %s: bad result: %w", uri, err)
	}
	return result.Contents, nil
}

// GetPrompt renders a registered prompt.
func (c *Client) GetPrompt(ctx context.Context, name string, args map[string]string) (*mcp.GetPromptResult, error) {
	resp, err := c.request(ctx, mcp.MethodPromptsGet, mcp.GetPromptParams{Name: name, Arguments: args})
	if err != nil {
		return nil, err
	}
	var result mcp.GetPromptResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		return nil, fmt.Errorf("prompts/get %s: bad result: %w", name, err)
	}
	return &result, nil
}

// Close asks the server to shut down, closes the pipe and waits briefly
// before killing the process.
func (c *Client) Close() error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if _, err := c.request(shutdownCtx, mcp.MethodShutdown, nil); err != nil {
		c.log.Warnf("shutdown request failed: %v", err)
	}
	c.stdin.Close()

	waited := make(chan error, 1)
	go func() { waited <- c.cmd.Wait() }()
	select {
	case err := <-waited:
		return err
	case <-time.After(5 * time.Second):
		c.log.Warn("server did not exit in time, killing")
		_ = c.cmd.Process.Kill()
		return <-waited
	}
}
