package terminal

import (
	"context"

	"agentic_accounting/pkg/core/config"
	"agentic_accounting/pkg/mcp"
	"agentic_accounting/pkg/mcp/server"
)

// Version is advertised on initialize.
const Version = "1.0.0"

// NewServer assembles the terminal tool server over the configured policy.
func NewServer(cfg *config.Config) *server.Server {
	executor := NewExecutor(Policy{
		AllowedRoot:      cfg.TerminalAllowedDir,
		DefaultTimeoutMS: cfg.TerminalDefaultTimeoutMS,
		MaxOutputBytes:   cfg.TerminalMaxOutputBytes,
		HistoryLimit:     cfg.TerminalHistoryLimit,
	})

	srv := server.NewServer("terminal", Version,
		server.WithInstructions("Runs commands under a safety blacklist and working-directory jail. Use validate_command to test policy without executing."))

	srv.AddTool(mcp.Tool{
		Name:        "execute_terminal_command",
		Description: "Execute a command with arguments under the safety policy; returns exit code and captured output",
		InputSchema: commandSchema().
			WithInteger("timeout", "per-call timeout in milliseconds", 1, 600000).
			WithBoolean("captureOutput", "capture stdout/stderr (default true)").
			WithObject("environment", "extra environment variables").
			Require("command"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		result, err := executor.Execute(ctx, decodeRequest(req))
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultJSON(map[string]any{
			"success": true,
			"result":  result,
		})
	})

	srv.AddTool(mcp.Tool{
		Name:        "validate_command",
		Description: "Apply the execution policy to a command without running it",
		InputSchema: commandSchema().Require("command"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		decoded := decodeRequest(req)
		if err := executor.Validate(decoded); err != nil {
			return nil, err
		}
		return mcp.NewToolResultJSON(map[string]any{
			"success": true,
			"command": decoded.Command,
			"allowed": true,
		})
	})

	srv.AddTool(mcp.Tool{
		Name:        "get_command_history",
		Description: "List recent command invocations, newest first",
		InputSchema: mcp.ObjectSchema().
			WithInteger("limit", "maximum entries to return", 1, 1000),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entries := executor.History(req.GetInt("limit", 0))
		return mcp.NewToolResultJSON(map[string]any{
			"success": true,
			"count":   len(entries),
			"history": entries,
		})
	})

	return srv
}

func commandSchema() mcp.ToolInputSchema {
	return mcp.ObjectSchema().
		WithString("command", "binary to execute (no shell interpretation)").
		WithStringArray("arguments", "argument vector").
		WithString("workingDirectory", "working directory inside the allowed root")
}

func decodeRequest(req mcp.CallToolRequest) Request {
	return Request{
		Command:          req.GetString("command", ""),
		Arguments:        req.GetStringSlice("arguments", nil),
		WorkingDirectory: req.GetString("workingDirectory", ""),
		TimeoutMS:        req.GetInt("timeout", 0),
		CaptureOutput:    req.GetBool("captureOutput", true),
		Environment:      req.GetStringMap("environment"),
	}
}
