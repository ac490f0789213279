package contextmgr

import (
	"context"

	"agentic_accounting/pkg/core/llm"
	"agentic_accounting/pkg/mcp"
	"agentic_accounting/pkg/mcp/server"
)

// Version is advertised on initialize.
const ServerVersion = "1.0.0"

// NewServer assembles the context-manager tool server. provider may be
// nil; summarize then falls back to the deterministic digest.
func NewServer(provider llm.Provider) *server.Server {
	m := NewManager(provider)

	srv := server.NewServer("context-manager", ServerVersion,
		server.WithInstructions("Maintains an in-memory working context with versioned snapshots. Nothing persists across restarts except what you export."))

	srv.AddTool(mcp.Tool{
		Name:        "add_context",
		Description: "Append one typed text fragment to the working context",
		InputSchema: mcp.ObjectSchema().
			WithString("content", "the text to store").
			WithEnum("contextType", "kind of fragment", Types...).
			Require("content", "contextType"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entry, err := m.Add(req.GetString("contextType", ""), req.GetString("content", ""))
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultJSON(map[string]any{"success": true, "entry": entry})
	})

	srv.AddTool(mcp.Tool{
		Name:        "get_context",
		Description: "Return the stored context, optionally filtered by type",
		InputSchema: mcp.ObjectSchema().
			WithEnum("contextType", "filter to one kind", Types...),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		entries := m.Entries(req.GetString("contextType", ""))
		return mcp.NewToolResultJSON(map[string]any{"success": true, "count": len(entries), "entries": entries})
	})

	srv.AddTool(mcp.Tool{
		Name:        "summarize_context",
		Description: "Summarize the whole context, via the configured LLM when available",
		InputSchema: mcp.ObjectSchema().
			WithInteger("maxLength", "summary budget in characters", 100, 100000),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		summary, err := m.Summarize(ctx, req.GetInt("maxLength", 0))
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultJSON(map[string]any{"success": true, "summary": summary})
	})

	srv.AddTool(mcp.Tool{
		Name:        "clean_context",
		Description: "Remove context entries (all, or one type); requires confirm",
		InputSchema: mcp.ObjectSchema().
			WithEnum("contextType", "restrict removal to one kind", Types...).
			WithBoolean("confirm", "must be true; this is destructive").
			Require("confirm"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		removed, err := m.Clean(req.GetString("contextType", ""), req.GetBool("confirm", false))
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultJSON(map[string]any{"success": true, "removed": removed})
	})

	srv.AddTool(mcp.Tool{
		Name:        "optimize_context",
		Description: "Reduce context size by deduplication and optional compaction",
		InputSchema: mcp.ObjectSchema().
			WithEnum("strategy", "optimization strategy", StrategyDedupe, StrategyCompact),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		removed, compacted, err := m.Optimize(req.GetString("strategy", ""))
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultJSON(map[string]any{
			"success": true, "removed": removed, "compacted": compacted,
		})
	})

	srv.AddTool(mcp.Tool{
		Name:        "create_context_version",
		Description: "Snapshot the current context under a fresh version id",
		InputSchema: mcp.ObjectSchema().
			WithString("label", "optional human label for the snapshot"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		v := m.CreateVersion(req.GetString("label", ""))
		return mcp.NewToolResultJSON(map[string]any{"success": true, "version": v})
	})

	srv.AddTool(mcp.Tool{
		Name:        "restore_context_version",
		Description: "Replace the live context with a snapshot",
		InputSchema: mcp.ObjectSchema().
			WithString("versionId", "id returned by create_context_version").
			Require("versionId"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		v, err := m.RestoreVersion(req.GetString("versionId", ""))
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultJSON(map[string]any{"success": true, "version": v})
	})

	srv.AddTool(mcp.Tool{
		Name:        "list_context_versions",
		Description: "List snapshots, newest first",
		InputSchema: mcp.ObjectSchema(),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		versions := m.ListVersions()
		return mcp.NewToolResultJSON(map[string]any{"success": true, "count": len(versions), "versions": versions})
	})

	srv.AddTool(mcp.Tool{
		Name:        "get_context_metrics",
		Description: "Report entry counts, bytes, estimated tokens and version count",
		InputSchema: mcp.ObjectSchema(),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return mcp.NewToolResultJSON(map[string]any{"success": true, "metrics": m.Metrics()})
	})

	return srv
}
