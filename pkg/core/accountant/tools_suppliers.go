package accountant

import (
	"context"

	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/mcp"
	"agentic_accounting/pkg/mcp/server"
	"agentic_accounting/pkg/models"
)

func (s *Server) registerSupplierTools(srv *server.Server) {
	srv.AddTool(mcp.Tool{
		Name:        "create_supplier",
		Description: "Register a new supplier. Names that fuzzy-match an existing supplier are rejected as conflicts.",
		InputSchema: mcp.ObjectSchema().
			WithString("name", "canonical supplier name").
			WithString("supplies", "what the supplier provides").
			WithString("accountCode", "optional preferred 3-digit categorization account").
			Require("name", "supplies"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		candidate := models.Supplier{
			Name:     req.GetString("name", ""),
			Supplies: req.GetString("supplies", ""),
			Account:  req.GetString("accountCode", ""),
		}
		if candidate.Account != "" && !s.books.Chart.Exists(candidate.Account) {
			return nil, errs.Validationf("preferred account %s is not in the chart of accounts", candidate.Account)
		}
		if err := s.books.Suppliers.Create(candidate); err != nil {
			return nil, err
		}
		if err := s.books.SaveSuppliers(); err != nil {
			return nil, err
		}
		return ok(map[string]any{"supplier": candidate})
	})

	srv.AddTool(mcp.Tool{
		Name:        "read_supplier",
		Description: "Resolve a supplier by name: exact lookup, or fuzzy matches best first",
		InputSchema: mcp.ObjectSchema().
			WithString("query", "supplier name or fragment").
			WithBoolean("exactMatch", "require a normalized exact hit").
			Require("query"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := req.GetString("query", "")
		matches := s.books.Suppliers.Read(query, req.GetBool("exactMatch", false))
		if len(matches) == 0 {
			return nil, errs.NotFoundf("no supplier matching %q", query)
		}
		return ok(map[string]any{"count": len(matches), "matches": matches})
	})

	srv.AddTool(mcp.Tool{
		Name:        "update_supplier",
		Description: "Modify a supplier's supplies text or preferred account. Empty fields keep their value; clearAccount drops the account.",
		InputSchema: mcp.ObjectSchema().
			WithString("name", "existing supplier name").
			WithString("supplies", "replacement supplies text").
			WithString("accountCode", "replacement preferred account").
			WithBoolean("clearAccount", "remove the preferred account").
			Require("name"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		account := req.GetString("accountCode", "")
		if account != "" && !s.books.Chart.Exists(account) {
			return nil, errs.Validationf("preferred account %s is not in the chart of accounts", account)
		}
		updated, err := s.books.Suppliers.Update(
			req.GetString("name", ""), req.GetString("supplies", ""), account, req.GetBool("clearAccount", false))
		if err != nil {
			return nil, err
		}
		if err := s.books.SaveSuppliers(); err != nil {
			return nil, err
		}
		return ok(map[string]any{"supplier": updated})
	})

	srv.AddTool(mcp.Tool{
		Name:        "delete_supplier",
		Description: "Remove a supplier from the directory; requires confirm",
		InputSchema: mcp.ObjectSchema().
			WithString("name", "existing supplier name").
			WithBoolean("confirm", "must be true; this is destructive").
			Require("name", "confirm"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name := req.GetString("name", "")
		if err := s.books.Suppliers.Delete(name, req.GetBool("confirm", false)); err != nil {
			return nil, err
		}
		if err := s.books.SaveSuppliers(); err != nil {
			return nil, err
		}
		return ok(map[string]any{"deleted": name})
	})

	srv.AddTool(mcp.Tool{
		Name:        "list_suppliers",
		Description: "List suppliers sorted by name, optionally filtered by a substring over name and supplies",
		InputSchema: mcp.ObjectSchema().
			WithString("filter", "substring filter").
			WithInteger("limit", "maximum results", 1, 1000),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		suppliers := s.books.Suppliers.List(req.GetString("filter", ""), req.GetInt("limit", 0))
		if suppliers == nil {
			suppliers = []models.Supplier{}
		}
		return ok(map[string]any{"count": len(suppliers), "suppliers": suppliers})
	})
}
