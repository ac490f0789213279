package accountant

import (
	"context"

	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/core/rules"
	"agentic_accounting/pkg/mcp"
	"agentic_accounting/pkg/mcp/server"
	"agentic_accounting/pkg/models"
)

// ruleFromRequest assembles a rule with its account snapshot freshly
// derived from the chart. The snapshot records what the target looked
// like when the rule was written; rules never follow later chart edits.
func (s *Server) ruleFromRequest(req mcp.CallToolRequest) (models.AccountingRule, error) {
	code := req.GetString("accountCode", "")
	if models.IsBankCode(code) {
		return models.AccountingRule{}, errs.Protectedf(
			"rule targets account %s in the protected bank range 001-099; rules may never categorize to a bank account", code)
	}
	account, err := s.books.Chart.Get(code)
	if err != nil {
		return models.AccountingRule{}, errs.Validationf("target account %s is not in the chart of accounts", code)
	}
	return models.AccountingRule{
		Name:        req.GetString("name", ""),
		Priority:    req.GetInt("priority", rules.MinPriority),
		Condition:   req.GetString("condition", ""),
		Action:      req.GetString("action", ""),
		AccountCode: account.Code,
		AccountType: account.Type,
		GSTHandling: account.GSTTreatment,
		Notes:       req.GetString("notes", ""),
	}, nil
}

func ruleSchema() mcp.ToolInputSchema {
	return mcp.ObjectSchema().
		WithString("name", "unique rule name").
		WithInteger("priority", "1 (strongest) to 10", float64(rules.MinPriority), float64(rules.MaxPriority)).
		WithString("condition", "when the rule applies, in prose").
		WithString("action", "what the categorizer should do, in prose").
		WithString("accountCode", "3-digit target account; never a bank account").
		WithString("notes", "optional free-form notes")
}

func (s *Server) registerRuleTools(srv *server.Server) {
	srv.AddTool(mcp.Tool{
		Name:        "add_accounting_rule",
		Description: "Add a named categorization rule targeting a non-bank account",
		InputSchema: ruleSchema().Require("name", "priority", "condition", "action", "accountCode"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		candidate, err := s.ruleFromRequest(req)
		if err != nil {
			return nil, err
		}
		added, err := s.books.Rules.Add(candidate, s.now())
		if err != nil {
			return nil, err
		}
		if err := s.books.SaveRules(); err != nil {
			return nil, err
		}
		return ok(map[string]any{"rule": added})
	})

	srv.AddTool(mcp.Tool{
		Name:        "update_accounting_rule",
		Description: "Replace an existing rule's fields; the created timestamp is preserved",
		InputSchema: ruleSchema().Require("name", "priority", "condition", "action", "accountCode"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		replacement, err := s.ruleFromRequest(req)
		if err != nil {
			return nil, err
		}
		updated, err := s.books.Rules.Update(req.GetString("name", ""), replacement, s.now())
		if err != nil {
			return nil, err
		}
		if err := s.books.SaveRules(); err != nil {
			return nil, err
		}
		return ok(map[string]any{"rule": updated})
	})

	srv.AddTool(mcp.Tool{
		Name:        "delete_accounting_rule",
		Description: "Remove a rule by name; requires confirm",
		InputSchema: mcp.ObjectSchema().
			WithString("name", "existing rule name").
			WithBoolean("confirm", "must be true; this is destructive").
			Require("name", "confirm"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		name := req.GetString("name", "")
		if err := s.books.Rules.Delete(name, req.GetBool("confirm", false)); err != nil {
			return nil, err
		}
		if err := s.books.SaveRules(); err != nil {
			return nil, err
		}
		return ok(map[string]any{"deleted": name})
	})

	srv.AddTool(mcp.Tool{
		Name:        "list_accounting_rules",
		Description: "List rules, optionally filtered by condition substring or target account, optionally by descending priority",
		InputSchema: mcp.ObjectSchema().
			WithString("conditionFilter", "substring over rule conditions").
			WithString("accountCode", "restrict to one target account").
			WithBoolean("byPriority", "sort by descending priority instead of insertion order").
			WithInteger("limit", "maximum results", 1, 1000),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		listed := s.books.Rules.List(
			req.GetString("conditionFilter", ""),
			req.GetString("accountCode", ""),
			req.GetBool("byPriority", false),
			req.GetInt("limit", 0))
		if listed == nil {
			listed = []models.AccountingRule{}
		}
		return ok(map[string]any{"count": len(listed), "rules": listed})
	})
}
