package accountant

import (
	"context"
	"sort"
	"strings"

	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/mcp"
	"agentic_accounting/pkg/mcp/server"
	"agentic_accounting/pkg/models"
)

func (s *Server) registerTransactionTools(srv *server.Server) {
	srv.AddTool(mcp.Tool{
		Name:        "search_transactions_by_string",
		Description: "Find journal entries whose description or notes contain a substring (case-insensitive)",
		InputSchema: mcp.ObjectSchema().
			WithString("searchString", "substring to look for").
			WithInteger("limit", "maximum results", 1, 1000).
			Require("searchString"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query := strings.ToLower(strings.TrimSpace(req.GetString("searchString", "")))
		if query == "" {
			return nil, errs.Validationf("searchString must not be empty")
		}
		var hits []models.JournalEntry
		for _, e := range s.books.Journal.All() {
			if strings.Contains(strings.ToLower(e.Description), query) ||
				strings.Contains(strings.ToLower(e.Notes), query) {
				hits = append(hits, e)
			}
		}
		sort.SliceStable(hits, func(a, b int) bool { return hits[a].Date.Before(hits[b].Date.Time) })
		return ok(map[string]any{
			"searchString": req.GetString("searchString", ""),
			"count":        len(hits),
			"transactions": txViews(hits, req.GetInt("limit", 0)),
		})
	})

	srv.AddTool(mcp.Tool{
		Name:        "search_transactions_by_account",
		Description: "List journal entries touching one account, oldest first",
		InputSchema: mcp.ObjectSchema().
			WithString("accountCode", "3-digit account code").
			WithInteger("limit", "maximum results", 1, 1000).
			Require("accountCode"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code := req.GetString("accountCode", "")
		if !models.ValidAccountCode(code) {
			return nil, errs.Validationf("account code %q must be exactly three digits", code)
		}
		hits := s.books.Journal.EntriesForAccount(code)
		return ok(map[string]any{
			"accountCode":  code,
			"count":        len(hits),
			"transactions": txViews(hits, req.GetInt("limit", 0)),
		})
	})

	srv.AddTool(mcp.Tool{
		Name:        "search_transactions_by_amount",
		Description: "Find journal entries whose bank-leg amount matches within a tolerance",
		InputSchema: mcp.ObjectSchema().
			WithNumber("amount", "target amount").
			WithNumber("tolerance", "absolute match window, default 0.01").
			WithInteger("limit", "maximum results", 1, 1000).
			Require("amount"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		amount := req.GetFloat("amount", 0)
		tolerance := req.GetFloat("tolerance", 0.01)
		if tolerance < 0 {
			return nil, errs.Validationf("tolerance must not be negative")
		}
		var hits []models.JournalEntry
		for _, e := range s.books.Journal.All() {
			diff := e.Amount() - amount
			if diff >= -tolerance && diff <= tolerance {
				hits = append(hits, e)
			}
		}
		sort.SliceStable(hits, func(a, b int) bool { return hits[a].Date.Before(hits[b].Date.Time) })
		return ok(map[string]any{
			"amount":       amount,
			"tolerance":    tolerance,
			"count":        len(hits),
			"transactions": txViews(hits, req.GetInt("limit", 0)),
		})
	})

	srv.AddTool(mcp.Tool{
		Name:        "search_transactions_by_date_range",
		Description: "List journal entries dated within an inclusive range, oldest first",
		InputSchema: mcp.ObjectSchema().
			WithString("startDate", "inclusive lower bound, yyyy-MM-dd; omit for open").
			WithString("endDate", "inclusive upper bound, yyyy-MM-dd; omit for open").
			WithInteger("limit", "maximum results", 1, 1000),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start, err := dateArg(req, "startDate", false)
		if err != nil {
			return nil, err
		}
		end, err := dateArg(req, "endDate", false)
		if err != nil {
			return nil, err
		}
		if !start.IsZero() && !end.IsZero() && end.Before(start.Time) {
			return nil, errs.Validationf("endDate %s precedes startDate %s", end, start)
		}
		hits := s.books.Journal.EntriesBetween(start, end)
		return ok(map[string]any{
			"count":        len(hits),
			"transactions": txViews(hits, req.GetInt("limit", 0)),
		})
	})

	srv.AddTool(mcp.Tool{
		Name:        "update_transaction_account",
		Description: "Recategorize a transaction to a new account, reapplying the GST split and recording an audit note. Bank accounts (001-099) are never valid targets.",
		InputSchema: mcp.ObjectSchema().
			WithString("transactionId", "id in the form yyyy-MM-dd_<description>_<amount>_<bankCode>").
			WithString("newAccountCode", "3-digit target account code").
			WithString("notes", "optional audit note appended to the change record").
			Require("transactionId", "newAccountCode"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		code := req.GetString("newAccountCode", "")
		target, err := s.books.Chart.Get(code)
		if err != nil {
			return nil, errs.Validationf("target account %s is not in the chart of accounts", code)
		}
		result, err := s.books.Journal.Recategorize(
			req.GetString("transactionId", ""), target, s.cfg.GSTClearingCode, req.GetString("notes", ""), s.now())
		if err != nil {
			return nil, err
		}
		if err := s.books.SaveJournal(); err != nil {
			return nil, err
		}
		s.log.Infof("update_transaction_account: %s -> %s", result.PreviousCode, result.NewCode)
		return ok(map[string]any{"result": result})
	})

	srv.AddTool(mcp.Tool{
		Name:        "match_supplier_fuzzy",
		Description: "Rank known suppliers against a bank description. Direction-mismatched candidates are demoted, never dropped.",
		InputSchema: mcp.ObjectSchema().
			WithString("transactionDescription", "raw bank statement description").
			WithBoolean("isIncomeTransaction", "true when money arrived in the bank account").
			WithInteger("maxCandidates", "maximum candidates returned, default 3", 1, 20).
			Require("transactionDescription"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		description := strings.TrimSpace(req.GetString("transactionDescription", ""))
		if description == "" {
			return nil, errs.Validationf("transactionDescription must not be empty")
		}
		candidates := s.matchSuppliers(description, req.GetBool("isIncomeTransaction", false), req.Has("isIncomeTransaction"),
			req.GetInt("maxCandidates", 3))
		return ok(map[string]any{
			"description": description,
			"count":       len(candidates),
			"candidates":  candidates,
		})
	})
}

// directionPenalty demotes a candidate whose default account points the
// wrong way for the transaction's direction. A penalty, not a filter:
// refunds and reversals legitimately cross direction.
const directionPenalty = 0.8

// SupplierCandidate is one ranked match from match_supplier_fuzzy.
type SupplierCandidate struct {
	Supplier          models.Supplier `json:"supplier"`
	Score             float64         `json:"score"`
	DirectionMismatch bool            `json:"directionMismatch,omitempty"`
}

func (s *Server) matchSuppliers(description string, isIncome, directionKnown bool, limit int) []SupplierCandidate {
	if limit <= 0 {
		limit = 3
	}
	matches := s.books.Suppliers.Find(description, 0)

	out := make([]SupplierCandidate, 0, len(matches))
	for _, m := range matches {
		c := SupplierCandidate{Supplier: m.Supplier, Score: m.Score}
		if directionKnown && m.Supplier.Account != "" {
			if account, err := s.books.Chart.Get(m.Supplier.Account); err == nil {
				incomeAccount := account.Type == models.AccountTypeRevenue || account.Type == models.AccountTypeOtherIncome
				if incomeAccount != isIncome {
					c.Score *= directionPenalty
					c.DirectionMismatch = true
				}
			}
		}
		out = append(out, c)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Score > out[b].Score })
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
