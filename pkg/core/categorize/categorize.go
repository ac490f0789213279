// Package categorize runs the AI categorization loop: it pulls
// uncategorized transactions through the accountant tool surface, batches
// them into prompts, and applies the model's suggestions one at a time via
// update_transaction_account. The loop only ever talks to the books
// through tools, so it exercises exactly the path an interactive agent
// would.
package categorize

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/core/prompt"
	"agentic_accounting/pkg/core/utils"
	"agentic_accounting/pkg/mcp"
	"agentic_accounting/pkg/models"
)

// BatchSize caps how many transactions travel in one prompt. Small
// batches keep each response cheap to re-request when the model returns
// garbage.
const BatchSize = 10

// ToolCaller is the slice of the MCP client the loop needs. The accountant
// client satisfies it; tests substitute an in-process fake.
type ToolCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error)
}

// PromptExecutor runs a rendered prompt under a named agent role.
// *agent.Manager satisfies it.
type PromptExecutor interface {
	ExecutePrompt(ctx context.Context, role, rawPrompt, rawSystemPrompt string, options map[string]interface{}) (string, error)
}

// Suggestion is one categorization the model proposes.
type Suggestion struct {
	TransactionID string `json:"transactionId"`
	AccountCode   string `json:"accountCode"`
	Justification string `json:"justification"`
}

// Report tallies one full run.
type Report struct {
	Processed int `json:"processed"`
	Updated   int `json:"updated"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
	Batches   int `json:"batches"`
}

// Runner drives the loop.
type Runner struct {
	tools ToolCaller
	agent PromptExecutor
	role  string
	log   *logrus.Entry
}

// New builds a runner over a tool caller and a prompt executor.
func New(tools ToolCaller, executor PromptExecutor, role string) *Runner {
	return &Runner{
		tools: tools,
		agent: executor,
		role:  role,
		log:   logrus.WithField("component", "categorize"),
	}
}

// transaction is the subset of the accountant's transaction view the
// prompt needs.
type transaction struct {
	ID          string  `json:"id"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
	BankCode    string  `json:"bankCode"`
	Income      bool    `json:"income"`
}

// Run processes every uncategorized transaction once. Per-item failures
// are tolerated and tallied; only tool-transport failures abort the run.
func (r *Runner) Run(ctx context.Context) (Report, error) {
	var report Report

	pending, err := r.loadUncategorized(ctx)
	if err != nil {
		return report, err
	}
	if len(pending) == 0 {
		r.log.Info("nothing to categorize")
		return report, nil
	}

	tmpl, err := prompt.Get().GetPrompt(prompt.IDCategorize)
	if err != nil {
		return report, err
	}

	for start := 0; start < len(pending); start += BatchSize {
		end := start + BatchSize
		if end > len(pending) {
			end = len(pending)
		}
		batch := pending[start:end]
		batchID := uuid.NewString()
		report.Batches++

		// Master data is refreshed per batch: earlier batches may have
		// added suppliers or rules worth consulting.
		accounts, suppliers, rules, err := r.loadMasterData(ctx)
		if err != nil {
			return report, err
		}

		suggestions, err := r.suggest(ctx, tmpl, accounts, suppliers, rules, batch)
		if err != nil {
			r.log.WithField("batch", batchID).Warnf("batch failed: %v", err)
			report.Failed += len(batch)
			report.Processed += len(batch)
			continue
		}

		byID := make(map[string]bool, len(batch))
		for _, tx := range batch {
			byID[tx.ID] = true
		}

		applied := map[string]bool{}
		for _, s := range suggestions {
			if !byID[s.TransactionID] || applied[s.TransactionID] {
				r.log.WithField("batch", batchID).Warnf("dropping suggestion for unknown or repeated id %q", s.TransactionID)
				continue
			}
			applied[s.TransactionID] = true
			if err := r.apply(ctx, s); err != nil {
				r.log.WithField("batch", batchID).Warnf("apply %s -> %s: %v", s.TransactionID, s.AccountCode, err)
				report.Failed++
				continue
			}
			report.Updated++
		}

		report.Processed += len(batch)
		report.Skipped += len(batch) - len(applied)
		r.log.WithField("batch", batchID).Infof("batch done: %d suggested of %d", len(applied), len(batch))
	}
	return report, nil
}

// loadUncategorized pulls the 999 backlog through the search tool.
func (r *Runner) loadUncategorized(ctx context.Context) ([]transaction, error) {
	payload, err := r.callJSON(ctx, "search_transactions_by_account", map[string]any{
		"accountCode": models.UncategorizedCode,
		"limit":       1000,
	})
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Transactions []struct {
			ID          string             `json:"id"`
			Date        string             `json:"date"`
			Description string             `json:"description"`
			Amount      float64            `json:"amount"`
			BankCode    string             `json:"bankCode"`
			Debits      []models.SplitLine `json:"debits"`
		} `json:"transactions"`
	}
	if err := json.Unmarshal(payload, &decoded); err != nil {
		return nil, fmt.Errorf("decode uncategorized transactions: %w", err)
	}

	out := make([]transaction, 0, len(decoded.Transactions))
	for _, tx := range decoded.Transactions {
		// Bank leg on the debit side means money arrived.
		income := false
		for _, l := range tx.Debits {
			if models.IsBankCode(l.AccountCode) {
				income = true
				break
			}
		}
		out = append(out, transaction{
			ID:          tx.ID,
			Date:        tx.Date,
			Description: tx.Description,
			Amount:      tx.Amount,
			BankCode:    tx.BankCode,
			Income:      income,
		})
	}
	return out, nil
}

// loadMasterData fetches the chart, supplier and rule listings as the
// JSON text the tools already emit. The prompt passes them through
// verbatim.
func (r *Runner) loadMasterData(ctx context.Context) (accounts, suppliers, rules string, err error) {
	accountsRaw, err := r.callJSON(ctx, "list_accounts", map[string]any{})
	if err != nil {
		return "", "", "", err
	}
	suppliersRaw, err := r.callJSON(ctx, "list_suppliers", map[string]any{})
	if err != nil {
		return "", "", "", err
	}
	rulesRaw, err := r.callJSON(ctx, "list_accounting_rules", map[string]any{"byPriority": true})
	if err != nil {
		return "", "", "", err
	}
	return string(accountsRaw), string(suppliersRaw), string(rulesRaw), nil
}

// suggest renders one batch prompt, runs it and decodes the suggestions.
func (r *Runner) suggest(ctx context.Context, tmpl *prompt.Template, accounts, suppliers, rules string, batch []transaction) ([]Suggestion, error) {
	batchJSON, err := json.MarshalIndent(batch, "", "  ")
	if err != nil {
		return nil, err
	}
	user, err := tmpl.RenderUser(map[string]interface{}{
		"accounts":     accounts,
		"suppliers":    suppliers,
		"rules":        rules,
		"transactions": string(batchJSON),
	})
	if err != nil {
		return nil, err
	}

	raw, err := r.agent.ExecutePrompt(ctx, r.role, user, tmpl.SystemPrompt, nil)
	if err != nil {
		return nil, err
	}

	var suggestions []Suggestion
	cleaned := utils.CleanMarkdown(raw)
	if _, err := utils.SmartParse(cleaned, &suggestions); err != nil {
		return nil, fmt.Errorf("model response is not a suggestion array: %w", err)
	}

	valid := suggestions[:0]
	for _, s := range suggestions {
		if strings.TrimSpace(s.TransactionID) == "" || !models.ValidAccountCode(s.AccountCode) {
			continue
		}
		if !utils.ValidateMarkdown(s.Justification) {
			s.Justification = ""
		}
		valid = append(valid, s)
	}
	return valid, nil
}

// apply pushes one suggestion through update_transaction_account. The
// accountant re-validates everything; a Protected or Conflict answer is a
// per-item failure, not a loop abort.
func (r *Runner) apply(ctx context.Context, s Suggestion) error {
	note := s.Justification
	if note != "" {
		note = "AI: " + note
	}
	_, err := r.callJSON(ctx, "update_transaction_account", map[string]any{
		"transactionId":  s.TransactionID,
		"newAccountCode": s.AccountCode,
		"notes":          note,
	})
	return err
}

// callJSON invokes a tool and returns the raw JSON payload, converting
// isError results into domain errors.
func (r *Runner) callJSON(ctx context.Context, name string, args map[string]any) (json.RawMessage, error) {
	result, err := r.tools.CallTool(ctx, name, args)
	if err != nil {
		return nil, err
	}
	if result == nil || len(result.Content) == 0 {
		return nil, errs.IOf("tool %s returned no content", name)
	}
	text := result.Content[0].Text
	if result.IsError {
		return nil, toolError(text)
	}
	return json.RawMessage(text), nil
}

// toolError reconstructs a tagged domain error from the kind prefix the
// servers embed in isError messages.
func toolError(message string) error {
	for _, kind := range []errs.Kind{
		errs.KindValidation, errs.KindNotFound, errs.KindConflict,
		errs.KindProtected, errs.KindTimeout, errs.KindBlocked, errs.KindIO,
	} {
		prefix := string(kind) + ": "
		if strings.HasPrefix(message, prefix) {
			return errs.New(kind, strings.TrimPrefix(message, prefix))
		}
	}
	return errs.IOf("%s", message)
}
