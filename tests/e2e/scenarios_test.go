// End-to-end walkthroughs of the bookkeeping workflow: statement import,
// recategorization with GST splitting, the audit reports, the supplier
// and rule guard rails, the terminal blacklist and the ZIP backup. Every
// scenario drives the real accountant dispatch in process.
package e2e

import (
	"archive/zip"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agentic_accounting/pkg/core/accountant"
	"agentic_accounting/pkg/core/company"
	"agentic_accounting/pkg/core/config"
	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/core/ingest"
	"agentic_accounting/pkg/core/terminal"
	"agentic_accounting/pkg/mcp"
	"agentic_accounting/pkg/mcp/server"
	"agentic_accounting/pkg/models"
)

type world struct {
	cfg   *config.Config
	books *company.Books
	srv   *server.Server
}

func newWorld(t *testing.T) *world {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		InputsDir:       filepath.Join(root, "inputs"),
		DataDir:         filepath.Join(root, "data"),
		ConfigDir:       filepath.Join(root, "config"),
		BackupsDir:      filepath.Join(root, "backups"),
		StatementsDir:   filepath.Join(root, "inputs", "statements"),
		GSTClearingCode: "506",
	}
	books, err := company.Open(cfg)
	require.NoError(t, err)
	require.NoError(t, books.Chart.Replace([]models.Account{
		{Code: "001", Name: "Business Cheque", Type: models.AccountTypeBank, GSTTreatment: models.BASExcluded},
		{Code: "050", Name: "Savings", Type: models.AccountTypeBank, GSTTreatment: models.BASExcluded},
		{Code: "200", Name: "Office Expenses", Type: models.AccountTypeExpense, GSTApplicable: true, GSTTreatment: models.GSTOnExpenses},
		{Code: "506", Name: "GST Clearing", Type: models.AccountTypeCurrentLiability, GSTTreatment: models.BASExcluded},
		{Code: "999", Name: "Uncategorized", Type: models.AccountTypeExpense, GSTTreatment: models.BASExcluded},
	}))
	return &world{cfg: cfg, books: books, srv: accountant.New(books, cfg).Build()}
}

func (w *world) call(t *testing.T, name string, args map[string]any) (string, bool) {
	t.Helper()
	params, err := json.Marshal(map[string]any{"name": name, "arguments": args})
	require.NoError(t, err)
	raw := []byte(fmt.Sprintf(`{"jsonrpc":"2.0","id":7,"method":"tools/call","params":%s}`, params))

	out := w.srv.HandleMessage(context.Background(), raw)
	require.NotNil(t, out)

	var msg mcp.JSONRPCMessage
	require.NoError(t, json.Unmarshal(out, &msg))
	require.Nil(t, msg.Error, "domain failures must surface as isError results")

	var result mcp.CallToolResult
	require.NoError(t, json.Unmarshal(msg.Result, &result))
	require.NotEmpty(t, result.Content)
	return result.Content[0].Text, result.IsError
}

func (w *world) callJSON(t *testing.T, name string, args map[string]any) map[string]any {
	t.Helper()
	text, isError := w.call(t, name, args)
	require.False(t, isError, "unexpected tool error: %s", text)
	var payload map[string]any
	require.NoError(t, json.Unmarshal([]byte(text), &payload))
	return payload
}

func writeStatement(t *testing.T, w *world) {
	t.Helper()
	require.NoError(t, os.MkdirAll(w.cfg.StatementsDir, 0o755))
	csv := "Date,Description,Debit,Credit,Balance\n" +
		"2025-01-10,Office Supplies 1,55.00,,945.00\n" +
		"2025-01-11,Office Supplies 2,55.00,,890.00\n"
	require.NoError(t, os.WriteFile(filepath.Join(w.cfg.StatementsDir, "001.csv"), []byte(csv), 0o644))
}

// Import a two-row statement, recategorize one transaction into a
// GST-applicable expense and read the balance sheet back.
func TestImportCategorizeAudit(t *testing.T) {
	w := newWorld(t)
	writeStatement(t, w)

	importer := ingest.NewImporter(w.books.Chart, w.books.Journal)
	fileReports, err := importer.ImportDir(w.cfg.StatementsDir)
	require.NoError(t, err)
	require.Len(t, fileReports, 1)
	assert.Equal(t, "001", fileReports[0].BankCode)
	assert.Equal(t, 2, fileReports[0].Added)
	assert.Equal(t, 0, fileReports[0].Skipped)

	// Both rows land on the placeholder, crediting the bank in full.
	for _, id := range []string{
		"2025-01-10_Office Supplies 1_55.00_001",
		"2025-01-11_Office Supplies 2_55.00_001",
	} {
		entry, err := w.books.Journal.FindByID(id)
		require.NoError(t, err)
		require.Len(t, entry.Debits, 1)
		assert.Equal(t, "999", entry.Debits[0].AccountCode)
		assert.InDelta(t, 55.00, entry.Debits[0].Amount, 0.005)
		require.Len(t, entry.Credits, 1)
		assert.Equal(t, "001", entry.Credits[0].AccountCode)
	}

	// Re-importing the same file is a no-op.
	again, err := importer.ImportFile(filepath.Join(w.cfg.StatementsDir, "001.csv"), "")
	require.NoError(t, err)
	assert.Equal(t, 0, again.Added)
	assert.Equal(t, 2, again.Duplicates)

	id := "2025-01-10_Office Supplies 1_55.00_001"
	w.callJSON(t, "update_transaction_account", map[string]any{
		"transactionId":  id,
		"newAccountCode": "200",
		"notes":          "stationery order",
	})

	entry, err := w.books.Journal.FindByID(id)
	require.NoError(t, err)
	require.Len(t, entry.Debits, 2)
	assert.Equal(t, "200", entry.Debits[0].AccountCode)
	assert.InDelta(t, 50.00, entry.Debits[0].Amount, 0.005)
	assert.Equal(t, "506", entry.Debits[1].AccountCode)
	assert.InDelta(t, 5.00, entry.Debits[1].Amount, 0.005)
	require.Len(t, entry.Credits, 1)
	assert.InDelta(t, 55.00, entry.Credits[0].Amount, 0.005)

	sheet, isError := w.call(t, "generate_balance_sheet_audit", map[string]any{"asOfDate": "2025-01-31"})
	require.False(t, isError, sheet)
	assert.Contains(t, sheet, "-110.00", "bank holds two 55.00 outflows")
	assert.Contains(t, sheet, "-5.00", "GST clearing carries the input credit")
	assert.Contains(t, sheet, "✓ BALANCE SHEET (within 0.01)")

	trial, isError := w.call(t, "generate_trial_balance_audit", map[string]any{"asOfDate": "2025-01-31"})
	require.False(t, isError, trial)
	assert.Contains(t, trial, "Office Expenses")
	assert.Contains(t, trial, "50.00")
	assert.Contains(t, trial, "55.00")
}

// A near-duplicate supplier name is refused and pointed at update_supplier.
func TestDuplicateSupplierConflict(t *testing.T) {
	w := newWorld(t)

	w.callJSON(t, "create_supplier", map[string]any{
		"name": "Linkt Brisbane", "supplies": "road tolls", "accountCode": "200",
	})

	text, isError := w.call(t, "create_supplier", map[string]any{
		"name": "Sp Linkt", "supplies": "tolls",
	})
	require.True(t, isError)
	assert.Contains(t, text, "Conflict")
	assert.Contains(t, text, "Linkt Brisbane")
	assert.Contains(t, text, "update_supplier")
}

// Rules can never target the bank range.
func TestRuleTargetingBankAccountRefused(t *testing.T) {
	w := newWorld(t)

	text, isError := w.call(t, "add_accounting_rule", map[string]any{
		"name":        "savings-transfers",
		"priority":    5,
		"condition":   "description mentions a transfer to savings",
		"action":      "post the transfer against the savings account",
		"accountCode": "050",
	})
	require.True(t, isError)
	assert.Contains(t, text, "Protected")
}

// The terminal blacklist fires before any process starts.
func TestTerminalBlocksDestructiveCommand(t *testing.T) {
	exec := terminal.NewExecutor(terminal.Policy{
		AllowedRoot:      t.TempDir(),
		DefaultTimeoutMS: 2000,
		MaxOutputBytes:   4096,
		HistoryLimit:     10,
	})

	_, err := exec.Execute(context.Background(), terminal.Request{
		Command:   "rm",
		Arguments: []string{"-rf", "/"},
	})
	require.Error(t, err)
	assert.Equal(t, errs.KindBlocked, errs.KindOf(err))
	assert.Contains(t, err.Error(), `blocked_keyword: "rm"`)

	history := exec.History(1)
	require.Len(t, history, 1)
	assert.Equal(t, "rm", history[0].Command)
	assert.Equal(t, "blocked", history[0].Outcome)
}

// A mangled card description still resolves to the registered supplier.
func TestFuzzyMatchSurvivesBankNoise(t *testing.T) {
	w := newWorld(t)
	w.callJSON(t, "create_supplier", map[string]any{
		"name": "GitHub", "supplies": "developer tools", "accountCode": "200",
	})
	w.callJSON(t, "create_supplier", map[string]any{
		"name": "Officeworks", "supplies": "stationery", "accountCode": "200",
	})

	payload := w.callJSON(t, "match_supplier_fuzzy", map[string]any{
		"transactionDescription": "Visa Purchase 04Feb Github.Com",
	})
	candidates := payload["candidates"].([]interface{})
	require.NotEmpty(t, candidates)
	top := candidates[0].(map[string]any)
	supplier := top["supplier"].(map[string]any)
	assert.Equal(t, "GitHub", supplier["name"])
	assert.GreaterOrEqual(t, top["score"].(float64), 0.75)
}

// regenerate_reports bundles the requested directories into a timestamped
// ZIP before writing the audits.
func TestRegenerateReportsWithZipBackup(t *testing.T) {
	w := newWorld(t)
	writeStatement(t, w)

	importer := ingest.NewImporter(w.books.Chart, w.books.Journal)
	_, err := importer.ImportDir(w.cfg.StatementsDir)
	require.NoError(t, err)
	require.NoError(t, w.books.SaveAll())

	payload := w.callJSON(t, "regenerate_reports", map[string]any{
		"reason":            "month-end close",
		"createZipBackup":   true,
		"backupDirectories": []string{w.cfg.InputsDir, w.cfg.DataDir},
	})

	archive, _ := payload["backupArchive"].(string)
	require.NotEmpty(t, archive)
	assert.Contains(t, filepath.Base(archive), "backup_")

	reader, err := zip.OpenReader(archive)
	require.NoError(t, err)
	defer reader.Close()

	var names []string
	for _, f := range reader.File {
		names = append(names, f.Name)
	}
	assert.Contains(t, names, "inputs/accounts.json")
	assert.Contains(t, names, "inputs/supplier_list.json")
	assert.Contains(t, names, "inputs/accounting_rules.txt")
	assert.Contains(t, names, "inputs/statements/001.csv")
	assert.Contains(t, names, "data/general_journal.json")

	counts := payload["backupContents"].([]interface{})
	require.Len(t, counts, 2)
	for _, c := range counts {
		entry := c.(map[string]any)
		assert.Greater(t, entry["files"].(float64), 0.0, "directory %v bundled nothing", entry["directory"])
	}

	written := payload["written"].([]interface{})
	assert.Len(t, written, 5)
	for _, name := range []string{
		"balance_sheet.txt", "profit_loss.txt", "trial_balance.txt",
		"cash_flow.txt", "account_activity.txt",
	} {
		_, err := os.Stat(filepath.Join(w.cfg.ReportsDir(), name))
		assert.NoError(t, err, "report %s must exist", name)
	}
}
