package accountant

import (
	"context"
	"os"
	"path/filepath"

	"agentic_accounting/pkg/core/backup"
	"agentic_accounting/pkg/core/reports"
	"agentic_accounting/pkg/core/store"
	"agentic_accounting/pkg/mcp"
	"agentic_accounting/pkg/mcp/server"
	"agentic_accounting/pkg/models"
)

func (s *Server) reportInputs() reports.Inputs {
	return reports.Inputs{
		Accounts: s.books.Chart.All(),
		Entries:  s.books.Journal.All(),
	}
}

func sortArg(req mcp.CallToolRequest) (reports.Sort, error) {
	return reports.ParseSort(req.GetString("sortBy", ""))
}

var sortNames = []string{
	string(reports.SortAccountCode), string(reports.SortAccountName), string(reports.SortBalance),
	string(reports.SortAmount), string(reports.SortAccountType), string(reports.SortDate),
	string(reports.SortDescription),
}

func (s *Server) registerReportTools(srv *server.Server) {
	srv.AddTool(mcp.Tool{
		Name:        "generate_balance_sheet_audit",
		Description: "Render the balance sheet as of a date as plaintext",
		InputSchema: mcp.ObjectSchema().
			WithString("asOfDate", "inclusive cut-off, yyyy-MM-dd; omit for all entries").
			WithBoolean("includeZeroBalances", "show accounts with a zero balance").
			WithEnum("sortBy", "line ordering", sortNames...),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		asOf, err := dateArg(req, "asOfDate", false)
		if err != nil {
			return nil, err
		}
		sortBy, err := sortArg(req)
		if err != nil {
			return nil, err
		}
		text, err := reports.BalanceSheet(s.reportInputs(), asOf, req.GetBool("includeZeroBalances", false), sortBy)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(text), nil
	})

	srv.AddTool(mcp.Tool{
		Name:        "generate_profit_loss_audit",
		Description: "Render the profit and loss statement for a period as plaintext",
		InputSchema: mcp.ObjectSchema().
			WithString("startDate", "inclusive period start, yyyy-MM-dd").
			WithString("endDate", "inclusive period end, yyyy-MM-dd").
			WithBoolean("includeZeroBalances", "show accounts with no activity").
			WithEnum("sortBy", "line ordering", sortNames...),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start, err := dateArg(req, "startDate", false)
		if err != nil {
			return nil, err
		}
		end, err := dateArg(req, "endDate", false)
		if err != nil {
			return nil, err
		}
		sortBy, err := sortArg(req)
		if err != nil {
			return nil, err
		}
		text, err := reports.ProfitLoss(s.reportInputs(), start, end, req.GetBool("includeZeroBalances", false), sortBy)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(text), nil
	})

	srv.AddTool(mcp.Tool{
		Name:        "generate_trial_balance_audit",
		Description: "Render the trial balance as of a date as plaintext",
		InputSchema: mcp.ObjectSchema().
			WithString("asOfDate", "inclusive cut-off, yyyy-MM-dd").
			WithBoolean("includeZeroBalances", "show accounts with a zero balance").
			WithBoolean("groupByType", "group lines under account-type headings").
			WithEnum("sortBy", "line ordering", sortNames...),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		asOf, err := dateArg(req, "asOfDate", false)
		if err != nil {
			return nil, err
		}
		sortBy, err := sortArg(req)
		if err != nil {
			return nil, err
		}
		text, err := reports.TrialBalance(s.reportInputs(), asOf,
			req.GetBool("includeZeroBalances", false), req.GetBool("groupByType", false), sortBy)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(text), nil
	})

	srv.AddTool(mcp.Tool{
		Name:        "generate_cash_flow_audit",
		Description: "Render cash movement across the bank accounts for a period as plaintext",
		InputSchema: mcp.ObjectSchema().
			WithString("startDate", "inclusive period start, yyyy-MM-dd").
			WithString("endDate", "inclusive period end, yyyy-MM-dd").
			WithStringArray("cashAccountCodes", "bank codes to include; omit for every bank account"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start, err := dateArg(req, "startDate", false)
		if err != nil {
			return nil, err
		}
		end, err := dateArg(req, "endDate", false)
		if err != nil {
			return nil, err
		}
		text, err := reports.CashFlow(s.reportInputs(), start, end, req.GetStringSlice("cashAccountCodes", nil))
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(text), nil
	})

	srv.AddTool(mcp.Tool{
		Name:        "generate_account_activity_audit",
		Description: "Render per-account transaction activity for a period as plaintext",
		InputSchema: mcp.ObjectSchema().
			WithStringArray("accountCodes", "accounts to report on").
			WithString("startDate", "inclusive period start, yyyy-MM-dd").
			WithString("endDate", "inclusive period end, yyyy-MM-dd").
			WithBoolean("includeRunningBalance", "append a running balance column").
			WithEnum("sortBy", "line ordering", sortNames...).
			Require("accountCodes"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start, err := dateArg(req, "startDate", false)
		if err != nil {
			return nil, err
		}
		end, err := dateArg(req, "endDate", false)
		if err != nil {
			return nil, err
		}
		sortBy, err := sortArg(req)
		if err != nil {
			return nil, err
		}
		text, err := reports.AccountActivity(s.reportInputs(), req.GetStringSlice("accountCodes", nil),
			start, end, req.GetBool("includeRunningBalance", false), sortBy)
		if err != nil {
			return nil, err
		}
		return mcp.NewToolResultText(text), nil
	})

	srv.AddTool(mcp.Tool{
		Name:        "regenerate_reports",
		Description: "Write all five audit reports to the reports directory, optionally bundling directories into a ZIP backup first",
		InputSchema: mcp.ObjectSchema().
			WithString("reason", "why the reports are being regenerated; recorded in the log").
			WithBoolean("createZipBackup", "bundle the backup directories before writing").
			WithStringArray("backupDirectories", "directories to bundle; default inputs and data"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		payload := map[string]any{}
		if reason := req.GetString("reason", ""); reason != "" {
			s.log.Infof("regenerating reports: %s", reason)
		}

		if req.GetBool("createZipBackup", false) {
			dirs := req.GetStringSlice("backupDirectories", []string{s.cfg.InputsDir, s.cfg.DataDir})
			archive, counts, err := backup.ZipDirectories(s.cfg.BackupsDir, dirs, s.now())
			if err != nil {
				return nil, err
			}
			payload["backupArchive"] = archive
			payload["backupContents"] = counts
		}

		written, err := s.writeReports()
		if err != nil {
			return nil, err
		}
		payload["reportsDir"] = s.cfg.ReportsDir()
		payload["written"] = written
		return ok(payload)
	})
}

// writeReports renders every audit over the full journal and persists
// each as a plaintext file. Reports are derived state: regenerating is
// always safe.
func (s *Server) writeReports() ([]string, error) {
	in := s.reportInputs()
	all := models.Date{}

	var codes []string
	for _, a := range in.Accounts {
		codes = append(codes, a.Code)
	}

	balanceSheet, err := reports.BalanceSheet(in, all, false, reports.SortAccountCode)
	if err != nil {
		return nil, err
	}
	profitLoss, err := reports.ProfitLoss(in, all, all, false, reports.SortAccountCode)
	if err != nil {
		return nil, err
	}
	trialBalance, err := reports.TrialBalance(in, all, false, true, reports.SortAccountCode)
	if err != nil {
		return nil, err
	}
	cashFlow, err := reports.CashFlow(in, all, all, nil)
	if err != nil {
		return nil, err
	}
	activity, err := reports.AccountActivity(in, codes, all, all, true, reports.SortAccountCode)
	if err != nil {
		return nil, err
	}

	dir := s.cfg.ReportsDir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	files := []struct {
		name string
		text string
	}{
		{"balance_sheet.txt", balanceSheet},
		{"profit_loss.txt", profitLoss},
		{"trial_balance.txt", trialBalance},
		{"cash_flow.txt", cashFlow},
		{"account_activity.txt", activity},
	}
	written := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.name)
		if err := store.AtomicWriteFile(path, []byte(f.text), 0o644); err != nil {
			return nil, err
		}
		written = append(written, f.name)
	}
	s.log.Infof("regenerated %d reports in %s", len(written), dir)
	return written, nil
}
