package accountant

import (
	"context"

	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/mcp"
	"agentic_accounting/pkg/mcp/server"
	"agentic_accounting/pkg/models"
)

func accountTypeNames() []string {
	out := make([]string, len(models.AccountTypes))
	for i, t := range models.AccountTypes {
		out[i] = string(t)
	}
	return out
}

func gstTreatmentNames() []string {
	out := make([]string, len(models.GSTTreatments))
	for i, g := range models.GSTTreatments {
		out[i] = string(g)
	}
	return out
}

func (s *Server) registerAccountTools(srv *server.Server) {
	srv.AddTool(mcp.Tool{
		Name:        "list_accounts",
		Description: "List the chart of accounts, optionally restricted to one account type",
		InputSchema: mcp.ObjectSchema().
			WithEnum("accountType", "restrict to one classification", accountTypeNames()...),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var accounts []models.Account
		if raw := req.GetString("accountType", ""); raw != "" {
			accountType, err := models.ParseAccountType(raw)
			if err != nil {
				return nil, errs.Validationf("%v", err)
			}
			accounts = s.books.Chart.ByType(accountType)
		} else {
			accounts = s.books.Chart.All()
		}
		if accounts == nil {
			accounts = []models.Account{}
		}
		return ok(map[string]any{"count": len(accounts), "accounts": accounts})
	})

	srv.AddTool(mcp.Tool{
		Name:        "add_account",
		Description: "Add an account to the chart. Omit code to auto-assign the next free code in the type's band. Bank codes (001-099) cannot be created here.",
		InputSchema: mcp.ObjectSchema().
			WithString("name", "account display name").
			WithEnum("type", "account classification", accountTypeNames()...).
			WithBoolean("gst", "whether GST applies to this account").
			WithEnum("gstType", "GST reporting treatment", gstTreatmentNames()...).
			WithString("code", "3-digit code; omit to auto-assign").
			WithString("suggestCode", "starting code for auto-assignment; defaults to the type's base band").
			Require("name", "type", "gstType"),
	}, func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		accountType, err := models.ParseAccountType(req.GetString("type", ""))
		if err != nil {
			return nil, errs.Validationf("%v", err)
		}
		treatment, err := models.ParseGSTTreatment(req.GetString("gstType", ""))
		if err != nil {
			return nil, errs.Validationf("%v", err)
		}

		code := req.GetString("code", "")
		autoAssigned := false
		if code == "" {
			if accountType == models.AccountTypeBank {
				return nil, errs.Protectedf("bank accounts (001-099) are provisioned at bootstrap, not through add_account")
			}
			start := req.GetString("suggestCode", "")
			if start == "" {
				start = accountType.BaseCode()
			}
			code, err = s.books.Chart.NextAvailableCode(start)
			if err != nil {
				return nil, err
			}
			autoAssigned = true
		}

		account := models.Account{
			Code:          code,
			Name:          req.GetString("name", ""),
			Type:          accountType,
			GSTApplicable: req.GetBool("gst", false),
			GSTTreatment:  treatment,
		}
		if err := s.books.Chart.Add(account); err != nil {
			return nil, err
		}
		if err := s.books.SaveChart(); err != nil {
			return nil, err
		}
		s.log.Infof("added account %s (%s)", account.Code, account.Name)
		return ok(map[string]any{"account": account, "autoAssigned": autoAssigned})
	})
}
