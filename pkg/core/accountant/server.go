// Package accountant assembles the Accountant MCP tool server: the full
// bookkeeping tool surface (transaction search and recategorization,
// supplier and rule CRUD, account management, audit reports, backup) over
// the live company books. Every mutation persists through the books'
// save paths; nothing here touches files directly.
package accountant

import (
	"time"

	"github.com/sirupsen/logrus"

	"agentic_accounting/pkg/core/company"
	"agentic_accounting/pkg/core/config"
	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/mcp"
	"agentic_accounting/pkg/mcp/server"
	"agentic_accounting/pkg/models"
)

// Version is advertised on initialize.
const Version = "1.0.0"

// defaultSearchLimit caps search results when the caller passes none.
const defaultSearchLimit = 50

// Server holds the handles the tools close over.
type Server struct {
	books *company.Books
	cfg   *config.Config
	log   *logrus.Entry
	now   func() time.Time
}

// New wires an accountant server over live books.
func New(books *company.Books, cfg *config.Config) *Server {
	return &Server{
		books: books,
		cfg:   cfg,
		log:   logrus.WithField("component", "accountant"),
		now:   time.Now,
	}
}

// Build registers every tool, resource and prompt on a fresh MCP server.
func (s *Server) Build() *server.Server {
	srv := server.NewServer("accountant", Version,
		server.WithInstructions("Double-entry bookkeeping tools. Bank accounts (001-099) are immutable; categorize through update_transaction_account only."))

	s.registerTransactionTools(srv)
	s.registerSupplierTools(srv)
	s.registerRuleTools(srv)
	s.registerAccountTools(srv)
	s.registerReportTools(srv)
	s.registerResources(srv)
	s.registerPrompts(srv)
	return srv
}

// ok wraps a payload in the success envelope every non-report tool emits.
func ok(payload map[string]any) (*mcp.CallToolResult, error) {
	body := map[string]any{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	return mcp.NewToolResultJSON(body)
}

// Transaction is the external view of one journal entry.
type Transaction struct {
	ID          string             `json:"id"`
	Date        string             `json:"date"`
	Description string             `json:"description"`
	Amount      float64            `json:"amount"`
	BankCode    string             `json:"bankCode"`
	Debits      []models.SplitLine `json:"debits"`
	Credits     []models.SplitLine `json:"credits"`
	BankBalance float64            `json:"bankBalance"`
	Notes       string             `json:"notes,omitempty"`
}

func txView(e models.JournalEntry) Transaction {
	return Transaction{
		ID:          e.TransactionID(),
		Date:        e.Date.String(),
		Description: e.Description,
		Amount:      e.Amount(),
		BankCode:    e.BankCode(),
		Debits:      e.Debits,
		Credits:     e.Credits,
		BankBalance: e.BankBalance,
		Notes:       e.Notes,
	}
}

func txViews(entries []models.JournalEntry, limit int) []Transaction {
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	out := make([]Transaction, 0, len(entries))
	for _, e := range entries {
		out = append(out, txView(e))
		if len(out) == limit {
			break
		}
	}
	return out
}

// dateArg decodes one yyyy-MM-dd argument. Empty + !required is the zero
// date (open bound).
func dateArg(req mcp.CallToolRequest, key string, required bool) (models.Date, error) {
	raw := req.GetString(key, "")
	if raw == "" {
		if required {
			return models.Date{}, errs.Validationf("%s is required (yyyy-MM-dd)", key)
		}
		return models.Date{}, nil
	}
	d, err := models.ParseDate(raw)
	if err != nil {
		return models.Date{}, errs.Validationf("%s: %v", key, err)
	}
	return d, nil
}
