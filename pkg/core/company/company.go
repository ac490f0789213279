// Package company bundles the four domain stores behind one persistence
// boundary. In legacy mode each store keeps its own file under inputs/ and
// data/; when AI_ACCOUNTING_COMPANY_FILE is set the same data hydrates
// from and persists into a single unified JSON document.
package company

import (
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"agentic_accounting/pkg/core/chart"
	"agentic_accounting/pkg/core/config"
	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/core/journal"
	"agentic_accounting/pkg/core/rules"
	"agentic_accounting/pkg/core/store"
	"agentic_accounting/pkg/core/supplier"
	"agentic_accounting/pkg/models"
)

// Books is the live company state: chart, journal, suppliers and rules
// plus the profile header. Every tool server mutation flows through the
// embedded stores; Books only orchestrates load and save.
type Books struct {
	Chart     *chart.Chart
	Journal   *journal.Journal
	Suppliers *supplier.Registry
	Rules     *rules.Store

	cfg *config.Config
	log *logrus.Entry

	mu      sync.Mutex
	profile models.CompanyProfile
}

// Open hydrates the stores from disk per the configured layout. Missing
// files start the corresponding store empty; the Uncategorized account is
// seeded so import can always run.
func Open(cfg *config.Config) (*Books, error) {
	b := &Books{
		Chart:     chart.New(),
		Journal:   journal.New(),
		Suppliers: supplier.NewRegistry(),
		Rules:     rules.NewStore(),
		cfg:       cfg,
		log:       logrus.WithField("component", "company"),
	}

	var err error
	if cfg.UseCompanyFile() {
		err = b.loadUnified(cfg.CompanyFile)
	} else {
		err = b.loadLegacy()
	}
	if err != nil {
		return nil, err
	}

	b.Chart.EnsureUncategorized()
	return b, nil
}

func (b *Books) loadUnified(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		b.log.Warnf("company file %s not found, starting a fresh set of books", path)
		b.mu.Lock()
		b.profile = models.CompanyProfile{
			CompanyName: "New Company",
			Created:     time.Now().UTC().Truncate(time.Second),
			Updated:     time.Now().UTC().Truncate(time.Second),
		}
		b.mu.Unlock()
		return nil
	}
	if err != nil {
		return errs.IOf("read company file %s: %v", path, err)
	}

	var doc models.CompanyFile
	if err := json.Unmarshal(data, &doc); err != nil {
		return errs.IOf("parse company file %s: %v", path, err)
	}
	return b.hydrate(doc)
}

func (b *Books) loadLegacy() error {
	if err := b.Chart.LoadFile(b.cfg.AccountsFile()); err != nil {
		return err
	}
	if err := b.Journal.LoadFile(b.cfg.JournalFile(), b.cfg.ValidateOnLoad); err != nil {
		return err
	}
	if err := b.Suppliers.LoadFile(b.cfg.SuppliersFile()); err != nil {
		return err
	}
	if err := b.Rules.LoadFile(b.cfg.RulesFile()); err != nil {
		return err
	}
	b.mu.Lock()
	b.profile = models.CompanyProfile{
		CompanyName: "Legacy Layout",
		Created:     time.Now().UTC().Truncate(time.Second),
		Updated:     time.Now().UTC().Truncate(time.Second),
	}
	b.mu.Unlock()
	return nil
}

func (b *Books) hydrate(doc models.CompanyFile) error {
	if err := b.Chart.Replace(doc.Accounts); err != nil {
		return err
	}
	b.Journal.Replace(doc.Journal)
	if err := b.Suppliers.Replace(doc.Suppliers); err != nil {
		return err
	}
	b.Rules.Replace(doc.Rules)
	b.mu.Lock()
	b.profile = doc.Profile
	b.mu.Unlock()
	b.log.Infof("hydrated company %q: %d accounts, %d entries, %d suppliers, %d rules",
		doc.Profile.CompanyName, len(doc.Accounts), len(doc.Journal), len(doc.Suppliers), len(doc.Rules))
	return nil
}

// Profile returns the company header.
func (b *Books) Profile() models.CompanyProfile {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.profile
}

// SetProfile replaces the company header.
func (b *Books) SetProfile(p models.CompanyProfile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.profile = p
}

// Snapshot assembles the unified document from the live stores.
func (b *Books) Snapshot() models.CompanyFile {
	return models.CompanyFile{
		Profile:   b.Profile(),
		Accounts:  b.Chart.All(),
		Journal:   b.Journal.All(),
		Suppliers: b.Suppliers.All(),
		Rules:     b.Rules.All(),
	}
}

// saveUnified writes the whole document atomically with a timestamped
// backup of the previous contents. Field order follows the struct, so
// equal logical content always serializes to the same bytes.
func (b *Books) saveUnified() error {
	b.mu.Lock()
	b.profile.Updated = time.Now().UTC().Truncate(time.Second)
	b.mu.Unlock()

	doc := b.Snapshot()
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return errs.IOf("marshal company file: %v", err)
	}
	data = append(data, '\n')
	if _, err := store.WriteWithBackup(b.cfg.CompanyFile, data, b.cfg.BackupsDir); err != nil {
		return err
	}
	b.log.Infof("saved company file %s", b.cfg.CompanyFile)
	return nil
}

// SaveJournal persists the journal (or, in unified mode, the whole
// document — the file is the unit of atomicity there).
func (b *Books) SaveJournal() error {
	if b.cfg.UseCompanyFile() {
		return b.saveUnified()
	}
	return b.Journal.SaveFile(b.cfg.JournalFile(), b.cfg.BackupsDir)
}

// SaveChart persists the chart of accounts.
func (b *Books) SaveChart() error {
	if b.cfg.UseCompanyFile() {
		return b.saveUnified()
	}
	return b.Chart.SaveFile(b.cfg.AccountsFile(), b.cfg.BackupsDir)
}

// SaveSuppliers persists the supplier registry.
func (b *Books) SaveSuppliers() error {
	if b.cfg.UseCompanyFile() {
		return b.saveUnified()
	}
	return b.Suppliers.SaveFile(b.cfg.SuppliersFile(), b.cfg.BackupsDir)
}

// SaveRules persists the accounting rules.
func (b *Books) SaveRules() error {
	if b.cfg.UseCompanyFile() {
		return b.saveUnified()
	}
	return b.Rules.SaveFile(b.cfg.RulesFile(), b.cfg.BackupsDir)
}

// SaveAll persists every store.
func (b *Books) SaveAll() error {
	if b.cfg.UseCompanyFile() {
		return b.saveUnified()
	}
	if err := b.SaveChart(); err != nil {
		return err
	}
	if err := b.SaveJournal(); err != nil {
		return err
	}
	if err := b.SaveSuppliers(); err != nil {
		return err
	}
	return b.SaveRules()
}

// Summary is the headline state exposed through the journal summary
// resource.
type Summary struct {
	CompanyName    string `json:"companyName"`
	Accounts       int    `json:"accounts"`
	JournalEntries int    `json:"journalEntries"`
	Uncategorized  int    `json:"uncategorized"`
	Suppliers      int    `json:"suppliers"`
	Rules          int    `json:"rules"`
	UnifiedMode    bool   `json:"unifiedMode"`
}

// Summarize counts the live state.
func (b *Books) Summarize() Summary {
	return Summary{
		CompanyName:    b.Profile().CompanyName,
		Accounts:       b.Chart.Count(),
		JournalEntries: b.Journal.Len(),
		Uncategorized:  len(b.Journal.Uncategorized()),
		Suppliers:      b.Suppliers.Count(),
		Rules:          b.Rules.Count(),
		UnifiedMode:    b.cfg.UseCompanyFile(),
	}
}
