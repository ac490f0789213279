// Package chart maintains the typed chart of accounts: lookup,
// enumeration, code suggestion and the guarded add path. Codes 001-099
// are the protected bank range; 999 is the Uncategorized seed account.
package chart

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"sync"

	"github.com/sirupsen/logrus"

	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/core/store"
	"agentic_accounting/pkg/models"
)

// Chart is a thread-safe account catalogue preserving insertion order.
type Chart struct {
	mu       sync.RWMutex
	accounts map[string]models.Account
	order    []string
	log      *logrus.Entry
}

// New returns an empty chart.
func New() *Chart {
	return &Chart{
		accounts: map[string]models.Account{},
		log:      logrus.WithField("component", "chart"),
	}
}

// Get looks up one account by code.
func (c *Chart) Get(code string) (models.Account, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	account, ok := c.accounts[code]
	if !ok {
		return models.Account{}, errs.NotFoundf("account %s not found in chart", code)
	}
	return account, nil
}

// Exists reports whether a code is present.
func (c *Chart) Exists(code string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.accounts[code]
	return ok
}

// ByType returns the accounts of one type in insertion order.
func (c *Chart) ByType(t models.AccountType) []models.Account {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Account
	for _, code := range c.order {
		if a := c.accounts[code]; a.Type == t {
			out = append(out, a)
		}
	}
	return out
}

// All returns every account in insertion order.
func (c *Chart) All() []models.Account {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]models.Account, 0, len(c.order))
	for _, code := range c.order {
		out = append(out, c.accounts[code])
	}
	return out
}

// Count returns the number of accounts.
func (c *Chart) Count() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.accounts)
}

// IsCodeAvailable reports whether code is well-formed and unused.
func (c *Chart) IsCodeAvailable(code string) bool {
	if !models.ValidAccountCode(code) {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, taken := c.accounts[code]
	return !taken
}

// NextAvailableCode scans upward from startingFrom for a free code within
// the same hundred band (bank codes scan 001-099). The band boundary is
// advisory elsewhere but binding for auto-assignment.
func (c *Chart) NextAvailableCode(startingFrom string) (string, error) {
	if !models.ValidAccountCode(startingFrom) {
		return "", errs.Validationf("starting code %q is not a 3-digit account code", startingFrom)
	}
	start, _ := strconv.Atoi(startingFrom)

	bandEnd := (start/100)*100 + 99
	if models.IsBankCode(startingFrom) {
		bandEnd = 99
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	for n := start; n <= bandEnd; n++ {
		code := fmt.Sprintf("%03d", n)
		if _, taken := c.accounts[code]; !taken {
			return code, nil
		}
	}
	return "", errs.Validationf("no available account code in band %s-%03d", startingFrom, bandEnd)
}

// AddOption tweaks Add behavior.
type AddOption func(*addOptions)

type addOptions struct {
	bootstrap bool
}

// Bootstrap marks the caller as the initial chart loader, which alone may
// register bank-range accounts.
func Bootstrap() AddOption {
	return func(o *addOptions) { o.bootstrap = true }
}

// Add registers a new account. Bank-range codes are refused outside
// bootstrap; malformed codes and unknown enums are ValidationErrors;
// duplicate codes are Conflicts.
func (c *Chart) Add(account models.Account, opts ...AddOption) error {
	var options addOptions
	for _, opt := range opts {
		opt(&options)
	}

	if !models.ValidAccountCode(account.Code) {
		return errs.Validationf("account code %q must be exactly three digits", account.Code)
	}
	if _, err := models.ParseAccountType(string(account.Type)); err != nil {
		return errs.Validationf("account %s: %v", account.Code, err)
	}
	if _, err := models.ParseGSTTreatment(string(account.GSTTreatment)); err != nil {
		return errs.Validationf("account %s: %v", account.Code, err)
	}
	if account.Name == "" {
		return errs.Validationf("account %s: name is required", account.Code)
	}

	isBankCode := models.IsBankCode(account.Code)
	if isBankCode && !options.bootstrap {
		return errs.Protectedf("account code %s is in the protected bank range 001-099", account.Code)
	}
	if isBankCode && account.Type != models.AccountTypeBank {
		return errs.Validationf("account %s: codes in 001-099 must be type Bank, got %s", account.Code, account.Type)
	}
	if !isBankCode && account.Type == models.AccountTypeBank {
		return errs.Validationf("account %s: Bank accounts must use codes 001-099", account.Code)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.accounts[account.Code]; exists {
		return errs.Conflictf("account %s already exists in chart", account.Code)
	}
	c.accounts[account.Code] = account
	c.order = append(c.order, account.Code)
	return nil
}

// Replace swaps the whole catalogue. Used by company-file hydration.
func (c *Chart) Replace(accounts []models.Account) error {
	fresh := New()
	for _, a := range accounts {
		if err := fresh.Add(a, Bootstrap()); err != nil {
			return err
		}
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.accounts = fresh.accounts
	c.order = fresh.order
	return nil
}

// EnsureUncategorized seeds the 999 placeholder when absent. Import
// cannot run without it.
func (c *Chart) EnsureUncategorized() {
	if c.Exists(models.UncategorizedCode) {
		return
	}
	_ = c.Add(models.Account{
		Code:          models.UncategorizedCode,
		Name:          "Uncategorized",
		Type:          models.AccountTypeExpense,
		GSTApplicable: false,
		GSTTreatment:  models.BASExcluded,
	})
	c.log.Infof("seeded missing Uncategorized account %s", models.UncategorizedCode)
}

// LoadFile hydrates the chart from a JSON array. A missing file leaves
// the chart empty; the caller decides whether that is fatal.
func (c *Chart) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		c.log.Warnf("chart file %s not found, starting empty", path)
		return nil
	}
	if err != nil {
		return errs.IOf("read chart %s: %v", path, err)
	}
	var accounts []models.Account
	if err := json.Unmarshal(data, &accounts); err != nil {
		return errs.IOf("parse chart %s: %v", path, err)
	}
	if err := c.Replace(accounts); err != nil {
		return fmt.Errorf("hydrate chart from %s: %w", path, err)
	}
	c.log.Infof("loaded %d accounts from %s", len(accounts), path)
	return nil
}

// SaveFile persists the chart sorted by code with 2-space indentation and
// a timestamped backup of the previous contents.
func (c *Chart) SaveFile(path, backupsDir string) error {
	accounts := c.All()
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Code < accounts[j].Code })

	data, err := json.MarshalIndent(accounts, "", "  ")
	if err != nil {
		return errs.IOf("marshal chart: %v", err)
	}
	data = append(data, '\n')
	if _, err := store.WriteWithBackup(path, data, backupsDir); err != nil {
		return err
	}
	c.log.Infof("saved %d accounts to %s", len(accounts), path)
	return nil
}
