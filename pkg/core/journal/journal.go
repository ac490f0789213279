// Package journal owns the general journal: the ordered list of balanced
// double-entry records plus every mutation the tool surface exposes over
// it. Entries are immutable once written except through Recategorize and
// AppendNote, both of which keep the identity tuple intact.
package journal

import (
	"encoding/json"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/core/gst"
	"agentic_accounting/pkg/core/money"
	"agentic_accounting/pkg/core/store"
	"agentic_accounting/pkg/core/validate"
	"agentic_accounting/pkg/models"
)

// Journal is a thread-safe in-memory journal with an exclusive writer and
// shared readers.
type Journal struct {
	mu      sync.RWMutex
	entries []models.JournalEntry
	log     *logrus.Entry
}

// New returns an empty journal.
func New() *Journal {
	return &Journal{log: logrus.WithField("component", "journal")}
}

// Len returns the number of entries.
func (j *Journal) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.entries)
}

// All returns a copy of the entries in recorded order.
func (j *Journal) All() []models.JournalEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	out := make([]models.JournalEntry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Replace swaps the journal contents. Used by company-file hydration.
func (j *Journal) Replace(entries []models.JournalEntry) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.entries = make([]models.JournalEntry, len(entries))
	copy(j.entries, entries)
}

// Add appends a validated entry. Returns false without error when an entry
// with the same identity tuple (day, description, amount, bank code) is
// already recorded, which makes repeated imports of the same statement a
// no-op.
func (j *Journal) Add(entry models.JournalEntry) (bool, error) {
	if check := validate.CheckEntry(entry, money.Tolerance); !check.IsValid() {
		return false, errs.Validationf("entry %q on %s rejected: %s",
			entry.Description, entry.Date, check.Problems[0])
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := range j.entries {
		if j.entries[i].SameBankTransaction(&entry) {
			j.log.Debugf("skipping duplicate transaction %s", entry.TransactionID())
			return false, nil
		}
	}
	j.entries = append(j.entries, entry)
	return true, nil
}

// UpdateEntry swaps an entry for a replacement with the same or a new
// identity. Fails when the old entry is absent or the replacement invalid.
func (j *Journal) UpdateEntry(old, replacement models.JournalEntry) error {
	if check := validate.CheckEntry(replacement, money.Tolerance); !check.IsValid() {
		return errs.Validationf("replacement entry rejected: %s", check.Problems[0])
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := range j.entries {
		if j.entries[i].SameBankTransaction(&old) {
			j.entries[i] = replacement
			return nil
		}
	}
	return errs.NotFoundf("transaction %s not found in journal", old.TransactionID())
}

// RemoveEntry deletes an entry by identity. The tool surface never calls
// this; it exists for out-of-band cleanup.
func (j *Journal) RemoveEntry(entry models.JournalEntry) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := range j.entries {
		if j.entries[i].SameBankTransaction(&entry) {
			j.entries = append(j.entries[:i], j.entries[i+1:]...)
			j.log.Infof("removed transaction %s", entry.TransactionID())
			return nil
		}
	}
	return errs.NotFoundf("transaction %s not found in journal", entry.TransactionID())
}

// FindByID locates an entry by its transaction ID.
func (j *Journal) FindByID(id string) (models.JournalEntry, error) {
	ref, err := models.ParseTransactionID(id)
	if err != nil {
		return models.JournalEntry{}, errs.Validationf("%v", err)
	}
	j.mu.RLock()
	defer j.mu.RUnlock()
	for i := range j.entries {
		if ref.Matches(&j.entries[i]) {
			return j.entries[i], nil
		}
	}
	return models.JournalEntry{}, errs.NotFoundf("transaction %s not found in journal", id)
}

// EntriesForAccount returns entries touching the account, oldest first.
func (j *Journal) EntriesForAccount(code string) []models.JournalEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.entriesForAccountLocked(code)
}

func (j *Journal) entriesForAccountLocked(code string) []models.JournalEntry {
	var out []models.JournalEntry
	for _, e := range j.entries {
		if entryTouches(&e, code) {
			out = append(out, e)
		}
	}
	sortByDate(out)
	return out
}

// EntriesBetween returns entries with from <= date <= to, oldest first.
// Zero bounds are open.
func (j *Journal) EntriesBetween(from, to models.Date) []models.JournalEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	var out []models.JournalEntry
	for _, e := range j.entries {
		if !from.IsZero() && e.Date.Before(from.Time) {
			continue
		}
		if !to.IsZero() && e.Date.After(to.Time) {
			continue
		}
		out = append(out, e)
	}
	sortByDate(out)
	return out
}

// Uncategorized returns entries still carrying the 999 placeholder.
func (j *Journal) Uncategorized() []models.JournalEntry {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.entriesForAccountLocked(models.UncategorizedCode)
}

func entryTouches(e *models.JournalEntry, code string) bool {
	for _, l := range e.Debits {
		if l.AccountCode == code {
			return true
		}
	}
	for _, l := range e.Credits {
		if l.AccountCode == code {
			return true
		}
	}
	return false
}

func sortByDate(entries []models.JournalEntry) {
	sort.SliceStable(entries, func(a, b int) bool {
		return entries[a].Date.Before(entries[b].Date.Time)
	})
}

// =============================================================================
// BALANCES
// =============================================================================

// Balances folds the journal into per-account balances. The convention is
// debit-positive for every account type; report rendering converts to the
// natural balance of each type on top of this.
func (j *Journal) Balances() map[string]float64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.balancesLocked(models.Date{})
}

// BalancesAsOf is Balances bounded to entries dated at or before asOf.
func (j *Journal) BalancesAsOf(asOf models.Date) map[string]float64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.balancesLocked(asOf)
}

func (j *Journal) balancesLocked(asOf models.Date) map[string]float64 {
	accs := map[string]*money.Accumulator{}
	touch := func(code string) *money.Accumulator {
		if accs[code] == nil {
			accs[code] = &money.Accumulator{}
		}
		return accs[code]
	}
	for _, e := range j.entries {
		if !asOf.IsZero() && e.Date.After(asOf.Time) {
			continue
		}
		for _, l := range e.Debits {
			touch(l.AccountCode).Add(l.Amount)
		}
		for _, l := range e.Credits {
			touch(l.AccountCode).Add(-l.Amount)
		}
	}
	out := make(map[string]float64, len(accs))
	for code, acc := range accs {
		out[code] = acc.Total()
	}
	return out
}

// BalanceFor returns the debit-positive balance of one account, optionally
// bounded by an as-of date.
func (j *Journal) BalanceFor(code string, asOf models.Date) float64 {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.balancesLocked(asOf)[code]
}

// =============================================================================
// RECATEGORIZATION
// =============================================================================

// RecategorizeResult reports what a recategorization changed.
type RecategorizeResult struct {
	TransactionID string             `json:"transactionId"`
	PreviousCode  string             `json:"previousCode"`
	NewCode       string             `json:"newCode"`
	Lines         []models.SplitLine `json:"lines"`
	GSTSplit      bool               `json:"gstSplit"`
	Note          string             `json:"note"`
}

// Recategorize rebuilds the non-bank side of the identified entry against
// the target account, reapplying the GST split from the account's
// treatment, and appends an audit note. The bank leg and identity tuple
// never change. Bank targets are refused; retargeting the current account
// is a conflict.
func (j *Journal) Recategorize(id string, target models.Account, clearingCode, note string, now time.Time) (RecategorizeResult, error) {
	if models.IsBankCode(target.Code) {
		return RecategorizeResult{}, errs.Protectedf(
			"cannot recategorize to account %s in bank range 001-099; bank legs are managed by import", target.Code)
	}

	ref, err := models.ParseTransactionID(id)
	if err != nil {
		return RecategorizeResult{}, errs.Validationf("%v", err)
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	idx := -1
	for i := range j.entries {
		if ref.Matches(&j.entries[i]) {
			idx = i
			break
		}
	}
	if idx == -1 {
		return RecategorizeResult{}, errs.NotFoundf("transaction %s not found in journal", id)
	}

	entry := j.entries[idx]
	previous := primaryCode(&entry, clearingCode)
	if previous == target.Code {
		return RecategorizeResult{}, errs.Conflictf(
			"transaction is already categorized to account %s", target.Code)
	}

	bankLine, bankIsDebit, ok := entry.BankLeg()
	if !ok {
		return RecategorizeResult{}, errs.Validationf("transaction %s has no bank leg", id)
	}

	lines, err := gst.Lines(target, clearingCode, bankLine.Amount)
	if err != nil {
		return RecategorizeResult{}, err
	}
	if bankIsDebit {
		entry.Credits = lines
		entry.Debits = []models.SplitLine{bankLine}
	} else {
		entry.Debits = lines
		entry.Credits = []models.SplitLine{bankLine}
	}

	auditNote := now.UTC().Format(models.DateLayout) + ": " + previous + " -> " + target.Code
	if note != "" {
		auditNote += " (" + note + ")"
	}
	if entry.Notes != "" {
		entry.Notes += "; "
	}
	entry.Notes += auditNote

	j.entries[idx] = entry
	j.log.Infof("recategorized %s from %s to %s", id, previous, target.Code)

	return RecategorizeResult{
		TransactionID: entry.TransactionID(),
		PreviousCode:  previous,
		NewCode:       target.Code,
		Lines:         lines,
		GSTSplit:      len(lines) > 1,
		Note:          auditNote,
	}, nil
}

// AppendNote adds free-form text to an entry's notes.
func (j *Journal) AppendNote(id, note string) (models.JournalEntry, error) {
	ref, err := models.ParseTransactionID(id)
	if err != nil {
		return models.JournalEntry{}, errs.Validationf("%v", err)
	}
	if note == "" {
		return models.JournalEntry{}, errs.Validationf("note text is required")
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	for i := range j.entries {
		if ref.Matches(&j.entries[i]) {
			if j.entries[i].Notes != "" {
				j.entries[i].Notes += "; "
			}
			j.entries[i].Notes += note
			return j.entries[i], nil
		}
	}
	return models.JournalEntry{}, errs.NotFoundf("transaction %s not found in journal", id)
}

// primaryCode picks the code an entry is "categorized to": the first
// non-bank line that is not the GST clearing account, falling back to the
// first non-bank line.
func primaryCode(e *models.JournalEntry, clearingCode string) string {
	var fallback string
	for _, l := range append(append([]models.SplitLine{}, e.Debits...), e.Credits...) {
		if models.IsBankCode(l.AccountCode) {
			continue
		}
		if fallback == "" {
			fallback = l.AccountCode
		}
		if l.AccountCode != clearingCode {
			return l.AccountCode
		}
	}
	return fallback
}

// =============================================================================
// PERSISTENCE
// =============================================================================

// LoadFile hydrates the journal from a JSON array. Undecodable elements
// are skipped with a warning so one corrupt record cannot hold the whole
// book hostage. With strict set, entries failing double-entry validation
// abort the load instead.
func (j *Journal) LoadFile(path string, strict bool) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		j.log.Warnf("journal file %s not found, starting empty", path)
		j.Replace(nil)
		return nil
	}
	if err != nil {
		return errs.IOf("read journal %s: %v", path, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return errs.IOf("parse journal %s: %v", path, err)
	}

	entries := make([]models.JournalEntry, 0, len(raw))
	skipped := 0
	for i, msg := range raw {
		var entry models.JournalEntry
		if err := json.Unmarshal(msg, &entry); err != nil {
			skipped++
			j.log.Warnf("skipping journal element %d: %v", i, err)
			continue
		}
		entries = append(entries, entry)
	}

	if strict {
		if check := validate.CheckJournal(entries, money.Tolerance); !check.IsValid() {
			first := check.Failures[0]
			return errs.Validationf("journal %s failed validation: %d bad entries, first: %s on %s: %s",
				path, len(check.Failures), first.Description, first.Date, first.Problems[0])
		}
		if skipped > 0 {
			return errs.Validationf("journal %s has %d undecodable elements", path, skipped)
		}
	}

	j.Replace(entries)
	j.log.Infof("loaded %d journal entries from %s (%d skipped)", len(entries), path, skipped)
	return nil
}

// SaveFile persists the journal with 2-space indentation, snapshotting the
// previous file into backupsDir first.
func (j *Journal) SaveFile(path, backupsDir string) error {
	entries := j.All()
	if entries == nil {
		entries = []models.JournalEntry{}
	}
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return errs.IOf("marshal journal: %v", err)
	}
	data = append(data, '\n')
	if _, err := store.WriteWithBackup(path, data, backupsDir); err != nil {
		return err
	}
	j.log.Infof("saved %d journal entries to %s", len(entries), path)
	return nil
}
