// Package rules stores the accounting rules the AI categorizer consults:
// named prose blocks pointing at a target account, persisted as a
// hand-editable plaintext file.
package rules

import (
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/core/store"
	"agentic_accounting/pkg/models"
)

// MinPriority and MaxPriority bound the 1..10 presentation priority.
const (
	MinPriority = 1
	MaxPriority = 10
)

// Store is a thread-safe rule collection preserving insertion order.
type Store struct {
	mu    sync.RWMutex
	rules []models.AccountingRule
	log   *logrus.Entry
}

// NewStore returns an empty rule store.
func NewStore() *Store {
	return &Store{log: logrus.WithField("component", "rules")}
}

// Count returns the number of rules.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rules)
}

// All returns every rule in insertion order.
func (s *Store) All() []models.AccountingRule {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.AccountingRule, len(s.rules))
	copy(out, s.rules)
	return out
}

// Get returns a rule by its unique name.
func (s *Store) Get(name string) (models.AccountingRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(name); i >= 0 {
		return s.rules[i], nil
	}
	return models.AccountingRule{}, errs.NotFoundf("accounting rule %q not found", name)
}

func (s *Store) indexOf(name string) int {
	needle := strings.TrimSpace(name)
	for i := range s.rules {
		if s.rules[i].Name == needle {
			return i
		}
	}
	return -1
}

func checkRule(r models.AccountingRule) error {
	if strings.TrimSpace(r.Name) == "" {
		return errs.Validationf("rule name is required")
	}
	if !models.ValidAccountCode(r.AccountCode) {
		return errs.Validationf("rule %q: account code %q is not a 3-digit code", r.Name, r.AccountCode)
	}
	if models.IsBankCode(r.AccountCode) {
		return errs.Protectedf("rule %q targets account %s in the protected bank range 001-099; rules may never categorize to a bank account",
			r.Name, r.AccountCode)
	}
	if r.Priority < MinPriority || r.Priority > MaxPriority {
		return errs.Validationf("rule %q: priority %d outside %d..%d", r.Name, r.Priority, MinPriority, MaxPriority)
	}
	if strings.TrimSpace(r.Condition) == "" {
		return errs.Validationf("rule %q: condition is required", r.Name)
	}
	if strings.TrimSpace(r.Action) == "" {
		return errs.Validationf("rule %q: action is required", r.Name)
	}
	return nil
}

// Add appends a new rule stamped with now. The account snapshot fields
// must already be derived from the chart by the caller.
func (s *Store) Add(r models.AccountingRule, now time.Time) (models.AccountingRule, error) {
	if err := checkRule(r); err != nil {
		return models.AccountingRule{}, err
	}
	r.Name = strings.TrimSpace(r.Name)
	r.Created = now.UTC().Truncate(time.Second)
	r.Updated = r.Created

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.indexOf(r.Name) >= 0 {
		return models.AccountingRule{}, errs.Conflictf("accounting rule %q already exists; use update_accounting_rule to modify it", r.Name)
	}
	s.rules = append(s.rules, r)
	return r, nil
}

// Update replaces the named rule's mutable fields. The created timestamp
// is preserved, updated is refreshed, and the caller supplies a freshly
// derived account snapshot.
func (s *Store) Update(name string, r models.AccountingRule, now time.Time) (models.AccountingRule, error) {
	if err := checkRule(r); err != nil {
		return models.AccountingRule{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(name)
	if i < 0 {
		return models.AccountingRule{}, errs.NotFoundf("accounting rule %q not found", name)
	}
	r.Name = s.rules[i].Name
	r.Created = s.rules[i].Created
	r.Updated = now.UTC().Truncate(time.Second)
	s.rules[i] = r
	return r, nil
}

// Delete removes the named rule. Refuses without confirm.
func (s *Store) Delete(name string, confirm bool) error {
	if !confirm {
		return errs.Validationf("deleting rule %q requires confirm: true", name)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(name)
	if i < 0 {
		return errs.NotFoundf("accounting rule %q not found", name)
	}
	s.rules = append(s.rules[:i], s.rules[i+1:]...)
	s.log.Infof("deleted accounting rule %q", name)
	return nil
}

// List filters rules by condition substring and target account, optionally
// sorts by descending priority, and caps at limit (<= 0 for all).
func (s *Store) List(conditionFilter, accountCode string, byPriority bool, limit int) []models.AccountingRule {
	all := s.All()
	needle := strings.ToLower(strings.TrimSpace(conditionFilter))

	var out []models.AccountingRule
	for _, r := range all {
		if needle != "" && !strings.Contains(strings.ToLower(r.Condition), needle) {
			continue
		}
		if accountCode != "" && r.AccountCode != accountCode {
			continue
		}
		out = append(out, r)
	}
	if byPriority {
		sort.SliceStable(out, func(a, b int) bool { return out[a].Priority > out[b].Priority })
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Replace swaps the store contents. Used by company-file hydration.
func (s *Store) Replace(rules []models.AccountingRule) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rules = make([]models.AccountingRule, len(rules))
	copy(s.rules, rules)
}

// LoadFile hydrates the store from the plaintext rules file. Malformed
// blocks are skipped with warnings; a missing file means no rules.
func (s *Store) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		s.log.Warnf("rules file %s not found, starting empty", path)
		s.Replace(nil)
		return nil
	}
	if err != nil {
		return errs.IOf("read rules %s: %v", path, err)
	}
	parsed, warnings := Parse(data)
	for _, w := range warnings {
		s.log.Warnf("rules file %s: %s", path, w)
	}
	s.Replace(parsed)
	s.log.Infof("loaded %d accounting rules from %s", len(parsed), path)
	return nil
}

// SaveFile renders the rules in insertion order, snapshotting the previous
// file first.
func (s *Store) SaveFile(path, backupsDir string) error {
	data := Render(s.All())
	if _, err := store.WriteWithBackup(path, data, backupsDir); err != nil {
		return err
	}
	s.log.Infof("saved %d accounting rules to %s", s.Count(), path)
	return nil
}
