// Package supplier keeps the supplier directory and the fuzzy matcher
// that links raw bank descriptions to known suppliers.
package supplier

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/core/store"
	"agentic_accounting/pkg/models"
)

// Match pairs a supplier with its score against a query.
type Match struct {
	Supplier models.Supplier `json:"supplier"`
	Score    float64         `json:"score"`
}

// Registry is a thread-safe supplier directory.
type Registry struct {
	mu        sync.RWMutex
	suppliers []models.Supplier
	log       *logrus.Entry
}

// NewRegistry returns an empty directory.
func NewRegistry() *Registry {
	return &Registry{log: logrus.WithField("component", "suppliers")}
}

// Count returns the number of suppliers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.suppliers)
}

// All returns every supplier sorted by name.
func (r *Registry) All() []models.Supplier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Supplier, len(r.suppliers))
	copy(out, r.suppliers)
	sortByName(out)
	return out
}

func sortByName(suppliers []models.Supplier) {
	sort.Slice(suppliers, func(a, b int) bool { return suppliers[a].Name < suppliers[b].Name })
}

func validateSupplier(s models.Supplier) error {
	if strings.TrimSpace(s.Name) == "" {
		return errs.Validationf("supplier name is required")
	}
	if strings.TrimSpace(s.Supplies) == "" {
		return errs.Validationf("supplier %q: supplies description is required", s.Name)
	}
	if s.Account != "" && !models.ValidAccountCode(s.Account) {
		return errs.Validationf("supplier %q: default account %q is not a 3-digit code", s.Name, s.Account)
	}
	if normalize(s.Name) == "" {
		return errs.Validationf("supplier name %q normalizes to nothing", s.Name)
	}
	return nil
}

// Create registers a supplier. A candidate whose name fuzzy-matches an
// existing supplier at substring strength or better is a conflict; the
// error directs the caller to update_supplier instead.
func (r *Registry) Create(s models.Supplier) error {
	if err := validateSupplier(s); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.suppliers {
		if Score(s.Name, r.suppliers[i].Name) >= scoreSubstring {
			return errs.Conflictf("supplier %q matches existing supplier %q; use update_supplier to modify it",
				s.Name, r.suppliers[i].Name)
		}
	}
	r.suppliers = append(r.suppliers, s)
	return nil
}

// Read resolves a query to suppliers. With exactMatch only a normalized
// exact hit is returned; otherwise fuzzy matches at or above MinScore,
// best first.
func (r *Registry) Read(query string, exactMatch bool) []Match {
	if exactMatch {
		if s, err := r.Get(query); err == nil {
			return []Match{{Supplier: s, Score: scoreExact}}
		}
		return nil
	}
	return r.Find(query, 0)
}

// Get returns a supplier by exact or normalized name.
func (r *Registry) Get(name string) (models.Supplier, error) {
	key := normalize(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for i := range r.suppliers {
		if normalize(r.suppliers[i].Name) == key {
			return r.suppliers[i], nil
		}
	}
	return models.Supplier{}, errs.NotFoundf("supplier %q not found", name)
}

// Update modifies an existing supplier located by normalized name. Empty
// fields keep their current value; setting clearAccount drops the default
// account.
func (r *Registry) Update(name, supplies, account string, clearAccount bool) (models.Supplier, error) {
	if account != "" && !models.ValidAccountCode(account) {
		return models.Supplier{}, errs.Validationf("default account %q is not a 3-digit code", account)
	}
	key := normalize(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.suppliers {
		if normalize(r.suppliers[i].Name) != key {
			continue
		}
		if supplies != "" {
			r.suppliers[i].Supplies = supplies
		}
		if account != "" {
			r.suppliers[i].Account = account
		}
		if clearAccount {
			r.suppliers[i].Account = ""
		}
		return r.suppliers[i], nil
	}
	return models.Supplier{}, errs.NotFoundf("supplier %q not found", name)
}

// Delete removes a supplier by normalized name. Refuses without confirm.
func (r *Registry) Delete(name string, confirm bool) error {
	if !confirm {
		return errs.Validationf("deleting supplier %q requires confirm: true", name)
	}
	key := normalize(name)
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range r.suppliers {
		if normalize(r.suppliers[i].Name) == key {
			r.suppliers = append(r.suppliers[:i], r.suppliers[i+1:]...)
			r.log.Infof("deleted supplier %q", name)
			return nil
		}
	}
	return errs.NotFoundf("supplier %q not found", name)
}

// List returns suppliers filtered by a substring over name and supplies,
// sorted by name, capped at limit (<= 0 for all).
func (r *Registry) List(filter string, limit int) []models.Supplier {
	all := r.All()
	needle := strings.ToLower(strings.TrimSpace(filter))
	var out []models.Supplier
	for _, s := range all {
		if needle != "" &&
			!strings.Contains(strings.ToLower(s.Name), needle) &&
			!strings.Contains(strings.ToLower(s.Supplies), needle) {
			continue
		}
		out = append(out, s)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Find scores every supplier against the query and returns matches at or
// above MinScore, best first. limit <= 0 means no limit.
func (r *Registry) Find(query string, limit int) []Match {
	r.mu.RLock()
	defer r.mu.RUnlock()

	scores := make([]float64, len(r.suppliers))
	names := make([]string, len(r.suppliers))
	for i, s := range r.suppliers {
		scores[i] = Score(query, s.Name)
		names[i] = s.Name
	}

	var out []Match
	for _, i := range rank(scores, names) {
		if scores[i] < MinScore {
			break
		}
		out = append(out, Match{Supplier: r.suppliers[i], Score: scores[i]})
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out
}

// Replace swaps the directory contents. Used by company-file hydration.
// Unlike Create it only enforces per-record validity, not cross-record
// fuzzy uniqueness, so historical directories always load.
func (r *Registry) Replace(suppliers []models.Supplier) error {
	for _, s := range suppliers {
		if err := validateSupplier(s); err != nil {
			return err
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.suppliers = make([]models.Supplier, len(suppliers))
	copy(r.suppliers, suppliers)
	return nil
}

// LoadFile hydrates the directory from a JSON array. Missing file means
// an empty directory.
func (r *Registry) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		r.log.Warnf("suppliers file %s not found, starting empty", path)
		return nil
	}
	if err != nil {
		return errs.IOf("read suppliers %s: %v", path, err)
	}
	var suppliers []models.Supplier
	if err := json.Unmarshal(data, &suppliers); err != nil {
		return errs.IOf("parse suppliers %s: %v", path, err)
	}
	if err := r.Replace(suppliers); err != nil {
		return err
	}
	r.log.Infof("loaded %d suppliers from %s", len(suppliers), path)
	return nil
}

// SaveFile persists the directory as a canonical JSON array sorted by
// name with 2-space indentation, so equal logical content always writes
// identical bytes. The previous file is snapshotted first.
func (r *Registry) SaveFile(path, backupsDir string) error {
	suppliers := r.All()
	if suppliers == nil {
		suppliers = []models.Supplier{}
	}
	data, err := json.MarshalIndent(suppliers, "", "  ")
	if err != nil {
		return errs.IOf("marshal suppliers: %v", err)
	}
	data = append(data, '\n')
	if _, err := store.WriteWithBackup(path, data, backupsDir); err != nil {
		return err
	}
	r.log.Infof("saved %d suppliers to %s", len(suppliers), path)
	return nil
}
