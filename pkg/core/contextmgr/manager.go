// Package contextmgr keeps an opaque working context for the agent: typed
// text entries, uuid-identified version snapshots and usage metrics. State
// is in-memory per process; versions are the only restore points.
package contextmgr

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/core/llm"
)

// Context types accepted by add_context.
const (
	TypeConversation = "conversation"
	TypeSystem       = "system"
	TypeKnowledge    = "knowledge"
	TypeMixed        = "mixed"
)

// Types lists the valid context types.
var Types = []string{TypeConversation, TypeSystem, TypeKnowledge, TypeMixed}

func validType(t string) bool {
	for _, known := range Types {
		if known == t {
			return true
		}
	}
	return false
}

// Entry is one stored context fragment.
type Entry struct {
	ID      string    `json:"id"`
	Type    string    `json:"type"`
	Content string    `json:"content"`
	Added   time.Time `json:"added"`
}

// Version is a full snapshot of the entries at a point in time.
type Version struct {
	ID      string    `json:"id"`
	Label   string    `json:"label,omitempty"`
	Created time.Time `json:"created"`
	Entries []Entry   `json:"-"`
	Count   int       `json:"entries"`
	Bytes   int       `json:"bytes"`
}

// Metrics is the headline state for get_context_metrics.
type Metrics struct {
	Entries         int            `json:"entries"`
	Bytes           int            `json:"bytes"`
	EstimatedTokens int            `json:"estimatedTokens"`
	ByType          map[string]int `json:"byType"`
	Versions        int            `json:"versions"`
	Summarizations  int            `json:"summarizations"`
	Optimizations   int            `json:"optimizations"`
}

// Manager is the thread-safe context store.
type Manager struct {
	mu             sync.RWMutex
	entries        []Entry
	versions       []Version
	summarizations int
	optimizations  int

	provider llm.Provider // optional; nil means digest-only summaries
	log      *logrus.Entry
}

// NewManager builds an empty manager. provider may be nil.
func NewManager(provider llm.Provider) *Manager {
	return &Manager{
		provider: provider,
		log:      logrus.WithField("component", "contextmgr"),
	}
}

// Add appends one entry and returns it.
func (m *Manager) Add(contextType, content string) (Entry, error) {
	if !validType(contextType) {
		return Entry{}, errs.Validationf("unknown context type %q; valid: %s", contextType, strings.Join(Types, ", "))
	}
	if strings.TrimSpace(content) == "" {
		return Entry{}, errs.Validationf("content is required")
	}
	entry := Entry{
		ID:      uuid.NewString(),
		Type:    contextType,
		Content: content,
		Added:   time.Now().UTC(),
	}
	m.mu.Lock()
	m.entries = append(m.entries, entry)
	m.mu.Unlock()
	return entry, nil
}

// Entries returns a copy of the current entries, oldest first. An empty
// contextType means all.
func (m *Manager) Entries(contextType string) []Entry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Entry
	for _, e := range m.entries {
		if contextType == "" || e.Type == contextType {
			out = append(out, e)
		}
	}
	return out
}

// Clean removes entries, all of them or one type's. Destructive, so it
// demands confirmation.
func (m *Manager) Clean(contextType string, confirm bool) (int, error) {
	if !confirm {
		return 0, errs.Validationf("clean_context is destructive; pass confirm: true to proceed")
	}
	if contextType != "" && !validType(contextType) {
		return 0, errs.Validationf("unknown context type %q", contextType)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if contextType == "" {
		removed := len(m.entries)
		m.entries = nil
		return removed, nil
	}
	kept := m.entries[:0]
	removed := 0
	for _, e := range m.entries {
		if e.Type == contextType {
			removed++
			continue
		}
		kept = append(kept, e)
	}
	m.entries = kept
	return removed, nil
}

// Optimize strategies.
const (
	StrategyDedupe  = "dedupe"
	StrategyCompact = "compact"
)

// compactThreshold is the per-entry size beyond which compact trims to a
// head/tail digest.
const compactThreshold = 4096

// Optimize reduces context size: dedupe drops entries with identical
// content, compact additionally digests oversized entries.
func (m *Manager) Optimize(strategy string) (removed, compacted int, err error) {
	if strategy == "" {
		strategy = StrategyDedupe
	}
	if strategy != StrategyDedupe && strategy != StrategyCompact {
		return 0, 0, errs.Validationf("unknown optimize strategy %q; valid: dedupe, compact", strategy)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	seen := map[string]bool{}
	kept := m.entries[:0]
	for _, e := range m.entries {
		if seen[e.Content] {
			removed++
			continue
		}
		seen[e.Content] = true
		if strategy == StrategyCompact && len(e.Content) > compactThreshold {
			e.Content = headTailDigest(e.Content, compactThreshold)
			compacted++
		}
		kept = append(kept, e)
	}
	m.entries = kept
	m.optimizations++
	return removed, compacted, nil
}

// Summarize produces a summary of the whole context, through the LLM
// provider when one is configured and a deterministic head/tail digest
// otherwise (so the tool works offline).
func (m *Manager) Summarize(ctx context.Context, maxLength int) (string, error) {
	if maxLength <= 0 {
		maxLength = 2000
	}
	joined := m.joined()
	if joined == "" {
		return "", errs.NotFoundf("context is empty, nothing to summarize")
	}

	summary := ""
	if m.provider != nil {
		text, err := m.provider.GenerateResponse(ctx,
			fmt.Sprintf("Summarize the following working context in at most %d characters, preserving account codes, amounts and decisions:\n\n%s", maxLength, joined),
			"You summarize bookkeeping context. Be factual and dense; no preamble.",
			nil)
		if err != nil {
			m.log.Warnf("provider summarize failed, using digest: %v", err)
		} else {
			summary = strings.TrimSpace(text)
		}
	}
	if summary == "" {
		summary = headTailDigest(joined, maxLength)
	}
	summary = truncateToRune(summary, maxLength)

	m.mu.Lock()
	m.summarizations++
	m.mu.Unlock()
	return summary, nil
}

func (m *Manager) joined() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var b strings.Builder
	for _, e := range m.entries {
		fmt.Fprintf(&b, "[%s] %s\n", e.Type, e.Content)
	}
	return strings.TrimSpace(b.String())
}

// headTailDigest keeps the opening and closing of a text with an elision
// marker, bounded by max bytes. Cut points land on rune boundaries so a
// multi-byte character is dropped whole, never split.
func headTailDigest(text string, max int) string {
	const marker = "\n...[elided]...\n"
	if len(text) <= max {
		return text
	}
	if max <= len(marker)+2 {
		return truncateToRune(text, max)
	}
	half := (max - len(marker)) / 2
	return truncateToRune(text, half) + marker + tailFromRune(text, half)
}

// truncateToRune cuts s to at most max bytes, backing up off a partial rune.
func truncateToRune(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// tailFromRune keeps at most the last n bytes of s, advancing past a
// partial rune at the front.
func tailFromRune(s string, n int) string {
	i := len(s) - n
	if i <= 0 {
		return s
	}
	for i < len(s) && !utf8.RuneStart(s[i]) {
		i++
	}
	return s[i:]
}

// CreateVersion snapshots the current entries under a fresh uuid.
func (m *Manager) CreateVersion(label string) Version {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]Entry, len(m.entries))
	copy(snapshot, m.entries)
	v := Version{
		ID:      uuid.NewString(),
		Label:   label,
		Created: time.Now().UTC(),
		Entries: snapshot,
		Count:   len(snapshot),
		Bytes:   totalBytes(snapshot),
	}
	m.versions = append(m.versions, v)
	return v
}

// RestoreVersion replaces the live entries with a snapshot's.
func (m *Manager) RestoreVersion(id string) (Version, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, v := range m.versions {
		if v.ID == id {
			restored := make([]Entry, len(v.Entries))
			copy(restored, v.Entries)
			m.entries = restored
			return v, nil
		}
	}
	return Version{}, errs.NotFoundf("context version %s not found", id)
}

// ListVersions returns snapshots newest first.
func (m *Manager) ListVersions() []Version {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Version, len(m.versions))
	copy(out, m.versions)
	sort.Slice(out, func(i, j int) bool { return out[i].Created.After(out[j].Created) })
	return out
}

// Metrics reports the current state.
func (m *Manager) Metrics() Metrics {
	m.mu.RLock()
	defer m.mu.RUnlock()
	byType := map[string]int{}
	for _, e := range m.entries {
		byType[e.Type]++
	}
	bytes := totalBytes(m.entries)
	return Metrics{
		Entries:         len(m.entries),
		Bytes:           bytes,
		EstimatedTokens: bytes / 4,
		ByType:          byType,
		Versions:        len(m.versions),
		Summarizations:  m.summarizations,
		Optimizations:   m.optimizations,
	}
}

func totalBytes(entries []Entry) int {
	n := 0
	for _, e := range entries {
		n += len(e.Content)
	}
	return n
}
