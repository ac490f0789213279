package terminal

import (
	"strings"
	"sync"
	"time"
)

// History outcomes.
const (
	historyCompleted = "completed"
	historyBlocked   = "blocked"
	historyTimeout   = "timeout"
	historyFailed    = "failed"
)

// HistoryEntry is one recorded invocation attempt. Blocked commands are
// recorded too: refusals are part of the audit trail.
type HistoryEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Command   string    `json:"command"`
	Outcome   string    `json:"outcome"`
	Detail    string    `json:"detail,omitempty"`
}

// history is a bounded ring of recent invocations.
type history struct {
	mu      sync.Mutex
	entries []HistoryEntry
	limit   int
}

func newHistory(limit int) *history {
	if limit <= 0 {
		limit = 100
	}
	return &history{limit: limit}
}

func (h *history) record(req Request, outcome, detail string) {
	line := req.Command
	if len(req.Arguments) > 0 {
		line += " " + strings.Join(req.Arguments, " ")
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.entries = append(h.entries, HistoryEntry{
		Timestamp: time.Now().UTC(),
		Command:   line,
		Outcome:   outcome,
		Detail:    detail,
	})
	if len(h.entries) > h.limit {
		h.entries = h.entries[len(h.entries)-h.limit:]
	}
}

func (h *history) list(limit int) []HistoryEntry {
	h.mu.Lock()
	defer h.mu.Unlock()
	n := len(h.entries)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]HistoryEntry, limit)
	for i := 0; i < limit; i++ {
		out[i] = h.entries[n-1-i]
	}
	return out
}
