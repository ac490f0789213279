// Package reports renders the five audit reports as width-aligned
// plaintext. Every generator is a pure function of the chart, the journal
// entries and its parameters, so reports are reproducible from the books
// alone.
//
// Balances arrive debit-positive from the journal fold; presentation
// converts each account to its natural sign (assets and expenses positive
// in debit, income, liabilities and equity positive in credit).
package reports

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/core/money"
	"agentic_accounting/pkg/models"
)

// Sort selects an ordering for report lines.
type Sort string

const (
	SortAccountCode Sort = "account_code"
	SortAccountName Sort = "account_name"
	SortBalance     Sort = "balance"
	SortAmount      Sort = "amount"
	SortAccountType Sort = "account_type"
	SortDate        Sort = "date"
	SortDescription Sort = "description"
)

// Sorts lists every selectable order.
var Sorts = []Sort{
	SortAccountCode, SortAccountName, SortBalance,
	SortAmount, SortAccountType, SortDate, SortDescription,
}

// ParseSort validates a raw sort selector; empty means account_code.
func ParseSort(raw string) (Sort, error) {
	if raw == "" {
		return SortAccountCode, nil
	}
	for _, s := range Sorts {
		if string(s) == raw {
			return s, nil
		}
	}
	return "", errs.Validationf("unknown sort order %q; valid: account_code, account_name, balance, amount, account_type, date, description", raw)
}

// Inputs carries the data every generator reads.
type Inputs struct {
	Accounts []models.Account
	Entries  []models.JournalEntry
}

func (in Inputs) account(code string) (models.Account, bool) {
	for _, a := range in.Accounts {
		if a.Code == code {
			return a, true
		}
	}
	return models.Account{}, false
}

// line is one account row of a report.
type line struct {
	Code    string
	Name    string
	Type    models.AccountType
	Balance float64 // natural sign
	Count   int     // transactions touching the account in period
}

// balancesAsOf folds entries dated at or before asOf (zero = all) into
// debit-positive balances plus per-account touch counts.
func balancesAsOf(entries []models.JournalEntry, asOf models.Date) (map[string]float64, map[string]int) {
	accs := map[string]*money.Accumulator{}
	counts := map[string]int{}
	touch := func(code string) *money.Accumulator {
		if accs[code] == nil {
			accs[code] = &money.Accumulator{}
		}
		return accs[code]
	}
	for _, e := range entries {
		if !asOf.IsZero() && e.Date.After(asOf.Time) {
			continue
		}
		seen := map[string]bool{}
		for _, l := range e.Debits {
			touch(l.AccountCode).Add(l.Amount)
			seen[l.AccountCode] = true
		}
		for _, l := range e.Credits {
			touch(l.AccountCode).Add(-l.Amount)
			seen[l.AccountCode] = true
		}
		for code := range seen {
			counts[code]++
		}
	}
	balances := make(map[string]float64, len(accs))
	for code, acc := range accs {
		balances[code] = acc.Total()
	}
	return balances, counts
}

// entriesBetween filters entries to start <= date <= end, oldest first.
func entriesBetween(entries []models.JournalEntry, start, end models.Date) []models.JournalEntry {
	var out []models.JournalEntry
	for _, e := range entries {
		if !start.IsZero() && e.Date.Before(start.Time) {
			continue
		}
		if !end.IsZero() && e.Date.After(end.Time) {
			continue
		}
		out = append(out, e)
	}
	sort.SliceStable(out, func(a, b int) bool { return out[a].Date.Before(out[b].Date.Time) })
	return out
}

// natural converts a debit-positive balance to the account type's natural
// sign.
func natural(t models.AccountType, debitPositive float64) float64 {
	if t.IsDebitNatural() {
		return debitPositive
	}
	return money.Round2(-debitPositive)
}

// typeRank orders account types for account_type sorting.
func typeRank(t models.AccountType) int {
	for i, candidate := range models.AccountTypes {
		if candidate == t {
			return i
		}
	}
	return len(models.AccountTypes)
}

func sortLines(lines []line, by Sort) {
	sort.SliceStable(lines, func(a, b int) bool {
		switch by {
		case SortAccountName:
			return lines[a].Name < lines[b].Name
		case SortBalance, SortAmount:
			va, vb := lines[a].Balance, lines[b].Balance
			if va < 0 {
				va = -va
			}
			if vb < 0 {
				vb = -vb
			}
			if va != vb {
				return va > vb
			}
			return lines[a].Code < lines[b].Code
		case SortAccountType:
			if ra, rb := typeRank(lines[a].Type), typeRank(lines[b].Type); ra != rb {
				return ra < rb
			}
			return lines[a].Code < lines[b].Code
		default: // account_code, numeric ascending via zero-padded codes
			return lines[a].Code < lines[b].Code
		}
	})
}

// =============================================================================
// PLAINTEXT RENDERING
// =============================================================================

const bandWidth = 66

type report struct {
	buf bytes.Buffer
}

func (r *report) headerBand(title string, meta ...string) {
	r.buf.WriteString(strings.Repeat("=", bandWidth) + "\n")
	r.buf.WriteString(" " + title + "\n")
	for _, m := range meta {
		r.buf.WriteString(" " + m + "\n")
	}
	r.buf.WriteString(strings.Repeat("=", bandWidth) + "\n")
}

func (r *report) section(name string) {
	r.buf.WriteString("\n" + name + "\n")
	r.rule()
}

func (r *report) rule() {
	r.buf.WriteString(strings.Repeat("-", bandWidth) + "\n")
}

func (r *report) accountRow(code, name string, t models.AccountType, amount float64) {
	fmt.Fprintf(&r.buf, " %-4s %-29s %-16s %12s\n", code, clip(name, 29), t, money.Format(amount))
}

func (r *report) countedRow(code, name string, count int, amount float64) {
	fmt.Fprintf(&r.buf, " %-4s %-29s %10d tx %12s\n", code, clip(name, 29), count, money.Format(amount))
}

func (r *report) totalRow(label string, amount float64) {
	fmt.Fprintf(&r.buf, " %-51s %12s\n", label, money.Format(amount))
}

func (r *report) plainRow(text string) {
	r.buf.WriteString(" " + text + "\n")
}

// verification writes the closing check block. ok selects the ✓ marker,
// anything else gets ⚠ so an out-of-balance report is impossible to miss.
func (r *report) verification(label string, imbalance float64, ok bool) {
	r.buf.WriteString("\n")
	r.rule()
	r.plainRow("VERIFICATION")
	r.totalRow("Absolute imbalance", imbalance)
	if ok {
		r.plainRow(fmt.Sprintf("✓ %s (within 0.01)", label))
	} else {
		r.plainRow(fmt.Sprintf("⚠ %s OUT OF BALANCE", label))
	}
	r.rule()
}

func (r *report) String() string { return r.buf.String() }

func clip(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
