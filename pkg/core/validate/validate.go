// Package validate provides reusable bookkeeping validation utilities.
// These functions can be called from tests, tool handlers, or import code
// to verify journal integrity before anything touches disk.
package validate

import (
	"fmt"
	"math"

	"agentic_accounting/pkg/core/money"
	"agentic_accounting/pkg/models"
)

// =============================================================================
// JOURNAL ENTRY CHECKS
// =============================================================================

// EntryCheck holds the result of validating a single journal entry.
type EntryCheck struct {
	Date         string
	Description  string
	TotalDebits  float64
	TotalCredits float64
	Difference   float64
	IsBalanced   bool
	BankLegs     int
	Tolerance    float64
	Problems     []string
}

// IsValid reports whether the entry passed every check.
func (c *EntryCheck) IsValid() bool {
	return len(c.Problems) == 0
}

// CheckEntry validates the double-entry invariants of one journal entry:
// debits equal credits within tolerance, exactly one bank leg, positive
// line amounts and well-formed codes.
func CheckEntry(entry models.JournalEntry, tolerance float64) *EntryCheck {
	check := &EntryCheck{
		Date:         entry.Date.String(),
		Description:  entry.Description,
		TotalDebits:  entry.TotalDebits(),
		TotalCredits: entry.TotalCredits(),
		Tolerance:    tolerance,
	}
	check.Difference = money.Sub(check.TotalDebits, check.TotalCredits)
	check.IsBalanced = math.Abs(check.Difference) <= tolerance

	if entry.Date.IsZero() {
		check.Problems = append(check.Problems, "entry date is missing")
	}
	if entry.Description == "" {
		check.Problems = append(check.Problems, "entry description is empty")
	}
	if len(entry.Debits) == 0 {
		check.Problems = append(check.Problems, "entry has no debit lines")
	}
	if len(entry.Credits) == 0 {
		check.Problems = append(check.Problems, "entry has no credit lines")
	}
	if !check.IsBalanced {
		check.Problems = append(check.Problems, fmt.Sprintf(
			"debits %.2f do not equal credits %.2f (difference %.2f)",
			check.TotalDebits, check.TotalCredits, check.Difference))
	}

	for _, side := range []struct {
		name  string
		lines []models.SplitLine
	}{{"debit", entry.Debits}, {"credit", entry.Credits}} {
		for _, line := range side.lines {
			if !models.ValidAccountCode(line.AccountCode) {
				check.Problems = append(check.Problems, fmt.Sprintf(
					"%s line has malformed account code %q", side.name, line.AccountCode))
			}
			if line.Amount <= 0 {
				check.Problems = append(check.Problems, fmt.Sprintf(
					"%s line on %s has non-positive amount %.2f", side.name, line.AccountCode, line.Amount))
			}
			if models.IsBankCode(line.AccountCode) {
				check.BankLegs++
			}
		}
	}

	if check.BankLegs != 1 {
		check.Problems = append(check.Problems, fmt.Sprintf(
			"entry has %d bank legs, want exactly 1", check.BankLegs))
	}

	return check
}

// CodeSet answers whether an account code is known. *chart.Chart satisfies it.
type CodeSet interface {
	Exists(code string) bool
}

// CheckEntryCodes verifies that every account referenced by the entry is
// present in the chart. Returns one problem string per missing code.
func CheckEntryCodes(entry models.JournalEntry, codes CodeSet) []string {
	var problems []string
	seen := map[string]bool{}
	for _, line := range append(append([]models.SplitLine{}, entry.Debits...), entry.Credits...) {
		if seen[line.AccountCode] {
			continue
		}
		seen[line.AccountCode] = true
		if !codes.Exists(line.AccountCode) {
			problems = append(problems, fmt.Sprintf("account %s is not in the chart", line.AccountCode))
		}
	}
	return problems
}

// =============================================================================
// WHOLE-JOURNAL CHECKS
// =============================================================================

// JournalCheck summarizes validation across a full journal.
type JournalCheck struct {
	Entries   int
	Valid     int
	Failures  []*EntryCheck
	Tolerance float64
}

// IsValid reports whether every entry passed.
func (c *JournalCheck) IsValid() bool {
	return len(c.Failures) == 0
}

// CheckJournal validates every entry and collects the failures.
func CheckJournal(entries []models.JournalEntry, tolerance float64) *JournalCheck {
	check := &JournalCheck{Entries: len(entries), Tolerance: tolerance}
	for _, entry := range entries {
		result := CheckEntry(entry, tolerance)
		if result.IsValid() {
			check.Valid++
			continue
		}
		check.Failures = append(check.Failures, result)
	}
	return check
}

// =============================================================================
// BALANCE SHEET EQUATION
// =============================================================================

// BalanceCheck verifies Assets = Liabilities + Equity.
type BalanceCheck struct {
	TotalAssets      float64
	TotalLiabilities float64
	TotalEquity      float64
	ComputedAssets   float64 // L + E
	Difference       float64
	IsBalanced       bool
	Tolerance        float64
}

// CheckBalanceEquation validates A = L + E within tolerance. Callers fold
// current-year earnings into the equity figure before calling.
func CheckBalanceEquation(assets, liabilities, equity, tolerance float64) *BalanceCheck {
	computed := liabilities + equity
	diff := assets - computed

	return &BalanceCheck{
		TotalAssets:      assets,
		TotalLiabilities: liabilities,
		TotalEquity:      equity,
		ComputedAssets:   computed,
		Difference:       diff,
		IsBalanced:       math.Abs(diff) <= tolerance,
		Tolerance:        tolerance,
	}
}
