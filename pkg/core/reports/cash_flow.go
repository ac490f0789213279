package reports

import (
	"fmt"
	"math"

	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/core/money"
	"agentic_accounting/pkg/models"
)

// CashFlow renders per-bank-account movement over a period: opening
// balance, each transaction with a running balance, and the closing
// balance. With no cashAccountCodes every bank account in the chart is
// reported.
func CashFlow(in Inputs, start, end models.Date, cashAccountCodes []string) (string, error) {
	var banks []models.Account
	if len(cashAccountCodes) == 0 {
		for _, a := range in.Accounts {
			if a.Type == models.AccountTypeBank {
				banks = append(banks, a)
			}
		}
	} else {
		for _, code := range cashAccountCodes {
			a, ok := in.account(code)
			if !ok {
				return "", errs.Validationf("cashAccountCodes: account %s is not in the chart", code)
			}
			if a.Type != models.AccountTypeBank {
				return "", errs.Validationf("cashAccountCodes: account %s is %s, not Bank", code, a.Type)
			}
			banks = append(banks, a)
		}
	}

	r := &report{}
	r.headerBand("CASH FLOW AUDIT", "Period: "+rangeLabel(start, end))

	totalMovement := &money.Accumulator{}
	for _, bank := range banks {
		opening := openingBalance(in.Entries, bank.Code, start)
		period := entriesBetween(in.Entries, start, end)

		r.section(fmt.Sprintf("%s %s", bank.Code, bank.Name))
		r.plainRow(fmt.Sprintf("Opening balance: %s", money.Format(opening)))
		r.rule()

		running := opening
		count := 0
		for _, e := range period {
			delta, ok := bankDelta(&e, bank.Code)
			if !ok {
				continue
			}
			running = money.Add(running, delta)
			count++
			fmt.Fprintf(&r.buf, " %-10s %-28s %10s %12s\n",
				e.Date.String(), clip(e.Description, 28), money.Format(delta), money.Format(running))
		}
		r.rule()
		r.plainRow(fmt.Sprintf("Transactions: %d", count))
		r.totalRow("CLOSING BALANCE", running)
		totalMovement.Add(money.Sub(running, opening))
	}

	r.buf.WriteString("\n")
	r.rule()
	r.totalRow("NET CASH MOVEMENT (ALL ACCOUNTS)", totalMovement.Total())

	// Cross-check each closing balance against a direct fold to end.
	var worst float64
	for _, bank := range banks {
		opening := openingBalance(in.Entries, bank.Code, start)
		var movement float64
		for _, e := range entriesBetween(in.Entries, start, end) {
			if delta, ok := bankDelta(&e, bank.Code); ok {
				movement = money.Add(movement, delta)
			}
		}
		folded := foldThrough(in.Entries, bank.Code, end)
		if diff := math.Abs(money.Add(opening, movement) - folded); diff > worst {
			worst = diff
		}
	}
	imbalance := money.Round2(worst)
	r.verification("CASH FLOW", imbalance, imbalance <= 0.01)
	return r.String(), nil
}

// openingBalance folds entries strictly before start. A zero start means
// the account opens at zero.
func openingBalance(entries []models.JournalEntry, code string, start models.Date) float64 {
	if start.IsZero() {
		return 0
	}
	acc := &money.Accumulator{}
	for _, e := range entries {
		if !e.Date.Before(start.Time) {
			continue
		}
		if delta, ok := bankDelta(&e, code); ok {
			acc.Add(delta)
		}
	}
	return acc.Total()
}

// foldThrough folds all entries dated at or before end (zero = all).
func foldThrough(entries []models.JournalEntry, code string, end models.Date) float64 {
	acc := &money.Accumulator{}
	for _, e := range entries {
		if !end.IsZero() && e.Date.After(end.Time) {
			continue
		}
		if delta, ok := bankDelta(&e, code); ok {
			acc.Add(delta)
		}
	}
	return acc.Total()
}

// bankDelta returns the signed movement of the given account in an entry:
// debits positive, credits negative.
func bankDelta(e *models.JournalEntry, code string) (float64, bool) {
	var delta float64
	touched := false
	for _, l := range e.Debits {
		if l.AccountCode == code {
			delta += l.Amount
			touched = true
		}
	}
	for _, l := range e.Credits {
		if l.AccountCode == code {
			delta -= l.Amount
			touched = true
		}
	}
	return money.Round2(delta), touched
}
