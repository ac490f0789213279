package reports

import (
	"fmt"
	"math"

	"agentic_accounting/pkg/core/money"
	"agentic_accounting/pkg/models"
)

// TrialBalance renders every account into a debit or credit column chosen
// by the account type's natural balance, with totals and an imbalance
// check. An empty period yields 0/0 totals, flagged balanced.
func TrialBalance(in Inputs, asOf models.Date, includeZero, groupByType bool, sortBy Sort) (string, error) {
	balances, _ := balancesAsOf(in.Entries, asOf)

	build := func(accounts []models.Account) ([]line, float64, float64) {
		var lines []line
		debits := &money.Accumulator{}
		credits := &money.Accumulator{}
		for _, a := range accounts {
			raw := balances[a.Code]
			if money.IsZero(raw) && !includeZero {
				continue
			}
			bal := natural(a.Type, raw)
			lines = append(lines, line{Code: a.Code, Name: a.Name, Type: a.Type, Balance: bal})
			if a.Type.IsDebitNatural() {
				debits.Add(bal)
			} else {
				credits.Add(bal)
			}
		}
		sortLines(lines, sortBy)
		return lines, debits.Total(), credits.Total()
	}

	r := &report{}
	when := "all dates"
	if !asOf.IsZero() {
		when = asOf.String()
	}
	r.headerBand("TRIAL BALANCE AUDIT", "As of: "+when)

	writeRows := func(lines []line) {
		for _, l := range lines {
			debit, credit := "", ""
			if l.Type.IsDebitNatural() {
				debit = money.Format(l.Balance)
			} else {
				credit = money.Format(l.Balance)
			}
			fmt.Fprintf(&r.buf, " %-4s %-29s %-12s %8s %8s\n", l.Code, clip(l.Name, 29), l.Type, debit, credit)
		}
	}

	var totalDebits, totalCredits float64
	if groupByType {
		for _, t := range models.AccountTypes {
			var group []models.Account
			for _, a := range in.Accounts {
				if a.Type == t {
					group = append(group, a)
				}
			}
			lines, d, c := build(group)
			if len(lines) == 0 {
				continue
			}
			r.section(string(t))
			writeRows(lines)
			totalDebits = money.Add(totalDebits, d)
			totalCredits = money.Add(totalCredits, c)
		}
	} else {
		lines, d, c := build(in.Accounts)
		r.section("ACCOUNTS")
		writeRows(lines)
		totalDebits, totalCredits = d, c
	}

	r.buf.WriteString("\n")
	r.rule()
	r.totalRow("TOTAL DEBIT COLUMN", totalDebits)
	r.totalRow("TOTAL CREDIT COLUMN", totalCredits)

	imbalance := money.Round2(math.Abs(totalDebits - totalCredits))
	r.verification("TRIAL BALANCE", imbalance, imbalance <= 0.01)
	return r.String(), nil
}
