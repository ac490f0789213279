package reports

import (
	"math"

	"agentic_accounting/pkg/core/money"
	"agentic_accounting/pkg/models"
)

// ProfitLoss renders the profit and loss audit over a period, with
// per-account transaction counts, gross profit after COGS and net profit
// after expenses.
func ProfitLoss(in Inputs, start, end models.Date, includeZero bool, sortBy Sort) (string, error) {
	period := entriesBetween(in.Entries, start, end)
	balances, counts := balancesAsOf(period, models.Date{})

	gather := func(set []models.AccountType) ([]line, float64) {
		var lines []line
		total := &money.Accumulator{}
		for _, a := range in.Accounts {
			if !typeIn(a.Type, set) {
				continue
			}
			bal := natural(a.Type, balances[a.Code])
			if money.IsZero(bal) && counts[a.Code] == 0 && !includeZero {
				continue
			}
			lines = append(lines, line{Code: a.Code, Name: a.Name, Type: a.Type, Balance: bal, Count: counts[a.Code]})
			total.Add(bal)
		}
		sortLines(lines, sortBy)
		return lines, total.Total()
	}

	revenue, totalRevenue := gather(incomeTypes)
	cogs, totalCOGS := gather([]models.AccountType{models.AccountTypeCOGS})
	expenses, totalExpenses := gather([]models.AccountType{
		models.AccountTypeExpense, models.AccountTypeDepreciation,
	})

	grossProfit := money.Sub(totalRevenue, totalCOGS)
	netProfit := money.Sub(grossProfit, totalExpenses)

	// The underlying entries must still balance over the period.
	drift := &money.Accumulator{}
	for _, bal := range balances {
		drift.Add(bal)
	}
	imbalance := money.Round2(math.Abs(drift.Total()))

	r := &report{}
	r.headerBand("PROFIT & LOSS AUDIT", "Period: "+rangeLabel(start, end))

	r.section("REVENUE")
	for _, l := range revenue {
		r.countedRow(l.Code, l.Name, l.Count, l.Balance)
	}
	r.rule()
	r.totalRow("TOTAL REVENUE", totalRevenue)

	r.section("COST OF GOODS SOLD")
	for _, l := range cogs {
		r.countedRow(l.Code, l.Name, l.Count, l.Balance)
	}
	r.rule()
	r.totalRow("TOTAL COGS", totalCOGS)
	r.totalRow("GROSS PROFIT", grossProfit)

	r.section("EXPENSES")
	for _, l := range expenses {
		r.countedRow(l.Code, l.Name, l.Count, l.Balance)
	}
	r.rule()
	r.totalRow("TOTAL EXPENSES", totalExpenses)
	r.totalRow("NET PROFIT", netProfit)

	r.verification("JOURNAL", imbalance, imbalance <= 0.01)
	return r.String(), nil
}

func rangeLabel(start, end models.Date) string {
	from, to := "beginning", "latest"
	if !start.IsZero() {
		from = start.String()
	}
	if !end.IsZero() {
		to = end.String()
	}
	return from + " to " + to
}
