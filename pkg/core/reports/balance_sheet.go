package reports

import (
	"math"

	"agentic_accounting/pkg/core/money"
	"agentic_accounting/pkg/models"
)

var (
	assetTypes = []models.AccountType{
		models.AccountTypeBank, models.AccountTypeCurrentAsset,
		models.AccountTypeInventory, models.AccountTypeFixedAsset,
	}
	liabilityTypes = []models.AccountType{models.AccountTypeCurrentLiability}
	equityTypes    = []models.AccountType{models.AccountTypeEquity}
	earningsTypes  = []models.AccountType{
		models.AccountTypeRevenue, models.AccountTypeOtherIncome,
		models.AccountTypeCOGS, models.AccountTypeExpense, models.AccountTypeDepreciation,
	}
	incomeTypes = []models.AccountType{models.AccountTypeRevenue, models.AccountTypeOtherIncome}
)

func typeIn(t models.AccountType, set []models.AccountType) bool {
	for _, candidate := range set {
		if t == candidate {
			return true
		}
	}
	return false
}

// BalanceSheet renders the balance sheet audit as of a date. Assets and
// liabilities come straight from the books; equity is presented as the
// recorded equity accounts plus current-year earnings, checked against the
// owner-equity plug Assets - Liabilities.
func BalanceSheet(in Inputs, asOf models.Date, includeZero bool, sortBy Sort) (string, error) {
	balances, _ := balancesAsOf(in.Entries, asOf)

	gather := func(set []models.AccountType) ([]line, float64) {
		var lines []line
		total := &money.Accumulator{}
		for _, a := range in.Accounts {
			if !typeIn(a.Type, set) {
				continue
			}
			bal := natural(a.Type, balances[a.Code])
			if money.IsZero(bal) && !includeZero {
				continue
			}
			lines = append(lines, line{Code: a.Code, Name: a.Name, Type: a.Type, Balance: bal})
			total.Add(bal)
		}
		sortLines(lines, sortBy)
		return lines, total.Total()
	}

	assets, totalAssets := gather(assetTypes)
	liabilities, totalLiabilities := gather(liabilityTypes)
	equity, recordedEquity := gather(equityTypes)
	earningsDetail, _ := gather(earningsTypes)

	income := &money.Accumulator{}
	outgo := &money.Accumulator{}
	for _, a := range in.Accounts {
		if !typeIn(a.Type, earningsTypes) {
			continue
		}
		if typeIn(a.Type, incomeTypes) {
			income.Add(natural(a.Type, balances[a.Code]))
		} else {
			outgo.Add(natural(a.Type, balances[a.Code]))
		}
	}
	earnings := money.Sub(income.Total(), outgo.Total())
	plug := money.Sub(totalAssets, totalLiabilities)
	imbalance := money.Round2(math.Abs(plug - (recordedEquity + earnings)))

	r := &report{}
	when := "all dates"
	if !asOf.IsZero() {
		when = asOf.String()
	}
	r.headerBand("BALANCE SHEET AUDIT", "As of: "+when)

	r.section("ASSETS")
	for _, l := range assets {
		r.accountRow(l.Code, l.Name, l.Type, l.Balance)
	}
	r.rule()
	r.totalRow("TOTAL ASSETS", totalAssets)

	r.section("LIABILITIES")
	for _, l := range liabilities {
		r.accountRow(l.Code, l.Name, l.Type, l.Balance)
	}
	r.rule()
	r.totalRow("TOTAL LIABILITIES", totalLiabilities)

	r.section("EQUITY")
	for _, l := range equity {
		r.accountRow(l.Code, l.Name, l.Type, l.Balance)
	}
	r.totalRow("Current Year Earnings", earnings)
	r.rule()
	r.totalRow("TOTAL EQUITY + EARNINGS", money.Add(recordedEquity, earnings))
	r.totalRow("OWNER EQUITY (ASSETS - LIABILITIES)", plug)

	if len(earningsDetail) > 0 {
		r.section("CURRENT YEAR EARNINGS DETAIL")
		for _, l := range earningsDetail {
			r.accountRow(l.Code, l.Name, l.Type, l.Balance)
		}
	}

	r.verification("BALANCE SHEET", imbalance, imbalance <= 0.01)
	return r.String(), nil
}
