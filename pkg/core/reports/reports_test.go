package reports

import (
	"strings"
	"testing"

	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/models"
)

func day(t *testing.T, s string) models.Date {
	t.Helper()
	d, err := models.ParseDate(s)
	if err != nil {
		t.Fatal(err)
	}
	return d
}

func testChart() []models.Account {
	return []models.Account{
		{Code: "001", Name: "Business Cheque", Type: models.AccountTypeBank, GSTTreatment: models.BASExcluded},
		{Code: "100", Name: "Sales Revenue", Type: models.AccountTypeRevenue, GSTApplicable: true, GSTTreatment: models.GSTOnIncome},
		{Code: "200", Name: "Materials", Type: models.AccountTypeCOGS, GSTApplicable: true, GSTTreatment: models.GSTOnExpenses},
		{Code: "300", Name: "Office Supplies", Type: models.AccountTypeExpense, GSTApplicable: true, GSTTreatment: models.GSTOnExpenses},
		{Code: "506", Name: "GST Clearing", Type: models.AccountTypeCurrentAsset, GSTTreatment: models.BASExcluded},
		{Code: "700", Name: "Credit Card", Type: models.AccountTypeCurrentLiability, GSTTreatment: models.BASExcluded},
		{Code: "800", Name: "Owner Capital", Type: models.AccountTypeEquity, GSTTreatment: models.BASExcluded},
		{Code: "999", Name: "Uncategorized", Type: models.AccountTypeExpense, GSTTreatment: models.BASExcluded},
	}
}

// scenarioEntries reproduces the import-then-categorize flow: two $55
// outflows, the first recategorized to Materials with its GST split, the
// second still parked on 999.
func scenarioEntries(t *testing.T) []models.JournalEntry {
	t.Helper()
	return []models.JournalEntry{
		{
			Date:        day(t, "2025-01-10"),
			Description: "Office Supplies 1",
			Debits:      []models.SplitLine{{AccountCode: "200", Amount: 50.00}, {AccountCode: "506", Amount: 5.00}},
			Credits:     []models.SplitLine{{AccountCode: "001", Amount: 55.00}},
		},
		{
			Date:        day(t, "2025-01-11"),
			Description: "Office Supplies 2",
			Debits:      []models.SplitLine{{AccountCode: "999", Amount: 55.00}},
			Credits:     []models.SplitLine{{AccountCode: "001", Amount: 55.00}},
		},
	}
}

func TestBalanceSheetScenario(t *testing.T) {
	in := Inputs{Accounts: testChart(), Entries: scenarioEntries(t)}

	out, err := BalanceSheet(in, day(t, "2025-01-31"), false, SortAccountCode)
	if err != nil {
		t.Fatalf("BalanceSheet: %v", err)
	}
	t.Logf("\n%s", out)

	for _, want := range []string{
		"BALANCE SHEET AUDIT",
		"As of: 2025-01-31",
		"-110.00", // bank
		"5.00",    // GST clearing
		"50.00",   // materials in earnings detail
		"55.00",   // uncategorized in earnings detail
		"Current Year Earnings",
		"-105.00",
		"✓ BALANCE SHEET (within 0.01)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
	if strings.Contains(out, "⚠") {
		t.Error("balanced report carries the imbalance marker")
	}
}

func TestBalanceSheetFlagsImbalance(t *testing.T) {
	// A lopsided entry (no double-entry partner) breaks the plug check.
	in := Inputs{
		Accounts: testChart(),
		Entries: []models.JournalEntry{{
			Date:        day(t, "2025-01-10"),
			Description: "half an entry",
			Debits:      []models.SplitLine{{AccountCode: "506", Amount: 40.00}},
			Credits:     []models.SplitLine{{AccountCode: "800", Amount: 15.00}},
		}},
	}
	out, err := BalanceSheet(in, models.Date{}, false, SortAccountCode)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "⚠ BALANCE SHEET OUT OF BALANCE") {
		t.Error("imbalanced books not flagged")
	}
}

func TestProfitLossCountsAndTotals(t *testing.T) {
	entries := scenarioEntries(t)
	entries = append(entries, models.JournalEntry{
		Date:        day(t, "2025-01-20"),
		Description: "DEPOSIT JOB 7",
		Debits:      []models.SplitLine{{AccountCode: "001", Amount: 110.00}},
		Credits:     []models.SplitLine{{AccountCode: "100", Amount: 100.00}, {AccountCode: "506", Amount: 10.00}},
	})
	in := Inputs{Accounts: testChart(), Entries: entries}

	out, err := ProfitLoss(in, day(t, "2025-01-01"), day(t, "2025-01-31"), false, SortAccountCode)
	if err != nil {
		t.Fatalf("ProfitLoss: %v", err)
	}
	t.Logf("\n%s", out)

	for _, want := range []string{
		"PROFIT & LOSS AUDIT",
		"Period: 2025-01-01 to 2025-01-31",
		"TOTAL REVENUE",
		"100.00",
		"GROSS PROFIT", // 100 - 50
		"TOTAL EXPENSES",
		"NET PROFIT",
		"-5.00", // 100 - 50 - 55
		"1 tx",
		"✓ JOURNAL (within 0.01)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}
}

func TestProfitLossPeriodFilter(t *testing.T) {
	in := Inputs{Accounts: testChart(), Entries: scenarioEntries(t)}

	// February is empty: every section renders, totals are zero.
	out, err := ProfitLoss(in, day(t, "2025-02-01"), day(t, "2025-02-28"), false, SortAccountCode)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "NET PROFIT") || !strings.Contains(out, "0.00") {
		t.Error("empty period did not render zero totals")
	}
	if strings.Contains(out, "Office Supplies") {
		t.Error("out-of-period account rows leaked into the report")
	}
}

func TestTrialBalanceColumns(t *testing.T) {
	entries := scenarioEntries(t)
	entries = append(entries, models.JournalEntry{
		Date:        day(t, "2025-01-20"),
		Description: "DEPOSIT JOB 7",
		Debits:      []models.SplitLine{{AccountCode: "001", Amount: 110.00}},
		Credits:     []models.SplitLine{{AccountCode: "100", Amount: 100.00}, {AccountCode: "506", Amount: 10.00}},
	})
	in := Inputs{Accounts: testChart(), Entries: entries}

	out, err := TrialBalance(in, models.Date{}, false, false, SortAccountCode)
	if err != nil {
		t.Fatalf("TrialBalance: %v", err)
	}
	t.Logf("\n%s", out)

	if !strings.Contains(out, "TOTAL DEBIT COLUMN") || !strings.Contains(out, "TOTAL CREDIT COLUMN") {
		t.Fatal("totals rows missing")
	}
	if !strings.Contains(out, "✓ TRIAL BALANCE (within 0.01)") {
		t.Error("balanced trial balance not marked ✓")
	}

	// Revenue sits in the credit column: its row ends with the amount.
	for _, ln := range strings.Split(out, "\n") {
		if strings.Contains(ln, "Sales Revenue") {
			if !strings.HasSuffix(strings.TrimRight(ln, " "), "100.00") {
				t.Errorf("revenue row = %q, want credit column 100.00", ln)
			}
		}
	}
}

func TestTrialBalanceEmptyJournal(t *testing.T) {
	in := Inputs{Accounts: testChart()}

	out, err := TrialBalance(in, models.Date{}, false, false, SortAccountCode)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "✓ TRIAL BALANCE (within 0.01)") {
		t.Error("empty trial balance not flagged balanced")
	}
	if !strings.Contains(out, "TOTAL DEBIT COLUMN") {
		t.Error("totals row missing from empty report")
	}
}

func TestTrialBalanceGroupedByType(t *testing.T) {
	in := Inputs{Accounts: testChart(), Entries: scenarioEntries(t)}
	out, err := TrialBalance(in, models.Date{}, false, true, SortAccountCode)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "\nBank\n") || !strings.Contains(out, "\nExpense\n") {
		t.Error("type section headers missing in grouped layout")
	}
}

func TestCashFlowRunningBalance(t *testing.T) {
	in := Inputs{Accounts: testChart(), Entries: scenarioEntries(t)}

	out, err := CashFlow(in, day(t, "2025-01-11"), day(t, "2025-01-31"), nil)
	if err != nil {
		t.Fatalf("CashFlow: %v", err)
	}
	t.Logf("\n%s", out)

	for _, want := range []string{
		"CASH FLOW AUDIT",
		"001 Business Cheque",
		"Opening balance: -55.00", // the Jan 10 purchase precedes the period
		"Office Supplies 2",
		"CLOSING BALANCE",
		"-110.00",
		"Transactions: 1",
		"✓ CASH FLOW (within 0.01)",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}

	if _, err := CashFlow(in, models.Date{}, models.Date{}, []string{"123"}); !errs.Is(err, errs.KindValidation) {
		t.Errorf("unknown cash account error = %v, want ValidationError", err)
	}
	if _, err := CashFlow(in, models.Date{}, models.Date{}, []string{"200"}); !errs.Is(err, errs.KindValidation) {
		t.Errorf("non-bank cash account error = %v, want ValidationError", err)
	}
}

func TestAccountActivity(t *testing.T) {
	in := Inputs{Accounts: testChart(), Entries: scenarioEntries(t)}

	out, err := AccountActivity(in, []string{"001", "506"}, models.Date{}, models.Date{}, true, SortDate)
	if err != nil {
		t.Fatalf("AccountActivity: %v", err)
	}
	t.Logf("\n%s", out)

	for _, want := range []string{
		"ACCOUNT ACTIVITY AUDIT",
		"001 Business Cheque (Bank)",
		"506 GST Clearing (CurrentAsset)",
		"Office Supplies 1",
		"PERIOD MOVEMENT",
		"CLOSING BALANCE",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q", want)
		}
	}

	if _, err := AccountActivity(in, nil, models.Date{}, models.Date{}, false, SortDate); !errs.Is(err, errs.KindValidation) {
		t.Errorf("empty codes error = %v, want ValidationError", err)
	}
	if _, err := AccountActivity(in, []string{"404"}, models.Date{}, models.Date{}, false, SortDate); !errs.Is(err, errs.KindValidation) {
		t.Errorf("unknown code error = %v, want ValidationError", err)
	}
}

func TestParseSort(t *testing.T) {
	if s, err := ParseSort(""); err != nil || s != SortAccountCode {
		t.Errorf("ParseSort(\"\") = %v, %v", s, err)
	}
	if _, err := ParseSort("balance"); err != nil {
		t.Errorf("ParseSort(balance): %v", err)
	}
	if _, err := ParseSort("alphabetical"); !errs.Is(err, errs.KindValidation) {
		t.Errorf("ParseSort(alphabetical) error = %v, want ValidationError", err)
	}
}

func TestSortLines(t *testing.T) {
	lines := []line{
		{Code: "300", Name: "Zulu", Type: models.AccountTypeExpense, Balance: -20},
		{Code: "100", Name: "Alpha", Type: models.AccountTypeRevenue, Balance: 5},
		{Code: "200", Name: "Mike", Type: models.AccountTypeCOGS, Balance: 50},
	}

	sortLines(lines, SortBalance)
	if lines[0].Code != "200" || lines[1].Code != "300" || lines[2].Code != "100" {
		t.Errorf("balance sort order = %s, %s, %s (want 200, 300, 100)", lines[0].Code, lines[1].Code, lines[2].Code)
	}

	sortLines(lines, SortAccountName)
	if lines[0].Name != "Alpha" || lines[2].Name != "Zulu" {
		t.Errorf("name sort order = %s, %s, %s", lines[0].Name, lines[1].Name, lines[2].Name)
	}

	sortLines(lines, SortAccountCode)
	if lines[0].Code != "100" || lines[2].Code != "300" {
		t.Errorf("code sort order = %s, %s, %s", lines[0].Code, lines[1].Code, lines[2].Code)
	}
}
