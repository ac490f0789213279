package validate

import (
	"strings"
	"testing"

	"agentic_accounting/pkg/core/money"
	"agentic_accounting/pkg/models"
)

// =============================================================================
// SAMPLE ENTRIES FOR TESTING
// =============================================================================
// A GST-inclusive $55 hardware purchase paid from the main bank account,
// split 50 net / 5 GST clearing the way the importer books it.

func hardwarePurchase(t *testing.T) models.JournalEntry {
	t.Helper()
	day, err := models.ParseDate("2025-01-15")
	if err != nil {
		t.Fatal(err)
	}
	return models.JournalEntry{
		Date:        day,
		Description: "BUNNINGS 4211 HARDWARE",
		Debits: []models.SplitLine{
			{AccountCode: "300", Amount: 50.00},
			{AccountCode: "506", Amount: 5.00},
		},
		Credits: []models.SplitLine{
			{AccountCode: "001", Amount: 55.00},
		},
		BankBalance: 1944.95,
	}
}

// =============================================================================
// ENTRY CHECK TESTS
// =============================================================================

func TestCheckEntry_Balanced(t *testing.T) {
	check := CheckEntry(hardwarePurchase(t), money.Tolerance)

	t.Logf("Entry check: debits %.2f credits %.2f diff %.4f",
		check.TotalDebits, check.TotalCredits, check.Difference)

	if !check.IsValid() {
		t.Errorf("valid entry rejected: %v", check.Problems)
	}
	if !check.IsBalanced {
		t.Error("balanced entry reported as unbalanced")
	}
	if check.BankLegs != 1 {
		t.Errorf("BankLegs = %d, want 1", check.BankLegs)
	}
}

func TestCheckEntry_Problems(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*models.JournalEntry)
		problem string
	}{
		{
			"unbalanced sides",
			func(e *models.JournalEntry) { e.Debits[0].Amount = 49.00 },
			"do not equal credits",
		},
		{
			"no bank leg",
			func(e *models.JournalEntry) { e.Credits[0].AccountCode = "700" },
			"0 bank legs",
		},
		{
			"two bank legs",
			func(e *models.JournalEntry) { e.Debits[0].AccountCode = "002" },
			"2 bank legs",
		},
		{
			"negative line amount",
			func(e *models.JournalEntry) {
				e.Debits[0].Amount = -50.00
				e.Credits[0].Amount = -45.00
			},
			"non-positive amount",
		},
		{
			"malformed code",
			func(e *models.JournalEntry) { e.Debits[0].AccountCode = "30a" },
			"malformed account code",
		},
		{
			"missing description",
			func(e *models.JournalEntry) { e.Description = "" },
			"description is empty",
		},
		{
			"no credit lines",
			func(e *models.JournalEntry) { e.Credits = nil },
			"no credit lines",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := hardwarePurchase(t)
			tt.mutate(&entry)
			check := CheckEntry(entry, money.Tolerance)
			if check.IsValid() {
				t.Fatalf("invalid entry passed validation")
			}
			found := false
			for _, p := range check.Problems {
				if strings.Contains(p, tt.problem) {
					found = true
				}
			}
			if !found {
				t.Errorf("problems %v do not mention %q", check.Problems, tt.problem)
			}
		})
	}
}

func TestCheckEntry_ToleranceAbsorbsCentDrift(t *testing.T) {
	entry := hardwarePurchase(t)
	entry.Debits[0].Amount = 50.004 // within 0.005 of balancing

	check := CheckEntry(entry, money.Tolerance)
	if !check.IsBalanced {
		t.Errorf("drift of %.4f rejected, tolerance is %.3f", check.Difference, check.Tolerance)
	}
}

// =============================================================================
// CODE REFERENCE TESTS
// =============================================================================

type codeSet map[string]bool

func (s codeSet) Exists(code string) bool { return s[code] }

func TestCheckEntryCodes(t *testing.T) {
	entry := hardwarePurchase(t)
	known := codeSet{"001": true, "300": true, "506": true}

	if problems := CheckEntryCodes(entry, known); len(problems) != 0 {
		t.Errorf("fully-referenced entry reported problems: %v", problems)
	}

	delete(known, "506")
	problems := CheckEntryCodes(entry, known)
	if len(problems) != 1 || !strings.Contains(problems[0], "506") {
		t.Errorf("problems = %v, want one mention of 506", problems)
	}
}

// =============================================================================
// JOURNAL CHECK TESTS
// =============================================================================

func TestCheckJournal(t *testing.T) {
	good := hardwarePurchase(t)
	bad := hardwarePurchase(t)
	bad.Credits[0].Amount = 60.00

	check := CheckJournal([]models.JournalEntry{good, bad, good}, money.Tolerance)

	t.Logf("Journal check: %d entries, %d valid, %d failures",
		check.Entries, check.Valid, len(check.Failures))

	if check.IsValid() {
		t.Error("journal with an unbalanced entry passed")
	}
	if check.Valid != 2 || len(check.Failures) != 1 {
		t.Errorf("Valid = %d, Failures = %d, want 2 and 1", check.Valid, len(check.Failures))
	}
}

// =============================================================================
// BALANCE SHEET VALIDATION TESTS
// =============================================================================

func TestCheckBalanceEquation(t *testing.T) {
	// Perfect balance
	check := CheckBalanceEquation(100, 60, 40, 0.01)
	if !check.IsBalanced {
		t.Error("Perfect balance not detected")
	}

	// Slight imbalance within tolerance
	check = CheckBalanceEquation(100, 60, 39.995, 0.01)
	if !check.IsBalanced {
		t.Error("Balance within tolerance not detected")
	}

	// Imbalanced
	check = CheckBalanceEquation(100, 60, 30, 0.01)
	if check.IsBalanced {
		t.Error("Imbalance not detected")
	}
	t.Logf("Imbalance difference: %.2f", check.Difference)
}
