package rules

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"agentic_accounting/pkg/core/errs"
	"agentic_accounting/pkg/models"
)

var ruleStamp = time.Date(2025, 1, 5, 10, 30, 0, 0, time.UTC)

func tollRule() models.AccountingRule {
	return models.AccountingRule{
		Name:        "Linkt tolls",
		Priority:    7,
		Condition:   "description contains linkt",
		Action:      "categorize as road tolls",
		AccountCode: "305",
		AccountType: models.AccountTypeExpense,
		GSTHandling: models.GSTOnExpenses,
		Notes:       "seen weekly on the business card",
	}
}

func TestAddAndGet(t *testing.T) {
	s := NewStore()
	added, err := s.Add(tollRule(), ruleStamp)
	if err != nil {
		t.Fatalf("Add: %v", err)
	}
	if !added.Created.Equal(ruleStamp) || !added.Updated.Equal(ruleStamp) {
		t.Errorf("timestamps = %v / %v, want both %v", added.Created, added.Updated, ruleStamp)
	}

	got, err := s.Get("Linkt tolls")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.AccountCode != "305" || got.Priority != 7 {
		t.Errorf("Get = %+v", got)
	}

	if _, err := s.Add(tollRule(), ruleStamp); !errs.Is(err, errs.KindConflict) {
		t.Errorf("duplicate Add error = %v, want Conflict", err)
	}
}

func TestAddRefusesBankTarget(t *testing.T) {
	s := NewStore()
	r := tollRule()
	r.AccountCode = "050"

	_, err := s.Add(r, ruleStamp)
	if !errs.Is(err, errs.KindProtected) {
		t.Fatalf("bank-target Add error = %v, want Protected", err)
	}
	if !strings.Contains(err.Error(), "001-099") {
		t.Errorf("error %q does not name the protected range", err.Error())
	}
	if s.Count() != 0 {
		t.Error("rule was stored despite refusal")
	}
}

func TestAddValidation(t *testing.T) {
	s := NewStore()
	tests := []struct {
		name   string
		mutate func(*models.AccountingRule)
	}{
		{"empty name", func(r *models.AccountingRule) { r.Name = " " }},
		{"bad code", func(r *models.AccountingRule) { r.AccountCode = "30" }},
		{"priority too low", func(r *models.AccountingRule) { r.Priority = 0 }},
		{"priority too high", func(r *models.AccountingRule) { r.Priority = 11 }},
		{"no condition", func(r *models.AccountingRule) { r.Condition = "" }},
		{"no action", func(r *models.AccountingRule) { r.Action = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := tollRule()
			tt.mutate(&r)
			if _, err := s.Add(r, ruleStamp); !errs.Is(err, errs.KindValidation) {
				t.Errorf("Add error = %v, want ValidationError", err)
			}
		})
	}
}

func TestUpdatePreservesCreated(t *testing.T) {
	s := NewStore()
	if _, err := s.Add(tollRule(), ruleStamp); err != nil {
		t.Fatal(err)
	}

	later := ruleStamp.Add(48 * time.Hour)
	changed := tollRule()
	changed.Priority = 9
	changed.AccountCode = "306"
	updated, err := s.Update("Linkt tolls", changed, later)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	if !updated.Created.Equal(ruleStamp) {
		t.Errorf("Created = %v, want original %v", updated.Created, ruleStamp)
	}
	if !updated.Updated.Equal(later) {
		t.Errorf("Updated = %v, want %v", updated.Updated, later)
	}
	if updated.Priority != 9 || updated.AccountCode != "306" {
		t.Errorf("updated rule = %+v", updated)
	}

	if _, err := s.Update("Ghost", changed, later); !errs.Is(err, errs.KindNotFound) {
		t.Errorf("Update(missing) error = %v, want NotFound", err)
	}

	banked := tollRule()
	banked.AccountCode = "001"
	if _, err := s.Update("Linkt tolls", banked, later); !errs.Is(err, errs.KindProtected) {
		t.Errorf("Update to bank target error = %v, want Protected", err)
	}
}

func TestDeleteRequiresConfirm(t *testing.T) {
	s := NewStore()
	if _, err := s.Add(tollRule(), ruleStamp); err != nil {
		t.Fatal(err)
	}

	if err := s.Delete("Linkt tolls", false); !errs.Is(err, errs.KindValidation) {
		t.Errorf("unconfirmed Delete error = %v, want ValidationError", err)
	}
	if err := s.Delete("Linkt tolls", true); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := s.Delete("Linkt tolls", true); !errs.Is(err, errs.KindNotFound) {
		t.Errorf("second Delete error = %v, want NotFound", err)
	}
}

func TestListFilters(t *testing.T) {
	s := NewStore()
	seeds := []models.AccountingRule{
		tollRule(),
		{
			Name: "Software subs", Priority: 3,
			Condition: "description contains github or atlassian", Action: "categorize as software",
			AccountCode: "301", AccountType: models.AccountTypeExpense, GSTHandling: models.GSTOnExpenses,
		},
		{
			Name: "Fuel", Priority: 9,
			Condition: "description contains bp or shell or ampol", Action: "categorize as vehicle fuel",
			AccountCode: "320", AccountType: models.AccountTypeExpense, GSTHandling: models.GSTOnExpenses,
		},
	}
	for _, r := range seeds {
		if _, err := s.Add(r, ruleStamp); err != nil {
			t.Fatalf("seed %s: %v", r.Name, err)
		}
	}

	if got := s.List("github", "", false, 0); len(got) != 1 || got[0].Name != "Software subs" {
		t.Errorf("condition filter = %+v", got)
	}
	if got := s.List("", "305", false, 0); len(got) != 1 || got[0].Name != "Linkt tolls" {
		t.Errorf("account filter = %+v", got)
	}

	byPriority := s.List("", "", true, 0)
	if byPriority[0].Name != "Fuel" || byPriority[2].Name != "Software subs" {
		t.Errorf("priority order = %s, %s, %s", byPriority[0].Name, byPriority[1].Name, byPriority[2].Name)
	}

	if got := s.List("", "", true, 2); len(got) != 2 {
		t.Errorf("limit ignored, got %d rules", len(got))
	}
}

func TestRenderParseRoundTrip(t *testing.T) {
	s := NewStore()
	first := tollRule()
	second := models.AccountingRule{
		Name: "Software subs", Priority: 3,
		Condition: "description contains github", Action: "categorize as software",
		AccountCode: "301", AccountType: models.AccountTypeExpense, GSTHandling: models.GSTOnExpenses,
	}
	if _, err := s.Add(first, ruleStamp); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Add(second, ruleStamp.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	rendered := Render(s.All())
	parsed, warnings := Parse(rendered)
	if len(warnings) != 0 {
		t.Fatalf("round-trip warnings: %v", warnings)
	}
	if len(parsed) != 2 {
		t.Fatalf("parsed %d rules, want 2", len(parsed))
	}
	if parsed[0].Name != "Linkt tolls" || parsed[0].Notes != "seen weekly on the business card" {
		t.Errorf("parsed[0] = %+v", parsed[0])
	}
	if !parsed[1].Created.Equal(ruleStamp.Add(time.Hour)) {
		t.Errorf("parsed[1].Created = %v", parsed[1].Created)
	}

	// Byte stability: render(parse(render(x))) == render(x).
	if again := Render(parsed); string(again) != string(rendered) {
		t.Error("rules file is not byte-stable across a render/parse cycle")
	}
}

func TestParseToleratesHandEditing(t *testing.T) {
	blob := `=== ACCOUNTING RULE: Good ===
Created: 2025-01-05T10:30:00Z
Updated: 2025-01-05T10:30:00Z
Priority: 5
Condition: description contains acme
Action: categorize as supplies
Account Code: 300
Account Type: Expense
GST Handling: GSTOnExpenses
Favourite Colour: green

stray line between blocks

=== ACCOUNTING RULE: Sloppy ===
Created: yesterday
Priority: not-a-number
Condition: whatever
Action: do things
Account Code: 301
Account Type: Expense
GST Handling: GSTOnExpenses
`
	parsed, warnings := Parse([]byte(blob))
	if len(parsed) != 2 {
		t.Fatalf("parsed %d rules, want 2", len(parsed))
	}
	if parsed[0].Condition != "description contains acme" {
		t.Errorf("parsed[0].Condition = %q", parsed[0].Condition)
	}
	if len(warnings) < 3 {
		t.Errorf("warnings = %v, expected stray line, bad Created and bad Priority", warnings)
	}
	if !parsed[1].Created.IsZero() {
		t.Errorf("unparseable Created should stay zero, got %v", parsed[1].Created)
	}
}

func TestParseSurvivesLongConditionLine(t *testing.T) {
	long := tollRule()
	long.Name = "Verbose"
	long.Condition = strings.Repeat("description mentions a very specific supplier ", 2500)
	second := tollRule()
	second.Name = "After the long one"

	rendered := Render([]models.AccountingRule{long, second})
	parsed, warnings := Parse(rendered)
	if len(warnings) != 0 {
		t.Fatalf("warnings: %v", warnings)
	}
	if len(parsed) != 2 {
		t.Fatalf("parsed %d rules, want 2; rules after a long line must load", len(parsed))
	}
	if parsed[1].Name != "After the long one" {
		t.Errorf("parsed[1].Name = %q", parsed[1].Name)
	}
}

func TestParseWarnsOnOversizedLine(t *testing.T) {
	blob := blockPrefix + "Huge" + blockSuffix + "\n" +
		"Condition: " + strings.Repeat("x", maxLineBytes+1) + "\n" +
		"\n" + blockPrefix + "Unreachable" + blockSuffix + "\n"

	parsed, warnings := Parse([]byte(blob))
	if len(warnings) == 0 {
		t.Fatal("an oversized line must be reported, not swallowed")
	}
	if !strings.Contains(warnings[len(warnings)-1], "not loaded") {
		t.Errorf("warning = %q, want a note that later rules were not loaded", warnings[len(warnings)-1])
	}
	for _, r := range parsed {
		if r.Name == "Unreachable" {
			t.Error("rules past the oversized line cannot have been read")
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "accounting_rules.txt")

	s := NewStore()
	if _, err := s.Add(tollRule(), ruleStamp); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveFile(path, filepath.Join(dir, "backups")); err != nil {
		t.Fatalf("SaveFile: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), "=== ACCOUNTING RULE: Linkt tolls ===\n") {
		t.Errorf("file does not start with the block header: %q", string(data[:40]))
	}

	reloaded := NewStore()
	if err := reloaded.LoadFile(path); err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	got, err := reloaded.Get("Linkt tolls")
	if err != nil {
		t.Fatal(err)
	}
	if got.GSTHandling != models.GSTOnExpenses || !got.Created.Equal(ruleStamp) {
		t.Errorf("reloaded rule = %+v", got)
	}
}
