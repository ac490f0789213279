package gst

import (
	"testing"

	"agentic_accounting/pkg/core/money"
	"agentic_accounting/pkg/models"
)

func TestSplit(t *testing.T) {
	tests := []struct {
		name      string
		inclusive float64
		wantNet   float64
		wantTax   float64
	}{
		{"round amount", 55.00, 50.00, 5.00},
		{"eleven dollars", 11.00, 10.00, 1.00},
		{"residual stays in net", 11.01, 10.01, 1.00},
		{"larger invoice", 1100.00, 1000.00, 100.00},
		{"sub dollar", 0.11, 0.10, 0.01},
		{"tax rounds up", 19.99, 18.17, 1.82},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			net, tax := Split(tt.inclusive)
			if net != tt.wantNet || tax != tt.wantTax {
				t.Errorf("Split(%.2f) = (%.2f, %.2f), want (%.2f, %.2f)",
					tt.inclusive, net, tax, tt.wantNet, tt.wantTax)
			}
			if !money.Equal(net+tax, tt.inclusive) {
				t.Errorf("components %.2f + %.2f do not re-add to %.2f",
					net, tax, tt.inclusive)
			}
		})
	}
}

func TestLines_GSTApplicable(t *testing.T) {
	materials := models.Account{
		Code: "200", Name: "Materials", Type: models.AccountTypeCOGS,
		GSTApplicable: true, GSTTreatment: models.GSTOnExpenses,
	}

	lines, err := Lines(materials, models.DefaultGSTClearingCode, 55.00)
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("got %d lines, want 2", len(lines))
	}
	if lines[0].AccountCode != "200" || lines[0].Amount != 50.00 {
		t.Errorf("net line = %+v, want 200/50.00", lines[0])
	}
	if lines[1].AccountCode != "506" || lines[1].Amount != 5.00 {
		t.Errorf("tax line = %+v, want 506/5.00", lines[1])
	}
}

func TestLines_GSTFree(t *testing.T) {
	wages := models.Account{
		Code: "310", Name: "Wages", Type: models.AccountTypeExpense,
		GSTApplicable: false, GSTTreatment: models.GSTFreeExpenses,
	}

	lines, err := Lines(wages, models.DefaultGSTClearingCode, 55.00)
	if err != nil {
		t.Fatalf("Lines: %v", err)
	}
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if lines[0].AccountCode != "310" || lines[0].Amount != 55.00 {
		t.Errorf("line = %+v, want 310/55.00", lines[0])
	}
}

func TestLines_RejectsBadInput(t *testing.T) {
	materials := models.Account{
		Code: "200", Name: "Materials", Type: models.AccountTypeCOGS,
		GSTApplicable: true, GSTTreatment: models.GSTOnExpenses,
	}

	if _, err := Lines(materials, "506", -5); err == nil {
		t.Error("negative amount accepted")
	}
	if _, err := Lines(materials, "5x6", 55); err == nil {
		t.Error("malformed clearing code accepted")
	}
}
