package money

import "testing"

func TestRound2(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{1.005, 1.01},
		{1.004, 1.0},
		{-1.005, -1.01},
		{10.0, 10.0},
		{0.1 + 0.2, 0.3},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.want {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestSumAvoidsFloatDrift(t *testing.T) {
	// Summing 0.1 ten times in raw float64 gives 0.9999999999999999.
	vals := make([]float64, 10)
	for i := range vals {
		vals[i] = 0.1
	}
	if got := Sum(vals...); got != 1.0 {
		t.Errorf("Sum(0.1 x10) = %v, want 1.0", got)
	}
}

func TestEqualTolerance(t *testing.T) {
	if !Equal(55.0, 55.004) {
		t.Error("Equal(55.0, 55.004) = false, want true")
	}
	if Equal(55.0, 55.01) {
		t.Error("Equal(55.0, 55.01) = true, want false")
	}
}

func TestFormat(t *testing.T) {
	if got := Format(55.0); got != "55.00" {
		t.Errorf("Format(55.0) = %q, want 55.00", got)
	}
	if got := Format(5); got != "5.00" {
		t.Errorf("Format(5) = %q, want 5.00", got)
	}
	if got := Format(-110); got != "-110.00" {
		t.Errorf("Format(-110) = %q, want -110.00", got)
	}
}

func TestAccumulator(t *testing.T) {
	var acc Accumulator
	for i := 0; i < 100; i++ {
		acc.Add(0.01)
	}
	if got := acc.Total(); got != 1.0 {
		t.Errorf("Accumulator total = %v, want 1.0", got)
	}
}
