package mathutil

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"Round up at midpoint", 1.235, 1.24},
		{"Round down below midpoint", 1.234, 1.23},
		{"No rounding needed", 1.23, 1.23},
		{"Affordable price", 161650.2242, 161650.22},
		{"Negative number round down", -1.234, -1.23},
		{"Zero", 0.0, 0.0},
		{"Very small negative", -0.001, 0.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Round(tt.input)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("Round(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIsZero(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected bool
	}{
		{"Exactly zero", 0.0, true},
		{"Very small positive", 0.001, true},
		{"Very small negative", -0.001, true},
		{"Just above tolerance", 0.02, false},
		{"Large negative", -100.0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if result := IsZero(tt.input); result != tt.expected {
				t.Errorf("IsZero(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIsNegative(t *testing.T) {
	if !IsNegative(-5) {
		t.Errorf("IsNegative(-5) = false, expected true")
	}
	if IsNegative(-0.005) {
		t.Errorf("IsNegative(-0.005) = true, expected false within tolerance")
	}
	if IsNegative(3) {
		t.Errorf("IsNegative(3) = true, expected false")
	}
}

func TestWithinTolerance(t *testing.T) {
	if !WithinTolerance(100.0, 100.004, 0.01) {
		t.Errorf("expected values to be within tolerance")
	}
	if WithinTolerance(100.0, 100.02, 0.01) {
		t.Errorf("expected values to differ beyond tolerance")
	}
}

func TestRelativeClose(t *testing.T) {
	tests := []struct {
		name     string
		a, b     float64
		tol      float64
		expected bool
	}{
		{"Identical", 180240, 180240, 1e-6, true},
		{"Within relative tolerance", 180240, 180240.1, 1e-6, true},
		{"Outside relative tolerance", 180240, 180241, 1e-6, false},
		{"Near zero uses absolute", 0, 1e-9, 1e-6, true},
		{"Near zero outside absolute", 0, 0.5, 1e-6, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RelativeClose(tt.a, tt.b, tt.tol); got != tt.expected {
				t.Errorf("RelativeClose(%v, %v, %v) = %v, expected %v", tt.a, tt.b, tt.tol, got, tt.expected)
			}
		})
	}
}

func TestIsFinite(t *testing.T) {
	if !IsFinite(42) {
		t.Errorf("IsFinite(42) = false")
	}
	if IsFinite(math.NaN()) {
		t.Errorf("IsFinite(NaN) = true")
	}
	if IsFinite(math.Inf(-1)) {
		t.Errorf("IsFinite(-Inf) = true")
	}
}

func TestPercentToFraction(t *testing.T) {
	if got := PercentToFraction(80); math.Abs(got-0.8) > 1e-12 {
		t.Errorf("PercentToFraction(80) = %v, expected 0.8", got)
	}
}
