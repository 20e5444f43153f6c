package validation

import (
	"fmt"
	"math"

	"github.com/iwvelando/inmoreal/pkg/constants"
)

// ValidateFraction checks that value lies in [0,1). When allowOne is set the
// upper bound is inclusive, which is how reinvestment shares are expressed.
func ValidateFraction(name string, value float64, allowOne bool) error {
	if math.IsNaN(value) {
		return fmt.Errorf("%s must be a number", name)
	}
	if value < 0 {
		return fmt.Errorf("%s must not be negative, got %g", name, value)
	}
	if allowOne {
		if value > 1 {
			return fmt.Errorf("%s must be at most 1, got %g", name, value)
		}
		return nil
	}
	if value >= 1 {
		return fmt.Errorf("%s must be below 1, got %g", name, value)
	}
	return nil
}

// ValidatePercent checks that value is a percentage between 0 and 100 inclusive.
func ValidatePercent(name string, value float64) error {
	if math.IsNaN(value) || value < 0 || value > constants.PercentageMultiplier {
		return fmt.Errorf("%s must be between 0 and 100, got %g", name, value)
	}
	return nil
}

// ValidatePositive checks that value is a finite number above zero.
func ValidatePositive(name string, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return fmt.Errorf("%s must be greater than zero, got %g", name, value)
	}
	return nil
}
