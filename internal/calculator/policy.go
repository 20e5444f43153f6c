package calculator

import (
	"fmt"
	"strings"

	"github.com/iwvelando/inmoreal/pkg/constants"
)

// GainMode selects when the municipal gain levy is charged on a sale.
type GainMode string

const (
	// GainAlways charges the levy on every sale.
	GainAlways GainMode = "always"
	// GainHoldingPeriod charges the levy only after the minimum holding period.
	GainHoldingPeriod GainMode = "holdingPeriod"
)

// GainPolicy decides whether the municipal gain rate applies to a sale.
type GainPolicy struct {
	Mode                 GainMode
	MinimumHoldingMonths int
}

// DefaultGainPolicy charges the levy unconditionally.
func DefaultGainPolicy() GainPolicy {
	return GainPolicy{Mode: GainAlways, MinimumHoldingMonths: constants.DefaultMinimumHoldingMonths}
}

// ParseGainMode converts a configuration value into a GainMode. An empty
// value selects GainAlways.
func ParseGainMode(value string) (GainMode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", strings.ToLower(string(GainAlways)):
		return GainAlways, nil
	case strings.ToLower(string(GainHoldingPeriod)), "holding-period", "holding_period":
		return GainHoldingPeriod, nil
	}
	return "", fmt.Errorf("unknown municipal gain policy %q: expected %s or %s", value, GainAlways, GainHoldingPeriod)
}

// Applies reports whether the levy is charged for a property held for
// holdingMonths. The holding-period mode requires the holding to exceed the
// minimum strictly; a negative (unknown) holding period is always charged.
func (p GainPolicy) Applies(holdingMonths int) bool {
	if p.Mode != GainHoldingPeriod || holdingMonths < 0 {
		return true
	}
	return holdingMonths > p.MinimumHoldingMonths
}
