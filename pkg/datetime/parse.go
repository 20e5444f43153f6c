// Package datetime provides date and time utility functions.
package datetime

import (
	"fmt"
	"time"

	"github.com/iwvelando/inmoreal/pkg/constants"
)

const (
	// DateTimeLayout is the format expected in config files.
	DateTimeLayout = constants.DateTimeLayout
)

// ParseMonth parses a year-month date formatted with DateTimeLayout.
func ParseMonth(value string) (time.Time, error) {
	t, err := time.Parse(DateTimeLayout, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse date %q: %w", value, err)
	}
	return t, nil
}

// MonthsBetween returns the number of whole months from start to end, both
// formatted with DateTimeLayout. End must not be before start.
func MonthsBetween(start, end string) (int, error) {
	startT, err := ParseMonth(start)
	if err != nil {
		return 0, fmt.Errorf("invalid start date: %w", err)
	}
	endT, err := ParseMonth(end)
	if err != nil {
		return 0, fmt.Errorf("invalid end date: %w", err)
	}
	if endT.Before(startT) {
		return 0, fmt.Errorf("end date %s is before start date %s", end, start)
	}
	months := (endT.Year()-startT.Year())*constants.MonthsPerYear + int(endT.Month()-startT.Month())
	return months, nil
}
