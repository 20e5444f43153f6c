package estimator

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var (
	// 3.500 / 1.234.567,89
	dotGrouped = regexp.MustCompile(`^\d{1,3}(\.\d{3})+(,\d+)?$`)
	// 3,500 / 1,234,567.89
	commaGrouped = regexp.MustCompile(`^\d{1,3}(,\d{3})+(\.\d+)?$`)
	// 3500 / 3500.5 / 3500,5
	plain = regexp.MustCompile(`^\d+([.,]\d+)?$`)
)

// ParsePrice extracts a price from a free-text model answer. It reads the
// first run of digits and separators, accepts either Spanish or English
// thousands grouping, and otherwise treats a single separator as the decimal
// point. Anything else is ambiguous and yields (fallback, false). It never
// panics.
func ParsePrice(text string, fallback float64) (float64, bool) {
	token := strings.TrimRight(firstNumericRun(text), ".,")
	if token == "" {
		return fallback, false
	}

	var normalized string
	switch {
	case dotGrouped.MatchString(token):
		normalized = strings.Replace(strings.ReplaceAll(token, ".", ""), ",", ".", 1)
	case commaGrouped.MatchString(token):
		normalized = strings.ReplaceAll(token, ",", "")
	case plain.MatchString(token):
		normalized = strings.Replace(token, ",", ".", 1)
	default:
		return fallback, false
	}

	value, err := strconv.ParseFloat(normalized, 64)
	if err != nil || math.IsNaN(value) || math.IsInf(value, 0) || value <= 0 {
		return fallback, false
	}
	return value, true
}

func firstNumericRun(text string) string {
	start := strings.IndexAny(text, "0123456789")
	if start < 0 {
		return ""
	}
	end := start
	for end < len(text) {
		c := text[end]
		if (c >= '0' && c <= '9') || c == '.' || c == ',' {
			end++
			continue
		}
		break
	}
	return text[start:end]
}
