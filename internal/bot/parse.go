package bot

import (
	"fmt"
	"strconv"
	"strings"
)

// parseAmount turns the ways players type dollar amounts into whole
// dollars: "$1,234,567", "1 234 567", "2.5m", "750k", "1b" and plain
// digit strings all work. Anything else is an error.
func parseAmount(text string) (int64, error) {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, "_", "")
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	multiplier := int64(1)
	switch s[len(s)-1] {
	case 'k', 'K':
		multiplier = 1_000
		s = s[:len(s)-1]
	case 'm', 'M':
		multiplier = 1_000_000
		s = s[:len(s)-1]
	case 'b', 'B':
		multiplier = 1_000_000_000
		s = s[:len(s)-1]
	}

	if multiplier > 1 {
		// Суффиксы принимают дробную часть: 1.5m, 2.25k
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, fmt.Errorf("cannot parse amount %q", text)
		}
		if f < 0 {
			return 0, fmt.Errorf("amount must not be negative")
		}
		return int64(f*float64(multiplier) + 0.5), nil
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot parse amount %q", text)
	}
	if n < 0 {
		return 0, fmt.Errorf("amount must not be negative")
	}
	return n, nil
}

// looksLikeAmount reports whether free text is plausibly a guess, so
// the update loop knows to route it into the player's open session
func looksLikeAmount(text string) bool {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "$")
	if s == "" {
		return false
	}
	return s[0] >= '0' && s[0] <= '9'
}
