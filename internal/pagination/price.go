package pagination

import (
	"strconv"
	"strings"
)

// ParsePrice extracts a number from a free-form price string by dropping
// everything except digits, '.' and '-'. It reports false when nothing
// numeric remains.
func ParsePrice(s string) (float64, bool) {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == '-' {
			b.WriteRune(r)
		}
	}
	if b.Len() == 0 {
		return 0, false
	}
	n, err := strconv.ParseFloat(b.String(), 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatPrice renders a price for display. Blank input renders as "".
// Numeric input is prefixed with currency and, when forceTwo is set, fixed to
// two decimals. Anything else is passed through trimmed after the currency.
func FormatPrice(raw, currency string, forceTwo bool) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	n, ok := ParsePrice(s)
	if !ok {
		return currency + s
	}
	if forceTwo {
		return currency + strconv.FormatFloat(n, 'f', 2, 64)
	}
	return currency + strconv.FormatFloat(n, 'f', -1, 64)
}
