// Package core holds the domain types shared by every component: money,
// dates, transactions and their items, categories, budgets, and the
// parser's candidate transaction.
package core

import (
	"strconv"
	"strings"
	"unicode"
)

// ParseWon converts a user-entered amount string to won. Grouped-thousands
// separators are tolerated ("12,000"), fractions are not: the won has no
// subdivision, so "12.50" is rejected rather than silently rounded.
func ParseWon(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, ErrInvalidAmount
	}
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	if strings.ContainsRune(s, '.') {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", "")
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return 0, ErrInvalidAmount
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	return v, nil
}

// FormatWon renders an amount with grouped thousands and the won suffix,
// e.g. 1234567 -> "1,234,567원".
func FormatWon(won int64) string {
	return GroupThousands(won) + "원"
}

// GroupThousands renders an integer with comma separators every three
// digits, matching the format receipts and the store use.
func GroupThousands(v int64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := strconv.FormatInt(v, 10)
	if len(s) > 3 {
		var b strings.Builder
		lead := len(s) % 3
		if lead > 0 {
			b.WriteString(s[:lead])
		}
		for i := lead; i < len(s); i += 3 {
			if b.Len() > 0 {
				b.WriteByte(',')
			}
			b.WriteString(s[i : i+3])
		}
		s = b.String()
	}
	if neg {
		return "-" + s
	}
	return s
}
