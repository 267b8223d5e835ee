package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatRupees formats an amount with Indian digit grouping.
// Example: 1234567.5 -> "₹12,34,567.50", 275 -> "₹275"
func FormatRupees(amount float64) string {
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}

	amount = math.Round(amount*100) / 100
	integer := math.Floor(amount)
	paise := int(math.Round((amount - integer) * 100))

	digits := fmt.Sprintf("%.0f", integer)

	// last three digits, then groups of two
	var groups []string
	if len(digits) > 3 {
		head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
		for len(head) > 2 {
			groups = append([]string{head[len(head)-2:]}, groups...)
			head = head[:len(head)-2]
		}
		if head != "" {
			groups = append([]string{head}, groups...)
		}
		groups = append(groups, tail)
	} else {
		groups = []string{digits}
	}

	out := sign + "₹" + strings.Join(groups, ",")
	if paise > 0 {
		out += fmt.Sprintf(".%02d", paise)
	}
	return out
}
