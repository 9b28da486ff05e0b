package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatCurrencyIDR formats an amount in Indonesian Rupiah.
// Example: 15000.50 -> "Rp 15.000,50", 15000 -> "Rp 15.000"
func FormatCurrencyIDR(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.StringFixed(2)
	parts := strings.SplitN(fixed, ".", 2)
	integer, fraction := parts[0], parts[1]

	var grouped []string
	for i := len(integer); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		grouped = append([]string{integer[start:i]}, grouped...)
	}

	out := "Rp " + sign + strings.Join(grouped, ".")
	if fraction != "00" {
		out += "," + fraction
	}
	return out
}
