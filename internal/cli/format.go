// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatMoney formats an amount with a currency symbol and comma separators.
// e.g., -1234.5 -> "-$1,234.50"
func FormatMoney(d decimal.Decimal, symbol string) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Neg()
	}
	s := d.StringFixed(2)
	whole, frac, _ := strings.Cut(s, ".")
	n, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return sign + symbol + s
	}
	return sign + symbol + FormatNumber(n) + "." + frac
}

// FormatSigned is FormatMoney with an explicit "+" on non-negative amounts.
func FormatSigned(d decimal.Decimal, symbol string) string {
	if d.IsNegative() {
		return FormatMoney(d, symbol)
	}
	return "+" + FormatMoney(d, symbol)
}

// FormatNumber adds comma separators to an integer.
// e.g., 1234567 -> "1,234,567"
func FormatNumber(n int64) string {
	if n < 0 {
		return "-" + FormatNumber(-n)
	}

	s := strconv.FormatInt(n, 10)
	if len(s) <= 3 {
		return s
	}

	var result strings.Builder
	remainder := len(s) % 3
	if remainder > 0 {
		result.WriteString(s[:remainder])
	}
	for i := remainder; i < len(s); i += 3 {
		if result.Len() > 0 {
			result.WriteByte(',')
		}
		result.WriteString(s[i : i+3])
	}
	return result.String()
}

// FormatDate renders a calendar date as "Mon 2006-01-02".
func FormatDate(t time.Time) string {
	return FormatDayOfWeek(int(t.Weekday())) + " " + t.Format("2006-01-02")
}

// FormatDaysUntil describes a day offset relative to today.
// e.g., 0 -> "today", 1 -> "tomorrow", 5 -> "in 5 days"
func FormatDaysUntil(days int) string {
	switch {
	case days == 0:
		return "today"
	case days == 1:
		return "tomorrow"
	case days < 0:
		return fmt.Sprintf("%d days ago", -days)
	default:
		return fmt.Sprintf("in %d days", days)
	}
}

// FormatDayOfWeek returns a 3-letter day abbreviation from a weekday number.
func FormatDayOfWeek(weekday int) string {
	days := []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}
	if weekday >= 0 && weekday < 7 {
		return days[weekday]
	}
	return "???"
}
