// Package cli provides formatting and rendering utilities for terminal output.
package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FormatDuration formats seconds into a human-readable duration.
// e.g., 3725 -> "1h 2m", 125 -> "2m", 45 -> "45s"
func FormatDuration(secs int64) string {
	if secs <= 0 {
		return "0s"
	}

	days := secs / 86400
	hours := (secs % 86400) / 3600
	mins := (secs % 3600) / 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins)
	}
	if mins > 0 {
		return fmt.Sprintf("%dm", mins)
	}
	return fmt.Sprintf("%ds", secs)
}

// FormatAge formats how long ago t was, e.g. "3h 5m ago".
func FormatAge(t, now time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return FormatDuration(int64(now.Sub(t).Seconds())) + " ago"
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

// FormatBytes formats a byte count with binary suffixes.
// e.g., 512 -> "512B", 2048 -> "2.0KiB", 5<<20 -> "5.0MiB"
func FormatBytes(n int64) string {
	switch {
	case n >= 1<<30:
		return fmt.Sprintf("%.1fGiB", float64(n)/(1<<30))
	case n >= 1<<20:
		return fmt.Sprintf("%.1fMiB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1fKiB", float64(n)/(1<<10))
	default:
		return strconv.FormatInt(n, 10) + "B"
	}
}

// FormatAmount formats a basket total with comma separators. Fractions,
// which integer prices never produce, are kept to two places.
func FormatAmount(d decimal.Decimal) string {
	if d.IsInteger() {
		return FormatNumber(d.IntPart())
	}
	whole := d.Truncate(0)
	frac := d.Sub(whole).Abs().StringFixed(2) // "0.xx"
	return FormatNumber(whole.IntPart()) + frac[1:]
}

// FormatIndex formats an index value, e.g. 104.5 -> "104.50".
func FormatIndex(v float64) string {
	return fmt.Sprintf("%.2f", v)
}

// FormatChange formats a percent change with an explicit sign.
func FormatChange(pct float64) string {
	return fmt.Sprintf("%+.4f%%", pct)
}

// MaskSecret hides all but a short prefix of a secret.
func MaskSecret(s string) string {
	switch {
	case s == "":
		return ""
	case len(s) > 12:
		return s[:4] + "..." + s[len(s)-2:]
	case len(s) > 4:
		return s[:2] + "..."
	default:
		return "****"
	}
}
