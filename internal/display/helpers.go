package display

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Locale-aware number formatter
var numberPrinter = message.NewPrinter(language.English)

// formatBytes formats bytes in human readable form (KB, MB, GB)
func formatBytes(b uint64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := uint64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMGTPE"[exp])
}

// formatNumber formats a number with locale-aware thousand separators
func formatNumber(n uint64) string {
	return numberPrinter.Sprintf("%d", n)
}

// formatAge formats a duration as a compact age string
func formatAge(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		return fmt.Sprintf("%dh", int(d.Hours()))
	}
	return fmt.Sprintf("%dd", int(d.Hours()/24))
}

// truncate shortens a string to maxLen, ellipsized
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen || maxLen < 2 {
		return s
	}
	return s[:maxLen-1] + "…"
}
