package util

import (
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"
)

// FormatSize formats a byte count as a human-readable size using binary
// units. Sub-kilobyte values are printed without decimals.
func FormatSize(size int64) string {
	const unit = 1024.0
	switch f := float64(size); {
	case f < unit:
		return fmt.Sprintf("%d B", size)
	case f < unit*unit:
		return fmt.Sprintf("%.2f KB", f/unit)
	case f < unit*unit*unit:
		return fmt.Sprintf("%.2f MB", f/(unit*unit))
	default:
		return fmt.Sprintf("%.2f GB", f/(unit*unit*unit))
	}
}

// FormatDuration formats a duration as HH:MM:SS. Negative durations render
// as zero.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", total/3600, (total%3600)/60, total%60)
}

// PadRight pads or truncates a string to a fixed display width, accounting
// for wide runes.
func PadRight(str string, width int) string {
	w := runewidth.StringWidth(str)
	if w > width {
		return runewidth.Truncate(str, width, "...")
	}
	return str + strings.Repeat(" ", width-w)
}
