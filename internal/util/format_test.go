package util

import (
	"testing"
	"time"
)

func TestFormatSize(t *testing.T) {
	tests := []struct {
		name     string
		size     int64
		expected string
	}{
		{"Zero bytes", 0, "0 B"},
		{"Single byte", 1, "1 B"},
		{"Max bytes", 1023, "1023 B"},
		{"Exact 1 KB", 1024, "1.00 KB"},
		{"1.5 KB", 1536, "1.50 KB"},
		{"Exact 1 MB", 1048576, "1.00 MB"},
		{"100 MB", 104857600, "100.00 MB"},
		{"Exact 1 GB", 1073741824, "1.00 GB"},
		{"2.75 GB", 2952790016, "2.75 GB"},
		{"Terabyte range stays in GB", 1099511627776, "1024.00 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatSize(tt.size); got != tt.expected {
				t.Errorf("FormatSize(%d) = %q, expected %q", tt.size, got, tt.expected)
			}
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		d        time.Duration
		expected string
	}{
		{"zero", 0, "00:00:00"},
		{"seconds", 42 * time.Second, "00:00:42"},
		{"minutes", 3*time.Minute + 5*time.Second, "00:03:05"},
		{"hours", 2*time.Hour + 30*time.Minute, "02:30:00"},
		{"negative clamps to zero", -5 * time.Second, "00:00:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatDuration(tt.d); got != tt.expected {
				t.Errorf("FormatDuration(%v) = %q, expected %q", tt.d, got, tt.expected)
			}
		})
	}
}

func TestPadRight(t *testing.T) {
	tests := []struct {
		name     string
		str      string
		width    int
		expected string
	}{
		{"empty string", "", 5, "     "},
		{"short string", "abc", 6, "abc   "},
		{"exact width", "hello", 5, "hello"},
		{"truncated", "this is too long", 10, "this is..."},
		{"wide runes", "你好", 8, "你好    "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PadRight(tt.str, tt.width); got != tt.expected {
				t.Errorf("PadRight(%q, %d) = %q, expected %q", tt.str, tt.width, got, tt.expected)
			}
		})
	}
}
