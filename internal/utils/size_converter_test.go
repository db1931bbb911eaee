package utils

import (
	"testing"
)

func TestConvertBytesToHumanReadable(t *testing.T) {
	tests := []struct {
		name     string
		bytes    int64
		expected string
	}{
		{"zero bytes", 0, "0 B"},
		{"small bytes", 200, "200 B"},
		{"max bytes before KiB", 1023, "1023 B"},
		{"exactly 1 KiB", 1024, "1.0 KiB"},
		{"1.5 KiB", 1536, "1.5 KiB"},
		{"exactly 1 MiB", 1024 * 1024, "1.0 MiB"},
		{"100 MiB", 100 * 1024 * 1024, "100 MiB"},
		{"negative clamps", -10, "0 B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ConvertBytesToHumanReadable(tt.bytes)
			if got != tt.expected {
				t.Errorf(
					"ConvertBytesToHumanReadable(%d) = %q, want %q",
					tt.bytes,
					got,
					tt.expected,
				)
			}
		})
	}
}

func TestProgressLabel(t *testing.T) {
	tests := []struct {
		name           string
		fraction       float64
		written, total int64
		expected       string
	}{
		{"quarter", 0.25, 50, 200, "25.0% of 200 B"},
		{"complete", 1.0, 200, 200, "100.0% of 200 B"},
		{"unknown total", 0, 2048, 0, "2.0 KiB downloaded"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ProgressLabel(tt.fraction, tt.written, tt.total); got != tt.expected {
				t.Errorf("ProgressLabel = %q, want %q", got, tt.expected)
			}
		})
	}
}
