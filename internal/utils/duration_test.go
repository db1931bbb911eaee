package utils

import (
	"math"
	"testing"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0:00"},
		{-5, "0:00"},
		{math.NaN(), "0:00"},
		{5, "0:05"},
		{65, "1:05"},
		{180.4, "3:00"},
		{599.6, "10:00"},
		{3723, "1:02:03"},
	}
	for _, tt := range tests {
		if got := FormatDuration(tt.in); got != tt.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
