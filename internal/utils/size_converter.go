package utils

import (
	"fmt"

	"github.com/dustin/go-humanize"
)

// ConvertBytesToHumanReadable formats a byte count with binary units.
func ConvertBytesToHumanReadable(bytes int64) string {
	if bytes < 0 {
		bytes = 0
	}
	return humanize.IBytes(uint64(bytes))
}

// ProgressLabel renders the size string shown next to progress, e.g.
// "25.0% of 200 B". An unknown total shows the bytes received so far.
func ProgressLabel(fraction float64, written, total int64) string {
	if total <= 0 {
		return fmt.Sprintf("%s downloaded", ConvertBytesToHumanReadable(written))
	}
	return fmt.Sprintf("%.1f%% of %s", fraction*100, ConvertBytesToHumanReadable(total))
}
