package utils

import (
	"fmt"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var numberPrinter = message.NewPrinter(language.English)

// FormatSize renders a byte count with a binary unit, e.g. 1.7GB
func FormatSize(size int64) string {
	v := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if v < 1024 {
			return fmt.Sprintf("%.1f%s", v, unit)
		}
		v /= 1024
	}
	return fmt.Sprintf("%.1fTB", v)
}

// FormatNumber renders n with comma thousands separators
func FormatNumber(n int) string {
	return numberPrinter.Sprintf("%d", n)
}

// FormatElapsed renders d in seconds with one decimal, e.g. 12.3s
func FormatElapsed(d time.Duration) string {
	return fmt.Sprintf("%.1fs", d.Seconds())
}
