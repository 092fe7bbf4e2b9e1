package cli

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// FormatBytes formats bytes to human readable string
func FormatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = KB * 1024
		GB = MB * 1024
	)

	switch {
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/GB)
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/MB)
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/KB)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatThroughput formats bytes moved over d as a rate per second.
func FormatThroughput(bytes int64, d time.Duration) string {
	if d <= 0 {
		return "n/a"
	}
	perSec := float64(bytes) / d.Seconds()
	return FormatBytes(int64(perSec)) + "/s"
}

// ParseBytes parses a size such as "4096", "16K", "64KB" or "1MiB".
// Units are powers of 1024.
func ParseBytes(s string) (int, error) {
	s = strings.TrimSpace(s)
	num := strings.TrimRightFunc(s, unicode.IsLetter)
	unit := strings.ToUpper(strings.TrimSpace(s[len(num):]))
	num = strings.TrimSpace(num)

	n, err := strconv.Atoi(num)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	mult := 1
	switch unit {
	case "", "B":
	case "K", "KB", "KIB":
		mult = 1 << 10
	case "M", "MB", "MIB":
		mult = 1 << 20
	case "G", "GB", "GIB":
		mult = 1 << 30
	default:
		return 0, fmt.Errorf("invalid size unit %q in %q", unit, s)
	}
	if n > math.MaxInt/mult || n < math.MinInt/mult {
		return 0, fmt.Errorf("size %q overflows", s)
	}
	return n * mult, nil
}
