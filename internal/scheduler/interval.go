package scheduler

import (
	"strconv"
	"strings"
	"time"
)

// ParseIntervalDuration parses bar intervals in the notation used by chart
// providers: "15m", "60m", "1h", "1d", "5d", "1wk", "1mo".
// Months are approximated as 30 days. Returns (0, false) on invalid input.
func ParseIntervalDuration(interval string) (time.Duration, bool) {
	interval = strings.ToLower(strings.TrimSpace(interval))
	if interval == "" {
		return 0, false
	}
	split := len(interval)
	for split > 0 && (interval[split-1] < '0' || interval[split-1] > '9') {
		split--
	}
	numStr, unit := interval[:split], interval[split:]
	if numStr == "" || unit == "" {
		return 0, false
	}
	n, err := strconv.Atoi(numStr)
	if err != nil || n <= 0 {
		return 0, false
	}
	switch unit {
	case "m":
		return time.Duration(n) * time.Minute, true
	case "h":
		return time.Duration(n) * time.Hour, true
	case "d":
		return time.Duration(n) * 24 * time.Hour, true
	case "w", "wk":
		return time.Duration(n) * 7 * 24 * time.Hour, true
	case "mo":
		return time.Duration(n) * 30 * 24 * time.Hour, true
	default:
		return 0, false
	}
}
