package scheduler

import (
	"fmt"
	"strings"
	"time"
)

// Session is a recurring trading window, e.g. NSE cash market
// Mon-Fri 09:15-15:30 Asia/Kolkata. Both bounds are inclusive.
type Session struct {
	Location *time.Location
	Open     time.Duration // offset from local midnight
	Close    time.Duration
	Weekdays map[time.Weekday]bool
}

// NewSession builds a session from "HH:MM" bounds and weekday names
// ("mon".."sun"). An empty weekday list means Monday to Friday.
func NewSession(tz, open, close string, weekdays []string) (Session, error) {
	loc, err := time.LoadLocation(strings.TrimSpace(tz))
	if err != nil {
		return Session{}, fmt.Errorf("session timezone %q: %w", tz, err)
	}
	o, err := parseClock(open)
	if err != nil {
		return Session{}, fmt.Errorf("session open: %w", err)
	}
	c, err := parseClock(close)
	if err != nil {
		return Session{}, fmt.Errorf("session close: %w", err)
	}
	if c <= o {
		return Session{}, fmt.Errorf("session close %s must be after open %s", close, open)
	}
	days := make(map[time.Weekday]bool)
	if len(weekdays) == 0 {
		for d := time.Monday; d <= time.Friday; d++ {
			days[d] = true
		}
	}
	for _, raw := range weekdays {
		d, ok := parseWeekday(raw)
		if !ok {
			return Session{}, fmt.Errorf("session weekday %q not recognised", raw)
		}
		days[d] = true
	}
	return Session{Location: loc, Open: o, Close: c, Weekdays: days}, nil
}

// IsOpen reports whether t falls inside the window.
func (s Session) IsOpen(t time.Time) bool {
	if s.Location == nil {
		return true
	}
	local := t.In(s.Location)
	if !s.Weekdays[local.Weekday()] {
		return false
	}
	midnight := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, s.Location)
	offset := local.Sub(midnight)
	return offset >= s.Open && offset <= s.Close
}

// String renders "Mon-Fri 09:15-15:30 Asia/Kolkata" style summaries.
func (s Session) String() string {
	if s.Location == nil {
		return "always open"
	}
	var days []string
	for d := time.Sunday; d <= time.Saturday; d++ {
		if s.Weekdays[d] {
			days = append(days, d.String()[:3])
		}
	}
	return fmt.Sprintf("%s %s-%s %s", strings.Join(days, ","), formatClock(s.Open), formatClock(s.Close), s.Location)
}

func parseClock(raw string) (time.Duration, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid clock %q (want HH:MM)", raw)
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, nil
}

func formatClock(d time.Duration) string {
	return fmt.Sprintf("%02d:%02d", int(d.Hours()), int(d.Minutes())%60)
}

func parseWeekday(raw string) (time.Weekday, bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if len(key) > 3 {
		key = key[:3]
	}
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.ToLower(d.String()[:3]) == key {
			return d, true
		}
	}
	return 0, false
}
