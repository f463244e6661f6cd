package clock

import (
	"strings"
	"time"
)

// layouts accepted by ParseDate, tried in order.
var layouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Midnight returns 00:00:00.000 of t's calendar day in t's location.
func Midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// AddDays moves t forward by n calendar days and returns midnight of that day.
// It adds days through time.Date so DST transitions never shift the day.
func AddDays(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d+n, 0, 0, 0, 0, t.Location())
}

// SameOrBefore reports whether the calendar day written in a is b's day or
// earlier. a keeps its own date even when its offset differs from b's, so a
// review date stored in one zone names the same day when read in another.
func SameOrBefore(a, b time.Time) bool {
	y, m, d := a.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, b.Location())
	return !day.After(Midnight(b))
}

// ParseDate parses a stored review date. Values without a zone are read in
// local time. The second result is false when s is empty or matches none of
// the accepted layouts.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range layouts {
		t, err := time.ParseInLocation(layout, s, time.Local)
		if err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// FormatDate renders t in the form written to storage.
func FormatDate(t time.Time) string {
	return t.Format(time.RFC3339)
}
