// Package clock provides an injectable time source and the calendar-day
// helpers used for review dates. All comparisons here are day-based: the
// hour of a timestamp never affects whether one date is before another.
package clock

import "time"

// Clock reports the current moment.
type Clock interface {
	Now() time.Time
}

// System is the wall clock in the local time zone.
type System struct{}

// Now returns time.Now().
func (System) Now() time.Time { return time.Now() }

// Fixed always reports the same moment.
type Fixed time.Time

// Now returns the fixed moment.
func (f Fixed) Now() time.Time { return time.Time(f) }

// Func adapts a plain function to the Clock interface.
type Func func() time.Time

// Now calls f.
func (f Func) Now() time.Time { return f() }

// OrSystem returns c, or the system clock when c is nil.
func OrSystem(c Clock) Clock {
	if c == nil {
		return System{}
	}
	return c
}
