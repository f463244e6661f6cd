// Package sm2 implements the SuperMemo-2 spaced repetition scheduler.
//
// The scheduler is a pure function of a card's scheduling state, a recall
// grade and the current day. It never mutates its input and never fails:
// missing state is treated as a card that was never reviewed.
package sm2

import (
	"math"
	"time"

	"github.com/conorfennell/knoldeck/internal/clock"
	"github.com/conorfennell/knoldeck/internal/domain"
)

const (
	// DefaultEaseFactor is the ease of a card that was never reviewed.
	DefaultEaseFactor = 2.5
	// MinEaseFactor is the floor applied after every review.
	MinEaseFactor = 1.3
	// PassGrade is the lowest grade counted as a successful recall.
	PassGrade Grade = 3
	// MasteredEaseFactor is the ease above which a card counts as mastered.
	MasteredEaseFactor = 2.5
)

// State is the scheduling state of a card before a review.
// A nil field means the value was never set.
type State struct {
	Interval   *int
	Repetition *int
	EaseFactor *float64
}

// Result is the complete scheduling state after a review.
type Result struct {
	Interval   int       `json:"interval"`
	Repetition int       `json:"repetition"`
	EaseFactor float64   `json:"ease_factor"`
	NextReview time.Time `json:"next_review"`
}

// Scheduler computes SM-2 reviews against an injectable clock.
type Scheduler struct {
	clock clock.Clock
}

// NewScheduler creates a Scheduler. A nil clock uses the system clock.
func NewScheduler(c clock.Clock) *Scheduler {
	return &Scheduler{clock: clock.OrSystem(c)}
}

// Schedule returns the state that follows reviewing a card with the given grade today.
func (s *Scheduler) Schedule(state State, grade Grade) Result {
	return Next(state, grade, s.clock.Now())
}

// Preview returns the outcome of every grade without committing to any of them.
func (s *Scheduler) Preview(state State) map[Grade]Result {
	now := s.clock.Now()
	out := make(map[Grade]Result, len(Grades))
	for _, g := range Grades {
		out[g] = Next(state, g, now)
	}
	return out
}

// Next applies one SM-2 step at the moment now.
//
// Grades are not range checked; the ease floor keeps any integer input numeric
// and at least MinEaseFactor.
func Next(state State, grade Grade, now time.Time) Result {
	interval, repetition, ease := state.values()

	if !grade.Passed() {
		repetition = 0
		interval = 1
	} else {
		switch repetition {
		case 0:
			interval = 1
		case 1:
			interval = 6
		default:
			interval = int(math.Round(float64(interval) * ease))
		}
		repetition++
	}

	q := float64(5 - grade)
	ease = ease + 0.1 - q*(0.08+q*0.02)
	if ease < MinEaseFactor || math.IsNaN(ease) {
		ease = MinEaseFactor
	}

	// A stored interval of zero or less would otherwise round below one day.
	if interval < 1 {
		interval = 1
	}

	return Result{
		Interval:   interval,
		Repetition: repetition,
		EaseFactor: ease,
		NextReview: clock.AddDays(clock.Midnight(now), interval),
	}
}

func (st State) values() (interval, repetition int, ease float64) {
	ease = DefaultEaseFactor
	if st.Interval != nil {
		interval = *st.Interval
	}
	if st.Repetition != nil {
		repetition = *st.Repetition
	}
	if st.EaseFactor != nil {
		ease = *st.EaseFactor
	}
	return interval, repetition, ease
}

// StateOf extracts the scheduling state of a card.
func StateOf(card domain.Card) State {
	c := card.Clone()
	return State{
		Interval:   c.Interval,
		Repetition: c.Repetition,
		EaseFactor: c.EaseFactor,
	}
}

// Apply returns a copy of card carrying r as its scheduling state.
// Content fields are left untouched.
func Apply(card domain.Card, r Result) domain.Card {
	out := card.Clone()
	interval, repetition, ease := r.Interval, r.Repetition, r.EaseFactor
	out.Interval = &interval
	out.Repetition = &repetition
	out.EaseFactor = &ease
	out.NextReview = clock.FormatDate(r.NextReview)
	return out
}

// Mastered reports whether a card with the given ease counts as mastered.
func Mastered(ease float64) bool {
	return ease > MasteredEaseFactor
}
