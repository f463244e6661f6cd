package stats

import (
	"math"
	"testing"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
)

func intp(v int) *int           { return &v }
func floatp(v float64) *float64 { return &v }

func TestSummarize(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	deck := &domain.Deck{ID: "d", Name: "Deck", Cards: []*domain.Card{
		{ID: "new"},
		nil,
		{ID: "mastered", Interval: intp(15), Repetition: intp(3), EaseFactor: floatp(2.7), NextReview: "2025-06-30"},
		{ID: "struggling", Interval: intp(1), Repetition: intp(0), EaseFactor: floatp(1.3), NextReview: "2025-06-15"},
		{ID: "plain", Interval: intp(8), Repetition: intp(2), EaseFactor: floatp(2.5), NextReview: "2025-06-20"},
	}}

	s := Summarize(deck, now)

	if s.Total != 4 {
		t.Errorf("Total = %d, want 4", s.Total)
	}
	if s.New != 1 {
		t.Errorf("New = %d, want 1", s.New)
	}
	if s.Due != 2 {
		t.Errorf("Due = %d, want 2", s.Due)
	}
	if s.Mastered != 1 {
		t.Errorf("Mastered = %d, want 1", s.Mastered)
	}
	if s.Struggling != 1 {
		t.Errorf("Struggling = %d, want 1", s.Struggling)
	}
	if math.Abs(s.AvgEase-2.1666666666) > 1e-6 {
		t.Errorf("AvgEase = %v, want ~2.1667", s.AvgEase)
	}
	if s.AvgInterval != 8 {
		t.Errorf("AvgInterval = %v, want 8", s.AvgInterval)
	}
}

func TestSummarizeNewCards(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)
	deck := &domain.Deck{ID: "d", Cards: []*domain.Card{
		{ID: "blank"},
		{ID: "ease only", EaseFactor: floatp(2.5)},
		{ID: "interval only", Interval: intp(3)},
		{ID: "date only", NextReview: "2025-06-20"},
		{ID: "repetition only", Repetition: intp(0)},
	}}

	s := Summarize(deck, now)
	if s.New != 3 {
		t.Errorf("New = %d, want 3", s.New)
	}
}

func TestSummarizeEmptyDeck(t *testing.T) {
	s := Summarize(&domain.Deck{ID: "d"}, time.Now())
	if s.Total != 0 || s.Due != 0 || s.AvgEase != 0 || s.AvgInterval != 0 {
		t.Errorf("expected zero summary, got %+v", s)
	}
}
