// Package stats summarizes the scheduling state of a deck.
package stats

import (
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/due"
	"github.com/conorfennell/knoldeck/internal/sm2"
)

// StrugglingEaseFactor is the ease below which a reviewed card counts as struggling.
const StrugglingEaseFactor = 1.8

// Summary aggregates the cards of one deck.
type Summary struct {
	DeckID      string  `json:"deck_id"`
	DeckName    string  `json:"deck_name"`
	Total       int     `json:"total"`
	New         int     `json:"new"`
	Due         int     `json:"due"`
	Mastered    int     `json:"mastered"`
	Struggling  int     `json:"struggling"`
	AvgEase     float64 `json:"avg_ease_factor"`
	AvgInterval float64 `json:"avg_interval_days"`
}

// Summarize computes the summary of deck at the moment now. Averages cover
// reviewed cards only and are zero when nothing was reviewed yet.
func Summarize(deck *domain.Deck, now time.Time) Summary {
	s := Summary{DeckID: deck.ID, DeckName: deck.Name}

	var easeSum, intervalSum float64
	var easeN, intervalN int
	for _, card := range deck.Cards {
		if card == nil {
			continue
		}
		s.Total++
		if !card.Reviewed() {
			s.New++
		}
		if due.IsDue(*card, now) {
			s.Due++
		}
		if card.EaseFactor != nil {
			ease := *card.EaseFactor
			easeSum += ease
			easeN++
			if sm2.Mastered(ease) {
				s.Mastered++
			}
			if ease < StrugglingEaseFactor {
				s.Struggling++
			}
		}
		if card.Interval != nil {
			intervalSum += float64(*card.Interval)
			intervalN++
		}
	}

	if easeN > 0 {
		s.AvgEase = easeSum / float64(easeN)
	}
	if intervalN > 0 {
		s.AvgInterval = intervalSum / float64(intervalN)
	}
	return s
}
