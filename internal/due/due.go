// Package due selects the cards that should be presented in a review session.
package due

import (
	"time"

	"github.com/conorfennell/knoldeck/internal/clock"
	"github.com/conorfennell/knoldeck/internal/domain"
)

// Selector picks due cards relative to an injectable clock.
type Selector struct {
	clock clock.Clock
}

// NewSelector creates a Selector. A nil clock uses the system clock.
func NewSelector(c clock.Clock) *Selector {
	return &Selector{clock: clock.OrSystem(c)}
}

// DueCards returns every due card in decks. When deckID is non-empty only the
// deck with that ID is scanned. Nil decks and nil cards are skipped.
//
// The result order is unspecified; callers shuffle or sort as they need.
func (s *Selector) DueCards(decks []*domain.Deck, deckID string) []domain.DueCard {
	now := s.clock.Now()
	out := make([]domain.DueCard, 0)
	for _, deck := range decks {
		if deck == nil || (deckID != "" && deck.ID != deckID) {
			continue
		}
		for _, card := range deck.Cards {
			if card == nil || !IsDue(*card, now) {
				continue
			}
			out = append(out, domain.DueCard{
				Card:     card.Clone(),
				DeckID:   deck.ID,
				DeckName: deck.Name,
			})
		}
	}
	return out
}

// CountByDeck returns the number of due cards per deck ID. Every non-nil deck
// has an entry, including decks with nothing due.
func (s *Selector) CountByDeck(decks []*domain.Deck) map[string]int {
	now := s.clock.Now()
	counts := make(map[string]int, len(decks))
	for _, deck := range decks {
		if deck == nil {
			continue
		}
		n := 0
		for _, card := range deck.Cards {
			if card != nil && IsDue(*card, now) {
				n++
			}
		}
		counts[deck.ID] += n
	}
	return counts
}

// IsDue reports whether card should be reviewed on now's calendar day.
//
// Cards that were never scheduled are due. A NextReview that cannot be parsed
// also counts as due, so a corrupt date surfaces the card instead of hiding it.
// Otherwise the card is due when its review day is today or earlier; the hour
// on either side is ignored.
func IsDue(card domain.Card, now time.Time) bool {
	if card.NextReview == "" {
		return true
	}
	next, ok := clock.ParseDate(card.NextReview)
	if !ok {
		return true
	}
	return clock.SameOrBefore(next, now)
}
