package domain

import "time"

// Card represents a single front/back/context entry and its review schedule.
//
// The four scheduling fields are written only by the sm2 scheduler. A nil
// pointer means the card has never been reviewed. NextReview holds the date
// exactly as stored; an empty string means the card was never scheduled.
type Card struct {
	ID      string `json:"id"`
	Front   string `json:"front"`
	Back    string `json:"back"`
	Context string `json:"context,omitempty"`

	Interval   *int     `json:"interval"`
	Repetition *int     `json:"repetition"`
	EaseFactor *float64 `json:"ease_factor"`
	NextReview string   `json:"next_review,omitempty"`
}

// Reviewed reports whether the card has been scheduled at least once: it has
// a repetition count or a review date. Cards that are not reviewed are new.
func (c Card) Reviewed() bool {
	return c.Repetition != nil || c.NextReview != ""
}

// Clone returns a deep copy of the card. Pointer fields are copied by value.
func (c Card) Clone() Card {
	out := c
	if c.Interval != nil {
		v := *c.Interval
		out.Interval = &v
	}
	if c.Repetition != nil {
		v := *c.Repetition
		out.Repetition = &v
	}
	if c.EaseFactor != nil {
		v := *c.EaseFactor
		out.EaseFactor = &v
	}
	return out
}

// Deck is a named collection of cards owned by a user.
type Deck struct {
	ID           string     `json:"id"`
	UserID       string     `json:"user_id,omitempty"`
	Name         string     `json:"name"`
	Cards        []*Card    `json:"cards,omitempty"`
	LastReviewed *time.Time `json:"last_reviewed,omitempty"`
	SourceID     *int64     `json:"source_id,omitempty"`
}

// DueCard is a card selected for review together with its owning deck.
type DueCard struct {
	Card     Card   `json:"card"`
	DeckID   string `json:"deck_id"`
	DeckName string `json:"deck_name"`
}

// ReviewLog records a single grading event for a card.
// Grade is the SM-2 recall quality:
// 0: Blackout
// 1: Incorrect
// 2: Incorrect but familiar
// 3: Correct with difficulty
// 4: Correct after hesitation
// 5: Perfect
type ReviewLog struct {
	ID         string    `json:"id"`
	DeckID     string    `json:"deck_id"`
	CardID     string    `json:"card_id"`
	Grade      int       `json:"grade"`
	Interval   int       `json:"interval"`
	EaseFactor float64   `json:"ease_factor"`
	ReviewedAt time.Time `json:"reviewed_at"`
}
