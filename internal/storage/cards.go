package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/jmoiron/sqlx"
)

type cardRow struct {
	DeckID     string          `db:"deck_id"`
	ID         string          `db:"id"`
	Front      string          `db:"front"`
	Back       string          `db:"back"`
	Context    string          `db:"context"`
	Interval   sql.NullInt64   `db:"interval_days"`
	Repetition sql.NullInt64   `db:"repetition"`
	EaseFactor sql.NullFloat64 `db:"ease_factor"`
	NextReview sql.NullString  `db:"next_review"`
}

func (r cardRow) toDomain() *domain.Card {
	c := &domain.Card{
		ID:         r.ID,
		Front:      r.Front,
		Back:       r.Back,
		Context:    r.Context,
		NextReview: r.NextReview.String,
	}
	if r.Interval.Valid {
		v := int(r.Interval.Int64)
		c.Interval = &v
	}
	if r.Repetition.Valid {
		v := int(r.Repetition.Int64)
		c.Repetition = &v
	}
	if r.EaseFactor.Valid {
		v := r.EaseFactor.Float64
		c.EaseFactor = &v
	}
	return c
}

const cardColumns = `deck_id, id, front, back, context, interval_days, repetition, ease_factor, next_review`

// UpsertCard inserts a card into a deck. If the deck already holds a card
// with the same ID only its content is replaced; scheduling state is kept.
func (db *DB) UpsertCard(ctx context.Context, deckID string, card domain.Card) error {
	return upsertCard(ctx, db.conn, deckID, card)
}

func upsertCard(ctx context.Context, ex sqlx.ExecerContext, deckID string, card domain.Card) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO cards (deck_id, id, front, back, context, interval_days, repetition, ease_factor, next_review, position)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, (SELECT COALESCE(MAX(position), 0) + 1 FROM cards WHERE deck_id = ?))
		ON CONFLICT(deck_id, id) DO UPDATE SET
			front = excluded.front,
			back = excluded.back,
			context = excluded.context
	`,
		deckID,
		card.ID,
		card.Front,
		card.Back,
		card.Context,
		nullInt(card.Interval),
		nullInt(card.Repetition),
		nullFloat(card.EaseFactor),
		nullString(card.NextReview),
		deckID,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert card %s in deck %s: %w", card.ID, deckID, err)
	}
	return nil
}

// GetCard retrieves one card. It returns domain.ErrCardNotFound when the deck
// holds no card with that ID.
func (db *DB) GetCard(ctx context.Context, deckID, cardID string) (*domain.Card, error) {
	var row cardRow
	err := db.conn.GetContext(ctx, &row, `SELECT `+cardColumns+` FROM cards WHERE deck_id = ? AND id = ?`, deckID, cardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("card %s in deck %s: %w", cardID, deckID, domain.ErrCardNotFound)
		}
		return nil, fmt.Errorf("failed to get card %s: %w", cardID, err)
	}
	return row.toDomain(), nil
}

// ListCards retrieves the cards of a deck in insertion order.
func (db *DB) ListCards(ctx context.Context, deckID string) ([]*domain.Card, error) {
	var rows []cardRow
	if err := db.conn.SelectContext(ctx, &rows, `SELECT `+cardColumns+` FROM cards WHERE deck_id = ? ORDER BY position`, deckID); err != nil {
		return nil, fmt.Errorf("failed to list cards for deck %s: %w", deckID, err)
	}
	cards := make([]*domain.Card, 0, len(rows))
	for _, r := range rows {
		cards = append(cards, r.toDomain())
	}
	return cards, nil
}

// ListCardIDs retrieves the IDs of every card in a deck.
func (db *DB) ListCardIDs(ctx context.Context, deckID string) ([]string, error) {
	var ids []string
	if err := db.conn.SelectContext(ctx, &ids, `SELECT id FROM cards WHERE deck_id = ?`, deckID); err != nil {
		return nil, fmt.Errorf("failed to list card ids for deck %s: %w", deckID, err)
	}
	return ids, nil
}

// UpdateCardSchedule writes the four scheduling fields of card.
func (db *DB) UpdateCardSchedule(ctx context.Context, deckID string, card domain.Card) error {
	return updateCardSchedule(ctx, db.conn, deckID, card)
}

func updateCardSchedule(ctx context.Context, ex sqlx.ExecerContext, deckID string, card domain.Card) error {
	res, err := ex.ExecContext(ctx, `
		UPDATE cards
		SET interval_days = ?, repetition = ?, ease_factor = ?, next_review = ?
		WHERE deck_id = ? AND id = ?
	`,
		nullInt(card.Interval),
		nullInt(card.Repetition),
		nullFloat(card.EaseFactor),
		nullString(card.NextReview),
		deckID,
		card.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule for card %s: %w", card.ID, err)
	}
	return expectRow(res, fmt.Errorf("card %s in deck %s: %w", card.ID, deckID, domain.ErrCardNotFound))
}

// DeleteCard removes a card from a deck.
func (db *DB) DeleteCard(ctx context.Context, deckID, cardID string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM cards WHERE deck_id = ? AND id = ?`, deckID, cardID)
	if err != nil {
		return fmt.Errorf("failed to delete card %s: %w", cardID, err)
	}
	return expectRow(res, fmt.Errorf("card %s in deck %s: %w", cardID, deckID, domain.ErrCardNotFound))
}
