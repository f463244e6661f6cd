package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type deckRow struct {
	ID           string        `db:"id"`
	UserID       string        `db:"user_id"`
	Name         string        `db:"name"`
	LastReviewed sql.NullTime  `db:"last_reviewed"`
	SourceID     sql.NullInt64 `db:"source_id"`
}

func (r deckRow) toDomain() *domain.Deck {
	d := &domain.Deck{ID: r.ID, UserID: r.UserID, Name: r.Name}
	if r.LastReviewed.Valid {
		t := r.LastReviewed.Time
		d.LastReviewed = &t
	}
	if r.SourceID.Valid {
		id := r.SourceID.Int64
		d.SourceID = &id
	}
	return d
}

const deckColumns = `id, user_id, name, last_reviewed, source_id`

// CreateDeck inserts a new deck. An empty deck.ID is replaced with a fresh UUID.
// Cards attached to the deck are inserted as well.
func (db *DB) CreateDeck(ctx context.Context, deck *domain.Deck) error {
	if deck.ID == "" {
		deck.ID = uuid.NewString()
	}
	var sourceID sql.NullInt64
	if deck.SourceID != nil {
		sourceID = sql.NullInt64{Int64: *deck.SourceID, Valid: true}
	}
	var lastReviewed sql.NullTime
	if deck.LastReviewed != nil {
		lastReviewed = sql.NullTime{Time: *deck.LastReviewed, Valid: true}
	}

	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO decks (id, user_id, name, last_reviewed, source_id, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
		`, deck.ID, deck.UserID, deck.Name, lastReviewed, sourceID, time.Now())
		if err != nil {
			return fmt.Errorf("failed to insert deck %s: %w", deck.Name, err)
		}
		for _, card := range deck.Cards {
			if card == nil {
				continue
			}
			if err := upsertCard(ctx, tx, deck.ID, *card); err != nil {
				return err
			}
		}
		return nil
	})
}

// GetDeck retrieves a deck and its cards. It returns domain.ErrDeckNotFound
// when no deck has the given ID.
func (db *DB) GetDeck(ctx context.Context, id string) (*domain.Deck, error) {
	var row deckRow
	err := db.conn.GetContext(ctx, &row, `SELECT `+deckColumns+` FROM decks WHERE id = ?`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("deck %s: %w", id, domain.ErrDeckNotFound)
		}
		return nil, fmt.Errorf("failed to get deck %s: %w", id, err)
	}

	deck := row.toDomain()
	deck.Cards, err = db.ListCards(ctx, id)
	if err != nil {
		return nil, err
	}
	return deck, nil
}

// ListDecks retrieves every deck with its cards, ordered by name.
func (db *DB) ListDecks(ctx context.Context) ([]*domain.Deck, error) {
	var rows []deckRow
	if err := db.conn.SelectContext(ctx, &rows, `SELECT `+deckColumns+` FROM decks ORDER BY name, id`); err != nil {
		return nil, fmt.Errorf("failed to list decks: %w", err)
	}

	var cards []cardRow
	if err := db.conn.SelectContext(ctx, &cards, `SELECT `+cardColumns+` FROM cards ORDER BY deck_id, position`); err != nil {
		return nil, fmt.Errorf("failed to list cards: %w", err)
	}

	byDeck := make(map[string][]*domain.Card, len(rows))
	for _, c := range cards {
		byDeck[c.DeckID] = append(byDeck[c.DeckID], c.toDomain())
	}

	decks := make([]*domain.Deck, 0, len(rows))
	for _, r := range rows {
		d := r.toDomain()
		d.Cards = byDeck[r.ID]
		decks = append(decks, d)
	}
	return decks, nil
}

// FindDeckBySource retrieves the deck a source produced under the given name.
// It returns nil, nil when there is no such deck.
func (db *DB) FindDeckBySource(ctx context.Context, sourceID int64, name string) (*domain.Deck, error) {
	var row deckRow
	err := db.conn.GetContext(ctx, &row, `SELECT `+deckColumns+` FROM decks WHERE source_id = ? AND name = ?`, sourceID, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find deck %s for source %d: %w", name, sourceID, err)
	}
	return row.toDomain(), nil
}

// ListDecksBySource retrieves the decks created from a source, without cards.
func (db *DB) ListDecksBySource(ctx context.Context, sourceID int64) ([]*domain.Deck, error) {
	var rows []deckRow
	if err := db.conn.SelectContext(ctx, &rows, `SELECT `+deckColumns+` FROM decks WHERE source_id = ?`, sourceID); err != nil {
		return nil, fmt.Errorf("failed to list decks for source %d: %w", sourceID, err)
	}
	decks := make([]*domain.Deck, 0, len(rows))
	for _, r := range rows {
		decks = append(decks, r.toDomain())
	}
	return decks, nil
}

// TouchDeck sets the deck's last_reviewed timestamp.
func (db *DB) TouchDeck(ctx context.Context, id string, at time.Time) error {
	return touchDeck(ctx, db.conn, id, at)
}

func touchDeck(ctx context.Context, ex sqlx.ExecerContext, id string, at time.Time) error {
	res, err := ex.ExecContext(ctx, `UPDATE decks SET last_reviewed = ? WHERE id = ?`, at, id)
	if err != nil {
		return fmt.Errorf("failed to update last reviewed for deck %s: %w", id, err)
	}
	return expectRow(res, fmt.Errorf("deck %s: %w", id, domain.ErrDeckNotFound))
}

// DeleteDeck removes a deck together with its cards and review logs.
func (db *DB) DeleteDeck(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete deck %s: %w", id, err)
	}
	return expectRow(res, fmt.Errorf("deck %s: %w", id, domain.ErrDeckNotFound))
}

func expectRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}
