package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type reviewLogRow struct {
	ID         string    `db:"id"`
	DeckID     string    `db:"deck_id"`
	CardID     string    `db:"card_id"`
	Grade      int       `db:"grade"`
	Interval   int       `db:"interval_days"`
	EaseFactor float64   `db:"ease_factor"`
	ReviewedAt time.Time `db:"reviewed_at"`
}

// RecordReview persists the outcome of a review in one transaction: the
// card's new schedule, a review log entry and the deck's last_reviewed time.
func (db *DB) RecordReview(ctx context.Context, card domain.Card, log *domain.ReviewLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	return db.inTx(ctx, func(tx *sqlx.Tx) error {
		if err := updateCardSchedule(ctx, tx, log.DeckID, card); err != nil {
			return err
		}
		if err := insertReviewLog(ctx, tx, log); err != nil {
			return err
		}
		return touchDeck(ctx, tx, log.DeckID, log.ReviewedAt)
	})
}

// InsertReviewLog stores a review log entry. An empty ID is replaced with a fresh UUID.
func (db *DB) InsertReviewLog(ctx context.Context, log *domain.ReviewLog) error {
	if log.ID == "" {
		log.ID = uuid.NewString()
	}
	return insertReviewLog(ctx, db.conn, log)
}

func insertReviewLog(ctx context.Context, ex sqlx.ExecerContext, log *domain.ReviewLog) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO review_logs (id, deck_id, card_id, grade, interval_days, ease_factor, reviewed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, log.ID, log.DeckID, log.CardID, log.Grade, log.Interval, log.EaseFactor, log.ReviewedAt)
	if err != nil {
		return fmt.Errorf("failed to insert review log for card %s: %w", log.CardID, err)
	}
	return nil
}

// ListReviewLogs retrieves the most recent review logs of a deck, newest
// first. A limit of zero or less returns every entry.
func (db *DB) ListReviewLogs(ctx context.Context, deckID string, limit int) ([]domain.ReviewLog, error) {
	if limit <= 0 {
		limit = -1
	}
	var rows []reviewLogRow
	err := db.conn.SelectContext(ctx, &rows, `
		SELECT id, deck_id, card_id, grade, interval_days, ease_factor, reviewed_at
		FROM review_logs
		WHERE deck_id = ?
		ORDER BY reviewed_at DESC
		LIMIT ?
	`, deckID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list review logs for deck %s: %w", deckID, err)
	}

	logs := make([]domain.ReviewLog, 0, len(rows))
	for _, r := range rows {
		logs = append(logs, domain.ReviewLog(r))
	}
	return logs, nil
}
