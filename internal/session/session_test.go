package session

import (
	"context"
	"testing"
	"time"

	"github.com/conorfennell/knoldeck/internal/clock"
	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/sm2"
	"github.com/conorfennell/knoldeck/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mutableClock struct{ now time.Time }

func (c *mutableClock) Now() time.Time { return c.now }

func setup(t *testing.T, c clock.Clock) (*Service, *storage.DB) {
	t.Helper()
	db, err := storage.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return NewService(db, Options{Clock: c, Seed: 1}), db
}

func seedDecks(t *testing.T, db *storage.DB) (*domain.Deck, *domain.Deck) {
	t.Helper()
	ctx := context.Background()
	a := &domain.Deck{Name: "A", Cards: []*domain.Card{
		{ID: "a1", Front: "1"},
		{ID: "a2", Front: "2", NextReview: "2099-01-01"},
	}}
	b := &domain.Deck{Name: "B", Cards: []*domain.Card{
		{ID: "b1", Front: "1"},
		{ID: "b2", Front: "2", NextReview: "not a date"},
	}}
	require.NoError(t, db.CreateDeck(ctx, a))
	require.NoError(t, db.CreateDeck(ctx, b))
	return a, b
}

func TestQueue(t *testing.T) {
	svc, db := setup(t, clock.Fixed(time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)))
	a, b := seedDecks(t, db)
	ctx := context.Background()

	all, err := svc.Queue(ctx, "", 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	onlyA, err := svc.Queue(ctx, a.ID, 0)
	require.NoError(t, err)
	require.Len(t, onlyA, 1)
	assert.Equal(t, "a1", onlyA[0].Card.ID)
	assert.Equal(t, a.ID, onlyA[0].DeckID)
	assert.Equal(t, "A", onlyA[0].DeckName)

	onlyB, err := svc.Queue(ctx, b.ID, 1)
	require.NoError(t, err)
	assert.Len(t, onlyB, 1)

	_, err = svc.Queue(ctx, "missing", 0)
	assert.ErrorIs(t, err, domain.ErrDeckNotFound)
}

func TestQueueShuffleKeepsMembers(t *testing.T) {
	db, err := storage.Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	seedDecks(t, db)

	svc := NewService(db, Options{Clock: clock.Fixed(time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)), Shuffle: true, Seed: 42})
	queue, err := svc.Queue(context.Background(), "", 0)
	require.NoError(t, err)

	ids := make([]string, 0, len(queue))
	for _, dc := range queue {
		ids = append(ids, dc.Card.ID)
	}
	assert.ElementsMatch(t, []string{"a1", "b1", "b2"}, ids)
}

func TestGradeEveningThenMorning(t *testing.T) {
	clk := &mutableClock{now: time.Date(2025, 6, 15, 23, 0, 0, 0, time.Local)}
	svc, db := setup(t, clk)
	a, _ := seedDecks(t, db)
	ctx := context.Background()

	updated, err := svc.Grade(ctx, a.ID, "a1", sm2.CorrectHesitation)
	require.NoError(t, err)
	require.NotNil(t, updated.Interval)
	assert.Equal(t, 1, *updated.Interval)
	assert.Equal(t, 1, *updated.Repetition)
	assert.InDelta(t, 2.5, *updated.EaseFactor, 1e-9)

	next, ok := clock.ParseDate(updated.NextReview)
	require.True(t, ok)
	assert.True(t, next.Equal(time.Date(2025, 6, 16, 0, 0, 0, 0, time.Local)))

	queue, err := svc.Queue(ctx, a.ID, 0)
	require.NoError(t, err)
	assert.Empty(t, queue, "graded card must leave tonight's queue")

	clk.now = time.Date(2025, 6, 16, 6, 0, 0, 0, time.Local)
	queue, err = svc.Queue(ctx, a.ID, 0)
	require.NoError(t, err)
	require.Len(t, queue, 1)
	assert.Equal(t, "a1", queue[0].Card.ID)

	deck, err := db.GetDeck(ctx, a.ID)
	require.NoError(t, err)
	require.NotNil(t, deck.LastReviewed)

	logs, err := db.ListReviewLogs(ctx, a.ID, 0)
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, int(sm2.CorrectHesitation), logs[0].Grade)
}

func TestGradeSequence(t *testing.T) {
	clk := &mutableClock{now: time.Date(2025, 6, 1, 9, 0, 0, 0, time.Local)}
	svc, db := setup(t, clk)
	a, _ := seedDecks(t, db)
	ctx := context.Background()

	wantIntervals := []int{1, 6, 15}
	for i, want := range wantIntervals {
		card, err := svc.Grade(ctx, a.ID, "a1", sm2.CorrectHesitation)
		require.NoError(t, err)
		assert.Equal(t, want, *card.Interval, "review %d", i+1)
		assert.Equal(t, i+1, *card.Repetition)
		clk.now = clk.now.AddDate(0, 0, want)
	}

	card, err := svc.Grade(ctx, a.ID, "a1", sm2.Blackout)
	require.NoError(t, err)
	assert.Equal(t, 1, *card.Interval)
	assert.Equal(t, 0, *card.Repetition)
	assert.GreaterOrEqual(t, *card.EaseFactor, sm2.MinEaseFactor)
}

func TestGradeErrors(t *testing.T) {
	svc, db := setup(t, clock.Fixed(time.Now()))
	a, _ := seedDecks(t, db)
	ctx := context.Background()

	_, err := svc.Grade(ctx, a.ID, "a1", 6)
	assert.ErrorIs(t, err, domain.ErrInvalidGrade)

	_, err = svc.Grade(ctx, a.ID, "missing", sm2.Perfect)
	assert.ErrorIs(t, err, domain.ErrCardNotFound)
}

func TestPreviewDoesNotPersist(t *testing.T) {
	svc, db := setup(t, clock.Fixed(time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)))
	a, _ := seedDecks(t, db)
	ctx := context.Background()

	preview, err := svc.Preview(ctx, a.ID, "a1")
	require.NoError(t, err)
	assert.Len(t, preview, 6)
	assert.Equal(t, 1, preview[sm2.Perfect].Interval)

	card, err := db.GetCard(ctx, a.ID, "a1")
	require.NoError(t, err)
	assert.Nil(t, card.Repetition)
}

func TestDueCounts(t *testing.T) {
	svc, db := setup(t, clock.Fixed(time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)))
	a, b := seedDecks(t, db)

	counts, err := svc.DueCounts(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, counts[a.ID])
	assert.Equal(t, 2, counts[b.ID])
}
