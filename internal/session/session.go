// Package session drives review sessions: it builds the queue of due cards,
// grades cards through the SM-2 scheduler and persists the outcome.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/conorfennell/knoldeck/internal/clock"
	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/due"
	"github.com/conorfennell/knoldeck/internal/sm2"
)

// Store is the persistence the session needs.
type Store interface {
	ListDecks(ctx context.Context) ([]*domain.Deck, error)
	GetDeck(ctx context.Context, id string) (*domain.Deck, error)
	GetCard(ctx context.Context, deckID, cardID string) (*domain.Card, error)
	RecordReview(ctx context.Context, card domain.Card, log *domain.ReviewLog) error
}

// Options configures a Service.
type Options struct {
	Clock   clock.Clock
	Logger  *slog.Logger
	Shuffle bool
	// Seed fixes the shuffle order; zero seeds from the clock.
	Seed int64
}

// Service runs review sessions against a Store.
type Service struct {
	store     Store
	clock     clock.Clock
	scheduler *sm2.Scheduler
	selector  *due.Selector
	logger    *slog.Logger
	shuffle   bool

	mu  sync.Mutex
	rng *rand.Rand
}

// NewService creates a Service. The scheduler and selector share opts.Clock.
func NewService(store Store, opts Options) *Service {
	c := clock.OrSystem(opts.Clock)
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	seed := opts.Seed
	if seed == 0 {
		seed = c.Now().UnixNano()
	}
	return &Service{
		store:     store,
		clock:     c,
		scheduler: sm2.NewScheduler(c),
		selector:  due.NewSelector(c),
		logger:    logger,
		shuffle:   opts.Shuffle,
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Queue returns the cards due for review, optionally limited to one deck.
// A limit of zero or less returns every due card.
func (s *Service) Queue(ctx context.Context, deckID string, limit int) ([]domain.DueCard, error) {
	decks, err := s.decks(ctx, deckID)
	if err != nil {
		return nil, err
	}

	queue := s.selector.DueCards(decks, deckID)
	if s.shuffle {
		s.mu.Lock()
		s.rng.Shuffle(len(queue), func(i, j int) { queue[i], queue[j] = queue[j], queue[i] })
		s.mu.Unlock()
	}
	if limit > 0 && len(queue) > limit {
		queue = queue[:limit]
	}
	s.logger.DebugContext(ctx, "built review queue", "deck_id", deckID, "due", len(queue))
	return queue, nil
}

// DueCounts returns the number of due cards in every deck.
func (s *Service) DueCounts(ctx context.Context) (map[string]int, error) {
	decks, err := s.store.ListDecks(ctx)
	if err != nil {
		return nil, err
	}
	return s.selector.CountByDeck(decks), nil
}

func (s *Service) decks(ctx context.Context, deckID string) ([]*domain.Deck, error) {
	if deckID == "" {
		return s.store.ListDecks(ctx)
	}
	deck, err := s.store.GetDeck(ctx, deckID)
	if err != nil {
		return nil, err
	}
	return []*domain.Deck{deck}, nil
}

// Grade schedules a card after a review and persists the new state.
// It returns domain.ErrInvalidGrade for grades outside 0..5.
func (s *Service) Grade(ctx context.Context, deckID, cardID string, grade sm2.Grade) (domain.Card, error) {
	if !grade.IsValid() {
		return domain.Card{}, fmt.Errorf("grade %d: %w", int(grade), domain.ErrInvalidGrade)
	}

	card, err := s.store.GetCard(ctx, deckID, cardID)
	if err != nil {
		return domain.Card{}, err
	}

	now := s.clock.Now()
	result := s.scheduler.Schedule(sm2.StateOf(*card), grade)
	updated := sm2.Apply(*card, result)

	log := &domain.ReviewLog{
		DeckID:     deckID,
		CardID:     cardID,
		Grade:      int(grade),
		Interval:   result.Interval,
		EaseFactor: result.EaseFactor,
		ReviewedAt: now,
	}
	if err := s.store.RecordReview(ctx, updated, log); err != nil {
		return domain.Card{}, fmt.Errorf("failed to record review of card %s: %w", cardID, err)
	}

	s.logger.InfoContext(ctx, "card reviewed",
		"deck_id", deckID,
		"card_id", cardID,
		"grade", grade.String(),
		"interval", result.Interval,
		"ease_factor", result.EaseFactor,
		"next_review", result.NextReview.Format(time.DateOnly),
	)
	return updated, nil
}

// Preview returns what every grade would do to a card without saving anything.
func (s *Service) Preview(ctx context.Context, deckID, cardID string) (map[sm2.Grade]sm2.Result, error) {
	card, err := s.store.GetCard(ctx, deckID, cardID)
	if err != nil {
		return nil, err
	}
	return s.scheduler.Preview(sm2.StateOf(*card)), nil
}
