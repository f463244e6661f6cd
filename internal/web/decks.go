package web

import (
	"net/http"
	"sort"
	"time"

	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/knol"
	"github.com/conorfennell/knoldeck/internal/sm2"
	"github.com/conorfennell/knoldeck/internal/stats"
)

type deckListItem struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	SourceID     *int64     `json:"source_id,omitempty"`
	LastReviewed *time.Time `json:"last_reviewed,omitempty"`
	Cards        int        `json:"cards"`
	Due          int        `json:"due"`
}

type cardPayload struct {
	Front   string `json:"front" validate:"required"`
	Back    string `json:"back" validate:"required"`
	Context string `json:"context"`
}

type createDeckRequest struct {
	Name   string        `json:"name" validate:"required"`
	UserID string        `json:"user_id"`
	Cards  []cardPayload `json:"cards" validate:"dive"`
}

type reviewRequest struct {
	Grade *int `json:"grade" validate:"required,min=0,max=5"`
}

type previewItem struct {
	Grade      int       `json:"grade"`
	Label      string    `json:"label"`
	Interval   int       `json:"interval"`
	Repetition int       `json:"repetition"`
	EaseFactor float64   `json:"ease_factor"`
	NextReview time.Time `json:"next_review"`
}

// handleListDecks lists every deck with its card and due counts.
func (s *Server) handleListDecks() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		decks, err := s.db.ListDecks(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		counts, err := s.sessions.DueCounts(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}

		items := make([]deckListItem, 0, len(decks))
		for _, d := range decks {
			items = append(items, deckListItem{
				ID:           d.ID,
				Name:         d.Name,
				SourceID:     d.SourceID,
				LastReviewed: d.LastReviewed,
				Cards:        len(d.Cards),
				Due:          counts[d.ID],
			})
		}
		s.writeJSON(w, http.StatusOK, items)
	}
}

// handleCreateDeck creates a deck from a list of cards. Card IDs are derived
// from content, so duplicate cards in the payload collapse into one.
func (s *Server) handleCreateDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createDeckRequest
		if !s.decode(w, r, &req) {
			return
		}

		cards := make([]domain.Card, 0, len(req.Cards))
		for _, c := range req.Cards {
			cards = append(cards, domain.Card{Front: c.Front, Back: c.Back, Context: c.Context})
		}
		cards = knol.AssignIDs(cards)

		deck := &domain.Deck{Name: req.Name, UserID: req.UserID}
		for i := range cards {
			deck.Cards = append(deck.Cards, &cards[i])
		}
		if err := s.db.CreateDeck(r.Context(), deck); err != nil {
			s.writeError(w, r, err)
			return
		}
		s.logger.InfoContext(r.Context(), "deck created", "deck_id", deck.ID, "cards", len(deck.Cards))
		s.writeJSON(w, http.StatusCreated, deck)
	}
}

func (s *Server) handleGetDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deck, err := s.db.GetDeck(r.Context(), r.PathValue("id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, deck)
	}
}

func (s *Server) handleDeleteDeck() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.DeleteDeck(r.Context(), r.PathValue("id")); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *Server) handleDeckStats() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deck, err := s.db.GetDeck(r.Context(), r.PathValue("id"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, stats.Summarize(deck, s.clock.Now()))
	}
}

// handleReviewLogs returns a deck's review history, newest first.
func (s *Server) handleReviewLogs() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryLimit(r, 0)
		if err != nil {
			s.badRequest(w, err.Error())
			return
		}
		deckID := r.PathValue("id")
		if _, err := s.db.GetDeck(r.Context(), deckID); err != nil {
			s.writeError(w, r, err)
			return
		}
		logs, err := s.db.ListReviewLogs(r.Context(), deckID, limit)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, logs)
	}
}

// handleQueue returns the due cards of one deck, or of all decks when the
// route has no deck ID.
func (s *Server) handleQueue() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := queryLimit(r, s.queueLimit)
		if err != nil {
			s.badRequest(w, err.Error())
			return
		}
		queue, err := s.sessions.Queue(r.Context(), r.PathValue("id"), limit)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, queue)
	}
}

// handlePreview shows the outcome of every grade for a card.
func (s *Server) handlePreview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		outcomes, err := s.sessions.Preview(r.Context(), r.PathValue("id"), r.PathValue("cardID"))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		items := make([]previewItem, 0, len(outcomes))
		for g, res := range outcomes {
			items = append(items, previewItem{
				Grade:      int(g),
				Label:      g.String(),
				Interval:   res.Interval,
				Repetition: res.Repetition,
				EaseFactor: res.EaseFactor,
				NextReview: res.NextReview,
			})
		}
		sort.Slice(items, func(i, j int) bool { return items[i].Grade < items[j].Grade })
		s.writeJSON(w, http.StatusOK, items)
	}
}

// handleReview grades a card and returns it with its new schedule.
func (s *Server) handleReview() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req reviewRequest
		if !s.decode(w, r, &req) {
			return
		}
		card, err := s.sessions.Grade(r.Context(), r.PathValue("id"), r.PathValue("cardID"), sm2.Grade(*req.Grade))
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, http.StatusOK, card)
	}
}
