package web

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/conorfennell/knoldeck/internal/storage"
	"github.com/conorfennell/knoldeck/internal/sync"
)

type sourceItem struct {
	ID          int64      `json:"id"`
	Path        string     `json:"path"`
	Type        string     `json:"type"`
	LastScanned *time.Time `json:"last_scanned,omitempty"`
}

func toSourceItem(src storage.Source) sourceItem {
	item := sourceItem{ID: src.ID, Path: src.Path, Type: src.Type}
	if src.LastScanned.Valid {
		t := src.LastScanned.Time
		item.LastScanned = &t
	}
	return item
}

type addSourceRequest struct {
	Path string `json:"path" validate:"required"`
}

type syncResponse struct {
	Sources      int      `json:"sources"`
	Decks        int      `json:"decks"`
	Cards        int      `json:"cards_added"`
	CardsRemoved int      `json:"cards_removed"`
	DecksRemoved int      `json:"decks_removed"`
	Errors       []string `json:"errors"`
}

func (s *Server) handleListSources() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sources, err := s.db.GetAllSources(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		items := make([]sourceItem, 0, len(sources))
		for _, src := range sources {
			items = append(items, toSourceItem(src))
		}
		s.writeJSON(w, http.StatusOK, items)
	}
}

// handleAddSource registers a local directory or git URL. Decks appear after
// the next sync.
func (s *Server) handleAddSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req addSourceRequest
		if !s.decode(w, r, &req) {
			return
		}
		src, err := sync.AddSource(r.Context(), s.db, req.Path)
		if err != nil {
			if errors.Is(err, sync.ErrSourceExists) {
				s.writeError(w, r, err)
				return
			}
			s.badRequest(w, err.Error())
			return
		}
		s.writeJSON(w, http.StatusCreated, toSourceItem(*src))
	}
}

// handleDeleteSource deletes a source together with the decks it produced.
func (s *Server) handleDeleteSource() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
		if err != nil {
			s.badRequest(w, "invalid source ID")
			return
		}
		if err := s.db.DeleteSource(r.Context(), id); err != nil {
			s.writeError(w, r, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// handlePostSync triggers a manual sync and waits for it to finish.
func (s *Server) handlePostSync() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report, err := s.syncer.Run(r.Context())
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		resp := syncResponse{
			Sources:      report.Sources,
			Decks:        report.Decks,
			Cards:        report.Cards,
			CardsRemoved: report.CardsRemoved,
			DecksRemoved: report.DecksRemoved,
			Errors:       make([]string, 0, len(report.Errors)),
		}
		for _, e := range report.Errors {
			resp.Errors = append(resp.Errors, e.Error())
		}
		s.writeJSON(w, http.StatusOK, resp)
	}
}
