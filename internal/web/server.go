// Package web serves the knoldeck JSON API.
package web

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/conorfennell/knoldeck/internal/clock"
	"github.com/conorfennell/knoldeck/internal/session"
	"github.com/conorfennell/knoldeck/internal/storage"
	"github.com/conorfennell/knoldeck/internal/sync"
	"github.com/go-playground/validator/v10"
)

// Options configures a Server.
type Options struct {
	Clock  clock.Clock
	Logger *slog.Logger
	// QueueLimit caps review queues when the request has no limit parameter.
	QueueLimit int
}

// Server holds the dependencies for the HTTP server.
type Server struct {
	db         *storage.DB
	sessions   *session.Service
	syncer     *sync.Syncer
	clock      clock.Clock
	logger     *slog.Logger
	validate   *validator.Validate
	queueLimit int
	router     *http.ServeMux
}

// NewServer creates and configures a new server.
func NewServer(db *storage.DB, sessions *session.Service, syncer *sync.Syncer, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		db:         db,
		sessions:   sessions,
		syncer:     syncer,
		clock:      clock.OrSystem(opts.Clock),
		logger:     logger,
		validate:   newValidator(),
		queueLimit: opts.QueueLimit,
		router:     http.NewServeMux(),
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	s.router.ServeHTTP(rec, r)
	s.logger.DebugContext(r.Context(), "request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"duration", time.Since(start),
	)
}

// routes sets up the routing for the server.
func (s *Server) routes() {
	s.router.HandleFunc("GET /decks", s.handleListDecks())
	s.router.HandleFunc("POST /decks", s.handleCreateDeck())
	s.router.HandleFunc("GET /decks/{id}", s.handleGetDeck())
	s.router.HandleFunc("DELETE /decks/{id}", s.handleDeleteDeck())
	s.router.HandleFunc("GET /decks/{id}/stats", s.handleDeckStats())
	s.router.HandleFunc("GET /decks/{id}/reviews", s.handleReviewLogs())

	// Review routes
	s.router.HandleFunc("GET /due", s.handleQueue())
	s.router.HandleFunc("GET /decks/{id}/due", s.handleQueue())
	s.router.HandleFunc("GET /decks/{id}/cards/{cardID}/preview", s.handlePreview())
	s.router.HandleFunc("POST /decks/{id}/cards/{cardID}/review", s.handleReview())

	// Source management routes
	s.router.HandleFunc("GET /sources", s.handleListSources())
	s.router.HandleFunc("POST /sources", s.handleAddSource())
	s.router.HandleFunc("DELETE /sources/{id}", s.handleDeleteSource())
	s.router.HandleFunc("POST /sync", s.handlePostSync())
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
