// Package sync reconciles deck sources (local directories and git
// repositories of markdown files) with the database.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/conorfennell/knoldeck/internal/clock"
	"github.com/conorfennell/knoldeck/internal/domain"
	"github.com/conorfennell/knoldeck/internal/gitsource"
	"github.com/conorfennell/knoldeck/internal/knol"
	"github.com/conorfennell/knoldeck/internal/parser"
	"github.com/conorfennell/knoldeck/internal/storage"
)

// ErrSourceExists is returned by AddSource when the path is already registered.
var ErrSourceExists = errors.New("source already exists")

// Syncer walks every source and brings its decks up to date.
type Syncer struct {
	db       *storage.DB
	reposDir string
	logger   *slog.Logger
	clock    clock.Clock
}

// Options configures a Syncer.
type Options struct {
	// ReposDir is where git sources are checked out. Defaults to "repos".
	ReposDir string
	Logger   *slog.Logger
	Clock    clock.Clock
}

// Report summarizes one sync run.
type Report struct {
	Sources      int
	Decks        int
	Cards        int
	CardsRemoved int
	DecksRemoved int
	Errors       []error
}

func (r *Report) add(o Report) {
	r.Sources += o.Sources
	r.Decks += o.Decks
	r.Cards += o.Cards
	r.CardsRemoved += o.CardsRemoved
	r.DecksRemoved += o.DecksRemoved
	r.Errors = append(r.Errors, o.Errors...)
}

// New creates a Syncer.
func New(db *storage.DB, opts Options) *Syncer {
	if opts.ReposDir == "" {
		opts.ReposDir = "repos"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Syncer{
		db:       db,
		reposDir: opts.ReposDir,
		logger:   opts.Logger,
		clock:    clock.OrSystem(opts.Clock),
	}
}

// AddSource registers a local directory or git URL as a deck source.
// Local paths are stored as absolute paths.
func AddSource(ctx context.Context, db *storage.DB, path string) (*storage.Source, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("source path cannot be empty")
	}

	sourceType := storage.SourceLocal
	if gitsource.IsGitURL(path) {
		sourceType = storage.SourceGit
	} else {
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", abs, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("source %s is not a directory", abs)
		}
		path = abs
	}

	existing, err := db.FindSourceByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, fmt.Errorf("%s: %w", path, ErrSourceExists)
	}

	id, err := db.InsertSource(ctx, path, sourceType)
	if err != nil {
		return nil, err
	}
	return &storage.Source{ID: id, Path: path, Type: sourceType}, nil
}

// Run iterates over all sources and reconciles them. A failing source is
// logged and recorded in the report; the remaining sources still sync.
func (s *Syncer) Run(ctx context.Context) (*Report, error) {
	s.logger.InfoContext(ctx, "starting sync for all sources")
	sources, err := s.db.GetAllSources(ctx)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	if len(sources) == 0 {
		s.logger.InfoContext(ctx, "no sources configured")
		return report, nil
	}

	for _, source := range sources {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		r, err := s.SyncSource(ctx, source)
		if err != nil {
			s.logger.ErrorContext(ctx, "failed to sync source", "id", source.ID, "path", source.Path, "error", err)
			report.Errors = append(report.Errors, fmt.Errorf("source %s: %w", source.Path, err))
			continue
		}
		report.add(*r)
	}

	s.logger.InfoContext(ctx, "sync complete",
		"sources", report.Sources,
		"decks", report.Decks,
		"cards", report.Cards,
		"errors", len(report.Errors),
	)
	return report, nil
}

// SyncSource reconciles a single source. Git sources are cloned or pulled first.
func (s *Syncer) SyncSource(ctx context.Context, source storage.Source) (*Report, error) {
	s.logger.InfoContext(ctx, "syncing source", "id", source.ID, "type", source.Type, "path", source.Path)

	root := source.Path
	switch source.Type {
	case storage.SourceLocal:
	case storage.SourceGit:
		localRepoPath, err := gitsource.LocalPath(s.reposDir, source.Path)
		if err != nil {
			return nil, err
		}
		if err := gitsource.Sync(ctx, s.logger, source.Path, localRepoPath); err != nil {
			return nil, err
		}
		root = localRepoPath
	default:
		return nil, fmt.Errorf("unknown source type %q", source.Type)
	}

	return s.reconcile(ctx, source.ID, root)
}

func (s *Syncer) reconcile(ctx context.Context, sourceID int64, root string) (*Report, error) {
	report := &Report{Sources: 1}
	seenDecks := make(map[string]bool)

	walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		name := filepath.ToSlash(rel)

		doc, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			report.Errors = append(report.Errors, fmt.Errorf("parsing %s: %w", path, parseErr))
			return nil
		}
		if len(doc.Cards) == 0 {
			return nil
		}

		seenDecks[name] = true
		added, removed, err := s.reconcileDeck(ctx, sourceID, name, knol.AssignIDs(doc.Cards))
		if err != nil {
			report.Errors = append(report.Errors, fmt.Errorf("deck %s: %w", name, err))
			return nil
		}
		report.Decks++
		report.Cards += added
		report.CardsRemoved += removed
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("error walking %s: %w", root, walkErr)
	}

	decks, err := s.db.ListDecksBySource(ctx, sourceID)
	if err != nil {
		return nil, err
	}
	for _, deck := range decks {
		if seenDecks[deck.Name] {
			continue
		}
		s.logger.InfoContext(ctx, "deck file gone, deleting deck", "deck", deck.Name)
		if err := s.db.DeleteDeck(ctx, deck.ID); err != nil {
			report.Errors = append(report.Errors, err)
			continue
		}
		report.DecksRemoved++
	}

	if err := s.db.UpdateSourceLastScanned(ctx, sourceID, s.clock.Now()); err != nil {
		s.logger.WarnContext(ctx, "failed to update last scanned for source", "source_id", sourceID, "error", err)
	}

	s.logger.InfoContext(ctx, "reconciliation complete",
		"path", root,
		"decks", report.Decks,
		"cards", report.Cards,
		"cards_removed", report.CardsRemoved,
		"decks_removed", report.DecksRemoved,
		"errors", len(report.Errors),
	)
	return report, nil
}

// reconcileDeck upserts the file's cards into its deck and removes cards that
// are no longer in the file. Existing cards keep their scheduling state.
func (s *Syncer) reconcileDeck(ctx context.Context, sourceID int64, name string, cards []domain.Card) (int, int, error) {
	deck, err := s.db.FindDeckBySource(ctx, sourceID, name)
	if err != nil {
		return 0, 0, err
	}
	if deck == nil {
		deck = &domain.Deck{Name: name, SourceID: &sourceID}
		for i := range cards {
			deck.Cards = append(deck.Cards, &cards[i])
		}
		if err := s.db.CreateDeck(ctx, deck); err != nil {
			return 0, 0, err
		}
		s.logger.InfoContext(ctx, "new deck found", "deck", name, "cards", len(cards))
		return len(cards), 0, nil
	}

	existing, err := s.db.ListCardIDs(ctx, deck.ID)
	if err != nil {
		return 0, 0, err
	}
	known := make(map[string]bool, len(existing))
	for _, id := range existing {
		known[id] = true
	}

	found := make(map[string]bool, len(cards))
	added := 0
	for _, card := range cards {
		found[card.ID] = true
		if !known[card.ID] {
			added++
		}
		if err := s.db.UpsertCard(ctx, deck.ID, card); err != nil {
			return added, 0, err
		}
	}

	removed := 0
	for _, id := range existing {
		if found[id] {
			continue
		}
		s.logger.InfoContext(ctx, "orphaned card, deleting", "deck", name, "card", id)
		if err := s.db.DeleteCard(ctx, deck.ID, id); err != nil {
			s.logger.WarnContext(ctx, "failed to delete orphaned card", "card", id, "error", err)
			continue
		}
		removed++
	}
	return added, removed, nil
}
