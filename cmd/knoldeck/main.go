package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/conorfennell/knoldeck/internal/config"
	"github.com/conorfennell/knoldeck/internal/session"
	"github.com/conorfennell/knoldeck/internal/storage"
	"github.com/conorfennell/knoldeck/internal/sync"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds what every subcommand needs once flags are parsed.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:          "knoldeck",
		Short:        "Spaced-repetition flashcards with SM-2 scheduling",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env file is fine; a malformed one is not.
			if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return fmt.Errorf("failed to load .env: %w", err)
			}
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			a.cfg = cfg
			a.logger = config.NewLogger(cfg.Log, cmd.ErrOrStderr())
			slog.SetDefault(a.logger)
			return nil
		},
	}

	config.RegisterFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(serveCmd(a))
	rootCmd.AddCommand(syncCmd(a))
	rootCmd.AddCommand(sourceCmd(a))
	rootCmd.AddCommand(importCmd(a))
	rootCmd.AddCommand(dueCmd(a))
	rootCmd.AddCommand(reviewCmd(a))
	rootCmd.AddCommand(statsCmd(a))

	return rootCmd
}

func (a *app) openDB(ctx context.Context) (*storage.DB, error) {
	if dir := filepath.Dir(a.cfg.DB.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	return storage.Open(ctx, a.cfg.DB.Path)
}

func (a *app) sessions(db *storage.DB) *session.Service {
	return session.NewService(db, session.Options{
		Logger:  a.logger,
		Shuffle: a.cfg.Review.Shuffle,
	})
}

func (a *app) syncer(db *storage.DB) *sync.Syncer {
	return sync.New(db, sync.Options{
		ReposDir: a.cfg.Sync.ReposDir,
		Logger:   a.logger,
	})
}
