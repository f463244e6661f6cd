package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/conorfennell/knoldeck/internal/syncjob"
	"github.com/conorfennell/knoldeck/internal/web"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and sync sources periodically",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			db, err := a.openDB(ctx)
			if err != nil {
				return err
			}
			defer db.Close()

			syncer := a.syncer(db)
			if a.cfg.Sync.Interval > 0 {
				job, err := syncjob.New(syncer, a.cfg.Sync.Interval, a.logger)
				if err != nil {
					return err
				}
				if err := job.Start(); err != nil {
					return err
				}
				defer job.Stop()
			}

			srv := &http.Server{
				Addr: a.cfg.HTTP.Addr,
				Handler: web.NewServer(db, a.sessions(db), syncer, web.Options{
					Logger:     a.logger,
					QueueLimit: a.cfg.Review.Limit,
				}),
				ReadHeaderTimeout: 5 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("starting server", "addr", srv.Addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			case <-ctx.Done():
			}

			a.logger.Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	}
}
