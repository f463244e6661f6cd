// Package syncjob runs deck source synchronization on a fixed interval.
package syncjob

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/conorfennell/knoldeck/internal/sync"
	"github.com/go-co-op/gocron"
)

// Runner performs one sync pass.
type Runner interface {
	Run(ctx context.Context) (*sync.Report, error)
}

// Job manages the periodic sync task.
type Job struct {
	scheduler *gocron.Scheduler
	runner    Runner
	interval  time.Duration
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
}

// New creates a job that calls runner every interval.
func New(runner Runner, interval time.Duration, logger *slog.Logger) (*Job, error) {
	if interval <= 0 {
		return nil, fmt.Errorf("sync interval must be positive, got %s", interval)
	}
	if runner == nil {
		return nil, errors.New("sync runner is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := gocron.NewScheduler(time.Local)
	s.SingletonModeAll()

	ctx, cancel := context.WithCancel(context.Background())
	return &Job{
		scheduler: s,
		runner:    runner,
		interval:  interval,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// Start schedules the sync and runs the first pass right away without blocking.
func (j *Job) Start() error {
	if _, err := j.scheduler.Every(j.interval).Do(j.run); err != nil {
		return fmt.Errorf("failed to schedule sync: %w", err)
	}
	j.scheduler.StartAsync()
	j.logger.Info("periodic sync started", "interval", j.interval)
	return nil
}

// Stop cancels a running pass and terminates the schedule.
func (j *Job) Stop() {
	j.cancel()
	j.scheduler.Stop()
	j.logger.Info("periodic sync stopped")
}

func (j *Job) run() {
	started := time.Now()
	report, err := j.runner.Run(j.ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		j.logger.Error("periodic sync failed", "error", err)
		return
	}
	j.logger.Info("periodic sync finished",
		"duration", time.Since(started),
		"decks", report.Decks,
		"errors", len(report.Errors),
	)
}
