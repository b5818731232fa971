// Package scheduler triggers balance checks from inside the API process for
// deployments without an external cron.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aiinterface/notifier/internal/service"
)

// Runner runs one balance check.
type Runner interface {
	Run(ctx context.Context) (*service.ScanResult, error)
}

// Worker runs a balance check on a fixed interval.
type Worker struct {
	runner   Runner
	interval time.Duration
	logger   *slog.Logger
	started  bool
}

// NewWorker creates a scheduler worker.
func NewWorker(runner Runner, interval time.Duration, logger *slog.Logger) *Worker {
	return &Worker{
		runner:   runner,
		interval: interval,
		logger:   logger.With("component", "scheduler"),
	}
}

// Run starts the worker loop. Blocks until ctx is cancelled.
// The first check runs one interval after start.
func (w *Worker) Run(ctx context.Context) error {
	if w.started {
		return errors.New("scheduler already started")
	}
	if w.interval <= 0 {
		return errors.New("scheduler interval must be positive")
	}
	w.started = true

	w.logger.Info("scheduler started", "interval", w.interval.String())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("scheduler stopping")
			return ctx.Err()
		case <-ticker.C:
			w.tick(ctx)
		}
	}
}

// tick runs one check. Failures are logged and the loop keeps going.
func (w *Worker) tick(ctx context.Context) {
	result, err := w.runner.Run(ctx)
	switch {
	case err == nil:
		w.logger.Debug("scheduled balance check finished",
			"run_id", result.RunID,
			"sent", result.Sent,
		)
	case errors.Is(err, service.ErrRunInProgress):
		w.logger.Info("scheduled balance check skipped, another run is active")
	case errors.Is(err, context.Canceled):
	default:
		w.logger.Error("scheduled balance check failed", "error", err)
	}
}
