// Package worker hosts the background loops that run alongside the HTTP
// server.
package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/hyperengineering/paceline/internal/types"
)

// RolloverStore lists the athletes whose load history the worker advances.
type RolloverStore interface {
	ListAthleteIDs(ctx context.Context) ([]string, error)
}

// LoadExtender brings one athlete's daily load history forward, filling
// rest days with zero TSS. Implemented by load.Service.
type LoadExtender interface {
	CatchUp(ctx context.Context, athleteID string, through time.Time) error
}

// RolloverWorker periodically rolls every athlete's load history forward
// through yesterday, so rest days decay fitness even when no workout is
// ever uploaded for them.
type RolloverWorker struct {
	store    RolloverStore
	loads    LoadExtender
	interval time.Duration

	// now is swapped in tests.
	now func() time.Time
}

// NewRolloverWorker creates a worker with the given store, load service,
// and interval.
func NewRolloverWorker(store RolloverStore, loads LoadExtender, interval time.Duration) *RolloverWorker {
	return &RolloverWorker{
		store:    store,
		loads:    loads,
		interval: interval,
		now:      time.Now,
	}
}

// Run starts the worker loop. Blocks until ctx is cancelled.
// Runs one cycle immediately on start so a restarted server catches up
// without waiting a full interval.
func (w *RolloverWorker) Run(ctx context.Context) {
	slog.Info("worker started",
		"component", "worker",
		"worker", "load-rollover",
		"interval", w.interval.String(),
	)

	w.runCycle(ctx)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("worker stopped",
				"component", "worker",
				"worker", "load-rollover",
				"reason", "context_cancelled",
			)
			return
		case <-ticker.C:
			w.runCycle(ctx)
		}
	}
}

// runCycle executes a single rollover cycle over all athletes. A failure
// for one athlete never blocks the rest.
func (w *RolloverWorker) runCycle(ctx context.Context) {
	start := w.now()

	// Today's record waits for today's workout; roll through yesterday.
	yesterday := types.Day(start).AddDate(0, 0, -1)

	athletes, err := w.store.ListAthleteIDs(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		slog.Error("rollover cycle failed",
			"component", "worker",
			"action", "rollover_list_failed",
			"error", err,
		)
		return
	}

	var failed int
	for _, id := range athletes {
		if ctx.Err() != nil {
			return
		}
		if err := w.loads.CatchUp(ctx, id, yesterday); err != nil {
			failed++
			slog.Error("rollover failed for athlete",
				"component", "worker",
				"action", "rollover_failed",
				"athlete_id", id,
				"error", err,
			)
		}
	}

	slog.Info("rollover cycle completed",
		"component", "worker",
		"action", "rollover_complete",
		"athletes", len(athletes),
		"failed", failed,
		"through", yesterday.Format(types.DateLayout),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}
