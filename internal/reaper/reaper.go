// Package reaper periodically removes expired sessions so that records
// nobody reads again do not pile up.
package reaper

import (
	"context"
	"log/slog"
	"time"
)

type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// Target is a named session store to sweep, e.g. "user" or "admin".
type Target struct {
	Name    string
	Sweeper Sweeper
}

type Reaper struct {
	interval time.Duration
	targets  []Target
	log      *slog.Logger
}

func New(interval time.Duration, log *slog.Logger, targets ...Target) *Reaper {
	return &Reaper{
		interval: interval,
		targets:  targets,
		log:      log,
	}
}

// Run sweeps every interval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.SweepOnce(ctx)
		case <-ctx.Done():
			return
		}
	}
}

// SweepOnce sweeps every target and returns the total removed. A failing
// target is logged and skipped.
func (r *Reaper) SweepOnce(ctx context.Context) int64 {
	const op = "reaper.SweepOnce"

	log := r.log.With(slog.String("op", op))

	var total int64
	for _, t := range r.targets {
		n, err := t.Sweeper.Sweep(ctx)
		if err != nil {
			log.Error("failed to sweep sessions", slog.String("realm", t.Name), slog.Any("error", err))
			continue
		}

		if n > 0 {
			log.Debug("expired sessions removed", slog.String("realm", t.Name), slog.Int64("count", n))
		}
		total += n
	}

	return total
}
