package index

import (
	"context"
	"log/slog"
	"sync"
)

// Runner executes index runs in the background, one at a time.
// Completion is observable through Status rather than a return value,
// matching the fire-and-forget service surface.
type Runner struct {
	pipeline *Pipeline

	mu      sync.Mutex
	running bool
	last    *Summary
	lastErr error
}

// NewRunner creates a background runner for the pipeline.
func NewRunner(p *Pipeline) *Runner {
	return &Runner{pipeline: p}
}

// Start launches an index run unless one is already in flight, in which
// case it reports busy via the returned bool.
func (r *Runner) Start(ctx context.Context, cfg Config) bool {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return false
	}
	r.running = true
	r.mu.Unlock()

	// The run outlives the request that started it.
	runCtx := context.WithoutCancel(ctx)

	go func() {
		summary, err := r.pipeline.Run(runCtx, cfg)
		if err != nil {
			slog.Error("background index failed", slog.String("error", err.Error()))
		}

		r.mu.Lock()
		r.running = false
		r.last = summary
		r.lastErr = err
		r.mu.Unlock()
	}()

	return true
}

// Status reports whether a run is in flight, plus the last completed
// run's summary and error.
func (r *Runner) Status() (running bool, last *Summary, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.running, r.last, r.lastErr
}
