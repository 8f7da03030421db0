package server

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/jonboulle/clockwork"
)

// DefaultProbeInterval is used when Schedule is given a non-positive interval.
const DefaultProbeInterval = 2 * time.Second

// Pinger is anything that can tell whether the backing database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Health caches the outcome of the last database probe.
//
// Behavior:
//   - Until the warm-up deadline passes the backend reports not ready,
//     whatever the database says.
//   - After that, Ready reflects the most recent Refresh.
type Health struct {
	pinger      Pinger
	clock       clockwork.Clock
	warmupUntil time.Time
	logger      *slog.Logger

	ready atomic.Bool
}

// NewHealth starts the warm-up window now.
func NewHealth(pinger Pinger, warmup time.Duration, clock clockwork.Clock, logger *slog.Logger) *Health {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Health{
		pinger:      pinger,
		clock:       clock,
		warmupUntil: clock.Now().Add(warmup),
		logger:      logger,
	}
}

// Refresh probes the database and records the answer.
func (h *Health) Refresh(ctx context.Context) bool {
	if h.clock.Now().Before(h.warmupUntil) {
		h.ready.Store(false)
		h.logger.Debug("Backend still warming up", "ready_in", h.warmupUntil.Sub(h.clock.Now()).Round(time.Second))
		return false
	}

	err := h.pinger.Ping(ctx)
	ready := err == nil
	if was := h.ready.Swap(ready); was != ready {
		if ready {
			h.logger.Info("Backend is ready")
		} else {
			h.logger.Warn("Backend is no longer ready", "error", err)
		}
	}
	return ready
}

// Ready reports the cached probe result.
func (h *Health) Ready() bool {
	return h.ready.Load()
}

// Schedule registers the probe on s, running every interval and once right away.
func (h *Health) Schedule(s gocron.Scheduler, every time.Duration) (gocron.Job, error) {
	if every <= 0 {
		every = DefaultProbeInterval
	}
	job, err := s.NewJob(
		gocron.DurationJob(every),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), every)
			defer cancel()
			h.Refresh(ctx)
		}),
		gocron.WithName("Readiness Probe"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to schedule readiness probe: %w", err)
	}
	return job, nil
}
