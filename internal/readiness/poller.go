package readiness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/jonboulle/clockwork"
)

// Poller repeatedly asks a Checker whether the backend is ready and, on the
// first success, hands the login path to a Navigator.
//
// Behavior:
//   - Sequential: the next check is scheduled only after the previous one resolves,
//     so at most one check is ever in flight.
//   - Fixed interval: every failure (non-2xx or transport error) waits Config.Interval.
//   - Unbounded: there is no attempt limit. The run ends on success or when the
//     hosting context is torn down.
//
// A Poller is single-use; once it reaches StateDone further Run calls return ErrAlreadyDone.
type Poller struct {
	checker   Checker
	navigator Navigator
	status    StatusDisplay
	clock     clockwork.Clock
	logger    *slog.Logger
	cfg       Config

	attempt atomic.Int64
	state   atomic.Int32
	running atomic.Bool
}

// Option customises a Poller.
type Option func(*Poller)

// WithStatus attaches a progress display. Passing nil leaves the poller without one.
func WithStatus(status StatusDisplay) Option {
	return func(p *Poller) { p.status = status }
}

// WithInterval overrides DefaultInterval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.cfg.Interval = d
		}
	}
}

// WithLoginPath overrides DefaultLoginPath.
func WithLoginPath(path string) Option {
	return func(p *Poller) {
		if path != "" {
			p.cfg.LoginPath = path
		}
	}
}

// WithClock injects the clock used for the wait between attempts.
func WithClock(clock clockwork.Clock) Option {
	return func(p *Poller) { p.clock = clock }
}

// WithLogger sets the structured logger. Defaults to a discarding logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPoller wires a poller. The checker and navigator are required.
func NewPoller(checker Checker, navigator Navigator, opts ...Option) *Poller {
	p := &Poller{
		checker:   checker,
		navigator: navigator,
		clock:     clockwork.NewRealClock(),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
		cfg: Config{
			Interval:  DefaultInterval,
			LoginPath: DefaultLoginPath,
		},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns the current lifecycle state.
func (p *Poller) State() State {
	return State(p.state.Load())
}

// Attempt returns the number of checks issued so far (0 before the first one).
func (p *Poller) Attempt() int {
	return int(p.attempt.Load())
}

// Config returns the effective configuration.
func (p *Poller) Config() Config {
	return p.cfg
}

// Run drives the poll loop until the backend is ready or ctx is done.
//
// Workflow per attempt:
//  1. Status: publishes StatusText(attempt) on the display, if any.
//  2. Check: calls the Checker once.
//  3. Success: switches to StateDone and navigates to the login path. No further checks.
//  4. Failure: waits Interval on the clock and starts the next attempt.
//
// Check failures are never returned; only ctx cancellation or a navigation
// error end the run with an error.
func (p *Poller) Run(ctx context.Context) (Result, error) {
	if p.State() == StateDone {
		return Result{}, ErrAlreadyDone
	}
	if !p.running.CompareAndSwap(false, true) {
		return Result{}, fmt.Errorf("poller is already running")
	}
	defer p.running.Store(false)

	result := Result{Started: p.clock.Now()}

	for attempt := 1; p.State() != StateDone; attempt++ {
		p.attempt.Store(int64(attempt))
		result.Attempts = attempt

		if p.status != nil {
			p.status.SetText(StatusText(attempt))
		}

		err := p.checker.Check(ctx)
		if err == nil {
			p.state.Store(int32(StateDone))
			result.ReadyAt = p.clock.Now()
			break
		}

		p.logger.Debug("Backend not ready yet, scheduling next check",
			"attempt", attempt,
			"retry_in", p.cfg.Interval,
			"reachable", IsNotReady(err),
			"error", err)

		timer := p.clock.NewTimer(p.cfg.Interval)
		select {
		case <-timer.Chan():
		case <-ctx.Done():
			timer.Stop()
			return result, fmt.Errorf("readiness polling stopped after %d attempts: %w", attempt, ctx.Err())
		}
	}

	p.logger.Info("Backend is ready",
		"attempts", result.Attempts,
		"waited", result.Waited(),
		"target", p.cfg.LoginPath)

	if err := p.navigator.Navigate(ctx, p.cfg.LoginPath); err != nil {
		return result, fmt.Errorf("navigation to %s failed: %w", p.cfg.LoginPath, err)
	}
	result.Target = p.cfg.LoginPath

	return result, nil
}
