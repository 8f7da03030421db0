package readiness

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	// DefaultInterval is the fixed wait between two readiness checks.
	DefaultInterval = 5000 * time.Millisecond

	// DefaultReadyPath is the backend endpoint that answers 2xx once the service can take traffic.
	DefaultReadyPath = "/ready"

	// DefaultLoginPath is where the user is sent once the backend reports ready.
	DefaultLoginPath = "/login"
)

// ErrNotReady marks a check that reached the readiness source but was told "not yet".
// Transport failures are not wrapped with it; the poller treats both the same way.
var ErrNotReady = errors.New("backend not ready")

// ErrAlreadyDone is returned when Run is called on a poller that has already reached StateDone.
var ErrAlreadyDone = errors.New("poller already finished")

// State is the poller lifecycle. StateDone is terminal.
type State int32

const (
	StatePolling State = iota
	StateDone
)

func (s State) String() string {
	switch s {
	case StatePolling:
		return "polling"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

// Checker performs a single readiness check.
// A nil error means the source is ready; any error means "try again later".
type Checker interface {
	Check(ctx context.Context) error
}

// CheckerFunc adapts a plain function to the Checker interface.
type CheckerFunc func(ctx context.Context) error

func (f CheckerFunc) Check(ctx context.Context) error { return f(ctx) }

// StatusDisplay receives human-readable progress. It is optional: a poller
// without one simply skips the update.
type StatusDisplay interface {
	SetText(text string)
}

// StatusFunc adapts a plain function to the StatusDisplay interface.
type StatusFunc func(text string)

func (f StatusFunc) SetText(text string) { f(text) }

// Navigator moves the user to the given path once the backend is ready.
type Navigator interface {
	Navigate(ctx context.Context, path string) error
}

// NavigatorFunc adapts a plain function to the Navigator interface.
type NavigatorFunc func(ctx context.Context, path string) error

func (f NavigatorFunc) Navigate(ctx context.Context, path string) error { return f(ctx, path) }

// Config holds the tunables of a poll run.
type Config struct {
	// Interval is the fixed delay between the end of one check and the start of the next.
	// There is no backoff: every retry waits exactly this long.
	Interval time.Duration

	// LoginPath is handed to the Navigator once a check succeeds.
	LoginPath string
}

// Result summarises a finished poll run.
type Result struct {
	// Attempts is the number of checks issued, including the successful one.
	Attempts int
	// Target is the path the navigator was sent to. Empty if the run never reached done.
	Target  string
	Started time.Time
	ReadyAt time.Time
}

// Waited reports how long the run took from the first attempt until readiness.
func (r Result) Waited() time.Duration {
	if r.ReadyAt.IsZero() {
		return 0
	}
	return r.ReadyAt.Sub(r.Started)
}

// StatusText is the progress line shown for the given attempt.
func StatusText(attempt int) string {
	return fmt.Sprintf("Attempt %d — checking readiness...", attempt)
}
