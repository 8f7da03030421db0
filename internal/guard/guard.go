// Package guard keeps destructive forms from being submitted without an explicit "yes".
package guard

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/gobwas/glob"
)

const (
	// DeleteMarker is the class that tags a form as a delete action.
	DeleteMarker = "delete-btn"

	// WarningMessage is the fixed prompt shown before a delete goes out.
	WarningMessage = "Are you sure? This cannot be undone!"
)

// Confirmer asks the user a blocking yes/no question.
type Confirmer interface {
	Confirm(ctx context.Context, message string) (bool, error)
}

// ConfirmFunc adapts a plain function to the Confirmer interface.
type ConfirmFunc func(ctx context.Context, message string) (bool, error)

func (fn ConfirmFunc) Confirm(ctx context.Context, message string) (bool, error) {
	return fn(ctx, message)
}

// Guard intercepts submissions of delete forms and only lets them through after confirmation.
//
// Behavior:
//   - Selection: a form qualifies when it carries the marker class, or when its
//     action matches one of the configured glob patterns.
//   - Interception: the guard prevents the default submission and stops propagation,
//     then asks the Confirmer with the warning message.
//   - Resubmission: on "yes" the form is sent through Form.Submit, which bypasses
//     interceptors, so the guard never sees its own resubmission.
//   - One-shot wiring: Attach only wires forms on its first call.
type Guard struct {
	confirmer Confirmer
	message   string
	marker    string
	patterns  []glob.Glob
	logger    *slog.Logger

	once sync.Once
}

// Option customises a Guard.
type Option func(*Guard) error

// WithMessage replaces WarningMessage.
func WithMessage(message string) Option {
	return func(g *Guard) error {
		if message != "" {
			g.message = message
		}
		return nil
	}
}

// WithMarker replaces DeleteMarker.
func WithMarker(marker string) Option {
	return func(g *Guard) error {
		if marker != "" {
			g.marker = marker
		}
		return nil
	}
}

// WithActionPatterns also guards forms whose action matches any of the globs
// (e.g. "*/delete"). Patterns are matched against the resolved action URL.
func WithActionPatterns(patterns ...string) Option {
	return func(g *Guard) error {
		for _, pattern := range patterns {
			if pattern == "" {
				continue
			}
			compiled, err := glob.Compile(pattern)
			if err != nil {
				return fmt.Errorf("invalid action pattern '%s': %w", pattern, err)
			}
			g.patterns = append(g.patterns, compiled)
		}
		return nil
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Guard) error {
		if logger != nil {
			g.logger = logger
		}
		return nil
	}
}

// New creates a guard that asks confirmer before any delete goes out.
func New(confirmer Confirmer, opts ...Option) (*Guard, error) {
	if confirmer == nil {
		return nil, fmt.Errorf("guard requires a confirmer")
	}
	g := &Guard{
		confirmer: confirmer,
		message:   WarningMessage,
		marker:    DeleteMarker,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Matches reports whether the form is a delete action for this guard.
func (g *Guard) Matches(f *Form) bool {
	if f.HasClass(g.marker) {
		return true
	}
	for _, pattern := range g.patterns {
		if pattern.Match(f.Action) {
			return true
		}
	}
	return false
}

// Attach wires an interceptor onto every qualifying form and returns how many were wired.
// Only the first call has an effect; later calls return 0.
func (g *Guard) Attach(forms ...*Form) int {
	wired := 0
	attached := false
	g.once.Do(func() {
		attached = true
		for _, f := range forms {
			if f == nil || !g.Matches(f) {
				continue
			}
			f.OnSubmit(g.intercept)
			wired++
		}
		g.logger.Debug("Delete guard attached", "forms", len(forms), "guarded", wired)
	})
	if !attached {
		g.logger.Debug("Delete guard already attached; ignoring", "forms", len(forms))
	}
	return wired
}

func (g *Guard) intercept(ctx context.Context, ev *SubmitEvent) error {
	ev.PreventDefault()
	ev.StopPropagation()

	confirmed, err := g.confirmer.Confirm(ctx, g.message)
	if err != nil {
		return fmt.Errorf("confirmation prompt failed: %w", err)
	}
	if !confirmed {
		g.logger.Info("Delete declined; form left unsubmitted", "form", ev.Form.String())
		return nil
	}

	g.logger.Info("Delete confirmed; submitting form", "form", ev.Form.String())
	return ev.Form.Submit(ctx)
}
