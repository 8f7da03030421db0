package guard

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
)

// ErrNoSubmitter is returned when a form has no transport to send itself with.
var ErrNoSubmitter = errors.New("form has no submitter")

// Submitter performs the actual network submission of a form.
type Submitter interface {
	Submit(ctx context.Context, f *Form) error
}

// SubmitterFunc adapts a plain function to the Submitter interface.
type SubmitterFunc func(ctx context.Context, f *Form) error

func (fn SubmitterFunc) Submit(ctx context.Context, f *Form) error { return fn(ctx, f) }

// SubmitEvent is dispatched to interceptors when a submission is requested.
type SubmitEvent struct {
	Form *Form

	defaultPrevented   bool
	propagationStopped bool
}

// PreventDefault cancels the submission that would follow the dispatch.
func (e *SubmitEvent) PreventDefault() { e.defaultPrevented = true }

// StopPropagation keeps later interceptors from seeing the event.
func (e *SubmitEvent) StopPropagation() { e.propagationStopped = true }

func (e *SubmitEvent) DefaultPrevented() bool   { return e.defaultPrevented }
func (e *SubmitEvent) PropagationStopped() bool { return e.propagationStopped }

// Interceptor reacts to a submit request.
type Interceptor func(ctx context.Context, ev *SubmitEvent) error

// Form mirrors an HTML form: where it goes, how, and with which values.
type Form struct {
	ID      string
	Method  string
	Action  string
	Classes []string
	Values  url.Values

	submitter Submitter

	mu           sync.Mutex
	interceptors []Interceptor
	submissions  atomic.Int64
}

// NewForm builds a form. Method defaults to GET.
func NewForm(method, action string, values url.Values, submitter Submitter, classes ...string) *Form {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method != http.MethodPost {
		method = http.MethodGet
	}
	if values == nil {
		values = url.Values{}
	}
	return &Form{
		Method:    method,
		Action:    action,
		Classes:   classes,
		Values:    values,
		submitter: submitter,
	}
}

// HasClass reports whether the form carries the given class.
func (f *Form) HasClass(name string) bool {
	return slices.Contains(f.Classes, name)
}

// OnSubmit registers an interceptor. Interceptors run in registration order.
func (f *Form) OnSubmit(fn Interceptor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.interceptors = append(f.interceptors, fn)
}

// RequestSubmit is the user-initiated path: interceptors see the event first,
// and the form is only sent if none of them prevented the default.
// It reports whether a submission went out during the call, whichever path sent it.
func (f *Form) RequestSubmit(ctx context.Context) (bool, error) {
	before := f.submissions.Load()

	f.mu.Lock()
	handlers := slices.Clone(f.interceptors)
	f.mu.Unlock()

	ev := &SubmitEvent{Form: f}
	for _, handle := range handlers {
		if err := handle(ctx, ev); err != nil {
			return f.submissions.Load() > before, err
		}
		if ev.propagationStopped {
			break
		}
	}

	if !ev.defaultPrevented {
		if err := f.Submit(ctx); err != nil {
			return f.submissions.Load() > before, err
		}
	}
	return f.submissions.Load() > before, nil
}

// Submit sends the form directly. Interceptors are not consulted.
func (f *Form) Submit(ctx context.Context) error {
	if f.submitter == nil {
		return ErrNoSubmitter
	}
	f.submissions.Add(1)
	if err := f.submitter.Submit(ctx, f); err != nil {
		return fmt.Errorf("submit %s: %w", f, err)
	}
	return nil
}

// Submissions returns how many times the form was handed to its submitter.
func (f *Form) Submissions() int {
	return int(f.submissions.Load())
}

func (f *Form) String() string {
	return f.Method + " " + f.Action
}
