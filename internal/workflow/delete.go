package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/aravindh-murugesan/wanderly-go/internal/guard"
	"github.com/aravindh-murugesan/wanderly-go/internal/notifications"
	"github.com/aravindh-murugesan/wanderly-go/internal/readiness"
)

// ErrNoDeleteForms is returned when the page carries no guarded form.
var ErrNoDeleteForms = errors.New("no delete forms found")

// DeleteOptions configures RunDeleteWorkflow.
type DeleteOptions struct {
	BaseURL string
	// Page is the path (or absolute URL) of the page holding the forms.
	Page string

	// Form picks one guarded form, 1-based in page order. 0 means "the only one".
	Form int
	All  bool
	// List prints the guarded forms and submits nothing.
	List bool
	// Yes answers every confirmation with yes.
	Yes bool
	// Match adds glob patterns on the form action to the class marker.
	Match []string

	TimeoutSeconds int
	LogLevel       string
	Webhook        notifications.Webhook

	In  io.Reader
	Out io.Writer
}

// DeleteOutcome reports what happened to one guarded form.
type DeleteOutcome struct {
	Form      string
	Submitted bool
}

// RunDeleteWorkflow loads a page, wires the delete guard on its forms and
// submits the selected ones through it.
//
// Responsibilities:
//  1. Discovery: fetches the page and parses every form, resolving actions against the final URL.
//  2. Guarding: attaches the confirmation guard once to the marked forms.
//  3. Submission: requests a submit per selected form; only confirmed ones reach the server.
//
// A declined confirmation is not an error; it shows up as Submitted=false.
func RunDeleteWorkflow(ctx context.Context, opts DeleteOptions) ([]DeleteOutcome, error) {
	// 1. Setup Logger & Context
	logger := SetupLogger(opts.LogLevel, opts.BaseURL, "delete")
	ctx, cancel := withTimeout(ctx, opts.TimeoutSeconds, logger)
	defer cancel()

	in, out := opts.In, opts.Out
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}

	pageURL, err := readiness.ResolveURL(opts.BaseURL, opts.Page)
	if err != nil {
		return nil, err
	}
	logger = logger.With("page", pageURL)

	// 2. Discover Forms
	client := &http.Client{Timeout: 30 * time.Second}
	forms, err := guard.FetchForms(ctx, client, pageURL, guard.NewHTTPSubmitter(client))
	if err != nil {
		logger.Error("Page could not be loaded", "error", err)
		return nil, err
	}
	logger.Debug("Forms discovered", "count", len(forms))

	// 3. Wire Guard
	var confirmer guard.Confirmer = guard.AutoConfirmer{Answer: true}
	prompt := &guard.PromptConfirmer{In: in, Out: out}
	if !opts.Yes {
		confirmer = prompt
	}

	g, err := guard.New(confirmer,
		guard.WithActionPatterns(opts.Match...),
		guard.WithLogger(logger.With("component", "guard")),
	)
	if err != nil {
		return nil, err
	}
	g.Attach(forms...)

	var guarded []*guard.Form
	for _, f := range forms {
		if g.Matches(f) {
			guarded = append(guarded, f)
		}
	}
	if len(guarded) == 0 {
		return nil, fmt.Errorf("%w on %s", ErrNoDeleteForms, pageURL)
	}

	if opts.List {
		for i, f := range guarded {
			fmt.Fprintf(out, "%d\t%s\n", i+1, f)
		}
		return nil, nil
	}

	// 4. Select & Submit
	selected, err := selectForms(guarded, opts)
	if err != nil {
		return nil, err
	}

	hook := opts.Webhook
	if hook.Logger == nil {
		hook.Logger = logger.With("component", "webhook")
	}

	outcomes := make([]DeleteOutcome, 0, len(selected))
	for _, f := range selected {
		if ctx.Err() != nil {
			logger.Warn("Delete workflow halted due to timeout or cancellation")
			return outcomes, ctx.Err()
		}

		prompt.Detail = f.String()
		submitted, err := f.RequestSubmit(ctx)
		outcomes = append(outcomes, DeleteOutcome{Form: f.String(), Submitted: submitted})
		if err != nil {
			logger.Error("Delete submission failed", "form", f.String(), "error", err)
			return outcomes, err
		}
		if !submitted {
			continue
		}

		logger.Info("Delete submitted", "form", f.String())
		if hook.Enabled() {
			if err := hook.Notify(ctx, notifications.DeleteSubmitted{
				Service: ServiceName,
				Page:    pageURL,
				Method:  f.Method,
				Action:  f.Action,
			}); err != nil {
				logger.Warn("Delete notification failed", "error", err)
			}
		}
	}

	return outcomes, nil
}

func selectForms(guarded []*guard.Form, opts DeleteOptions) ([]*guard.Form, error) {
	switch {
	case opts.All:
		return guarded, nil
	case opts.Form > 0:
		if opts.Form > len(guarded) {
			return nil, fmt.Errorf("form %d out of range: page has %d delete forms", opts.Form, len(guarded))
		}
		return guarded[opts.Form-1 : opts.Form], nil
	case len(guarded) == 1:
		return guarded, nil
	default:
		return nil, fmt.Errorf("page has %d delete forms: pick one with --form or use --all (see --list)", len(guarded))
	}
}
