package browser

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/playwright-community/playwright-go"

	"github.com/aravindh-murugesan/wanderly-go/internal/readiness"
)

// setAttemptsScript writes its argument into #attempts if the element exists.
const setAttemptsScript = `(text) => {
  const el = document.getElementById("` + AttemptsElementID + `");
  if (el) { el.textContent = text; }
}`

// Evaluator is the part of playwright.Page used by PageStatus.
type Evaluator interface {
	Evaluate(expression string, arg ...interface{}) (interface{}, error)
}

// Loader is the part of playwright.Page used by PageNavigator.
type Loader interface {
	Goto(url string, options ...playwright.PageGotoOptions) (playwright.Response, error)
}

// PageStatus shows poller progress in the #attempts element of a page.
// Update failures are logged, they never stop the poller.
type PageStatus struct {
	page   Evaluator
	logger *slog.Logger

	mu   sync.Mutex
	last string
}

// NewPageStatus binds a display to page.
func NewPageStatus(page Evaluator, logger *slog.Logger) *PageStatus {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &PageStatus{page: page, logger: logger}
}

func (p *PageStatus) SetText(text string) {
	p.mu.Lock()
	p.last = text
	p.mu.Unlock()

	if _, err := p.page.Evaluate(setAttemptsScript, text); err != nil {
		p.logger.Warn("Failed to update status element", "element", AttemptsElementID, "error", err)
	}
}

// Text returns the last text sent to the page.
func (p *PageStatus) Text() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// PageNavigator loads the target path in the page once the backend is ready.
type PageNavigator struct {
	BaseURL string
	Page    Loader
}

func (n *PageNavigator) Navigate(ctx context.Context, path string) error {
	target, err := readiness.ResolveURL(n.BaseURL, path)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	waitUntil := playwright.WaitUntilStateDomcontentloaded
	resp, err := n.Page.Goto(target, playwright.PageGotoOptions{WaitUntil: waitUntil})
	if err != nil {
		return fmt.Errorf("navigation to %s failed: %w", target, err)
	}
	if resp != nil && resp.Status() >= 400 {
		return fmt.Errorf("navigation to %s failed: server answered %d", target, resp.Status())
	}
	return nil
}
