// Package browser drives a real Chromium window through playwright-go while
// the readiness poller runs: the waiting page shows the attempt counter in its
// #attempts element and the login page is opened once the backend is ready.
package browser

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/playwright-community/playwright-go"
)

const (
	// DefaultTimeout is the default timeout for page operations, in milliseconds.
	DefaultTimeout = 30000.0

	// AttemptsElementID is the id of the element that carries the progress text.
	AttemptsElementID = "attempts"
)

// WaitingPage is loaded into the window before the first readiness check.
const WaitingPage = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8">
  <title>Wanderly is warming up</title>
  <style>
    body { font-family: system-ui, sans-serif; display: grid; place-items: center; min-height: 100vh; margin: 0; background: #f6f4fb; color: #2d2a32; }
    main { text-align: center; }
    #attempts { color: #7d56f4; font-weight: 600; }
  </style>
</head>
<body>
  <main>
    <h1>Getting things ready</h1>
    <p>The server is starting up. You will be redirected to the login page automatically.</p>
    <p id="attempts">Waiting for the server...</p>
  </main>
</body>
</html>`

// Options configures a browser session.
type Options struct {
	// Headless runs Chromium without a visible window.
	Headless bool

	// Install downloads the driver and browsers before starting.
	Install bool

	// Timeout is the default timeout for page operations, in milliseconds.
	Timeout float64

	Logger *slog.Logger
}

// Session owns the playwright driver, a Chromium instance and a single page.
type Session struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	page    playwright.Page
	logger  *slog.Logger

	closeOnce sync.Once
}

// Start launches Chromium and opens one page.
func Start(opts Options) (*Session, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}

	runOpts := &playwright.RunOptions{
		Verbose: false,
		Stdout:  io.Discard,
		Stderr:  io.Discard,
	}

	if opts.Install {
		logger.Info("Installing playwright driver and browsers")
		if err := playwright.Install(runOpts); err != nil {
			return nil, fmt.Errorf("failed to install playwright: %w", err)
		}
	}

	pw, err := playwright.Run(runOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to start playwright: %w", err)
	}

	browser, err := pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(opts.Headless),
	})
	if err != nil {
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to launch browser: %w", err)
	}

	page, err := browser.NewPage()
	if err != nil {
		_ = browser.Close()
		_ = pw.Stop()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}
	page.SetDefaultTimeout(opts.Timeout)

	logger.Debug("Browser session started", "headless", opts.Headless)
	return &Session{pw: pw, browser: browser, page: page, logger: logger}, nil
}

// ShowWaitingPage replaces the page content with WaitingPage.
func (s *Session) ShowWaitingPage() error {
	if err := s.page.SetContent(WaitingPage); err != nil {
		return fmt.Errorf("failed to render waiting page: %w", err)
	}
	return nil
}

// Status returns a display bound to the session page.
func (s *Session) Status() *PageStatus {
	return NewPageStatus(s.page, s.logger)
}

// Navigator returns a navigator that loads paths relative to baseURL in the session page.
func (s *Session) Navigator(baseURL string) *PageNavigator {
	return &PageNavigator{BaseURL: baseURL, Page: s.page}
}

// Close shuts down the browser and the driver. Safe to call more than once.
func (s *Session) Close() error {
	var err error
	s.closeOnce.Do(func() {
		if cerr := s.browser.Close(); cerr != nil {
			err = fmt.Errorf("failed to close browser: %w", cerr)
		}
		if serr := s.pw.Stop(); serr != nil && err == nil {
			err = fmt.Errorf("failed to stop playwright: %w", serr)
		}
	})
	return err
}
