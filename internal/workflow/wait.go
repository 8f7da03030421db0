package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aravindh-murugesan/wanderly-go/internal/browser"
	"github.com/aravindh-murugesan/wanderly-go/internal/notifications"
	"github.com/aravindh-murugesan/wanderly-go/internal/readiness"
)

// Navigator kinds accepted by WaitOptions.Navigator.
const (
	NavigatorPrint      = "print"
	NavigatorBrowser    = "browser"
	NavigatorPlaywright = "playwright"
)

// Readiness sources accepted by WaitOptions.Source.
const (
	SourceHTTP       = "http"
	SourceKubernetes = "kubernetes"
)

// WaitOptions configures RunReadinessWorkflow.
type WaitOptions struct {
	BaseURL   string
	ReadyPath string
	LoginPath string
	Interval  time.Duration

	// TimeoutSeconds bounds the whole run; 0 waits forever.
	TimeoutSeconds int
	LogLevel       string

	Source         string
	KubeDeployment string
	Kubeconfig     string

	Navigator      string
	Headless       bool
	InstallBrowser bool

	Webhook notifications.Webhook

	// Out receives the target URL of the print navigator. Defaults to stdout.
	Out io.Writer
	// StatusOut receives the attempt lines. Defaults to stderr.
	StatusOut io.Writer
}

// RunReadinessWorkflow polls the configured source until it reports ready,
// then sends the user to the login page.
//
// Responsibilities:
//  1. Source: builds the HTTP or Kubernetes checker.
//  2. Display: terminal status line, plus the #attempts element when a playwright window is used.
//  3. Polling: fixed interval, unbounded attempts, ended only by success or ctx.
//  4. Notification: fires the webhook once when the backend is ready.
func RunReadinessWorkflow(ctx context.Context, opts WaitOptions) (readiness.Result, error) {
	// 1. Setup Logger & Context
	logger := SetupLogger(opts.LogLevel, opts.BaseURL, "wait")

	ctx, cancel := withTimeout(ctx, opts.TimeoutSeconds, logger)
	defer cancel()

	out, statusOut := opts.Out, opts.StatusOut
	if out == nil {
		out = os.Stdout
	}
	if statusOut == nil {
		statusOut = os.Stderr
	}

	// 2. Build Source
	checker, err := newChecker(opts)
	if err != nil {
		logger.Error("Readiness source initialization failed", "error", err)
		return readiness.Result{}, err
	}

	// 3. Build Display & Navigator
	status := statusFanout{readiness.NewTerminalStatus(statusOut)}
	var navigator readiness.Navigator

	switch opts.Navigator {
	case "", NavigatorPrint:
		navigator = readiness.PrintNavigator{BaseURL: opts.BaseURL, Out: out}
	case NavigatorBrowser:
		navigator = readiness.BrowserNavigator{BaseURL: opts.BaseURL}
	case NavigatorPlaywright:
		session, err := browser.Start(browser.Options{
			Headless: opts.Headless,
			Install:  opts.InstallBrowser,
			Logger:   logger.With("component", "browser"),
		})
		if err != nil {
			logger.Error("Browser session failed to start", "error", err)
			return readiness.Result{}, err
		}
		defer func() {
			if err := session.Close(); err != nil {
				logger.Warn("Browser session did not close cleanly", "error", err)
			}
		}()
		if err := session.ShowWaitingPage(); err != nil {
			return readiness.Result{}, err
		}
		status = append(status, session.Status())
		navigator = session.Navigator(opts.BaseURL)
	default:
		return readiness.Result{}, fmt.Errorf("unknown navigator '%s' (want %s, %s or %s)",
			opts.Navigator, NavigatorPrint, NavigatorBrowser, NavigatorPlaywright)
	}

	// 4. Poll
	poller := readiness.NewPoller(checker, navigator,
		readiness.WithStatus(status),
		readiness.WithInterval(opts.Interval),
		readiness.WithLoginPath(opts.LoginPath),
		readiness.WithLogger(logger.With("component", "poller")),
	)

	cfg := poller.Config()
	logger.Info("Waiting for backend readiness",
		"source", opts.Source,
		"navigator", opts.Navigator,
		"interval", cfg.Interval,
		"login_path", cfg.LoginPath)

	result, err := poller.Run(ctx)
	if err != nil {
		logger.Error("Readiness workflow ended without reaching the backend", "attempts", poller.Attempt(), "error", err)
		return result, err
	}

	logger.Info("Readiness workflow completed",
		"attempts", result.Attempts,
		"waited", result.Waited().Round(time.Millisecond),
		"target", result.Target)

	// 5. Notify
	notifyReady(ctx, opts, result, logger)

	// A visible playwright window stays open until the run is interrupted.
	if opts.Navigator == NavigatorPlaywright && !opts.Headless {
		logger.Info("Login page opened; press Ctrl+C to close the browser")
		<-ctx.Done()
	}

	return result, nil
}

func newChecker(opts WaitOptions) (readiness.Checker, error) {
	switch opts.Source {
	case "", SourceHTTP:
		readyPath := opts.ReadyPath
		if readyPath == "" {
			readyPath = readiness.DefaultReadyPath
		}
		return readiness.NewHTTPChecker(opts.BaseURL, readyPath, nil)
	case SourceKubernetes:
		return readiness.NewDeploymentChecker(opts.Kubeconfig, opts.KubeDeployment)
	default:
		return nil, fmt.Errorf("unknown readiness source '%s' (want %s or %s)", opts.Source, SourceHTTP, SourceKubernetes)
	}
}

func notifyReady(ctx context.Context, opts WaitOptions, result readiness.Result, logger *slog.Logger) {
	if !opts.Webhook.Enabled() {
		return
	}
	hook := opts.Webhook
	if hook.Logger == nil {
		hook.Logger = logger.With("component", "webhook")
	}
	err := hook.Notify(ctx, notifications.ReadinessReached{
		Service:       ServiceName,
		BaseURL:       opts.BaseURL,
		Target:        result.Target,
		Attempts:      result.Attempts,
		WaitedSeconds: result.Waited().Seconds(),
		ReadyAt:       result.ReadyAt.UTC(),
	})
	if err != nil {
		logger.Warn("Readiness notification failed", "error", err)
		return
	}
	logger.Debug("Readiness notification sent", "webhook", opts.Webhook.URL)
}

// statusFanout forwards progress to every display.
type statusFanout []readiness.StatusDisplay

func (s statusFanout) SetText(text string) {
	for _, d := range s {
		d.SetText(text)
	}
}
