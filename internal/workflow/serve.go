package workflow

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	gocronui "github.com/go-co-op/gocron-ui/server"
	"github.com/go-co-op/gocron/v2"

	"github.com/aravindh-murugesan/wanderly-go/internal/server"
)

// ServeOptions configures RunServeWorkflow.
type ServeOptions struct {
	Address  string
	Database string
	Seed     bool

	// Warmup keeps /ready at 503 for a while after start.
	Warmup        time.Duration
	ProbeInterval time.Duration

	// SchedulerUIAddress enables the gocron-ui dashboard when set.
	SchedulerUIAddress string

	ReadyPath    string
	LoginPath    string
	PollInterval time.Duration

	LogLevel string
}

// RunServeWorkflow runs the Wanderly backend until ctx is cancelled.
//
// Responsibilities:
//  1. Storage: opens the SQLite database, migrating and optionally seeding it.
//  2. Health: schedules the database probe that backs /ready.
//  3. Serving: HTTP routes, plus the scheduler dashboard when requested.
//  4. Shutdown: drains HTTP servers and stops the scheduler on cancellation.
func RunServeWorkflow(ctx context.Context, opts ServeOptions) error {
	// 1. Setup Logger
	logger := SetupLogger(opts.LogLevel, "http://"+opts.Address, "serve")

	// 2. Open Storage
	store, err := server.OpenStore(opts.Database)
	if err != nil {
		logger.Error("Database initialization failed", "database", opts.Database, "error", err)
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Warn("Database did not close cleanly", "error", err)
		}
	}()

	if opts.Seed {
		if err := store.Seed(ctx); err != nil {
			return fmt.Errorf("failed to seed database: %w", err)
		}
		logger.Debug("Demo data ensured")
	}

	// 3. Schedule Health Probe
	health := server.NewHealth(store, opts.Warmup, nil, logger.With("component", "health"))

	s, err := gocron.NewScheduler()
	if err != nil {
		return fmt.Errorf("failed to create scheduler: %w", err)
	}
	probeJob, err := health.Schedule(s, opts.ProbeInterval)
	if err != nil {
		return err
	}
	s.Start()
	logger.Info("Scheduler started", "job_name", probeJob.Name(), "job_id", probeJob.ID(), "every", opts.ProbeInterval, "warmup", opts.Warmup)

	// 4. Build HTTP Servers
	srv, err := server.New(store, health, server.Config{
		ReadyPath:    opts.ReadyPath,
		LoginPath:    opts.LoginPath,
		PollInterval: opts.PollInterval,
	}, logger.With("component", "http"))
	if err != nil {
		_ = s.Shutdown()
		return err
	}

	servers := []*http.Server{{Addr: opts.Address, Handler: srv.Router()}}

	if opts.SchedulerUIAddress != "" {
		port, err := portOf(opts.SchedulerUIAddress)
		if err != nil {
			_ = s.Shutdown()
			return err
		}
		ui := gocronui.NewServer(s, port, gocronui.WithTitle("Wanderly - Scheduler"))
		servers = append(servers, &http.Server{Addr: opts.SchedulerUIAddress, Handler: ui.Router})
		logger.Info("Scheduler UI started", "address", opts.SchedulerUIAddress)
	}

	errs := make(chan error, len(servers))
	for _, hs := range servers {
		go func(hs *http.Server) {
			if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- fmt.Errorf("server on %s failed: %w", hs.Addr, err)
			}
		}(hs)
	}
	logger.Info("Wanderly backend listening", "address", opts.Address, "database", opts.Database)

	// 5. Block until Signal or Failure
	var runErr error
	select {
	case <-ctx.Done():
		logger.Warn("Shutting down due to system signal...")
	case runErr = <-errs:
		logger.Error("HTTP server stopped unexpectedly", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	for _, hs := range servers {
		if err := hs.Shutdown(shutdownCtx); err != nil {
			logger.Warn("HTTP server did not shut down cleanly", "address", hs.Addr, "error", err)
		}
	}
	if err := s.Shutdown(); err != nil {
		logger.Warn("Scheduler did not shut down cleanly", "error", err)
	}
	return runErr
}

func portOf(address string) (int, error) {
	_, port, err := net.SplitHostPort(address)
	if err != nil {
		return 0, fmt.Errorf("invalid address '%s': %w", address, err)
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return 0, fmt.Errorf("invalid port in '%s': %w", address, err)
	}
	return n, nil
}
