package workflow

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/lmittmann/tint"
)

// ServiceName identifies this tool in logs and notifications.
const ServiceName = "wanderly"

// logOutput is where workflow loggers write; swapped in tests.
var logOutput io.Writer = os.Stderr

// SetupLogger configures the logger of one workflow run.
// It uses "tint" for colorized, structured logging that is easy to read in terminals,
// and stamps every line with the workflow name and a fresh run id.
func SetupLogger(level, baseURL, workflow string) *slog.Logger {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := tint.NewHandler(logOutput, &tint.Options{
		Level:      logLevel,
		TimeFormat: time.Kitchen,
	})

	return slog.New(handler).With(
		"workflow", workflow,
		"base_url", baseURL,
		"run_id", fmt.Sprintf("req-%s", uuid.New().String()),
	)
}

// withTimeout applies the global --timeout (seconds, 0 = none).
func withTimeout(ctx context.Context, timeoutSeconds int, logger *slog.Logger) (context.Context, context.CancelFunc) {
	if timeoutSeconds <= 0 {
		return context.WithCancel(ctx)
	}
	logger.Debug("Global workflow timeout configured", "timeout_seconds", timeoutSeconds)
	return context.WithTimeout(ctx, time.Duration(timeoutSeconds)*time.Second)
}
