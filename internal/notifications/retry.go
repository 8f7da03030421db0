package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"net/http"
	"time"
)

// RetryConfig controls how webhook deliveries are retried.
type RetryConfig struct {
	// MaxRetries is the number of extra attempts after the first one.
	MaxRetries int

	// BaseDelay is the wait before the first retry; it doubles on every further retry.
	BaseDelay time.Duration

	// MaxDelay caps a single wait.
	MaxDelay time.Duration
}

// DefaultRetry is used by webhooks that leave Retry empty.
var DefaultRetry = RetryConfig{
	MaxRetries: 3,
	BaseDelay:  time.Second,
	MaxDelay:   10 * time.Second,
}

// DeliveryError is a webhook answer outside 2xx.
type DeliveryError struct {
	Code int
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("failed to send notification via webhook: %d", e.Code)
}

// isRetryable treats rate limiting, timeouts and 5xx answers as transient.
// Errors that are not delivery errors (DNS, refused connection) are retried too.
func isRetryable(err error) bool {
	var delivery *DeliveryError
	if errors.As(err, &delivery) {
		switch delivery.Code {
		case http.StatusTooManyRequests,
			http.StatusRequestTimeout,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		default:
			return false
		}
	}
	return true
}

// deliver runs send with exponential backoff and jitter until it succeeds,
// fails permanently, runs out of retries or ctx ends.
func deliver(ctx context.Context, cfg RetryConfig, logger *slog.Logger, send func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if ctx.Err() != nil {
			return fmt.Errorf("webhook delivery cancelled before attempt %d: %w", attempt+1, ctx.Err())
		}

		lastErr = send(ctx)
		if lastErr == nil {
			return nil
		}
		if !isRetryable(lastErr) || attempt == cfg.MaxRetries {
			break
		}

		backoff := float64(cfg.BaseDelay) * math.Pow(2, float64(attempt))
		wait := time.Duration(backoff)
		if half := int64(backoff) / 2; half > 0 {
			wait += time.Duration(rand.Int63n(half))
		}
		if cfg.MaxDelay > 0 {
			wait = min(wait, cfg.MaxDelay)
		}

		logger.Warn("Webhook delivery failed, scheduling retry",
			"attempt", attempt+1,
			"max_retries", cfg.MaxRetries,
			"retry_in", wait,
			"error", lastErr)

		select {
		case <-time.After(wait):
		case <-ctx.Done():
			return fmt.Errorf("webhook delivery cancelled during backoff: %w", ctx.Err())
		}
	}

	return lastErr
}
