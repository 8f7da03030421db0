package notifications

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Notify posts notification as JSON to the webhook.
// Transient failures are retried per Retry; any final non-2xx answer is a *DeliveryError.
func (w *Webhook) Notify(ctx context.Context, notification any) error {

	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	retry := w.Retry
	if retry.MaxRetries == 0 && retry.BaseDelay == 0 {
		retry = DefaultRetry
	}

	client := http.Client{
		Timeout: 30 * time.Second,
	}
	if w.InsecureSkipVerify {
		client.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}

	logger := w.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return deliver(ctx, retry, logger, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(payload))
		if err != nil {
			return err
		}

		req.Header.Set("Content-Type", "application/json")

		if w.Username != "" || w.Password != "" {
			req.SetBasicAuth(w.Username, w.Password)
		}

		resp, err := client.Do(req)
		if err != nil {
			return fmt.Errorf("failed to send notification via webhook: %w", err)
		}

		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return &DeliveryError{Code: resp.StatusCode}
		}

		return nil
	})
}
