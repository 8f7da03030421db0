package notifications

import (
	"log/slog"
	"time"
)

// Webhook is an HTTP endpoint that receives JSON notifications.
type Webhook struct {
	URL      string
	Username string
	Password string

	// InsecureSkipVerify disables TLS certificate checks on the endpoint.
	InsecureSkipVerify bool

	// Logger receives retry warnings. Nothing is logged when nil.
	Logger *slog.Logger

	// Retry overrides DefaultRetry when MaxRetries or BaseDelay is set.
	Retry RetryConfig
}

// Enabled reports whether a webhook URL is configured.
func (w *Webhook) Enabled() bool {
	return w != nil && w.URL != ""
}

// ReadinessReached is sent once when the backend answered ready and the
// user was sent to the login page.
type ReadinessReached struct {
	Service       string    `json:"service"`
	BaseURL       string    `json:"base_url"`
	Target        string    `json:"target"`
	Attempts      int       `json:"attempts"`
	WaitedSeconds float64   `json:"waited_seconds"`
	ReadyAt       time.Time `json:"ready_at"`
}

// DeleteSubmitted is sent after the user confirmed a delete and the server accepted it.
type DeleteSubmitted struct {
	Service string `json:"service"`
	Page    string `json:"page"`
	Method  string `json:"method"`
	Action  string `json:"action"`
}
