package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestWebhook_Notify(t *testing.T) {
	readyAt := time.Date(2025, 6, 1, 9, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		status     int
		username   string
		password   string
		wantErr    bool
		wantAuthed bool
	}{
		{name: "Accepted", status: http.StatusOK},
		{name: "Accepted With Basic Auth", status: http.StatusNoContent, username: "ops", password: "s3cret", wantAuthed: true},
		{name: "Rejected", status: http.StatusInternalServerError, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got ReadinessReached
			var authed bool
			var contentType string

			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				contentType = r.Header.Get("Content-Type")
				user, pass, ok := r.BasicAuth()
				authed = ok && user == tt.username && pass == tt.password
				if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
					http.Error(w, err.Error(), http.StatusBadRequest)
					return
				}
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			hook := &Webhook{
				URL:      srv.URL,
				Username: tt.username,
				Password: tt.password,
				Retry:    RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond},
			}
			err := hook.Notify(context.Background(), ReadinessReached{
				Service:       "wanderly",
				BaseURL:       "http://localhost:5003",
				Target:        "/login",
				Attempts:      3,
				WaitedSeconds: 10,
				ReadyAt:       readyAt,
			})

			if (err != nil) != tt.wantErr {
				t.Fatalf("Notify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if contentType != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", contentType)
			}
			if authed != tt.wantAuthed {
				t.Errorf("basic auth = %v, want %v", authed, tt.wantAuthed)
			}
			if got.Attempts != 3 || got.Target != "/login" || !got.ReadyAt.Equal(readyAt) {
				t.Errorf("payload = %+v", got)
			}
		})
	}
}

func TestWebhook_NotifyRetries(t *testing.T) {
	tests := []struct {
		name      string
		answers   []int
		wantCalls int32
		wantErr   bool
		wantCode  int
	}{
		{name: "Recovers After Transient Failures", answers: []int{503, 429, 200}, wantCalls: 3},
		{name: "Gives Up After Max Retries", answers: []int{502, 502, 502, 502}, wantCalls: 3, wantErr: true, wantCode: 502},
		{name: "Client Error Is Not Retried", answers: []int{401, 200}, wantCalls: 1, wantErr: true, wantCode: 401},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := calls.Add(1)
				w.WriteHeader(tt.answers[n-1])
			}))
			defer srv.Close()

			hook := &Webhook{URL: srv.URL, Retry: RetryConfig{MaxRetries: 2, BaseDelay: time.Millisecond, MaxDelay: 5 * time.Millisecond}}
			err := hook.Notify(context.Background(), DeleteSubmitted{Service: "wanderly", Action: "/trips/1/delete"})

			if (err != nil) != tt.wantErr {
				t.Fatalf("Notify() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got := calls.Load(); got != tt.wantCalls {
				t.Errorf("webhook called %d times, want %d", got, tt.wantCalls)
			}
			if tt.wantErr {
				var delivery *DeliveryError
				if !errors.As(err, &delivery) || delivery.Code != tt.wantCode {
					t.Errorf("Notify() error = %v, want DeliveryError %d", err, tt.wantCode)
				}
			}
		})
	}
}

func TestWebhook_NotifyStopsOnCancel(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	hook := &Webhook{URL: srv.URL, Retry: RetryConfig{MaxRetries: 5, BaseDelay: time.Second}}
	err := hook.Notify(ctx, ReadinessReached{Service: "wanderly"})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Notify() error = %v, want deadline exceeded", err)
	}
}

func TestWebhook_NotifyTLSVerification(t *testing.T) {
	srv := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	tests := []struct {
		name     string
		insecure bool
		wantErr  bool
	}{
		{name: "Zero Value Verifies Certificate", wantErr: true},
		{name: "Insecure Skips Verification", insecure: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook := &Webhook{
				URL:                srv.URL,
				InsecureSkipVerify: tt.insecure,
				Retry:              RetryConfig{BaseDelay: time.Millisecond},
			}
			err := hook.Notify(context.Background(), ReadinessReached{Service: "wanderly"})
			if (err != nil) != tt.wantErr {
				t.Errorf("Notify() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWebhook_RetryLogsThroughLogger(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil)).With("run_id", "req-test")

	hook := &Webhook{URL: srv.URL, Logger: logger, Retry: RetryConfig{MaxRetries: 1, BaseDelay: time.Millisecond}}
	if err := hook.Notify(context.Background(), ReadinessReached{Service: "wanderly"}); err != nil {
		t.Fatalf("Notify() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{"scheduling retry", "run_id=req-test", "attempt=1"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output %q does not contain %q", out, want)
		}
	}
}

func TestWebhook_Enabled(t *testing.T) {
	var nilHook *Webhook
	if nilHook.Enabled() {
		t.Error("nil webhook should not be enabled")
	}
	if (&Webhook{}).Enabled() {
		t.Error("webhook without URL should not be enabled")
	}
	if !(&Webhook{URL: "http://hooks.local"}).Enabled() {
		t.Error("webhook with URL should be enabled")
	}
}
