package workflow

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aravindh-murugesan/wanderly-go/internal/notifications"
	"github.com/aravindh-murugesan/wanderly-go/internal/readiness"
)

// flakyBackend answers 503 until the given number of requests has been served.
func flakyBackend(t *testing.T, failures int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != readiness.DefaultReadyPath {
			http.NotFound(w, r)
			return
		}
		if hits.Add(1) <= failures {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestRunReadinessWorkflow_PrintNavigator(t *testing.T) {
	backend, hits := flakyBackend(t, 2)

	var mu sync.Mutex
	var received []notifications.ReadinessReached
	hook := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var n notifications.ReadinessReached
		if err := json.NewDecoder(r.Body).Decode(&n); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		mu.Lock()
		received = append(received, n)
		mu.Unlock()
	}))
	defer hook.Close()

	var out bytes.Buffer
	result, err := RunReadinessWorkflow(context.Background(), WaitOptions{
		BaseURL:   backend.URL,
		Interval:  10 * time.Millisecond,
		Navigator: NavigatorPrint,
		Webhook:   notifications.Webhook{URL: hook.URL},
		Out:       &out,
		StatusOut: &out,
	})
	require.NoError(t, err)

	assert.Equal(t, 3, result.Attempts)
	assert.Equal(t, int32(3), hits.Load())
	assert.Equal(t, readiness.DefaultLoginPath, result.Target)

	text := out.String()
	for i := 1; i <= 3; i++ {
		assert.Contains(t, text, readiness.StatusText(i))
	}
	assert.Contains(t, text, backend.URL+"/login")
	assert.Less(t, strings.Index(text, readiness.StatusText(3)), strings.Index(text, backend.URL+"/login"), "navigation happens after the last attempt")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 1)
	assert.Equal(t, ServiceName, received[0].Service)
	assert.Equal(t, 3, received[0].Attempts)
	assert.Equal(t, "/login", received[0].Target)
}

func TestRunReadinessWorkflow_TimeoutNeverNavigates(t *testing.T) {
	backend, _ := flakyBackend(t, 1<<30)

	var out bytes.Buffer
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	result, err := RunReadinessWorkflow(ctx, WaitOptions{
		BaseURL:   backend.URL,
		Interval:  10 * time.Millisecond,
		Out:       &out,
		StatusOut: &out,
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Empty(t, result.Target)
	assert.NotContains(t, out.String(), "/login")
}

func TestRunReadinessWorkflow_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts WaitOptions
	}{
		{name: "Unknown Navigator", opts: WaitOptions{BaseURL: "http://localhost:5003", Navigator: "carrier-pigeon"}},
		{name: "Unknown Source", opts: WaitOptions{BaseURL: "http://localhost:5003", Source: "consul"}},
		{name: "Invalid Base URL", opts: WaitOptions{BaseURL: "localhost:5003"}},
		{name: "Invalid Deployment Ref", opts: WaitOptions{BaseURL: "http://localhost:5003", Source: SourceKubernetes, KubeDeployment: "a/b/c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Out = &bytes.Buffer{}
			tt.opts.StatusOut = tt.opts.Out
			_, err := RunReadinessWorkflow(context.Background(), tt.opts)
			assert.Error(t, err)
		})
	}
}

func TestStatusFanout(t *testing.T) {
	var a, b []string
	fan := statusFanout{
		readiness.StatusFunc(func(s string) { a = append(a, s) }),
		readiness.StatusFunc(func(s string) { b = append(b, s) }),
	}
	fan.SetText("Attempt 1")
	assert.Equal(t, []string{"Attempt 1"}, a)
	assert.Equal(t, []string{"Attempt 1"}, b)
}
