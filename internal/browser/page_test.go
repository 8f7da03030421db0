package browser

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/playwright-community/playwright-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aravindh-murugesan/wanderly-go/internal/readiness"
)

type fakePage struct {
	scripts []string
	args    []interface{}
	evalErr error

	visited []string
	gotoErr error
}

func (f *fakePage) Evaluate(expression string, arg ...interface{}) (interface{}, error) {
	f.scripts = append(f.scripts, expression)
	f.args = append(f.args, arg...)
	return nil, f.evalErr
}

func (f *fakePage) Goto(url string, _ ...playwright.PageGotoOptions) (playwright.Response, error) {
	f.visited = append(f.visited, url)
	return nil, f.gotoErr
}

func TestPageStatus_SetText(t *testing.T) {
	page := &fakePage{}
	status := NewPageStatus(page, nil)

	status.SetText(readiness.StatusText(1))
	status.SetText(readiness.StatusText(2))

	require.Len(t, page.scripts, 2)
	assert.Contains(t, page.scripts[0], `getElementById("attempts")`)
	assert.Equal(t, []interface{}{readiness.StatusText(1), readiness.StatusText(2)}, page.args)
	assert.Equal(t, readiness.StatusText(2), status.Text())
}

func TestPageStatus_EvaluateFailureIsSwallowed(t *testing.T) {
	page := &fakePage{evalErr: errors.New("target closed")}
	status := NewPageStatus(page, nil)

	assert.NotPanics(t, func() { status.SetText("Attempt 1") })
	assert.Equal(t, "Attempt 1", status.Text())
}

func TestPageNavigator_Navigate(t *testing.T) {
	tests := []struct {
		name      string
		baseURL   string
		gotoErr   error
		wantURL   string
		wantError bool
	}{
		{name: "Resolves Login Path", baseURL: "http://localhost:5003", wantURL: "http://localhost:5003/login"},
		{name: "Absolute Path Drops Base Path", baseURL: "https://wanderly.example/app/", wantURL: "https://wanderly.example/login"},
		{name: "Goto Failure", baseURL: "http://localhost:5003", gotoErr: errors.New("net::ERR_CONNECTION_REFUSED"), wantURL: "http://localhost:5003/login", wantError: true},
		{name: "Invalid Base", baseURL: "localhost", wantError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := &fakePage{gotoErr: tt.gotoErr}
			nav := &PageNavigator{BaseURL: tt.baseURL, Page: page}

			err := nav.Navigate(context.Background(), readiness.DefaultLoginPath)
			if tt.wantError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantURL != "" {
				assert.Equal(t, []string{tt.wantURL}, page.visited)
			} else {
				assert.Empty(t, page.visited)
			}
		})
	}
}

func TestPageNavigator_CancelledContext(t *testing.T) {
	page := &fakePage{}
	nav := &PageNavigator{BaseURL: "http://localhost:5003", Page: page}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, nav.Navigate(ctx, "/login"), context.Canceled)
	assert.Empty(t, page.visited)
}

func TestWaitingPage_HasAttemptsElement(t *testing.T) {
	assert.True(t, strings.Contains(WaitingPage, `id="attempts"`))
}
