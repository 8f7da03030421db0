package guard

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// HTTPSubmitter sends forms the way a browser would: url-encoded POST bodies
// or GET query strings. Responses of 400 and above are errors.
type HTTPSubmitter struct {
	Client *http.Client
}

// NewHTTPSubmitter returns a submitter with a 30s timeout client when client is nil.
func NewHTTPSubmitter(client *http.Client) *HTTPSubmitter {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPSubmitter{Client: client}
}

func (s *HTTPSubmitter) Submit(ctx context.Context, f *Form) error {
	var req *http.Request
	var err error

	switch f.Method {
	case http.MethodPost:
		req, err = http.NewRequestWithContext(ctx, http.MethodPost, f.Action, strings.NewReader(f.Values.Encode()))
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	default:
		target, perr := url.Parse(f.Action)
		if perr != nil {
			return fmt.Errorf("invalid form action '%s': %w", f.Action, perr)
		}
		target.RawQuery = f.Values.Encode()
		req, err = http.NewRequestWithContext(ctx, http.MethodGet, target.String(), nil)
		if err != nil {
			return fmt.Errorf("failed to build request: %w", err)
		}
	}

	resp, err := s.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 400 {
		return fmt.Errorf("server answered %d", resp.StatusCode)
	}
	return nil
}

// FetchForms downloads a page and parses its forms, wiring them to submitter.
func FetchForms(ctx context.Context, client *http.Client, pageURL string, submitter Submitter) ([]*Form, error) {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build page request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch page %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to fetch page %s: server answered %d", pageURL, resp.StatusCode)
	}

	// Resolve actions against the final URL in case the page redirected.
	return ParseForms(resp.Body, resp.Request.URL.String(), submitter)
}
