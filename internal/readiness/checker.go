package readiness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// StatusError is returned by HTTPChecker when the endpoint answers with a non-2xx code.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: readiness endpoint returned %d", ErrNotReady, e.Code)
}

// Is lets errors.Is(err, ErrNotReady) match HTTP-level refusals.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotReady
}

// HTTPChecker issues GET requests against a readiness endpoint.
//
// Every request carries cache-bypass headers and the default client disables
// keep-alives, so each attempt reaches the live endpoint rather than a cache.
// Any 2xx response is "ready"; everything else, including transport errors, is not.
type HTTPChecker struct {
	URL    string
	Client *http.Client
}

// NewHTTPChecker resolves readyPath against baseURL.
// A nil client gets a 10s timeout client with keep-alives disabled.
func NewHTTPChecker(baseURL, readyPath string, client *http.Client) (*HTTPChecker, error) {
	target, err := ResolveURL(baseURL, readyPath)
	if err != nil {
		return nil, err
	}
	if client == nil {
		client = &http.Client{
			Timeout:   10 * time.Second,
			Transport: &http.Transport{DisableKeepAlives: true, Proxy: http.ProxyFromEnvironment},
		}
	}
	return &HTTPChecker{URL: target, Client: client}, nil
}

// Check performs one readiness request.
func (c *HTTPChecker) Check(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to build readiness request: %w", err)
	}
	req.Header.Set("Cache-Control", "no-cache, no-store, max-age=0")
	req.Header.Set("Pragma", "no-cache")

	resp, err := c.Client.Do(req)
	if err != nil {
		return fmt.Errorf("readiness request failed: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &StatusError{Code: resp.StatusCode}
	}
	return nil
}

// ResolveURL joins a path (or absolute URL) onto a base URL.
func ResolveURL(baseURL, path string) (string, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base url '%s': %w", baseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return "", fmt.Errorf("invalid base url '%s': scheme and host are required", baseURL)
	}
	ref, err := url.Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid path '%s': %w", path, err)
	}
	return base.ResolveReference(ref).String(), nil
}

// IsNotReady reports whether err is an explicit "not ready" answer rather than a transport failure.
// The poller does not use the distinction; it only feeds logging.
func IsNotReady(err error) bool {
	return errors.Is(err, ErrNotReady)
}
