// Package fetch is the shared HTTP client used by all source extractors.
package fetch

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"
)

// Client wraps an http.Client with the fixed per-request timeout and
// User-Agent every source fetch uses.
type Client struct {
	http      *http.Client
	userAgent string
}

// New creates a Client. A zero timeout falls back to 20 seconds.
func New(timeout time.Duration, userAgent string) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: userAgent,
	}
}

// UserAgent returns the configured User-Agent string.
func (c *Client) UserAgent() string {
	return c.userAgent
}

// Timeout returns the per-request timeout.
func (c *Client) Timeout() time.Duration {
	return c.http.Timeout
}

// Get fetches the URL and returns the response body. Any non-200 status is
// an error; callers absorb it as "zero events from this source".
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if url == "" {
		return nil, errors.New("fetch: empty url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New("fetch: " + resp.Status)
	}

	return io.ReadAll(resp.Body)
}

// RedactURL trims a URL down to its host for logging, so tokens or private
// paths in source URLs never reach the logs.
func RedactURL(u string) string {
	const suffix = "/..."

	i := -1
	for idx := 0; idx+2 < len(u); idx++ {
		if u[idx:idx+3] == "://" {
			i = idx + 3
			break
		}
	}
	if i == -1 {
		return "..."
	}

	j := i
	for j < len(u) && u[j] != '/' {
		j++
	}
	if j == len(u) {
		return u
	}
	return u[:j] + suffix
}
