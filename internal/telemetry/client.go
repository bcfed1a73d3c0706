package telemetry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"valvewatch"
)

const (
	historyPath = "/api/history"

	// The feed is typically exposed through an ngrok tunnel; this header
	// bypasses its interstitial warning page.
	headerSkipWarning = "ngrok-skip-browser-warning"

	requestTimeout = 5 * time.Second
)

// ErrOffline covers every fetch failure uniformly: network error, non-2xx
// status, or a malformed body.
var ErrOffline = errors.New("telemetry source offline")

// Client fetches the full history list from a remote telemetry endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient builds a client for the given base URL. A trailing slash is
// stripped so path joining stays predictable.
func NewClient(rawURL string) *Client {
	return &Client{
		baseURL: NormalizeBaseURL(rawURL),
		http:    &http.Client{Timeout: requestTimeout},
	}
}

// NormalizeBaseURL strips a single trailing slash from the user-supplied URL.
func NormalizeBaseURL(rawURL string) string {
	return strings.TrimSuffix(strings.TrimSpace(rawURL), "/")
}

// BaseURL returns the normalized endpoint base.
func (c *Client) BaseURL() string { return c.baseURL }

// FetchHistory issues GET {base}/api/history and decodes the JSON array of
// log records. Any failure mode is wrapped in ErrOffline.
func (c *Client) FetchHistory(ctx context.Context) ([]valvewatch.LogRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+historyPath, nil)
	if err != nil {
		return nil, fmt.Errorf("build history request: %w", err)
	}
	req.Header.Set(headerSkipWarning, "true")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOffline, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("%w: status %d", ErrOffline, resp.StatusCode)
	}

	var records []valvewatch.LogRecord
	if err := json.NewDecoder(resp.Body).Decode(&records); err != nil {
		return nil, fmt.Errorf("%w: decode body: %v", ErrOffline, err)
	}
	return records, nil
}
