// Package backend talks to the farm assistant HTTP backend: transcript
// delivery for the recognition transport plus account sign-in and sign-up.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"farmvoice/internal/domain"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Client is the backend HTTP client.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *slog.Logger
	now     func() time.Time
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(c *http.Client) Option {
	return func(cl *Client) { cl.http = c }
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(cl *Client) { cl.logger = logger }
}

// WithClock overrides the time source used for query timestamps.
func WithClock(now func() time.Time) Option {
	return func(cl *Client) { cl.now = now }
}

// New creates a client for the backend rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  slog.New(slog.DiscardHandler),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type askRequest struct {
	Query     string `json:"query"`
	Timestamp string `json:"timestamp"`
}

type askResponse struct {
	Response string `json:"response"`
}

// Ask delivers one finalized transcript and returns the backend's reply. An
// empty reply is not an error. Every failure wraps domain.ErrDeliveryFailed.
func (c *Client) Ask(ctx context.Context, query string) (string, error) {
	if c.baseURL == "" {
		return "", fmt.Errorf("%w: backend url is not configured", domain.ErrDeliveryFailed)
	}

	req := askRequest{
		Query:     query,
		Timestamp: c.now().UTC().Format(TimestampLayout),
	}

	var resp askResponse
	status, raw, err := c.post(ctx, c.baseURL, req)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrDeliveryFailed, err)
	}
	if status < 200 || status > 299 {
		return "", fmt.Errorf("%w: backend returned status %d", domain.ErrDeliveryFailed, status)
	}
	if err := json.Unmarshal(raw, &resp); err != nil {
		return "", fmt.Errorf("%w: invalid backend response: %w", domain.ErrDeliveryFailed, err)
	}

	c.logger.Debug("query delivered", "status", status, "reply_chars", len(resp.Response))
	return resp.Response, nil
}

// post sends body as JSON and returns the status and raw response body.
func (c *Client) post(ctx context.Context, url string, body any) (int, []byte, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return 0, nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("read response: %w", err)
	}
	return resp.StatusCode, raw, nil
}
