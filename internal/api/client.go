// Package api is the HTTP client for the IPP backend.
package api

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

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/jonathan/ipp-client/internal/logging"
)

// DefaultTimeout is the per-request timeout.
const DefaultTimeout = 30 * time.Second

// Client talks to the backend. Requests made through an authenticated client carry
// the bearer token from its oauth2.TokenSource.
type Client struct {
	baseURL string
	raw     *http.Client // unauthenticated
	http    *http.Client // raw, or raw wrapped with the bearer transport
	ts      oauth2.TokenSource
	logger  *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.raw = hc }
}

// WithTimeout sets the request timeout of the default HTTP client.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.raw.Timeout = d
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithTokenSource authenticates every request with tokens from ts.
func WithTokenSource(ts oauth2.TokenSource) Option {
	return func(c *Client) { c.ts = ts }
}

// New creates a client for baseURL (e.g. http://localhost:8000/api).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		raw:     &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.http = c.raw
	if c.ts != nil {
		c.http = bearerClient(c.raw, c.ts)
	}
	c.logger = logging.OrDiscard(c.logger)
	return c
}

// Authenticated returns a copy of c whose requests carry tokens from ts.
func (c *Client) Authenticated(ts oauth2.TokenSource) *Client {
	cp := *c
	cp.ts = ts
	cp.http = bearerClient(c.raw, ts)
	return &cp
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

func bearerClient(raw *http.Client, ts oauth2.TokenSource) *http.Client {
	base := raw.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	return &http.Client{
		Transport: &oauth2.Transport{Source: ts, Base: base},
		Timeout:   raw.Timeout,
	}
}

// request describes one API call.
type request struct {
	method      string
	path        string
	body        io.Reader
	contentType string
	header      http.Header
	anonymous   bool // use the unauthenticated client
}

func jsonRequest(method, path string, payload any) (request, error) {
	r := request{method: method, path: path}
	if payload == nil {
		return r, nil
	}
	bs, err := json.Marshal(payload)
	if err != nil {
		return r, fmt.Errorf("encode json: %w", err)
	}
	r.body = bytes.NewReader(bs)
	r.contentType = "application/json"
	return r, nil
}

// do executes r and decodes a 2xx JSON body into out (if non-nil). Non-2xx responses
// become *HTTPError.
func (c *Client) do(ctx context.Context, r request, out any) error {
	reqID := uuid.New().String()
	start := time.Now()

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, r.body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", reqID)
	if r.contentType != "" {
		req.Header.Set("Content-Type", r.contentType)
	}
	for k, vs := range r.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	hc := c.http
	if r.anonymous {
		hc = c.raw
	}

	c.logger.Debug("api.http.request", "req_id", reqID, "method", r.method, "path", r.path)

	resp, err := hc.Do(req)
	if err != nil {
		c.logger.Debug("api.http.send_error", "req_id", reqID, "error", err,
			"elapsed_ms", time.Since(start).Milliseconds())
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	c.logger.Debug("api.http.response",
		"req_id", reqID,
		"status", resp.StatusCode,
		"bytes", len(raw),
		"elapsed_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode/100 != 2 {
		return &HTTPError{
			Method:     r.method,
			Path:       r.path,
			StatusCode: resp.StatusCode,
			Detail:     parseDetail(raw),
		}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", r.method, r.path, err)
	}
	return nil
}
