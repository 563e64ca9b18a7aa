// Package grocy implements catalog.Client against the Grocy REST API.
//
// Every request carries the GROCY-API-KEY header and runs under its own
// timeout. Failures are reported as *catalog.Error so callers can tell a
// backend that could not be reached from one that refused the request.
// Requests are never retried: stock bookings are not idempotent.
package grocy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/roach88/barcodebuddy/internal/catalog"
)

// DefaultTimeout bounds a single request when no timeout is configured.
const DefaultTimeout = 10 * time.Second

// maxResponseBytes caps how much of a response body is read.
const maxResponseBytes = 8 << 20

const apiKeyHeader = "GROCY-API-KEY"

// Credentials supplies the API base URL and key. They are read on every
// request so a changed setting applies to the next call.
// Implemented by *config.Store.
type Credentials interface {
	GrocyCredentials(ctx context.Context) (url, apiKey string, err error)
}

// StaticCredentials is a fixed URL and key.
type StaticCredentials struct {
	URL    string
	APIKey string
}

// GrocyCredentials implements Credentials.
func (c StaticCredentials) GrocyCredentials(context.Context) (string, string, error) {
	return c.URL, c.APIKey, nil
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithLogger sets the logger for request diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithClock sets the time source used for default best before dates.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

// Client talks to one Grocy instance.
type Client struct {
	creds   Credentials
	http    *http.Client
	timeout time.Duration
	now     func() time.Time
	logger  *slog.Logger
}

var _ catalog.Client = (*Client)(nil)

// New creates a Client.
func New(creds Credentials, opts ...Option) *Client {
	c := &Client{
		creds:   creds,
		http:    &http.Client{},
		timeout: DefaultTimeout,
		now:     time.Now,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// errorBody covers both error shapes Grocy uses: a top-level error_message and
// an embedded response status.
type errorBody struct {
	ErrorMessage string `json:"error_message"`
	Response     *struct {
		Status       string `json:"status"`
		ErrorMessage string `json:"errormessage"`
	} `json:"response"`
}

func (b errorBody) message() string {
	if b.ErrorMessage != "" {
		return b.ErrorMessage
	}
	if b.Response != nil {
		return b.Response.ErrorMessage
	}
	return ""
}

func (b errorBody) embeddedError() bool {
	return b.Response != nil && strings.EqualFold(b.Response.Status, "ERROR")
}

// do sends one request. A nil body sends no payload; a nil out ignores the
// response body after status checks.
func (c *Client) do(ctx context.Context, op, method, path string, body, out any) error {
	baseURL, apiKey, err := c.creds.GrocyCredentials(ctx)
	if err != nil {
		return catalog.NewError(catalog.ErrCodeUnauthorized, op, "read credentials", err)
	}
	if baseURL == "" {
		return catalog.NewError(catalog.ErrCodeUnauthorized, op, "API URL is not configured", nil)
	}
	url := strings.TrimRight(baseURL, "/") + "/" + strings.TrimLeft(path, "/")

	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		payload = bytes.NewReader(b)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, url, payload)
	if err != nil {
		return catalog.NewError(catalog.ErrCodeRemoteUnavailable, op, "build request", err)
	}
	req.Header.Set(apiKeyHeader, apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return transportError(op, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return transportError(op, err)
	}
	c.logger.Debug("grocy request",
		"op", op, "method", method, "path", path,
		"status", resp.StatusCode, "duration", time.Since(start))

	var eb errorBody
	_ = json.Unmarshal(raw, &eb)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp.StatusCode, eb.message())
	}
	if eb.embeddedError() {
		return catalog.NewError(catalog.ErrCodeMalformedResponse, op, eb.message(), nil)
	}

	if out == nil {
		return nil
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return catalog.NewError(catalog.ErrCodeMalformedResponse, op, "empty response body", nil)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return catalog.NewError(catalog.ErrCodeMalformedResponse, op, "decode response", err)
	}
	return nil
}

func transportError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return catalog.NewError(catalog.ErrCodeTimeout, op, "request timed out", err)
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return catalog.NewError(catalog.ErrCodeTimeout, op, "request timed out", err)
	}
	return catalog.NewError(catalog.ErrCodeRemoteUnavailable, op, "could not connect to server", err)
}

func statusError(op string, status int, message string) error {
	if message == "" {
		message = http.StatusText(status)
	}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return catalog.NewError(catalog.ErrCodeUnauthorized, op, message, nil)
	case status == http.StatusNotFound:
		return catalog.NewError(catalog.ErrCodeNotFound, op, message, nil)
	case status >= 400 && status <= 499:
		return catalog.NewError(catalog.ErrCodeRejected, op, message, nil)
	default:
		return catalog.NewError(catalog.ErrCodeRemoteUnavailable, op,
			fmt.Sprintf("server returned %d: %s", status, message), nil)
	}
}
