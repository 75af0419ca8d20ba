// Package confluence is a small client for the Confluence Cloud REST API,
// covering what the rollover workflow needs: spaces, page trees, page
// bodies, hierarchy copies and long-running tasks.
package confluence

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/goccy/go-json"
)

const (
	defaultTimeout   = 30 * time.Second
	defaultAttempts  = 3
	defaultDelay     = time.Second
	defaultPageLimit = 25
)

// ErrNotFound is matched by errors for missing pages, spaces or tasks.
var ErrNotFound = errors.New("confluence: not found")

// APIError is a non-2xx response.
type APIError struct {
	Method string
	URL    string
	Status int
	Body   string
}

func (e *APIError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	return fmt.Sprintf("confluence: %s %s: %d %s: %s", e.Method, e.URL, e.Status, http.StatusText(e.Status), body)
}

// Is makes a 404 match ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == ErrNotFound && e.Status == http.StatusNotFound
}

// Temporary reports whether retrying the request may succeed.
func (e *APIError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= 500
}

// Config configures a Client.
type Config struct {
	// BaseURL is the site root, e.g. https://example.atlassian.net.
	BaseURL string
	Email   string
	Token   string

	Timeout   time.Duration
	Attempts  uint
	Delay     time.Duration
	PageLimit int

	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client talks to one Confluence site.
type Client struct {
	base     *url.URL
	email    string
	token    string
	http     *http.Client
	attempts uint
	delay    time.Duration
	limit    int
	logger   *slog.Logger
}

// New validates cfg and builds a client.
func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("confluence: base URL is required")
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("confluence: base URL: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("confluence: base URL %q must be absolute", cfg.BaseURL)
	}

	c := &Client{
		base:     base,
		email:    cfg.Email,
		token:    cfg.Token,
		http:     cfg.HTTPClient,
		attempts: cfg.Attempts,
		delay:    cfg.Delay,
		limit:    cfg.PageLimit,
		logger:   cfg.Logger,
	}
	if c.http == nil {
		timeout := cfg.Timeout
		if timeout == 0 {
			timeout = defaultTimeout
		}
		c.http = &http.Client{Timeout: timeout}
	}
	if c.attempts == 0 {
		c.attempts = defaultAttempts
	}
	if c.delay == 0 {
		c.delay = defaultDelay
	}
	if c.limit <= 0 {
		c.limit = defaultPageLimit
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c, nil
}

// resolve joins a path (optionally carrying its own query) onto the base.
func (c *Client) resolve(path string, query url.Values) (string, error) {
	ref, err := url.Parse(path)
	if err != nil {
		return "", err
	}
	u := c.base.ResolveReference(&url.URL{Path: c.base.Path + ref.Path, RawQuery: ref.RawQuery})
	if len(query) > 0 {
		q := u.Query()
		for k, vs := range query {
			for _, v := range vs {
				q.Add(k, v)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// do sends one request with retries and decodes a JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) (http.Header, error) {
	target, err := c.resolve(path, query)
	if err != nil {
		return nil, fmt.Errorf("confluence: %w", err)
	}
	var payload []byte
	if in != nil {
		payload, err = json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("confluence: encode request: %w", err)
		}
	}

	var header http.Header
	attempt := 0
	err = retry.Do(
		func() error {
			attempt++
			h, err := c.send(ctx, method, target, payload, out)
			header = h
			return err
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.LastErrorOnly(true),
		retry.RetryIf(retryPolicy(method)),
		retry.OnRetry(func(n uint, err error) {
			c.logger.Debug("retrying request", "method", method, "url", target, "attempt", n+1, "error", err)
		}),
	)
	if err != nil {
		return nil, err
	}
	c.logger.Debug("request done", "method", method, "url", target, "attempts", attempt)
	return header, nil
}

func (c *Client) send(ctx context.Context, method, target string, payload []byte, out any) (http.Header, error) {
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, retry.Unrecoverable(err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.email != "" || c.token != "" {
		req.SetBasicAuth(c.email, c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("confluence: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp.Header, &APIError{Method: method, URL: target, Status: resp.StatusCode, Body: string(data)}
	}
	if out != nil && len(bytes.TrimSpace(data)) > 0 {
		if err := json.Unmarshal(data, out); err != nil {
			return resp.Header, retry.Unrecoverable(fmt.Errorf("confluence: decode %s %s: %w", method, target, err))
		}
	}
	return resp.Header, nil
}

// retryPolicy limits retries of non-idempotent requests to rate limiting,
// which the server answers before doing any work.
func retryPolicy(method string) func(error) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodPut, http.MethodDelete:
		return retryable
	}
	return func(err error) bool {
		var apiErr *APIError
		return errors.As(err, &apiErr) && apiErr.Status == http.StatusTooManyRequests
	}
}

func retryable(err error) bool {
	if !retry.IsRecoverable(err) {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Temporary()
	}
	return true
}
