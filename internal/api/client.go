// Package api is the single HTTP gateway to the subscription REST API.
// Every request passes through one interceptor chain, which is where the
// bearer token, request IDs, logging and metrics are attached.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultTimeout bounds every request unless overridden with WithTimeout.
const DefaultTimeout = 10 * time.Second

// RoundTrip sends one prepared request.
type RoundTrip func(req *http.Request) (*http.Response, error)

// Interceptor wraps a RoundTrip. Interceptors run in the order given to
// WithInterceptors, the first being outermost.
type Interceptor func(next RoundTrip) RoundTrip

// Client handles communication with the subscription API.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	timeout      time.Duration
	interceptors []Interceptor
	send         RoundTrip
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.timeout = d }
}

// WithInterceptors appends interceptors to the chain.
func WithInterceptors(interceptors ...Interceptor) Option {
	return func(c *Client) { c.interceptors = append(c.interceptors, interceptors...) }
}

// NewClient creates a client rooted at baseURL (e.g. "http://localhost:8080/api").
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base URL %q", baseURL)
	}

	c := &Client{
		httpClient: &http.Client{},
		baseURL:    strings.TrimRight(baseURL, "/"),
		timeout:    DefaultTimeout,
	}
	for _, opt := range opts {
		opt(c)
	}

	send := RoundTrip(c.httpClient.Do)
	for i := len(c.interceptors) - 1; i >= 0; i-- {
		send = c.interceptors[i](send)
	}
	c.send = send

	return c, nil
}

// BaseURL returns the endpoint every path is resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get fetches path with the given query and decodes the response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.Do(ctx, http.MethodGet, path, query, nil, out)
}

// Post sends body as JSON and decodes the response into out.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPost, path, nil, body, out)
}

// Put sends body as JSON and decodes the response into out.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.Do(ctx, http.MethodPut, path, nil, body, out)
}

// Delete removes the resource at path. The response body is discarded.
func (c *Client) Delete(ctx context.Context, path string) error {
	return c.Do(ctx, http.MethodDelete, path, nil, nil, nil)
}

// Do performs one request. query and body may be nil; out may be nil to
// discard the response body.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	target := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if len(query) > 0 {
		target += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, method, target, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.send(req)
	if err != nil {
		return c.transportError(ctx, reqCtx, method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return c.transportError(ctx, reqCtx, method, path, fmt.Errorf("failed to read response body: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newHTTPError(resp.StatusCode, data)
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// transportError separates caller cancellation from our own timeout.
func (c *Client) transportError(parent, reqCtx context.Context, method, path string, err error) error {
	if parent.Err() != nil {
		return parent.Err()
	}
	var netErr interface{ Timeout() bool }
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		return &TimeoutError{Method: method, Path: path, After: c.timeout}
	}
	return fmt.Errorf("failed to execute request: %w", err)
}

func newHTTPError(status int, body []byte) *HTTPError {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if eb.Message != "" {
			return &HTTPError{Status: status, Message: eb.Message}
		}
		if eb.Error != "" {
			return &HTTPError{Status: status, Message: eb.Error}
		}
	}
	return &HTTPError{Status: status, Message: http.StatusText(status)}
}
