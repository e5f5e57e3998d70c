// Package client is the base process's HTTP client for talking to a
// single worker container. One Client instance is bound to one
// worker's EndpointURL; the dispatcher builds one per request from the
// registered worker's EndpointURL.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/config"
	"go.uber.org/fx"

	lsperrors "github.com/lsproxy-dev/lsproxy/src/internal/errors"
)

const (
	_configKeyTimeoutSeconds = "client.timeout_seconds"
	_configKeyRetries        = "client.retries"
	_configKeyRetryBackoffMs = "client.retry_backoff_ms"

	defaultTimeout      = 30 * time.Second
	defaultRetries      = 1
	defaultRetryBackoff = 200 * time.Millisecond
)

// Module provides a Factory from configuration.
var Module = fx.Provide(NewFactory)

// Factory builds a Client bound to a worker's base URL, sharing one
// retry/timeout policy read from configuration.
type Factory struct {
	timeout      time.Duration
	retries      int
	retryBackoff time.Duration
}

// NewFactory reads client.timeout_seconds, client.retries, and
// client.retry_backoff_ms, falling back to spec defaults (30s, 1 retry,
// 200ms) when a key is absent.
func NewFactory(cfg config.Provider) (*Factory, error) {
	f := &Factory{
		timeout:      defaultTimeout,
		retries:      defaultRetries,
		retryBackoff: defaultRetryBackoff,
	}

	if v := cfg.Get(_configKeyTimeoutSeconds); v.HasValue() {
		var seconds float64
		if err := v.Populate(&seconds); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", _configKeyTimeoutSeconds, err)
		}
		f.timeout = time.Duration(seconds * float64(time.Second))
	}
	if v := cfg.Get(_configKeyRetries); v.HasValue() {
		if err := v.Populate(&f.retries); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", _configKeyRetries, err)
		}
	}
	if v := cfg.Get(_configKeyRetryBackoffMs); v.HasValue() {
		var ms int
		if err := v.Populate(&ms); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", _configKeyRetryBackoffMs, err)
		}
		f.retryBackoff = time.Duration(ms) * time.Millisecond
	}

	return f, nil
}

// For returns a Client bound to baseURL, e.g. a worker's EndpointURL.
func (f *Factory) For(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpc:   &http.Client{Timeout: f.timeout},
		retries: f.retries,
		backoff: f.retryBackoff,
	}
}

// Client is a small typed HTTP client over one worker's REST surface.
// Network errors map to TransportError; non-2xx responses map to
// WorkerError carrying the status and body; 2xx responses are decoded
// into the caller's result.
type Client struct {
	baseURL string
	httpc   *http.Client
	retries int
	backoff time.Duration
}

// WorkerError reports a non-2xx HTTP response from a worker.
type WorkerError struct {
	Status int
	Body   string
}

func (e *WorkerError) Error() string {
	return fmt.Sprintf("worker returned %d: %s", e.Status, e.Body)
}

// Post sends body as JSON to path and decodes the response into result.
// A nil result discards the response body after checking its status.
func (c *Client) Post(ctx context.Context, path string, body, result interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("encoding request body: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, payload, result)
}

// Get issues a GET request and decodes the response into result.
func (c *Client) Get(ctx context.Context, path string, result interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, result)
}

func (c *Client) do(ctx context.Context, method, path string, payload []byte, result interface{}) error {
	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return &lsperrors.TransportError{Cause: ctx.Err()}
			case <-time.After(c.backoff):
			}
		}

		err := c.attempt(ctx, method, path, payload, result)
		if err == nil {
			return nil
		}
		lastErr = err

		// Only transport-level failures are retried; a well-formed
		// WorkerError means the worker is alive and answered.
		var workerErr *WorkerError
		if isWorkerError(err, &workerErr) {
			return err
		}
	}
	return lastErr
}

func (c *Client) attempt(ctx context.Context, method, path string, payload []byte, result interface{}) error {
	var bodyReader io.Reader
	if payload != nil {
		bodyReader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return &lsperrors.TransportError{Cause: err}
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return &lsperrors.TransportError{Cause: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return &lsperrors.TransportError{Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &WorkerError{Status: resp.StatusCode, Body: string(respBody)}
	}

	if result == nil || len(respBody) == 0 {
		return nil
	}
	if err := json.Unmarshal(respBody, result); err != nil {
		return &lsperrors.TransportError{Cause: err}
	}
	return nil
}

func isWorkerError(err error, target **WorkerError) bool {
	we, ok := err.(*WorkerError)
	if ok {
		*target = we
	}
	return ok
}
