// Package gateway is the single outbound request pipeline of the client
// core. Every call resolves to a result.Envelope; nothing here returns an
// error or retries.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/wanderplan/wanderplan/internal/credentials"
	"github.com/wanderplan/wanderplan/internal/metrics"
	"github.com/wanderplan/wanderplan/internal/result"
)

const (
	// NetworkErrorMessage is reported whenever the transport could not
	// complete a round trip.
	NetworkErrorMessage = "Network error"
	// InvalidResponseMessage is reported for 2xx bodies that are not JSON.
	InvalidResponseMessage = "Invalid response"
	// InvalidRequestMessage is reported when a request could not be built.
	InvalidRequestMessage = "Invalid request"

	contentTypeJSON = "application/json"
	maxBodyBytes    = 8 << 20
	defaultTimeout  = 15 * time.Second
)

// Config configures a Client. One client serves one base URL.
type Config struct {
	BaseURL string
	Timeout time.Duration
	// Transport overrides the HTTP round tripper; nil uses the default.
	Transport http.RoundTripper
}

// Options describes one request.
type Options struct {
	Method string
	// Route is the metrics label for parametrized endpoints such as
	// /places/{id}. Defaults to the endpoint, or to scheme://host for an
	// absolute URL.
	Route     string
	Query     url.Values
	Body      any
	Multipart *Multipart
	Headers   map[string]string
}

// Client sends authenticated JSON requests against a base URL.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  credentials.Reader
	logger  *slog.Logger
	metrics *metrics.Gateway
}

// New builds a client. tokens may be nil for unauthenticated third-party
// hosts; m may be nil to skip metrics.
func New(cfg Config, tokens credentials.Reader, logger *slog.Logger, m *metrics.Gateway) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		http:    &http.Client{Timeout: timeout, Transport: cfg.Transport},
		tokens:  tokens,
		logger:  logger,
		metrics: m,
	}
}

// BaseURL returns the base every relative endpoint is resolved against.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request.
func (c *Client) Get(ctx context.Context, endpoint string, query url.Values) result.Envelope[json.RawMessage] {
	return c.Request(ctx, endpoint, Options{Method: http.MethodGet, Query: query})
}

// Post performs a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, endpoint string, body any) result.Envelope[json.RawMessage] {
	return c.Request(ctx, endpoint, Options{Method: http.MethodPost, Body: body})
}

// Put performs a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, endpoint string, body any) result.Envelope[json.RawMessage] {
	return c.Request(ctx, endpoint, Options{Method: http.MethodPut, Body: body})
}

// Delete performs a DELETE request.
func (c *Client) Delete(ctx context.Context, endpoint string) result.Envelope[json.RawMessage] {
	return c.Request(ctx, endpoint, Options{Method: http.MethodDelete})
}

// Upload performs a multipart POST request.
func (c *Client) Upload(ctx context.Context, endpoint string, form *Multipart) result.Envelope[json.RawMessage] {
	return c.Request(ctx, endpoint, Options{Method: http.MethodPost, Multipart: form})
}

// Request sends one request and normalizes the outcome into an envelope.
// Successful bodies are returned verbatim; un-nesting is left to callers.
func (c *Client) Request(ctx context.Context, endpoint string, opts Options) result.Envelope[json.RawMessage] {
	start := time.Now()
	method := opts.Method
	if method == "" {
		method = http.MethodGet
	}
	route := metricLabel(endpoint, opts.Route)
	target := c.resolve(endpoint, opts.Query)

	req, err := c.build(ctx, method, target, opts)
	if err != nil {
		c.metrics.Observe(route, method, metrics.OutcomeInvalidRequest, time.Since(start))
		c.logger.Warn("gateway request not built", slog.String("endpoint", endpoint), slog.Any("error", err))
		return result.Fail[json.RawMessage](result.ErrorInfo{
			Message: InvalidRequestMessage,
			Path:    endpoint,
			Args:    []string{err.Error()},
		})
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return c.networkFailure(route, method, endpoint, target, err, start)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return c.networkFailure(route, method, endpoint, target, err, start)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		info := httpFailure(body, resp.StatusCode, endpoint)
		c.metrics.Observe(route, method, metrics.OutcomeHTTPError, time.Since(start))
		c.logger.Warn("gateway request failed",
			slog.String("method", method),
			slog.String("endpoint", endpoint),
			slog.Int("status", resp.StatusCode),
			slog.String("message", info.Message),
		)
		return result.Fail[json.RawMessage](info)
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		trimmed = []byte("null")
	}
	if !json.Valid(trimmed) {
		c.metrics.Observe(route, method, metrics.OutcomeInvalidResponse, time.Since(start))
		c.logger.Warn("gateway response is not json", slog.String("endpoint", endpoint), slog.Int("status", resp.StatusCode))
		return result.Fail[json.RawMessage](result.ErrorInfo{
			Message:    InvalidResponseMessage,
			StatusCode: resp.StatusCode,
			Path:       endpoint,
		})
	}

	c.metrics.Observe(route, method, metrics.OutcomeOK, time.Since(start))
	c.logger.Debug("gateway request completed",
		slog.String("method", method),
		slog.String("endpoint", endpoint),
		slog.Int("status", resp.StatusCode),
		slog.Duration("duration", time.Since(start)),
	)
	return result.OK(json.RawMessage(trimmed))
}

func (c *Client) build(ctx context.Context, method, target string, opts Options) (*http.Request, error) {
	var (
		body        io.Reader
		contentType = contentTypeJSON
	)
	switch {
	case opts.Multipart != nil:
		buf, ct, err := opts.Multipart.encode()
		if err != nil {
			return nil, err
		}
		body, contentType = buf, ct
	case opts.Body != nil:
		payload, err := json.Marshal(opts.Body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for key, value := range opts.Headers {
		req.Header.Set(key, value)
	}
	req.Header.Set("Accept", contentTypeJSON)
	req.Header.Set("Content-Type", contentType)
	if token := c.token(ctx); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req, nil
}

func (c *Client) token(ctx context.Context) string {
	if c.tokens == nil {
		return ""
	}
	token, ok, err := c.tokens.Get(ctx, credentials.KeyAccessToken)
	if err != nil {
		c.logger.Warn("read access token", slog.Any("error", err))
		return ""
	}
	if !ok {
		return ""
	}
	return token
}

// metricLabel keeps label values bounded: absolute URLs carry ids and
// query strings, so only their origin is used.
func metricLabel(endpoint, route string) string {
	if route != "" {
		return route
	}
	if !isAbsolute(endpoint) {
		return endpoint
	}
	u, err := url.Parse(endpoint)
	if err != nil || u.Host == "" {
		return "absolute"
	}
	return u.Scheme + "://" + u.Host
}

func isAbsolute(endpoint string) bool {
	return strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://")
}

func (c *Client) resolve(endpoint string, query url.Values) string {
	target := endpoint
	if !isAbsolute(endpoint) {
		target = c.baseURL + "/" + strings.TrimLeft(endpoint, "/")
	}
	if len(query) == 0 {
		return target
	}
	sep := "?"
	if strings.Contains(target, "?") {
		sep = "&"
	}
	return target + sep + query.Encode()
}

func (c *Client) networkFailure(route, method, endpoint, target string, err error, start time.Time) result.Envelope[json.RawMessage] {
	c.metrics.Observe(route, method, metrics.OutcomeNetworkError, time.Since(start))
	c.logger.Warn("gateway network error",
		slog.String("method", method),
		slog.String("endpoint", endpoint),
		slog.Bool("timeout", isTimeout(err)),
		slog.Any("error", err),
	)
	return result.Fail[json.RawMessage](result.ErrorInfo{
		Message: NetworkErrorMessage,
		Path:    endpoint,
		Args:    []string{err.Error(), method, target},
	})
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
