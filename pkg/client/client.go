// Package client provides the Buildkite REST API transport: bearer-token
// authentication, JSON requests, error classification, rate limiting and
// request metrics. Resource services in pkg/buildkite share one Client.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Sternrassler/buildkite-client/pkg/logging"
	"github.com/Sternrassler/buildkite-client/pkg/ratelimit"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/hashicorp/go-cleanhttp"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"
)

// Prometheus metrics for Buildkite client operations.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buildkite_requests_total",
		Help: "Total Buildkite API requests by method and status",
	}, []string{"method", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "buildkite_request_duration_seconds",
		Help:    "Buildkite API request duration in seconds by method",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"method"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "buildkite_errors_total",
		Help: "Total Buildkite API errors by class",
	}, []string{"class"})
)

// DefaultBaseURL is the Buildkite v2 REST API root.
const DefaultBaseURL = "https://api.buildkite.com/v2"

// Client is the Buildkite API transport. It is safe for concurrent use.
type Client struct {
	httpClient  *http.Client
	baseURL     *url.URL
	limiter     *rate.Limiter
	rateLimiter *ratelimit.Tracker
	config      Config
	logger      zerolog.Logger
}

// Config holds the client configuration.
type Config struct {
	// Token is the Buildkite API access token sent as a bearer token.
	Token string `validate:"required"`

	// BaseURL is the API root, e.g. "https://api.buildkite.com/v2".
	BaseURL string `validate:"required,url"`

	// UserAgent header sent with every request.
	UserAgent string `validate:"required"`

	// Client-side rate limiting. RateLimit is requests per second; 0 disables it.
	RateLimit float64 `validate:"gte=0"`
	Burst     int     `validate:"gte=0"`

	// Timeout bounds a single request including reading the body.
	Timeout time.Duration `validate:"gte=0"`

	// RateLimitStore holds the server-reported rate limit budget.
	// nil keeps it in process memory.
	RateLimitStore ratelimit.Store `validate:"-"`

	// EnableTracing wraps the transport with OpenTelemetry instrumentation.
	EnableTracing bool

	// HTTPClient replaces the default pooled client. Timeout is not applied to it.
	HTTPClient *http.Client `validate:"-"`
}

// DefaultConfig returns a safe default configuration.
func DefaultConfig(token, userAgent string) Config {
	return Config{
		Token:     token,
		BaseURL:   DefaultBaseURL,
		UserAgent: userAgent,
		RateLimit: 3, // Buildkite allows 200 requests per minute per organization
		Burst:     5,
		Timeout:   30 * time.Second,
	}
}

// New creates a new Buildkite client.
func New(cfg Config) (*Client, error) {
	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid client config: %w", err)
	}

	baseURL, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}

	logger := logging.NewLogger("buildkite-client")

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = cleanhttp.DefaultPooledClient()
		httpClient.Timeout = cfg.Timeout
	}
	if cfg.EnableTracing {
		transport := httpClient.Transport
		if transport == nil {
			transport = http.DefaultTransport
		}
		traced := *httpClient
		traced.Transport = otelhttp.NewTransport(transport)
		httpClient = &traced
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), burst)
	}

	return &Client{
		httpClient:  httpClient,
		baseURL:     baseURL,
		limiter:     limiter,
		rateLimiter: ratelimit.NewTracker(cfg.RateLimitStore, logging.NewLogger("ratelimit")),
		config:      cfg,
		logger:      logger,
	}, nil
}

// Do sends an authenticated request. Any non-2xx response is returned as a
// *StatusError with the body already consumed; failures to get a response at
// all are returned as a *TransportError. Requests are never retried.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	path := req.URL.Path
	method := req.Method

	startTime := time.Now()
	defer func() {
		requestDuration.WithLabelValues(method).Observe(time.Since(startTime).Seconds())
	}()

	// Server-reported budget
	allowed, err := c.rateLimiter.ShouldAllowRequest(ctx)
	if err != nil {
		c.logger.Error().Err(err).Msg("Rate limit check failed")
		return nil, fmt.Errorf("rate limit check: %w", err)
	}
	if !allowed {
		c.logger.Error().Str("path", path).Msg("Request blocked by rate limiter")
		errorsTotal.WithLabelValues(string(ErrorClassRateLimit)).Inc()
		requestsTotal.WithLabelValues(method, "rate_limited").Inc()
		return nil, ErrRateLimited
	}

	// Client-side pacing
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+c.config.Token)
	req.Header.Set("User-Agent", c.config.UserAgent)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-Id", requestID)

	c.logger.Debug().
		Str("path", path).
		Str("method", method).
		Str("request_id", requestID).
		Msg("Executing Buildkite request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error().
			Err(err).
			Str("path", path).
			Str("request_id", requestID).
			Msg("HTTP request failed")
		errorsTotal.WithLabelValues(string(ErrorClassNetwork)).Inc()
		requestsTotal.WithLabelValues(method, "network_error").Inc()
		return nil, &TransportError{Method: method, Path: path, Err: err}
	}

	if err := c.rateLimiter.UpdateFromHeaders(ctx, resp.Header); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to update rate limit from headers")
	}

	requestsTotal.WithLabelValues(method, strconv.Itoa(resp.StatusCode)).Inc()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		resp.Body.Close()

		errClass := classifyStatus(resp.StatusCode)
		errorsTotal.WithLabelValues(string(errClass)).Inc()

		c.logger.Warn().
			Str("path", path).
			Int("status", resp.StatusCode).
			Str("error_class", string(errClass)).
			Str("request_id", requestID).
			Msg("Buildkite request error")

		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			ErrorClass: errClass,
			Method:     method,
			Path:       path,
			Message:    errorMessage(resp.StatusCode, body),
		}
	}

	return resp, nil
}

// NewRequest builds a request for path relative to the base URL. A non-nil
// body is encoded as JSON.
func (c *Client) NewRequest(ctx context.Context, method, path string, query url.Values, body any) (*http.Request, error) {
	u := c.baseURL.JoinPath(path)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// GetJSON performs a GET request and decodes the JSON response into out.
func (c *Client) GetJSON(ctx context.Context, path string, query url.Values, out any) error {
	req, err := c.NewRequest(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return err
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		errorsTotal.WithLabelValues(string(ErrorClassDecode)).Inc()
		c.logger.Warn().Err(err).Str("path", req.URL.Path).Msg("Failed to decode response")
		return &DecodeError{Path: req.URL.Path, Err: err}
	}

	return nil
}

// Put performs a PUT request with a JSON body. The response body is discarded.
func (c *Client) Put(ctx context.Context, path string, body any) error {
	req, err := c.NewRequest(ctx, http.MethodPut, path, nil, body)
	if err != nil {
		return err
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

// Get performs a GET request and decodes the JSON response into a T.
func Get[T any](ctx context.Context, c *Client, path string, query url.Values) (T, error) {
	var out T
	if err := c.GetJSON(ctx, path, query, &out); err != nil {
		var zero T
		return zero, err
	}
	return out, nil
}

// BaseURL returns the configured API root.
func (c *Client) BaseURL() string {
	return c.baseURL.String()
}

// RateLimitState returns the last rate limit budget reported by the API.
func (c *Client) RateLimitState(ctx context.Context) (*ratelimit.State, error) {
	return c.rateLimiter.GetState(ctx)
}

// Close releases idle connections held by the transport.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// SetHTTPClient sets a custom HTTP client (for testing).
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}
