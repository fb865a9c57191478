package scoring

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"golang.org/x/time/rate"
)

// HTTPClientConfig holds configuration for the scoring HTTP client
type HTTPClientConfig struct {
	Timeout           time.Duration
	MaxRetries        int
	RetryWaitMin      time.Duration
	RetryWaitMax      time.Duration
	RateLimit         float64 // requests per second
	CircuitBreakerMax int     // max consecutive failures before circuit break

	// CircuitResetTimeout is how long an open circuit waits before letting
	// one trial request through
	CircuitResetTimeout time.Duration
}

// DefaultHTTPClientConfig returns recommended defaults
func DefaultHTTPClientConfig() HTTPClientConfig {
	return HTTPClientConfig{
		Timeout:             10 * time.Second,
		MaxRetries:          3,
		RetryWaitMin:        100 * time.Millisecond,
		RetryWaitMax:        5 * time.Second,
		RateLimit:           50.0,
		CircuitBreakerMax:   10,
		CircuitResetTimeout: 30 * time.Second,
	}
}

// RateLimitedHTTPClient wraps retryablehttp.Client with rate limiting and circuit breaker.
// An open circuit lets a single trial request through once the reset timeout
// has passed; success closes it, failure reopens it for another timeout.
type RateLimitedHTTPClient struct {
	client            *retryablehttp.Client
	limiter           *rate.Limiter
	circuitBreakerMax int
	resetTimeout      time.Duration
	now               func() time.Time

	mu                sync.Mutex
	consecutiveErrors int
	isOpen            bool
	openedAt          time.Time
	trialInFlight     bool
	lastError         error
}

// NewRateLimitedHTTPClient creates a new rate-limited HTTP client
func NewRateLimitedHTTPClient(cfg HTTPClientConfig) *RateLimitedHTTPClient {
	retryClient := retryablehttp.NewClient()
	retryClient.HTTPClient.Timeout = cfg.Timeout
	retryClient.RetryMax = cfg.MaxRetries
	retryClient.RetryWaitMin = cfg.RetryWaitMin
	retryClient.RetryWaitMax = cfg.RetryWaitMax
	retryClient.CheckRetry = customRetryPolicy()
	// failures are reported through the scoring logger instead
	retryClient.Logger = nil

	if cfg.CircuitBreakerMax <= 0 {
		cfg.CircuitBreakerMax = DefaultHTTPClientConfig().CircuitBreakerMax
	}
	if cfg.CircuitResetTimeout <= 0 {
		cfg.CircuitResetTimeout = DefaultHTTPClientConfig().CircuitResetTimeout
	}
	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Limit(cfg.RateLimit)
	}

	return &RateLimitedHTTPClient{
		client:            retryClient,
		limiter:           rate.NewLimiter(limit, 1),
		circuitBreakerMax: cfg.CircuitBreakerMax,
		resetTimeout:      cfg.CircuitResetTimeout,
		now:               time.Now,
	}
}

// Do executes an HTTP request with rate limiting and circuit breaker
func (c *RateLimitedHTTPClient) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if err := c.admit(); err != nil {
		return nil, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		c.record(ctx, nil, nil)
		return nil, fmt.Errorf("rate limiter error: %w", err)
	}

	rreq, err := retryablehttp.FromRequest(req)
	if err != nil {
		c.record(ctx, nil, nil)
		return nil, err
	}
	resp, err := c.client.Do(rreq.WithContext(ctx))
	c.record(ctx, resp, err)
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// admit rejects requests while the circuit is open, except for one trial
// request after the reset timeout
func (c *RateLimitedHTTPClient) admit() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isOpen {
		return nil
	}
	if c.trialInFlight || c.now().Sub(c.openedAt) < c.resetTimeout {
		return fmt.Errorf("%w: %v", ErrCircuitOpen, c.lastError)
	}
	c.trialInFlight = true
	return nil
}

// record updates the breaker with the outcome of one request. A request that
// never reached the server, or that the caller abandoned, leaves the counts alone.
func (c *RateLimitedHTTPClient) record(ctx context.Context, resp *http.Response, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.trialInFlight = false

	if err == nil && resp != nil && resp.StatusCode >= 500 {
		err = fmt.Errorf("server error: status %d", resp.StatusCode)
	}
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		c.consecutiveErrors++
		c.lastError = err
		if c.isOpen || c.consecutiveErrors >= c.circuitBreakerMax {
			c.isOpen = true
			c.openedAt = c.now()
		}
		return
	}

	// Reset circuit breaker on success
	if resp != nil {
		c.consecutiveErrors = 0
		c.isOpen = false
		c.lastError = nil
	}
}

// Post executes a POST request
func (c *RateLimitedHTTPClient) Post(ctx context.Context, url string, contentType string, body io.Reader) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", contentType)
	return c.Do(ctx, req)
}

// Reset closes the circuit breaker
func (c *RateLimitedHTTPClient) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.consecutiveErrors = 0
	c.isOpen = false
	c.trialInFlight = false
	c.lastError = nil
}

// Close closes any resources held by the client
func (c *RateLimitedHTTPClient) Close() error {
	c.client.HTTPClient.CloseIdleConnections()
	return nil
}

// customRetryPolicy defines which HTTP responses should trigger a retry
func customRetryPolicy() retryablehttp.CheckRetry {
	return func(ctx context.Context, resp *http.Response, err error) (bool, error) {
		if ctx.Err() != nil {
			return false, ctx.Err()
		}
		if err != nil {
			// Retry on network errors
			return true, err
		}

		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway,
			http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true, nil
		}

		return false, nil
	}
}
