// Package retry wraps an http.Client with bounded, context aware retries.
package retry

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

const (
	DefaultMaxAttempts    = 3
	DefaultInitialDelay   = 500 * time.Millisecond
	DefaultMaxDelay       = 5 * time.Second
	DefaultBackoffFactor  = 2.0
	DefaultAttemptTimeout = 60 * time.Second
)

// Config defines retry behavior
type Config struct {
	// MaxAttempts including the first one
	MaxAttempts   int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	// AttemptTimeout bounds every single attempt
	AttemptTimeout time.Duration
	// RetryableStatus are HTTP status codes that should be retried
	RetryableStatus []int
}

// DefaultConfig returns the retry defaults used by search backends
func DefaultConfig() Config {
	return Config{
		MaxAttempts:     DefaultMaxAttempts,
		InitialDelay:    DefaultInitialDelay,
		MaxDelay:        DefaultMaxDelay,
		BackoffFactor:   DefaultBackoffFactor,
		AttemptTimeout:  DefaultAttemptTimeout,
		RetryableStatus: []int{http.StatusTooManyRequests, http.StatusInternalServerError, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout},
	}
}

// StatusError is returned for a non-2xx response once retries are exhausted
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client executes requests with retries
type Client struct {
	client *http.Client
	config Config
}

// New returns a Client, a nil http client means http.DefaultClient
func New(clt *http.Client, cfg Config) *Client {
	if clt == nil {
		clt = http.DefaultClient
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = DefaultBackoffFactor
	}
	return &Client{client: clt, config: cfg}
}

// Do sends the request built by newReq and returns the body of the first 2xx response.
// newReq is called once per attempt so request bodies can be replayed.
func (c *Client) Do(ctx context.Context, newReq func(context.Context) (*http.Request, error)) ([]byte, error) {
	var lastErr error
	for attempt := 0; attempt < c.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.delay(attempt - 1)
			log.Warn().
				Err(lastErr).
				Int("attempt", attempt+1).
				Int("max_attempts", c.config.MaxAttempts).
				Dur("delay", delay).
				Msg("HTTP request failed, retrying")
			select {
			case <-ctx.Done():
				return nil, lastErr
			case <-time.After(delay):
			}
		}
		body, retryable, err := c.attempt(ctx, newReq)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable || ctx.Err() != nil {
			break
		}
	}
	return nil, lastErr
}

func (c *Client) attempt(ctx context.Context, newReq func(context.Context) (*http.Request, error)) ([]byte, bool, error) {
	if c.config.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.AttemptTimeout)
		defer cancel()
	}
	req, err := newReq(ctx)
	if err != nil {
		return nil, false, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, true, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, c.shouldRetry(resp.StatusCode), &StatusError{
			StatusCode: resp.StatusCode,
			Body:       string(bytes.TrimSpace(body)),
		}
	}
	return body, false, nil
}

func (c *Client) shouldRetry(statusCode int) bool {
	for _, code := range c.config.RetryableStatus {
		if code == statusCode {
			return true
		}
	}
	return false
}

func (c *Client) delay(retry int) time.Duration {
	delay := float64(c.config.InitialDelay) * math.Pow(c.config.BackoffFactor, float64(retry))
	if max := float64(c.config.MaxDelay); max > 0 && delay > max {
		delay = max
	}
	return time.Duration(delay)
}
