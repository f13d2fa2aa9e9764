package backend

import (
	"net/http"
	"time"

	"github.com/felixgeelhaar/fortify/retry"

	"github.com/okian/rehearse/pkg/logger"
)

const (
	defaultTimeout    = 30 * time.Second
	defaultRetryDelay = time.Second
)

// Option configures the Client.
type Option func(*Client)

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithRetry sets the retry policy for requests. maxAttempts of 1 disables
// retries.
func WithRetry(maxAttempts int, initialDelay time.Duration) Option {
	return func(c *Client) {
		if maxAttempts > 0 {
			c.retryCfg.MaxAttempts = maxAttempts
		}
		if initialDelay > 0 {
			c.retryCfg.InitialDelay = initialDelay
		}
	}
}

// WithLogger sets the logger instance.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.logger = l
		}
	}
}

func defaultRetryConfig() retry.Config {
	return retry.Config{
		MaxAttempts:   1,
		InitialDelay:  defaultRetryDelay,
		BackoffPolicy: retry.BackoffExponential,
	}
}
