package smartsheet

import (
	"log/slog"
	"net/http"
	"time"
)

// WithLogger sets a custom logger for the Controller instance to use for logging operations.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithBaseURL overrides the Smartsheet API root.
func WithBaseURL(baseURL string) Option {
	return func(c *Controller) {
		if baseURL != "" {
			c.rawBaseURL = baseURL
		}
	}
}

// WithTimeout bounds every request sent by the Controller's clients.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Controller) {
		c.timeout = timeout
	}
}

// WithTransport sets the base HTTP transport.
func WithTransport(transport http.RoundTripper) Option {
	return func(c *Controller) {
		c.transport = transport
	}
}

// WithRequestsPerMinute caps the request rate. Zero or less disables the limit.
func WithRequestsPerMinute(n int) Option {
	return func(c *Controller) {
		c.requestsPerMinute = n
	}
}

// WithCircuitBreaker configures the breaker to open after maxFailures consecutive upstream failures and to
// probe again after timeout. A zero maxFailures never opens the breaker.
func WithCircuitBreaker(maxFailures uint32, timeout time.Duration) Option {
	return func(c *Controller) {
		c.maxFailures = maxFailures
		c.breakerTimeout = timeout
	}
}
