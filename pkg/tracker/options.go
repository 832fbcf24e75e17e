package tracker

import (
	"net/http"
	"time"
)

type options struct {
	timeout      time.Duration
	maxAttempts  int
	initialDelay time.Duration
	token        string
	httpClient   *http.Client
}

func defaultOptions() options {
	return options{
		timeout:      30 * time.Second,
		maxAttempts:  3,
		initialDelay: 500 * time.Millisecond,
	}
}

// Option configures a tracker client.
type Option func(*options)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithRetry configures retry behaviour.
func WithRetry(maxAttempts int, initialDelay time.Duration) Option {
	return func(o *options) {
		o.maxAttempts = maxAttempts
		o.initialDelay = initialDelay
	}
}

// WithToken sets the bearer token sent by the REST client.
func WithToken(token string) Option {
	return func(o *options) { o.token = token }
}

// WithHTTPClient replaces the REST client's HTTP client.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}
