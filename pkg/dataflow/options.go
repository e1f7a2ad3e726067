package dataflow

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// Option configures the behavior of pipeline stages.
type Option func(*config)

type config struct {
	workers    int
	maxRetries uint64
	newBackOff func() backoff.BackOff
	bufferSize int
	// errorHandler returns true when the error is handled and the item skipped.
	errorHandler func(error) bool
}

func newConfig(opts []Option) *config {
	c := &config{workers: 1}
	for _, o := range opts {
		o(c)
	}
	return c
}

// WithWorkers sets the number of concurrent workers for a stage.
// Default is 1 (sequential).
func WithWorkers(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.workers = n
		}
	}
}

// WithBufferSize sets the buffer size for the output channel of a stage.
func WithBufferSize(n int) Option {
	return func(c *config) {
		if n >= 0 {
			c.bufferSize = n
		}
	}
}

// WithRetry retries a failed item up to maxRetries times, waiting as told by
// a fresh BackOff from newBackOff for every item. Errors wrapped with
// backoff.Permanent are not retried.
func WithRetry(maxRetries uint64, newBackOff func() backoff.BackOff) Option {
	return func(c *config) {
		c.maxRetries = maxRetries
		c.newBackOff = newBackOff
	}
}

// WithErrorHandler sets a custom error handler.
// If the handler returns true, the error is considered handled and the item skipped.
func WithErrorHandler(h func(error) bool) Option {
	return func(c *config) {
		c.errorHandler = h
	}
}

// ExponentialBackOff returns a factory of exponential policies starting at
// initial and capped at max between attempts.
func ExponentialBackOff(initial, max time.Duration) func() backoff.BackOff {
	return func() backoff.BackOff {
		b := backoff.NewExponentialBackOff()
		b.InitialInterval = initial
		b.MaxInterval = max
		b.MaxElapsedTime = 0
		return b
	}
}

func (c *config) run(ctx context.Context, fn func() error) error {
	if c.maxRetries == 0 {
		return fn()
	}
	var b backoff.BackOff = &backoff.ZeroBackOff{}
	if c.newBackOff != nil {
		b = c.newBackOff()
	}
	return backoff.Retry(fn, backoff.WithContext(backoff.WithMaxRetries(b, c.maxRetries), ctx))
}
