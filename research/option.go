package research

import (
	"time"

	"github.com/bububa/deepsearch/components/tokenizer"
	"github.com/bububa/deepsearch/metrics"
)

type Option func(*Config)

// WithConcurrency limits the number of category searches running at once
func WithConcurrency(n int) Option {
	return func(c *Config) {
		c.concurrency = n
	}
}

// WithTokenBudget truncates each category result handed to the model to maxTokens
func WithTokenBudget(counter tokenizer.TokenCounter, maxTokens int) Option {
	return func(c *Config) {
		c.counter = counter
		c.maxResultTokens = maxTokens
	}
}

// WithRunTimeout bounds a whole research run
func WithRunTimeout(timeout time.Duration) Option {
	return func(c *Config) {
		c.runTimeout = timeout
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Config) {
		c.metrics = m
	}
}
