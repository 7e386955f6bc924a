package fanout

import (
	"context"

	"github.com/bububa/deepsearch/tools"
)

type Option func(*Config)

// WithConcurrency limits the number of branches searching at once, 0 means no limit
func WithConcurrency(n int) Option {
	return func(c *Config) {
		c.concurrency = n
	}
}

// WithEnricher runs fn on every successful search result before the outcome is recorded
func WithEnricher(fn func(context.Context, Branch, *tools.SearchResult)) Option {
	return func(c *Config) {
		c.enricher = fn
	}
}

// WithOutcomeHook is called once per branch with its final outcome
func WithOutcomeHook(fn func(context.Context, Outcome)) Option {
	return func(c *Config) {
		c.outcomeHook = fn
	}
}
