package discovery

import (
	"time"

	"github.com/bububa/deepsearch/components/tokenizer"
	"github.com/bububa/deepsearch/metrics"
	"github.com/bububa/deepsearch/tools/webscraper"
)

type Option func(*Config)

// WithConcurrency limits the number of capability searches running at once
func WithConcurrency(n int) Option {
	return func(c *Config) {
		c.concurrency = n
	}
}

// WithMaxCapabilities bounds the number of capabilities searched
func WithMaxCapabilities(n int) Option {
	return func(c *Config) {
		c.maxCapabilities = n
	}
}

// WithScraper enriches the first n sources of every capability with their page content
func WithScraper(scraper *webscraper.Webscraper, n int) Option {
	return func(c *Config) {
		c.scraper = scraper
		c.scrapeSources = n
	}
}

// WithTokenBudget truncates each capability result handed to the model to maxTokens
func WithTokenBudget(counter tokenizer.TokenCounter, maxTokens int) Option {
	return func(c *Config) {
		c.counter = counter
		c.maxResultTokens = maxTokens
	}
}

// WithRunTimeout bounds a whole discovery run
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
