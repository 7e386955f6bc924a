package searxng

import (
	"net/http"

	"github.com/bububa/deepsearch/tools"
	"github.com/bububa/deepsearch/tools/retry"
)

type Option func(*Config)

func WithBaseURL(baseURL string) Option {
	return func(c *Config) {
		c.baseURL = baseURL
	}
}

func WithLanguage(lang string) Option {
	return func(c *Config) {
		c.language = lang
	}
}

func WithMaxResults(n int) Option {
	return func(c *Config) {
		c.maxResults = n
	}
}

func WithHttpClient(clt *http.Client) Option {
	return func(c *Config) {
		c.httpClient = clt
	}
}

func WithRetry(cfg retry.Config) Option {
	return func(c *Config) {
		c.retry = &cfg
	}
}

// WithToolOptions applies generic tool options such as hooks
func WithToolOptions(opts ...tools.Option) Option {
	return func(c *Config) {
		for _, opt := range opts {
			opt(&c.Config)
		}
	}
}
