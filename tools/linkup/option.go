package linkup

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

func WithAPIKey(key string) Option {
	return func(c *Config) {
		c.apiKey = key
	}
}

// WithDepth set search depth, standard or deep
func WithDepth(depth Depth) Option {
	return func(c *Config) {
		c.depth = depth
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
