// Package config loads the immutable runtime configuration.
//
// Sources in increasing priority:
//
//  1. built-in defaults
//  2. YAML file (CONFIG_FILE or an explicit path)
//  3. .env.local then .env in the working directory
//  4. process environment
//
// Environment variables are bound with the `env` struct tag.
package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	LinkupProvider  = "linkup"
	SearxngProvider = "searxng"
)

const (
	DefaultLinkupBaseURL   = "https://api.linkup.so"
	DefaultLinkupDepth     = "standard"
	DefaultClaudeModel     = "claude-opus-4-20250514"
	DefaultOpenAIModel     = "gpt-4o-2024-08-06"
	DefaultCohereModel     = "command-r-plus"
	DefaultMaxCapabilities = 8
	DefaultMaxResultTokens = 1500
	DefaultRunTimeout      = 10 * time.Minute
	DefaultModelTimeout    = 120 * time.Second
	DefaultHTTPAddr        = ":8034"
	DefaultLogLevel        = "info"
)

// Config is built once at startup and passed by value
type Config struct {
	Search   SearchConfig   `yaml:"search"`
	Models   ModelsConfig   `yaml:"models"`
	Pipeline PipelineConfig `yaml:"pipeline"`
	Server   ServerConfig   `yaml:"server"`
	LogLevel string         `yaml:"log_level" env:"LOG_LEVEL" validate:"oneof=trace debug info warn error fatal"`
}

type SearchConfig struct {
	Provider       string `yaml:"provider" env:"SEARCH_PROVIDER" validate:"oneof=linkup searxng"`
	LinkupAPIKey   string `yaml:"linkup_api_key" env:"LINKUP_API_KEY"`
	LinkupBaseURL  string `yaml:"linkup_base_url" env:"LINKUP_BASE_URL" validate:"url"`
	LinkupDepth    string `yaml:"linkup_depth" env:"LINKUP_DEPTH" validate:"oneof=standard deep"`
	SearxngBaseURL string `yaml:"searxng_base_url" env:"SEARXNG_BASE_URL" validate:"omitempty,url"`
	// Concurrency bounds the fan-out, 0 searches every branch at once
	Concurrency int `yaml:"concurrency" env:"SEARCH_CONCURRENCY" validate:"gte=0"`
}

type ModelsConfig struct {
	AnthropicAPIKey  string `yaml:"anthropic_api_key" env:"ANTHROPIC_API_KEY"`
	AnthropicBaseURL string `yaml:"anthropic_base_url" env:"ANTHROPIC_API_BASE_URL" validate:"omitempty,url"`
	ClaudeModel      string `yaml:"claude_model" env:"CLAUDE_MODEL_NAME" validate:"required"`
	OpenAIAPIKey     string `yaml:"openai_api_key" env:"OPENAI_API_KEY"`
	OpenAIBaseURL    string `yaml:"openai_base_url" env:"OPENAI_API_BASE_URL" validate:"omitempty,url"`
	OpenAIModel      string `yaml:"openai_model" env:"OPENAI_MODEL" validate:"required"`
	CohereAPIKey     string `yaml:"cohere_api_key" env:"COHERE_API_KEY"`
	CohereBaseURL    string `yaml:"cohere_base_url" env:"COHERE_API_BASE_URL" validate:"omitempty,url"`
	CohereModel      string `yaml:"cohere_model" env:"COHERE_MODEL" validate:"required"`
	// Chain lists provider:model selectors tried in order
	Chain   []string      `yaml:"chain" env:"MODEL_CHAIN" validate:"dive,required"`
	Timeout time.Duration `yaml:"timeout" env:"MODEL_TIMEOUT" validate:"gt=0"`
}

type PipelineConfig struct {
	MaxCapabilities int           `yaml:"max_capabilities" env:"MAX_CAPABILITIES" validate:"gte=1"`
	MaxResultTokens int           `yaml:"max_result_tokens" env:"MAX_RESULT_TOKENS" validate:"gte=1"`
	TokenEncoding   string        `yaml:"token_encoding" env:"TOKEN_ENCODING"`
	ScrapeSources   int           `yaml:"scrape_sources" env:"SCRAPE_SOURCES" validate:"gte=0,lte=10"`
	RunTimeout      time.Duration `yaml:"run_timeout" env:"RUN_TIMEOUT" validate:"gt=0"`
}

type ServerConfig struct {
	Addr string `yaml:"addr" env:"HTTP_ADDR" validate:"required"`
}

// Default returns the configuration used when nothing overrides it
func Default() Config {
	return Config{
		Search: SearchConfig{
			Provider:      LinkupProvider,
			LinkupBaseURL: DefaultLinkupBaseURL,
			LinkupDepth:   DefaultLinkupDepth,
		},
		Models: ModelsConfig{
			ClaudeModel: DefaultClaudeModel,
			OpenAIModel: DefaultOpenAIModel,
			CohereModel: DefaultCohereModel,
			Timeout:     DefaultModelTimeout,
		},
		Pipeline: PipelineConfig{
			MaxCapabilities: DefaultMaxCapabilities,
			MaxResultTokens: DefaultMaxResultTokens,
			RunTimeout:      DefaultRunTimeout,
		},
		Server: ServerConfig{
			Addr: DefaultHTTPAddr,
		},
		LogLevel: DefaultLogLevel,
	}
}

// ModelChain returns the configured selectors, or anthropic then openai when none is set
func (c ModelsConfig) ModelChain() []string {
	if len(c.Chain) > 0 {
		ret := make([]string, len(c.Chain))
		copy(ret, c.Chain)
		return ret
	}
	return []string{
		fmt.Sprintf("anthropic:%s", c.ClaudeModel),
		fmt.Sprintf("openai:%s", c.OpenAIModel),
	}
}

// APIKey returns the key configured for a model provider
func (c ModelsConfig) APIKey(provider string) string {
	switch strings.ToLower(provider) {
	case "anthropic":
		return c.AnthropicAPIKey
	case "openai":
		return c.OpenAIAPIKey
	case "cohere":
		return c.CohereAPIKey
	}
	return ""
}

// BaseURL returns the base url override of a model provider
func (c ModelsConfig) BaseURL(provider string) string {
	switch strings.ToLower(provider) {
	case "anthropic":
		return c.AnthropicBaseURL
	case "openai":
		return c.OpenAIBaseURL
	case "cohere":
		return c.CohereBaseURL
	}
	return ""
}
