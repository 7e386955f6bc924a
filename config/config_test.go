package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name string, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("LINKUP_API_KEY", "linkup-key")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, LinkupProvider, cfg.Search.Provider)
	assert.Equal(t, DefaultLinkupBaseURL, cfg.Search.LinkupBaseURL)
	assert.Equal(t, "standard", cfg.Search.LinkupDepth)
	assert.Equal(t, DefaultMaxCapabilities, cfg.Pipeline.MaxCapabilities)
	assert.Equal(t, DefaultMaxResultTokens, cfg.Pipeline.MaxResultTokens)
	assert.Equal(t, DefaultRunTimeout, cfg.Pipeline.RunTimeout)
	assert.Equal(t, ":8034", cfg.Server.Addr)
	assert.Equal(t, []string{"anthropic:claude-opus-4-20250514", "openai:gpt-4o-2024-08-06"}, cfg.Models.ModelChain())
}

func TestLoadPriority(t *testing.T) {
	path := writeFile(t, "config.yaml", `
search:
  provider: linkup
  linkup_api_key: yaml-key
  linkup_depth: deep
  concurrency: 3
models:
  claude_model: claude-from-yaml
  chain:
    - openai:gpt-4o
pipeline:
  max_capabilities: 4
  run_timeout: 5m
log_level: debug
`)
	t.Setenv("LINKUP_API_KEY", "env-key")
	t.Setenv("MAX_RESULT_TOKENS", "800")
	t.Setenv("MODEL_CHAIN", "cohere:command-r, anthropic:claude-sonnet-4-20250514 ,")
	t.Setenv("RUN_TIMEOUT", "90s")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env-key", cfg.Search.LinkupAPIKey)
	assert.Equal(t, "deep", cfg.Search.LinkupDepth)
	assert.Equal(t, 3, cfg.Search.Concurrency)
	assert.Equal(t, "claude-from-yaml", cfg.Models.ClaudeModel)
	assert.Equal(t, []string{"cohere:command-r", "anthropic:claude-sonnet-4-20250514"}, cfg.Models.ModelChain())
	assert.Equal(t, 4, cfg.Pipeline.MaxCapabilities)
	assert.Equal(t, 800, cfg.Pipeline.MaxResultTokens)
	assert.Equal(t, 90*time.Second, cfg.Pipeline.RunTimeout)
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoadConfigFileFromEnv(t *testing.T) {
	path := writeFile(t, "config.yaml", "search:\n  provider: searxng\n  searxng_base_url: http://localhost:8080\n")
	t.Setenv(EnvConfigFile, path)
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, SearxngProvider, cfg.Search.Provider)
	assert.Equal(t, "http://localhost:8080", cfg.Search.SearxngBaseURL)
}

func TestLoadErrors(t *testing.T) {
	t.Run("missing linkup key", func(t *testing.T) {
		t.Setenv("LINKUP_API_KEY", "")
		_, err := Load("")
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "LINKUP_API_KEY", validationErr.Field)
	})
	t.Run("missing searxng url", func(t *testing.T) {
		t.Setenv("SEARCH_PROVIDER", "SearxNG")
		_, err := Load("")
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "SEARXNG_BASE_URL", validationErr.Field)
	})
	t.Run("unknown provider", func(t *testing.T) {
		t.Setenv("SEARCH_PROVIDER", "bing")
		t.Setenv("LINKUP_API_KEY", "key")
		_, err := Load("")
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "Search.Provider", validationErr.Field)
	})
	t.Run("invalid number", func(t *testing.T) {
		t.Setenv("LINKUP_API_KEY", "key")
		t.Setenv("MAX_CAPABILITIES", "many")
		_, err := Load("")
		var validationErr *ValidationError
		require.ErrorAs(t, err, &validationErr)
		assert.Equal(t, "MAX_CAPABILITIES", validationErr.Field)
	})
	t.Run("zero capabilities", func(t *testing.T) {
		t.Setenv("LINKUP_API_KEY", "key")
		t.Setenv("MAX_CAPABILITIES", "0")
		_, err := Load("")
		assert.Error(t, err)
	})
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err)
	})
}

func TestModelsConfigKeys(t *testing.T) {
	cfg := ModelsConfig{AnthropicAPIKey: "a", OpenAIAPIKey: "o", OpenAIBaseURL: "http://localhost/v1"}
	assert.Equal(t, "a", cfg.APIKey("Anthropic"))
	assert.Equal(t, "o", cfg.APIKey("openai"))
	assert.Empty(t, cfg.APIKey("cohere"))
	assert.Empty(t, cfg.APIKey("mistral"))
	assert.Equal(t, "http://localhost/v1", cfg.BaseURL("openai"))
}
