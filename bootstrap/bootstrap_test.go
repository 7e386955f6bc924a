package bootstrap

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bububa/deepsearch/config"
	"github.com/bububa/deepsearch/metrics"
	"github.com/bububa/deepsearch/providers"
	"github.com/bububa/deepsearch/tools/linkup"
	"github.com/bububa/deepsearch/tools/searxng"
)

func TestSetupLogger(t *testing.T) {
	defer zerolog.SetGlobalLevel(zerolog.InfoLevel)
	var buf bytes.Buffer
	SetupLogger(&buf, "warn")
	assert.Equal(t, zerolog.WarnLevel, zerolog.GlobalLevel())

	SetupLogger(&buf, "nonsense")
	assert.Equal(t, zerolog.InfoLevel, zerolog.GlobalLevel())
}

func TestNewSearcher(t *testing.T) {
	cfg := config.Default().Search
	cfg.LinkupAPIKey = "key"
	searcher, err := NewSearcher(cfg)
	require.NoError(t, err)
	assert.IsType(t, &linkup.Tool{}, searcher)

	cfg.Provider = config.SearxngProvider
	cfg.SearxngBaseURL = "http://localhost:8080"
	searcher, err = NewSearcher(cfg)
	require.NoError(t, err)
	assert.IsType(t, &searxng.SearxngSearch{}, searcher)

	cfg.Provider = "bing"
	_, err = NewSearcher(cfg)
	assert.Error(t, err)
}

func TestNewDepsEmptyChain(t *testing.T) {
	cfg := config.Default()
	cfg.Search.LinkupAPIKey = "key"
	_, err := NewDeps(cfg, nil)
	assert.ErrorIs(t, err, providers.ErrEmptyChain)
}

func TestNewFlows(t *testing.T) {
	cfg := config.Default()
	cfg.Search.LinkupAPIKey = "key"
	cfg.Models.AnthropicAPIKey = "key"
	cfg.Pipeline.ScrapeSources = 2

	deps, err := NewDeps(cfg, metrics.New())
	require.NoError(t, err)
	require.Len(t, deps.Models, 1)
	assert.Equal(t, providers.Anthropic, deps.Models[0].Provider)
	assert.NotNil(t, deps.Scraper)
	assert.NotNil(t, deps.Counter)

	assert.NotNil(t, NewResearcher(cfg, deps))
	assert.NotNil(t, NewDiscoverer(cfg, deps))
}
