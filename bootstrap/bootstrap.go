// Package bootstrap builds the research and discovery flows from the runtime configuration.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/bububa/deepsearch/agents"
	"github.com/bububa/deepsearch/components/systemprompt"
	"github.com/bububa/deepsearch/components/tokenizer"
	"github.com/bububa/deepsearch/config"
	"github.com/bububa/deepsearch/discovery"
	"github.com/bububa/deepsearch/metrics"
	"github.com/bububa/deepsearch/providers"
	"github.com/bububa/deepsearch/research"
	"github.com/bububa/deepsearch/tools"
	"github.com/bububa/deepsearch/tools/linkup"
	"github.com/bububa/deepsearch/tools/searxng"
	"github.com/bububa/deepsearch/tools/webscraper"
)

// SetupLogger writes human readable logs to w at level
func SetupLogger(w io.Writer, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.TimeFieldFormat = time.RFC3339Nano
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339})
	zerolog.SetGlobalLevel(lvl)
}

// NewSearcher returns the configured search backend
func NewSearcher(cfg config.SearchConfig) (tools.Searcher, error) {
	hooks := searchHooks()
	switch cfg.Provider {
	case config.SearxngProvider:
		return searxng.New(
			searxng.WithBaseURL(cfg.SearxngBaseURL),
			searxng.WithToolOptions(hooks...),
		), nil
	case config.LinkupProvider, "":
		return linkup.New(
			linkup.WithBaseURL(cfg.LinkupBaseURL),
			linkup.WithAPIKey(cfg.LinkupAPIKey),
			linkup.WithDepth(cfg.LinkupDepth),
			linkup.WithToolOptions(hooks...),
		), nil
	}
	return nil, fmt.Errorf("unknown search provider %q", cfg.Provider)
}

func searchHooks() []tools.Option {
	return []tools.Option{
		tools.WithStartHook(func(_ context.Context, t tools.ITool, input any) {
			log.Debug().Str("tool", t.Title()).Interface("input", input).Msg("search started")
		}),
		tools.WithErrorHook(func(_ context.Context, t tools.ITool, _ any, err error) {
			log.Warn().Str("tool", t.Title()).Err(err).Msg("search failed")
		}),
	}
}

// Deps are the components shared by both flows
type Deps struct {
	Searcher tools.Searcher
	Models   []providers.Model
	Counter  tokenizer.TokenCounter
	Scraper  *webscraper.Webscraper
	Metrics  *metrics.Metrics
}

// NewDeps resolves search, models and tokenizer. A nil m disables metrics.
func NewDeps(cfg config.Config, m *metrics.Metrics) (*Deps, error) {
	searcher, err := NewSearcher(cfg.Search)
	if err != nil {
		return nil, err
	}
	models, err := providers.Chain(cfg.Models)
	if err != nil {
		return nil, err
	}
	counter, err := tokenizer.New(cfg.Pipeline.TokenEncoding)
	if err != nil {
		return nil, err
	}
	deps := &Deps{
		Searcher: searcher,
		Models:   models,
		Counter:  counter,
		Metrics:  m,
	}
	if cfg.Pipeline.ScrapeSources > 0 {
		deps.Scraper = webscraper.New()
	}
	return deps, nil
}

// NewResearcher builds the research flow
func NewResearcher(cfg config.Config, deps *Deps) *research.Researcher {
	synthesizer := func(g systemprompt.Generator) agents.TypeableAgent[research.Request, research.Report] {
		return providers.NewFallback[research.Request, research.Report]("research-synthesizer", deps.Models, agents.WithSystemPromptGenerator(g))
	}
	return research.New(deps.Searcher, synthesizer,
		research.WithConcurrency(cfg.Search.Concurrency),
		research.WithTokenBudget(deps.Counter, cfg.Pipeline.MaxResultTokens),
		research.WithRunTimeout(cfg.Pipeline.RunTimeout),
		research.WithMetrics(deps.Metrics),
	)
}

// NewDiscoverer builds the discovery flow
func NewDiscoverer(cfg config.Config, deps *Deps) *discovery.Discoverer {
	extractor := func(g systemprompt.Generator) agents.TypeableAgent[discovery.Request, discovery.CapabilityList] {
		return providers.NewFallback[discovery.Request, discovery.CapabilityList]("capability-extractor", deps.Models, agents.WithSystemPromptGenerator(g))
	}
	synthesizer := func(g systemprompt.Generator) agents.TypeableAgent[discovery.Request, discovery.EndpointDescriptor] {
		return providers.NewFallback[discovery.Request, discovery.EndpointDescriptor]("endpoint-synthesizer", deps.Models, agents.WithSystemPromptGenerator(g))
	}
	opts := []discovery.Option{
		discovery.WithConcurrency(cfg.Search.Concurrency),
		discovery.WithMaxCapabilities(cfg.Pipeline.MaxCapabilities),
		discovery.WithTokenBudget(deps.Counter, cfg.Pipeline.MaxResultTokens),
		discovery.WithRunTimeout(cfg.Pipeline.RunTimeout),
		discovery.WithMetrics(deps.Metrics),
	}
	if deps.Scraper != nil {
		opts = append(opts, discovery.WithScraper(deps.Scraper, cfg.Pipeline.ScrapeSources))
	}
	return discovery.New(deps.Searcher, extractor, synthesizer, opts...)
}
