package discovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/bububa/deepsearch/agents"
	"github.com/bububa/deepsearch/components/tokenizer"
	"github.com/bububa/deepsearch/schema"
	"github.com/bububa/deepsearch/tools"
	"github.com/bububa/deepsearch/tools/fanout"
)

// capabilitySearch is the orchestration tool between extraction and synthesis of one run
type capabilitySearch struct {
	*Discoverer
	logger       zerolog.Logger
	capabilities []string
}

var _ tools.OrchestrationTool = (*capabilitySearch)(nil)

func (s *capabilitySearch) RunOrchestration(ctx context.Context, in any) (schema.Schema, error) {
	list, ok := in.(*CapabilityList)
	if !ok {
		return nil, errors.New("invalid capability list")
	}
	list.Normalize()
	if l := len(list.Capabilities); l > s.maxCapabilities {
		s.logger.Warn().Int("extracted", l).Int("max", s.maxCapabilities).Strs("dropped", list.Capabilities[s.maxCapabilities:]).Msg("too many capabilities, extra ones dropped")
		list.Capabilities = list.Capabilities[:s.maxCapabilities]
	}
	s.capabilities = list.Capabilities
	if len(list.Capabilities) == 0 {
		s.logger.Info().Msg("no actionable capability extracted")
		return nil, agents.ErrHalt
	}
	s.logger.Info().Strs("capabilities", list.Capabilities).Msg("capabilities extracted")
	branches := make([]fanout.Branch, 0, len(list.Capabilities))
	for _, c := range list.Capabilities {
		branches = append(branches, fanout.Branch{Tag: c, Query: CapabilityQuery(c)})
	}
	opts := []fanout.Option{
		fanout.WithConcurrency(s.concurrency),
		fanout.WithOutcomeHook(s.observeOutcome),
	}
	if s.scraper != nil && s.scrapeSources > 0 {
		opts = append(opts, fanout.WithEnricher(s.enrich))
	}
	results, err := fanout.New(s.searcher, opts...).Run(ctx, branches)
	if err != nil {
		return nil, err
	}
	if err := results.Err(); err != nil {
		return nil, err
	}
	candidates := &Candidates{Candidates: make([]ToolCandidate, 0, len(list.Capabilities))}
	for _, c := range list.Capabilities {
		candidate := newCandidate(results[c]).Budget(s.counter, s.maxResultTokens)
		candidates.Candidates = append(candidates.Candidates, candidate)
	}
	return candidates, nil
}

// CapabilityQuery is the search query finding integrable tools for a capability
func CapabilityQuery(capability string) string {
	return fmt.Sprintf("best %[1]s API OR %[1]s MCP server OR %[1]s SDK for developers", capability)
}

// enrich attaches the scraped content of the first sources, failures are logged and ignored
func (s *capabilitySearch) enrich(ctx context.Context, branch fanout.Branch, result *tools.SearchResult) {
	budget := s.maxResultTokens
	if s.scrapeSources > 0 {
		budget = s.maxResultTokens / s.scrapeSources
	}
	for idx := range result.Sources {
		if idx >= s.scrapeSources {
			break
		}
		src := &result.Sources[idx]
		if src.URL == "" {
			continue
		}
		page, err := s.scraper.Scrape(ctx, src.URL)
		if err != nil {
			s.logger.Debug().Err(err).Str("tag", branch.Tag).Str("url", src.URL).Msg("scrape failed")
			continue
		}
		src.Excerpt = tokenizer.Truncate(s.counter, page.Content, budget)
	}
}
