// Package discovery extracts the capabilities of a request, searches tools for each of them
// and assembles an MCP endpoint descriptor.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/bububa/deepsearch/agents"
	"github.com/bububa/deepsearch/components"
	"github.com/bububa/deepsearch/components/systemprompt"
	"github.com/bububa/deepsearch/components/systemprompt/cot"
	"github.com/bububa/deepsearch/components/tokenizer"
	"github.com/bububa/deepsearch/metrics"
	"github.com/bububa/deepsearch/tools"
	"github.com/bububa/deepsearch/tools/fanout"
	"github.com/bububa/deepsearch/tools/webscraper"
)

const (
	Flow = "discovery"
	// DefaultMaxCapabilities bounds the capabilities searched per request
	DefaultMaxCapabilities = 8
	// DefaultMaxResultTokens bounds the text of one capability result
	DefaultMaxResultTokens = 1500
)

type (
	// ExtractorFactory builds the capability extraction agent of one run
	ExtractorFactory func(systemprompt.Generator) agents.TypeableAgent[Request, CapabilityList]
	// SynthesizerFactory builds the endpoint synthesis agent of one run
	SynthesizerFactory func(systemprompt.Generator) agents.TypeableAgent[Request, EndpointDescriptor]
)

type Config struct {
	searcher        tools.Searcher
	extractor       ExtractorFactory
	synthesizer     SynthesizerFactory
	concurrency     int
	maxCapabilities int
	scraper         *webscraper.Webscraper
	scrapeSources   int
	counter         tokenizer.TokenCounter
	maxResultTokens int
	runTimeout      time.Duration
	metrics         *metrics.Metrics
}

// Discoverer is safe for concurrent use, every run builds its own agents
type Discoverer struct {
	Config
}

func New(searcher tools.Searcher, extractor ExtractorFactory, synthesizer SynthesizerFactory, opts ...Option) *Discoverer {
	ret := &Discoverer{
		Config: Config{
			searcher:    searcher,
			extractor:   extractor,
			synthesizer: synthesizer,
		},
	}
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.maxCapabilities <= 0 {
		ret.maxCapabilities = DefaultMaxCapabilities
	}
	if ret.maxResultTokens <= 0 {
		ret.maxResultTokens = DefaultMaxResultTokens
	}
	if ret.counter == nil {
		ret.counter = tokenizer.WordsTokenCounter{}
	}
	return ret
}

// Discover returns the endpoint descriptor assembling tools for the capabilities of request.
// A request without actionable capability returns an empty descriptor without searching.
func (d *Discoverer) Discover(ctx context.Context, request string) (descriptor *EndpointDescriptor, err error) {
	request = strings.TrimSpace(request)
	if request == "" {
		return nil, tools.ErrEmptyRequest
	}
	if d.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.runTimeout)
		defer cancel()
	}
	start := time.Now()
	logger := log.With().Str("flow", Flow).Str("run", uuid.NewString()).Logger()
	defer func() {
		d.metrics.Run(Flow, start, err)
	}()

	search := &capabilitySearch{Discoverer: d, logger: logger}
	extractor := d.extractor(extractionPrompt())
	synthesizer := d.synthesizer(synthesisPrompt())
	d.observeAttempts(extractor, synthesizer)
	agent := agents.NewToolAgent[Request, CapabilityList, EndpointDescriptor](Flow, extractor, synthesizer).SetTool(search)

	out := new(EndpointDescriptor)
	apiResp := new(components.ApiResponse)
	err = agent.Run(ctx, &Request{Request: request}, out, apiResp)
	if errors.Is(err, agents.ErrHalt) {
		return emptyDescriptor(), nil
	}
	if err != nil {
		err = stageError(err)
		logger.Error().Err(err).Msg("discovery failed")
		return nil, err
	}
	out.Capabilities = search.capabilities
	if out.Tools == nil {
		out.Tools = []ToolDescriptor{}
	}
	event := logger.Info().Str("endpoint", out.Endpoint).Int("tools", len(out.Tools)).Dur("elapsed", time.Since(start))
	if usage := apiResp.Usage; usage != nil {
		event = event.Int("input_tokens", usage.InputTokens).Int("output_tokens", usage.OutputTokens)
	}
	event.Msg("endpoint synthesized")
	return out, nil
}

func stageError(err error) error {
	var stageErr *agents.StageError
	if !errors.As(err, &stageErr) {
		return err
	}
	switch stageErr.Stage {
	case agents.StartStage:
		return &ExtractionError{Err: stageErr.Err}
	case agents.ToolStage:
		return fmt.Errorf("search capabilities: %w", stageErr.Err)
	}
	return fmt.Errorf("synthesize endpoint: %w", stageErr.Err)
}

func (d *Discoverer) observeAttempts(list ...agents.IAgent) {
	for _, agent := range list {
		hook := func(_ context.Context, model string, err error) {
			d.metrics.ModelAttempt(Flow, model, err)
		}
		switch v := agent.(type) {
		case *agents.Fallback[Request, CapabilityList]:
			v.SetAttemptHook(hook)
		case *agents.Fallback[Request, EndpointDescriptor]:
			v.SetAttemptHook(hook)
		}
	}
}

func (d *Discoverer) observeOutcome(_ context.Context, o fanout.Outcome) {
	switch {
	case o.Failed():
		d.metrics.SearchBranch(Flow, metrics.StatusFailure)
	case o.Empty():
		d.metrics.SearchBranch(Flow, metrics.StatusEmpty)
	default:
		d.metrics.SearchBranch(Flow, metrics.StatusSuccess)
	}
}

func extractionPrompt() systemprompt.Generator {
	return cot.New(
		cot.WithBackground([]string{
			"- You are an expert Developer Tool Discovery Specialist.",
			"- You read a request written by a developer and find the capabilities it needs from APIs, SDKs and MCP servers.",
		}),
		cot.WithSteps([]string{
			"- Interpret the request through a developer lens: a capability is something provided by an integrable API, SDK or MCP server.",
			"- Split the request into independent capabilities.",
			"- Name each capability with a short label of one to four words, such as web search or email sending.",
		}),
		cot.WithOutputInstructs([]string{
			"- Return the capabilities in the order they appear in the request.",
			"- Return an empty list when the request does not ask for any actionable capability.",
		}),
	)
}

func synthesisPrompt() systemprompt.Generator {
	return cot.New(
		cot.WithBackground([]string{
			"- You are an expert integration architect assembling MCP (Model Context Protocol) servers.",
			"- You design one MCP endpoint exposing the tools that cover every capability of a request.",
		}),
		cot.WithSteps([]string{
			"- Read the tool candidates found for every capability in the system message.",
			"- For each capability pick the best integrable tool among its candidates and keep its documentation URL.",
			"- When the candidates of a capability are unavailable or empty, leave the capability uncovered and say so in the summary.",
			"- Assemble the tools into one endpoint and summarize what it provides.",
		}),
		cot.WithOutputInstructs([]string{
			"- The endpoint is an URL, such as https://mcp.example.com/<name>/sse.",
			"- Only describe tools found in the candidates, never invent one.",
		}),
	)
}
