// Package research searches a topic along fixed categories and synthesizes a report.
package research

import (
	"context"
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
)

const Flow = "research"

// SynthesizerFactory builds the synthesis agent of one run around its system prompt
type SynthesizerFactory func(systemprompt.Generator) agents.TypeableAgent[Request, Report]

type Config struct {
	searcher        tools.Searcher
	synthesizer     SynthesizerFactory
	concurrency     int
	counter         tokenizer.TokenCounter
	maxResultTokens int
	runTimeout      time.Duration
	metrics         *metrics.Metrics
}

// Researcher is safe for concurrent use, every run builds its own agents
type Researcher struct {
	Config
}

func New(searcher tools.Searcher, synthesizer SynthesizerFactory, opts ...Option) *Researcher {
	ret := &Researcher{
		Config: Config{
			searcher:    searcher,
			synthesizer: synthesizer,
		},
	}
	for _, opt := range opts {
		opt(&ret.Config)
	}
	if ret.counter == nil {
		ret.counter = tokenizer.WordsTokenCounter{}
	}
	return ret
}

// Research returns the report of topic.
// All searches failing ends with fanout.ErrSearchUnavailable, all of them empty with fanout.ErrNoResults.
func (r *Researcher) Research(ctx context.Context, topic string) (report *Report, err error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, tools.ErrEmptyRequest
	}
	if r.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.runTimeout)
		defer cancel()
	}
	start := time.Now()
	logger := log.With().Str("flow", Flow).Str("run", uuid.NewString()).Str("topic", topic).Logger()
	defer func() {
		r.metrics.Run(Flow, start, err)
	}()

	coordinator := fanout.New(r.searcher,
		fanout.WithConcurrency(r.concurrency),
		fanout.WithOutcomeHook(r.observeOutcome),
	)
	results, err := coordinator.Run(ctx, Branches(topic))
	if err != nil {
		return nil, err
	}
	if err = results.Err(); err != nil {
		logger.Warn().Err(err).Msg("research aborted before synthesis")
		return nil, err
	}
	logger.Info().Int("succeeded", len(results.Succeeded())).Int("failed", len(results.Failed())).Msg("searches done")

	agent := r.synthesizer(r.promptGenerator(results))
	if fallback, ok := agent.(*agents.Fallback[Request, Report]); ok {
		fallback.SetAttemptHook(func(_ context.Context, model string, err error) {
			r.metrics.ModelAttempt(Flow, model, err)
		})
	}
	out := new(Report)
	apiResp := new(components.ApiResponse)
	if err = agent.Run(ctx, &Request{Topic: topic}, out, apiResp); err != nil {
		logger.Error().Err(err).Msg("synthesis failed")
		return nil, fmt.Errorf("synthesize report: %w", err)
	}
	out.Topic = topic
	out.Complete(results)
	event := logger.Info().Str("model", apiResp.Model).Dur("elapsed", time.Since(start))
	if usage := apiResp.Usage; usage != nil {
		event = event.Int("input_tokens", usage.InputTokens).Int("output_tokens", usage.OutputTokens)
	}
	event.Msg("report synthesized")
	return out, nil
}

func (r *Researcher) observeOutcome(_ context.Context, o fanout.Outcome) {
	switch {
	case o.Failed():
		r.metrics.SearchBranch(Flow, metrics.StatusFailure)
	case o.Empty():
		r.metrics.SearchBranch(Flow, metrics.StatusEmpty)
	default:
		r.metrics.SearchBranch(Flow, metrics.StatusSuccess)
	}
}

func (r *Researcher) promptGenerator(results fanout.Results) systemprompt.Generator {
	providers := make([]systemprompt.ContextProvider, 0, len(Categories))
	for _, c := range Categories {
		if outcome, ok := results[string(c)]; ok {
			title := fmt.Sprintf("Search results: %s", c.Label())
			providers = append(providers, fanout.NewContextProvider(title, outcome, r.counter, r.maxResultTokens))
		}
	}
	return cot.New(
		cot.WithBackground([]string{
			"- You are an expert technology research analyst.",
			"- You write accurate, well sourced reports about APIs, tools and technologies for software developers.",
		}),
		cot.WithSteps([]string{
			"- Read the search results of every category in the extra information below.",
			"- For each category, extract the facts relevant to the topic and keep the source URLs.",
			"- When the results of a category are marked unavailable or empty, say that the information could not be found instead of guessing.",
			"- Write a short executive summary of the topic.",
		}),
		cot.WithOutputInstructs([]string{
			fmt.Sprintf("- Write exactly one section per category, using the category keys: %s.", categoryKeys()),
			"- Never merge the findings of different categories into one section.",
			"- Write section content in markdown and cite source URLs inline.",
		}),
		cot.WithContextProviders(providers...),
	)
}

func categoryKeys() string {
	keys := make([]string, 0, len(Categories))
	for _, c := range Categories {
		keys = append(keys, string(c))
	}
	return strings.Join(keys, ", ")
}
