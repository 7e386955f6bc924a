// Package providers turns model selectors into instructor clients and agent fallbacks.
package providers

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bububa/instructor-go"
	"github.com/bububa/instructor-go/instructors"
	cohereClient "github.com/cohere-ai/cohere-go/v2/client"
	cohereOption "github.com/cohere-ai/cohere-go/v2/option"
	anthropic "github.com/liushuangls/go-anthropic/v2"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/bububa/deepsearch/agents"
	"github.com/bububa/deepsearch/config"
	"github.com/bububa/deepsearch/schema"
)

const (
	Anthropic = "anthropic"
	OpenAI    = "openai"
	Cohere    = "cohere"
)

// MaxRetries is the number of instructor retries when the output fails to parse or validate
const MaxRetries = 3

var (
	ErrInvalidSelector = errors.New("invalid model selector")
	ErrEmptyChain      = errors.New("no usable model in chain")
)

// Selector names one model of one provider, written provider:model
type Selector struct {
	Provider string
	Model    string
}

func ParseSelector(s string) (Selector, error) {
	provider, model, found := strings.Cut(strings.TrimSpace(s), ":")
	provider = strings.ToLower(strings.TrimSpace(provider))
	model = strings.TrimSpace(model)
	if !found || model == "" {
		return Selector{}, fmt.Errorf("%w: %q", ErrInvalidSelector, s)
	}
	switch provider {
	case Anthropic, OpenAI, Cohere:
	default:
		return Selector{}, fmt.Errorf("%w: unknown provider %q", ErrInvalidSelector, provider)
	}
	return Selector{Provider: provider, Model: model}, nil
}

func (s Selector) String() string {
	return s.Provider + ":" + s.Model
}

// ClientFactory returns a new instructor client over one shared provider client.
// instructor clients cache the encoder of the first output type they decode,
// every agent gets its own.
type ClientFactory func() instructor.Instructor

// Model is a selector bound to its client factory
type Model struct {
	Selector
	NewClient ClientFactory
	Timeout   time.Duration
}

// AgentOptions returns the agent options calling this model
func (m Model) AgentOptions() []agents.Option {
	return []agents.Option{
		agents.WithClient(m.NewClient()),
		agents.WithModel(m.Model),
		agents.WithName(m.String()),
		agents.WithTimeout(m.Timeout),
	}
}

func clientOptions(provider instructor.Provider) []instructor.Option {
	return []instructor.Option{
		instructor.WithProvider(provider),
		instructor.WithMode(instructor.ModeJSON),
		instructor.WithMaxRetries(MaxRetries),
		instructor.WithValidation(),
	}
}

// NewClientFactory builds the provider client of a selector
func NewClientFactory(sel Selector, apiKey string, baseURL string) (ClientFactory, error) {
	switch sel.Provider {
	case Anthropic:
		opts := make([]anthropic.ClientOption, 0, 1)
		if baseURL != "" {
			opts = append(opts, anthropic.WithBaseURL(baseURL))
		}
		clt := anthropic.NewClient(apiKey, opts...)
		return func() instructor.Instructor {
			return instructors.FromAnthropic(clt, clientOptions(instructor.ProviderAnthropic)...)
		}, nil
	case Cohere:
		opts := make([]cohereOption.RequestOption, 0, 2)
		opts = append(opts, cohereOption.WithToken(apiKey))
		if baseURL != "" {
			opts = append(opts, cohereOption.WithBaseURL(baseURL))
		}
		clt := cohereClient.NewClient(opts...)
		return func() instructor.Instructor {
			return instructors.FromCohere(clt, clientOptions(instructor.ProviderCohere)...)
		}, nil
	case OpenAI:
		cfg := openai.DefaultConfig(apiKey)
		if baseURL != "" {
			cfg.BaseURL = baseURL
		}
		clt := openai.NewClientWithConfig(cfg)
		return func() instructor.Instructor {
			return instructors.FromOpenAI(clt, clientOptions(instructor.ProviderOpenAI)...)
		}, nil
	}
	return nil, fmt.Errorf("%w: unknown provider %q", ErrInvalidSelector, sel.Provider)
}

// Chain resolves the configured model chain, models without an api key are skipped
func Chain(cfg config.ModelsConfig) ([]Model, error) {
	selectors := cfg.ModelChain()
	ret := make([]Model, 0, len(selectors))
	for _, v := range selectors {
		sel, err := ParseSelector(v)
		if err != nil {
			return nil, err
		}
		apiKey := cfg.APIKey(sel.Provider)
		if apiKey == "" {
			log.Warn().Str("provider", sel.Provider).Str("model", sel.Model).Msg("api key not configured, model skipped")
			continue
		}
		factory, err := NewClientFactory(sel, apiKey, cfg.BaseURL(sel.Provider))
		if err != nil {
			return nil, err
		}
		ret = append(ret, Model{Selector: sel, NewClient: factory, Timeout: cfg.Timeout})
	}
	if len(ret) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyChain, strings.Join(selectors, ","))
	}
	return ret, nil
}

// NewFallback builds one agent per model, opts are applied to every agent
func NewFallback[I schema.Schema, O schema.Schema](name string, models []Model, opts ...agents.Option) *agents.Fallback[I, O] {
	list := make([]agents.TypeableAgent[I, O], 0, len(models))
	for _, m := range models {
		options := append(m.AgentOptions(), opts...)
		list = append(list, agents.NewAgent[I, O](options...))
	}
	return agents.NewFallback[I, O](name, list...)
}
