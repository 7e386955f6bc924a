package agents

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bububa/instructor-go"
	instructorAnthropic "github.com/bububa/instructor-go/instructors/anthropic"
	instructorCohere "github.com/bububa/instructor-go/instructors/cohere"
	instructorOpenAI "github.com/bububa/instructor-go/instructors/openai"
	cohere "github.com/cohere-ai/cohere-go/v2"
	anthropic "github.com/liushuangls/go-anthropic/v2"
	"github.com/rs/zerolog/log"
	openai "github.com/sashabaranov/go-openai"

	"github.com/bububa/deepsearch/components"
	"github.com/bububa/deepsearch/components/systemprompt"
	"github.com/bububa/deepsearch/components/systemprompt/cot"
	"github.com/bububa/deepsearch/schema"
)

const (
	// DefaultMaxTokens is used when no max tokens is configured, anthropic requires one
	DefaultMaxTokens = 4096
	// DefaultTimeout bounds a single completion call
	DefaultTimeout = 120 * time.Second
)

var ErrUnsupportedClient = errors.New("unsupported instructor client")

type IAgent interface {
	Name() string
}

// TypeableAgent is an agent turning an I into an O
type TypeableAgent[I schema.Schema, O schema.Schema] interface {
	IAgent
	Run(ctx context.Context, userInput *I, output *O, apiResp *components.ApiResponse) error
}

// Config represents general agents configuration
type Config struct {
	// client Client for interacting with the language model.
	// instructor clients keep the encoder of the first output type they decode,
	// so a client must not be shared between agents.
	client instructor.Instructor
	//	memory  Memory component for storing chat history.
	memory *components.Memory
	//	systemPromptGenerator Component for generating system prompts.
	systemPromptGenerator systemprompt.Generator
	// model llm model
	model string
	// temperature Temperature for response generation, typically ranging from 0 to 1.
	temperature float32
	// maxTokens Maximum number of tokens allowed in the response
	maxTokens int
	// timeout of one completion call
	timeout time.Duration
	// name is Agent name presentation
	name string
}

// Agent class for chat agents.
// This class provides the core functionality for handling chat interactions, including managing memory,
// generating system prompts, and obtaining responses from a language model.
type Agent[I schema.Schema, O schema.Schema] struct {
	Config
}

var _ TypeableAgent[schema.String, schema.String] = (*Agent[schema.String, schema.String])(nil)

// NewAgent initializes the Agent, every agent owns its memory unless one is given
func NewAgent[I schema.Schema, O schema.Schema](options ...Option) *Agent[I, O] {
	ret := new(Agent[I, O])
	for _, opt := range options {
		opt(&ret.Config)
	}
	if ret.memory == nil {
		ret.memory = components.NewMemory(0)
	}
	if ret.systemPromptGenerator == nil {
		ret.systemPromptGenerator = cot.New()
	}
	if ret.maxTokens <= 0 {
		ret.maxTokens = DefaultMaxTokens
	}
	if ret.timeout <= 0 {
		ret.timeout = DefaultTimeout
	}
	if ret.name == "" {
		ret.name = ret.model
	}
	return ret
}

func (a *Agent[I, O]) Memory() *components.Memory {
	return a.memory
}

func (a Agent[I, O]) Name() string {
	return a.name
}

// messages returns the system prompt followed by the memory history
func (a *Agent[I, O]) messages() []components.Message {
	messages := make([]components.Message, 0, a.memory.MessageCount()+1)
	messages = append(messages, *components.NewMessage(components.SystemRole, schema.String(a.systemPromptGenerator.Generate())))
	return append(messages, a.memory.History()...)
}

// response obtains a response from the language model synchronously
func (a *Agent[I, O]) response(ctx context.Context, response *O, apiResponse *components.ApiResponse) error {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	messages := a.messages()
	switch clt := a.client.(type) {
	case *instructorOpenAI.Instructor:
		chatReq := openai.ChatCompletionRequest{
			Model:               a.model,
			Temperature:         a.temperature,
			MaxCompletionTokens: a.maxTokens,
		}
		for _, msg := range messages {
			v := new(openai.ChatCompletionMessage)
			msg.ToOpenAI(v)
			chatReq.Messages = append(chatReq.Messages, *v)
		}
		var res openai.ChatCompletionResponse
		err := clt.Chat(ctx, &chatReq, response, &res)
		if apiResponse != nil {
			apiResponse.FromOpenAI(&res)
		}
		return err
	case *instructorAnthropic.Instructor:
		system, list := components.AnthropicSystem(messages)
		temperature := a.temperature
		chatReq := anthropic.MessagesRequest{
			Model:       anthropic.Model(a.model),
			System:      system,
			Messages:    list,
			Temperature: &temperature,
			MaxTokens:   a.maxTokens,
		}
		var res anthropic.MessagesResponse
		err := clt.Chat(ctx, &chatReq, response, &res)
		if apiResponse != nil {
			apiResponse.FromAnthropic(&res)
		}
		return err
	case *instructorCohere.Instructor:
		chatReq := a.cohereRequest(messages)
		var res cohere.NonStreamedChatResponse
		err := clt.Chat(ctx, chatReq, response, &res)
		if apiResponse != nil {
			apiResponse.FromCohere(&res)
		}
		return err
	}
	return ErrUnsupportedClient
}

// cohereRequest sends system messages as preamble and the last message as the chat message
func (a *Agent[I, O]) cohereRequest(messages []components.Message) *cohere.ChatRequest {
	temperature := float64(a.temperature)
	maxTokens := a.maxTokens
	chatReq := &cohere.ChatRequest{
		Model:       &a.model,
		Temperature: &temperature,
		MaxTokens:   &maxTokens,
	}
	var (
		preamble []string
		rest     []components.Message
	)
	for _, msg := range messages {
		if msg.Role() == components.SystemRole {
			preamble = append(preamble, msg.StringifiedContent())
			continue
		}
		rest = append(rest, msg)
	}
	if len(preamble) > 0 {
		v := strings.Join(preamble, "\n\n")
		chatReq.Preamble = &v
	}
	if l := len(rest); l > 0 {
		chatReq.Message = rest[l-1].StringifiedContent()
		for _, msg := range rest[:l-1] {
			v := new(cohere.Message)
			msg.ToCohere(v)
			chatReq.ChatHistory = append(chatReq.ChatHistory, v)
		}
	}
	return chatReq
}

// Run runs the chat agent with the given user input synchronously.
func (a *Agent[I, O]) Run(ctx context.Context, userInput *I, output *O, apiResp *components.ApiResponse) error {
	if userInput != nil {
		a.memory.NewTurn()
		a.memory.NewMessage(components.UserRole, *userInput)
	}
	start := time.Now()
	if err := a.response(ctx, output, apiResp); err != nil {
		log.Debug().Err(err).Str("agent", a.name).Str("model", a.model).Dur("elapsed", time.Since(start)).Msg("completion failed")
		return err
	}
	log.Debug().Str("agent", a.name).Str("model", a.model).Dur("elapsed", time.Since(start)).Msg("completion done")
	a.memory.NewMessage(components.AssistantRole, *output)
	return nil
}

func (a *Agent[I, O]) NewMessage(role components.MessageRole, content schema.Schema) *components.Message {
	return a.memory.NewMessage(role, content)
}
