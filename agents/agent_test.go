package agents

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bububa/instructor-go"
	"github.com/bububa/instructor-go/instructors"
	anthropic "github.com/liushuangls/go-anthropic/v2"
	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bububa/deepsearch/components"
	"github.com/bububa/deepsearch/components/systemprompt"
	"github.com/bububa/deepsearch/components/systemprompt/cot"
	"github.com/bububa/deepsearch/schema"
)

func newPromptGenerator() *cot.Generator {
	return cot.New(
		cot.WithBackground([]string{"- You answer questions about software."}),
		cot.WithContextProviders(systemprompt.NewStaticProvider("Search results", "FastAPI is a Python web framework.")),
	)
}

func TestAgentOpenAI(t *testing.T) {
	var captured openai.ChatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(openai.ChatCompletionResponse{
			ID:      "chatcmpl-1",
			Object:  "chat.completion",
			Created: 1,
			Model:   "gpt-4o-2024-08-06",
			Choices: []openai.ChatCompletionChoice{{
				Index:        0,
				Message:      openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: `{"text":"FastAPI is fast"}`},
				FinishReason: openai.FinishReasonStop,
			}},
			Usage: openai.Usage{PromptTokens: 12, CompletionTokens: 4, TotalTokens: 16},
		})
	}))
	defer server.Close()

	cfg := openai.DefaultConfig("test-key")
	cfg.BaseURL = server.URL + "/v1"
	clt := instructors.FromOpenAI(openai.NewClientWithConfig(cfg), instructor.WithMode(instructor.ModeJSON))

	agent := NewAgent[schema.String, answer](
		WithClient(clt),
		WithModel("gpt-4o-2024-08-06"),
		WithSystemPromptGenerator(newPromptGenerator()),
		WithTemperature(0.2),
	)
	out := new(answer)
	resp := new(components.ApiResponse)
	require.NoError(t, agent.Run(context.Background(), schema.NewString("What is FastAPI?"), out, resp))
	assert.Equal(t, "FastAPI is fast", out.Text)
	assert.Equal(t, 12, resp.Usage.InputTokens)
	assert.Equal(t, "gpt-4o-2024-08-06", agent.Name())

	assert.Equal(t, "gpt-4o-2024-08-06", captured.Model)
	assert.Equal(t, DefaultMaxTokens, captured.MaxCompletionTokens)
	var (
		systemPrompt string
		userPrompt   string
	)
	for _, msg := range captured.Messages {
		switch msg.Role {
		case openai.ChatMessageRoleSystem:
			systemPrompt += msg.Content
		case openai.ChatMessageRoleUser:
			userPrompt = msg.Content
		}
	}
	assert.Contains(t, systemPrompt, "# IDENTITY and PURPOSE")
	assert.Contains(t, systemPrompt, "FastAPI is a Python web framework.")
	assert.Equal(t, "What is FastAPI?", userPrompt)

	history := agent.Memory().History()
	require.Len(t, history, 2)
	assert.Equal(t, components.UserRole, history[0].Role())
	assert.Equal(t, components.AssistantRole, history[1].Role())
	assert.Equal(t, history[0].TurnID(), history[1].TurnID())
}

func TestAgentAnthropicSystemPrompt(t *testing.T) {
	var captured struct {
		System   json.RawMessage `json:"system"`
		Messages []struct {
			Role string `json:"role"`
		} `json:"messages"`
		MaxTokens int `json:"max_tokens"`
	}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.True(t, strings.HasSuffix(r.URL.Path, "/messages"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"msg_1","type":"message","role":"assistant","model":"claude-opus-4-20250514",` +
			`"content":[{"type":"text","text":"{\"text\":\"FastAPI is typed\"}"}],` +
			`"stop_reason":"end_turn","usage":{"input_tokens":20,"output_tokens":6}}`))
	}))
	defer server.Close()

	clt := instructors.FromAnthropic(
		anthropic.NewClient("test-key", anthropic.WithBaseURL(server.URL+"/v1")),
		instructor.WithMode(instructor.ModeJSON),
	)
	agent := NewAgent[schema.String, answer](
		WithClient(clt),
		WithModel("claude-opus-4-20250514"),
		WithSystemPromptGenerator(newPromptGenerator()),
		WithName("primary"),
	)
	out := new(answer)
	resp := new(components.ApiResponse)
	require.NoError(t, agent.Run(context.Background(), schema.NewString("What is FastAPI?"), out, resp))
	assert.Equal(t, "FastAPI is typed", out.Text)
	assert.Equal(t, 20, resp.Usage.InputTokens)
	assert.Equal(t, "primary", agent.Name())

	assert.Contains(t, string(captured.System), "# IDENTITY and PURPOSE")
	require.NotEmpty(t, captured.Messages)
	for _, msg := range captured.Messages {
		assert.NotEqual(t, "system", msg.Role)
	}
	assert.Equal(t, DefaultMaxTokens, captured.MaxTokens)
}

func TestAgentUnsupportedClient(t *testing.T) {
	agent := NewAgent[schema.String, answer](WithModel("none"))
	err := agent.Run(context.Background(), schema.NewString("hi"), new(answer), nil)
	assert.ErrorIs(t, err, ErrUnsupportedClient)
	assert.Equal(t, 1, agent.Memory().MessageCount())
}

func TestCohereRequest(t *testing.T) {
	agent := NewAgent[schema.String, answer](WithModel("command-r-plus"), WithSystemPromptGenerator(newPromptGenerator()))
	agent.NewMessage(components.UserRole, schema.String("first question"))
	agent.NewMessage(components.AssistantRole, schema.String("first answer"))
	agent.NewMessage(components.UserRole, schema.String("second question"))
	req := agent.cohereRequest(agent.messages())
	require.NotNil(t, req.Preamble)
	assert.Contains(t, *req.Preamble, "# IDENTITY and PURPOSE")
	assert.Equal(t, "second question", req.Message)
	require.Len(t, req.ChatHistory, 2)
	assert.Equal(t, "USER", string(req.ChatHistory[0].Role))
	assert.Equal(t, "CHATBOT", string(req.ChatHistory[1].Role))
	assert.Equal(t, "command-r-plus", *req.Model)
}
