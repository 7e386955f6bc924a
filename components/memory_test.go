package components

import (
	"testing"

	"github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bububa/deepsearch/schema"
)

func TestMemoryOverflow(t *testing.T) {
	mem := NewMemory(2)
	mem.NewTurn()
	mem.NewMessage(UserRole, schema.String("first"))
	mem.NewMessage(AssistantRole, schema.String("second"))
	mem.NewMessage(UserRole, schema.String("third"))
	history := mem.History()
	require.Len(t, history, 2)
	assert.Equal(t, "second", history[0].StringifiedContent())
	assert.Equal(t, "third", history[1].StringifiedContent())
}

func TestMemoryDeleteTurn(t *testing.T) {
	mem := NewMemory(0)
	first := mem.NewTurn()
	mem.NewMessage(UserRole, schema.String("question"))
	second := mem.NewTurn()
	mem.NewMessage(UserRole, schema.String("follow up"))
	require.NoError(t, mem.DeleteTurn(second))
	assert.Equal(t, 1, mem.MessageCount())
	assert.Equal(t, first, mem.TurnID())
	assert.Error(t, mem.DeleteTurn("missing"))
	mem.Reset()
	assert.Zero(t, mem.MessageCount())
	assert.Empty(t, mem.TurnID())
}

func TestAnthropicSystem(t *testing.T) {
	messages := []Message{
		*NewMessage(SystemRole, schema.String("you are a researcher")),
		*NewMessage(UserRole, schema.String("FastAPI")),
		*NewMessage(SystemRole, schema.String("search results")),
	}
	system, list := AnthropicSystem(messages)
	assert.Equal(t, "you are a researcher\n\nsearch results", system)
	require.Len(t, list, 1)
	assert.EqualValues(t, UserRole, list[0].Role)
}

func TestToOpenAI(t *testing.T) {
	type Topic struct {
		schema.Base
		Topic string `json:"topic"`
	}
	var msg openai.ChatCompletionMessage
	NewMessage(UserRole, &Topic{Topic: "FastAPI"}).ToOpenAI(&msg)
	assert.Equal(t, UserRole, msg.Role)
	assert.Equal(t, `{"topic":"FastAPI"}`, msg.Content)
	assert.Empty(t, msg.MultiContent)
}
