package components

import (
	"strings"

	cohere "github.com/cohere-ai/cohere-go/v2"
	anthropic "github.com/liushuangls/go-anthropic/v2"
	"github.com/rs/xid"
	openai "github.com/sashabaranov/go-openai"

	"github.com/bububa/deepsearch/schema"
)

// NewTurnID returns a new turn ID.
func NewTurnID() string {
	return xid.New().String()
}

// MessageRole is the role of the message sender (e.g., 'user', 'system', 'tool')
type MessageRole = string

const (
	SystemRole    MessageRole = "system"
	UserRole      MessageRole = "user"
	AssistantRole MessageRole = "assistant"
	ToolRole      MessageRole = "tool"
)

// Message  Represents a message in the chat history.
type Message struct {
	content schema.Schema
	// role is the role of the message sender (e.g., 'user', 'system', 'tool')
	role MessageRole
	//	turnID is Unique identifier for the turn this message belongs to.
	turnID string
}

// NewMessage returns a new Message
func NewMessage(role MessageRole, content schema.Schema) *Message {
	return &Message{
		role:    role,
		content: content,
	}
}

// SetTurnID set message turnID
func (m *Message) SetTurnID(turnID string) *Message {
	m.turnID = turnID
	return m
}

// Role returns message role
func (m Message) Role() MessageRole {
	return m.role
}

// Content returns message content
func (m Message) Content() schema.Schema {
	return m.content
}

// StringifiedContent returns the content as sent to a language model
func (m Message) StringifiedContent() string {
	return schema.Stringify(m.content)
}

// TurnID returns message turnID
func (m Message) TurnID() string {
	return m.turnID
}

// ToOpenAI convert message to openai ChatCompletionMessage
func (m Message) ToOpenAI(dist *openai.ChatCompletionMessage) {
	dist.Role = m.role
	dist.Content = m.StringifiedContent()
}

// ToAnthropic convert message to anthropic Message.
// System messages are not part of anthropic conversations, see AnthropicSystem.
func (m Message) ToAnthropic(dist *anthropic.Message) {
	dist.Role = anthropic.ChatRole(m.role)
	if m.role != AssistantRole {
		dist.Role = anthropic.RoleUser
	}
	dist.Content = []anthropic.MessageContent{anthropic.NewTextMessageContent(m.StringifiedContent())}
}

// ToCohere convert message to cohere Message
func (m Message) ToCohere(dist *cohere.Message) {
	msg := &cohere.ChatMessage{
		Message: m.StringifiedContent(),
	}
	switch m.role {
	case SystemRole:
		dist.Role = "SYSTEM"
		dist.System = msg
	case AssistantRole:
		dist.Role = "CHATBOT"
		dist.Chatbot = msg
	default:
		dist.Role = "USER"
		dist.User = msg
	}
}

// AnthropicSystem joins the system messages into an anthropic system prompt
// and returns the remaining conversation.
func AnthropicSystem(messages []Message) (string, []anthropic.Message) {
	var (
		system []string
		list   = make([]anthropic.Message, 0, len(messages))
	)
	for _, msg := range messages {
		if msg.Role() == SystemRole {
			system = append(system, msg.StringifiedContent())
			continue
		}
		v := new(anthropic.Message)
		msg.ToAnthropic(v)
		list = append(list, *v)
	}
	return strings.Join(system, "\n\n"), list
}
