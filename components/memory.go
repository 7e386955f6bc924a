package components

import (
	"fmt"
	"sync"

	"github.com/bububa/deepsearch/schema"
)

// Memory Manages the chat history of one agent run.
// threadsafe
type Memory struct {
	//	history is a list of messages representing the chat history.
	history []Message
	//	turnID is the ID of the current turn.
	turnID string
	// maxMessages is the maximum number of messages to keep in history.
	// When exceeded, oldest messages are removed first.
	maxMessages int
	mtx         sync.RWMutex
}

// NewMemory initializes the Memory with an empty history and optional constraints.
func NewMemory(maxMessages int) *Memory {
	return &Memory{
		maxMessages: maxMessages,
		history:     make([]Message, 0, maxMessages+1),
	}
}

// MaxMessages returns the max number of messages
func (m *Memory) MaxMessages() int {
	return m.maxMessages
}

// TurnID returns the current turn ID
func (m *Memory) TurnID() string {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return m.turnID
}

// NewTurn starts a new turn with a random turn ID.
func (m *Memory) NewTurn() string {
	id := NewTurnID()
	m.mtx.Lock()
	m.turnID = id
	m.mtx.Unlock()
	return id
}

// NewMessage adds a message to the chat history and manages overflow.
func (m *Memory) NewMessage(role MessageRole, content schema.Schema) *Message {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	msg := NewMessage(role, content).SetTurnID(m.turnID)
	m.history = append(m.history, *msg)
	if l := len(m.history); m.maxMessages > 0 && l > m.maxMessages {
		m.history = m.history[l-m.maxMessages:]
	}
	return msg
}

// History returns a copy of the chat history.
func (m *Memory) History() []Message {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	list := make([]Message, len(m.history))
	copy(list, m.history)
	return list
}

// Reset drops the whole history
func (m *Memory) Reset() {
	m.mtx.Lock()
	m.history = make([]Message, 0, m.maxMessages+1)
	m.turnID = ""
	m.mtx.Unlock()
}

// DeleteTurn delete messages from the memory by its turn ID.
// returns Error if the specified turn ID is not found in the memory
func (m *Memory) DeleteTurn(turnID string) error {
	m.mtx.Lock()
	defer m.mtx.Unlock()
	l := len(m.history)
	list := make([]Message, 0, l)
	for _, v := range m.history {
		if v.TurnID() == turnID {
			continue
		}
		list = append(list, v)
	}
	num := len(list)
	if num == l {
		return fmt.Errorf("TurnID %s not found in memory", turnID)
	}
	m.history = list
	if num == 0 {
		m.turnID = ""
	} else if turnID == m.turnID {
		m.turnID = list[num-1].TurnID()
	}
	return nil
}

// MessageCount returns the number of messages in the chat history.
func (m *Memory) MessageCount() int {
	m.mtx.RLock()
	defer m.mtx.RUnlock()
	return len(m.history)
}
