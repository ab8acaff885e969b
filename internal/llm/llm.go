// Package llm talks to text-generation backends. Each backend keeps a short
// per-session conversation so commentary does not repeat itself.
package llm

import (
	"context"
	"fmt"
	"sync"
)

// Generator produces commentary text. systemSuffix is appended to the
// backend's own system prompt; an empty model selects the backend default.
type Generator interface {
	Chat(ctx context.Context, sessionID, userMessage, systemSuffix, model string) (string, error)
}

// DefaultMemoryTurns is how many user/assistant exchanges are replayed when
// a config leaves MemoryTurns at zero. A negative MemoryTurns disables memory.
const DefaultMemoryTurns = 4

// StatusError is returned when a backend answers with a non-success status.
type StatusError struct {
	Backend string
	Code    int
	Body    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm: %s returned status %d: %s", e.Backend, e.Code, e.Body)
}

const (
	roleSystem    = "system"
	roleUser      = "user"
	roleAssistant = "assistant"
)

type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type history struct {
	systemKey string
	messages  []Message
	context   []int
}

// memory keeps the last N exchanges per session. A change of model or
// system prompt drops the backend's opaque context tokens.
type memory struct {
	mu       sync.Mutex
	turns    int
	sessions map[string]*history
}

func newMemory(turns int) *memory {
	if turns < 0 {
		turns = 0
	}
	return &memory{turns: turns, sessions: make(map[string]*history)}
}

func (m *memory) recall(sessionID, systemKey string) ([]Message, []int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.sessions[sessionID]
	if h == nil {
		h = &history{systemKey: systemKey}
		m.sessions[sessionID] = h
	}
	if h.systemKey != systemKey {
		h.systemKey = systemKey
		h.context = nil
	}
	return append([]Message(nil), h.messages...), append([]int(nil), h.context...)
}

func (m *memory) record(sessionID, systemKey, user, reply string, ctxTokens []int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	h := m.sessions[sessionID]
	if h == nil || h.systemKey != systemKey {
		return
	}
	h.messages = append(h.messages,
		Message{Role: roleUser, Content: user},
		Message{Role: roleAssistant, Content: reply},
	)
	if over := len(h.messages) - 2*m.turns; over > 0 {
		h.messages = append([]Message(nil), h.messages[over:]...)
	}
	if len(ctxTokens) > 0 {
		h.context = ctxTokens
	}
}

func (m *memory) forget(sessionID string) {
	m.mu.Lock()
	delete(m.sessions, sessionID)
	m.mu.Unlock()
}
