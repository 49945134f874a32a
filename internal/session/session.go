// Package session tracks per-conversation history for the assistant.
//
// History is held in memory and truncated to a configured number of
// exchanges so that prompts stay bounded.
package session

import (
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Exchange is one user question and the assistant's answer.
type Exchange struct {
	Question string
	Answer   string
}

// Manager creates sessions and records conversation exchanges.
// It is safe for concurrent use.
type Manager struct {
	mu         sync.Mutex
	sessions   map[string][]Exchange
	maxHistory int
}

// NewManager creates a Manager keeping at most maxHistory exchanges per
// session. maxHistory must be positive.
func NewManager(maxHistory int) (*Manager, error) {
	if maxHistory <= 0 {
		return nil, fmt.Errorf("max history must be positive, got %d", maxHistory)
	}
	return &Manager{
		sessions:   make(map[string][]Exchange),
		maxHistory: maxHistory,
	}, nil
}

// Create starts a new session and returns its ID.
func (m *Manager) Create() string {
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = nil
	m.mu.Unlock()
	return id
}

// AddExchange records a question and answer on a session. Unknown session
// IDs are created implicitly so that clients may supply their own IDs.
func (m *Manager) AddExchange(id, question, answer string) {
	if id == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	history := append(m.sessions[id], Exchange{Question: question, Answer: answer})
	if len(history) > m.maxHistory {
		history = history[len(history)-m.maxHistory:]
	}
	m.sessions[id] = history
}

// History formats a session's conversation for prompt injection.
// Returns "" for unknown or empty sessions.
func (m *Manager) History(id string) string {
	m.mu.Lock()
	history := m.sessions[id]
	m.mu.Unlock()

	if len(history) == 0 {
		return ""
	}

	lines := make([]string, 0, len(history))
	for _, e := range history {
		lines = append(lines, fmt.Sprintf("User: %s\nAssistant: %s", e.Question, e.Answer))
	}
	return strings.Join(lines, "\n")
}

// Clear removes a session's history.
func (m *Manager) Clear(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
