// Package tools provides the tool layer exposed to the language model.
//
// Tools execute against the knowledge store and report sources for the last
// execution so the UI can attribute answers. All tools are registered with a
// Manager and exposed to Genkit through Register.
package tools

import (
	"context"
	"fmt"
	"sync"
)

// Tool is a capability the model can invoke during generation.
//
// Execute never returns a Go error: failures are folded into the result
// string so the model can read and relay them.
type Tool interface {
	// Name returns the unique tool name.
	Name() string
	// Description returns the description shown to the model.
	Description() string
	// Execute runs the tool with named arguments.
	Execute(ctx context.Context, args map[string]any) string
	// LastSources returns the sources gathered by the most recent Execute.
	LastSources() []string
	// ResetSources clears the gathered sources.
	ResetSources()
}

// Manager registers tools and dispatches execution by name.
// It is safe for concurrent use.
type Manager struct {
	mu    sync.Mutex
	tools map[string]Tool
	order []string
}

// NewManager creates an empty Manager.
func NewManager() *Manager {
	return &Manager{tools: make(map[string]Tool)}
}

// Register adds a tool. A tool without a name or a duplicate name is rejected.
func (m *Manager) Register(t Tool) error {
	if t == nil {
		return fmt.Errorf("tool is required")
	}
	name := t.Name()
	if name == "" {
		return fmt.Errorf("tool name is required")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.tools[name]; exists {
		return fmt.Errorf("tool %q already registered", name)
	}
	m.tools[name] = t
	m.order = append(m.order, name)
	return nil
}

// Execute runs the named tool. An unknown name yields a message the model
// can relay rather than an error.
func (m *Manager) Execute(ctx context.Context, name string, args map[string]any) string {
	m.mu.Lock()
	t, ok := m.tools[name]
	m.mu.Unlock()
	if !ok {
		return fmt.Sprintf("Tool '%s' not found", name)
	}
	return t.Execute(ctx, args)
}

// Tools returns the registered tools in registration order.
func (m *Manager) Tools() []Tool {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Tool, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, m.tools[name])
	}
	return out
}

// LastSources returns the sources from the most recent tool execution.
// Tools are checked in registration order; the first with sources wins.
func (m *Manager) LastSources() []string {
	for _, t := range m.Tools() {
		if sources := t.LastSources(); len(sources) > 0 {
			return sources
		}
	}
	return nil
}

// ResetSources clears sources on every registered tool.
func (m *Manager) ResetSources() {
	for _, t := range m.Tools() {
		t.ResetSources()
	}
}
