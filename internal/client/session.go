package client

import "sync"

// SessionCell holds the session ID for the current conversation. The first
// adopted ID wins; later adoptions are ignored until Reset.
type SessionCell struct {
	mu sync.Mutex
	id string
}

// Adopt stores id if the cell is empty. Empty ids are ignored.
func (c *SessionCell) Adopt(id string) {
	if id == "" {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.id == "" {
		c.id = id
	}
}

// Get returns the adopted session ID, or "" when none has been adopted.
func (c *SessionCell) Get() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.id
}

// Reset clears the cell so the next Adopt takes effect. Used when starting
// a new conversation.
func (c *SessionCell) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.id = ""
}
