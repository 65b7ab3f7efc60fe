package mediaquery

import (
	"context"
	"sync"
)

// Mock is a Querier for tests.
type Mock struct {
	mu       sync.Mutex
	statuses map[string]Status
	err      error
}

// NewMock creates a mock querier reporting StatusUnknown for every token.
func NewMock() *Mock {
	return &Mock{statuses: make(map[string]Status)}
}

// SetStatus sets the status reported for a token.
func (m *Mock) SetStatus(token string, s Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.statuses[token] = s
}

// SetError makes every query fail with err.
func (m *Mock) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// PlaybackStatus implements Querier.
func (m *Mock) PlaybackStatus(_ context.Context, token string) (Status, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return StatusUnknown, m.err
	}
	return m.statuses[token], nil
}
