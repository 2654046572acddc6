package topscore

import (
	"context"
	"sync"
)

// MemoryStore keeps the best score in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	score int
	set   bool
}

var _ Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(_ context.Context) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.score, m.set, nil
}

func (m *MemoryStore) SetIfHigher(_ context.Context, score int) (int, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.set && score <= m.score {
		return m.score, false, nil
	}
	m.score = score
	m.set = true
	return score, true, nil
}
