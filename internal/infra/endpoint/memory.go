package endpoint

import (
	"context"
	"sync"
)

// MemoryStore keeps the endpoint for the lifetime of the process only.
type MemoryStore struct {
	mu    sync.RWMutex
	value string
	def   string
}

func NewMemoryStore(defaultEndpoint string) *MemoryStore {
	return &MemoryStore{def: orDefault(defaultEndpoint)}
}

func (s *MemoryStore) Configure(_ context.Context, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.value = url
	return nil
}

func (s *MemoryStore) Current(_ context.Context) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.value == "" {
		return s.def
	}
	return s.value
}
