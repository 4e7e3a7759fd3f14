package matchmaking

import (
	"context"
	"sync"
)

// MemoryStore keeps queues in process memory. The default when no Redis
// address is configured.
type MemoryStore struct {
	mu     sync.Mutex
	queues map[string][]Entry
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{queues: map[string][]Entry{}}
}

func (s *MemoryStore) Push(_ context.Context, key string, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queues[key] = append(s.queues[key], e)
	return nil
}

func (s *MemoryStore) List(_ context.Context, key string) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Entry(nil), s.queues[key]...), nil
}

func (s *MemoryStore) PopN(_ context.Context, key string, n int) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.queues[key]
	if n > len(q) {
		n = len(q)
	}
	taken := append([]Entry(nil), q[:n]...)
	s.queues[key] = q[n:]
	return taken, nil
}

func (s *MemoryStore) RemovePlayer(_ context.Context, key, playerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.queues[key]
	for i, e := range q {
		if e.PlayerID == playerID {
			s.queues[key] = append(q[:i], q[i+1:]...)
			return nil
		}
	}
	return nil
}
