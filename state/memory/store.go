package memory

import (
	"context"
	"sync"

	"github.com/marcelsud/teams-inbox/state"
)

// Write records one Set or Delete call, in order
type Write struct {
	Key     string
	Value   string
	Deleted bool
}

// Store is an in-process state.Store. It keeps the full write history so tests
// can assert on the sequence of overwrites.
type Store struct {
	mu     sync.Mutex
	values map[string]string
	writes []Write
}

func NewStore() *Store {
	return &Store{values: make(map[string]string)}
}

func (s *Store) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	if !ok {
		return "", state.ErrNotFound
	}
	return value, nil
}

func (s *Store) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	s.writes = append(s.writes, Write{Key: key, Value: value})
	return nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	s.writes = append(s.writes, Write{Key: key, Deleted: true})
	return nil
}

// Writes returns a copy of the write history
func (s *Store) Writes() []Write {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Write, len(s.writes))
	copy(out, s.writes)
	return out
}
