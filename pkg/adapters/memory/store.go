package memory

import (
	"context"
	"sync"

	"github.com/aretw0/tendril/pkg/domain"
)

// Store implements ports.ThreadStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.ThreadRecord
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.ThreadRecord),
	}
}

// Save persists the record in memory.
func (s *Store) Save(ctx context.Context, threadID string, rec *domain.ThreadRecord) error {
	// Copy to ensure isolation from later caller mutations.
	copied := *rec

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[threadID] = &copied
	return nil
}

// Load retrieves the record from memory.
func (s *Store) Load(ctx context.Context, threadID string) (*domain.ThreadRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[threadID]
	if !ok {
		return nil, domain.ErrThreadNotFound
	}

	// Copy on read so the caller cannot mutate store state by pointer.
	ret := *rec
	return &ret, nil
}

// Delete removes the record.
func (s *Store) Delete(ctx context.Context, threadID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, threadID)
	return nil
}

// List returns known thread IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	threads := make([]string, 0, len(s.data))
	for id := range s.data {
		threads = append(threads, id)
	}
	return threads, nil
}
