package middleware_test

import (
	"context"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/ports"
)

// MockStore is a simple map-based store for testing middleware.
type MockStore struct {
	data map[string]*domain.ThreadRecord
}

func NewMockStore() *MockStore {
	return &MockStore{
		data: make(map[string]*domain.ThreadRecord),
	}
}

func (s *MockStore) Save(ctx context.Context, threadID string, rec *domain.ThreadRecord) error {
	s.data[threadID] = rec
	return nil
}

func (s *MockStore) Load(ctx context.Context, threadID string) (*domain.ThreadRecord, error) {
	rec, ok := s.data[threadID]
	if !ok {
		return nil, domain.ErrThreadNotFound
	}
	return rec, nil
}

func (s *MockStore) Delete(ctx context.Context, threadID string) error {
	delete(s.data, threadID)
	return nil
}

func (s *MockStore) List(ctx context.Context) ([]string, error) {
	keys := make([]string, 0, len(s.data))
	for k := range s.data {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ ports.ThreadStore = (*MockStore)(nil)
