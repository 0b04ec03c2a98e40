package app

import (
	"context"
	"sync"

	"travel_recommender/internal/domain"
)

// MemoryProfileStore keeps profiles in process memory. Updates are
// field-atomic per session; the last writer wins.
type MemoryProfileStore struct {
	mu       sync.RWMutex
	profiles map[string]domain.PreferenceProfile
}

func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: map[string]domain.PreferenceProfile{}}
}

func (s *MemoryProfileStore) GetProfile(ctx context.Context, session string) (domain.PreferenceProfile, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.profiles[session]
	return p, ok, nil
}

func (s *MemoryProfileStore) PutProfile(ctx context.Context, session string, p domain.PreferenceProfile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[session] = p
	return nil
}
