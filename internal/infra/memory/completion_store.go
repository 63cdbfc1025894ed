package memory

import (
	"context"
	"maps"
	"sync"

	"study-portal-service/internal/domain"
)

// CompletionStore is an in-memory implementation of app.CompletionStore.
// States are copied on the way in and out so callers never share a map with the store.
type CompletionStore struct {
	mu     sync.RWMutex
	states map[string]domain.CompletionState
}

func NewCompletionStore() *CompletionStore {
	return &CompletionStore{states: make(map[string]domain.CompletionState)}
}

func (s *CompletionStore) LoadCompletion(_ context.Context, userID, subject string) (domain.CompletionState, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.states[key(userID, subject)]
	if !ok {
		return domain.CompletionState{}, nil
	}
	return maps.Clone(state), nil
}

func (s *CompletionStore) SaveCompletion(_ context.Context, userID, subject string, state domain.CompletionState) error {
	stored := make(domain.CompletionState, len(state))
	for id, done := range state {
		if done {
			stored[id] = true
		}
	}
	s.mu.Lock()
	s.states[key(userID, subject)] = stored
	s.mu.Unlock()
	return nil
}

// ExperienceStore is an in-memory implementation of app.ExperienceStore.
type ExperienceStore struct {
	mu     sync.Mutex
	points map[string]int
}

func NewExperienceStore() *ExperienceStore {
	return &ExperienceStore{points: make(map[string]int)}
}

func (s *ExperienceStore) AddExperience(_ context.Context, userID string, points int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points[userID] += points
	return s.points[userID], nil
}

func (s *ExperienceStore) Experience(_ context.Context, userID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.points[userID], nil
}

func key(userID, subject string) string {
	return domain.ScopedKey(userID, subject)
}
