package memory

import (
	"sync"

	"study-portal-service/internal/app"
)

// FeedStore is an in-memory implementation of app.FeedRepository.
type FeedStore struct {
	mu    sync.RWMutex
	feeds map[string]*app.Feed
}

func NewFeedStore() *FeedStore {
	return &FeedStore{
		feeds: make(map[string]*app.Feed),
	}
}

func (s *FeedStore) GetOrCreate(key string) *app.Feed {
	s.mu.Lock()
	defer s.mu.Unlock()
	if feed, ok := s.feeds[key]; ok {
		return feed
	}
	feed := app.NewFeed(key)
	s.feeds[key] = feed
	return feed
}

func (s *FeedStore) Get(key string) (*app.Feed, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	feed, ok := s.feeds[key]
	return feed, ok
}

func (s *FeedStore) DeleteIfEmpty(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.feeds[key]
	if !ok {
		return
	}
	if feed.IsEmpty() {
		delete(s.feeds, key)
	}
}
