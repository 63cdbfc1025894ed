package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"study-portal-service/internal/app"
)

// FeedStore is a Redis-aware implementation of FeedRepository.
// Notes:
//   - It still keeps a local in-memory map of feeds to reuse the in-process
//     broadcast logic.
//   - Redis marks feed liveness so other instances (and operators) can see which
//     users have a checklist open.
type FeedStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	feeds  map[string]*app.Feed
}

func NewFeedStore(client *redis.Client, ttl time.Duration) *FeedStore {
	return &FeedStore{
		client: client,
		ttl:    ttl,
		feeds:  make(map[string]*app.Feed),
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
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(key), "1", s.ttl).Err()
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
		_ = s.client.Del(context.Background(), s.key(key)).Err()
	}
}

func (s *FeedStore) key(feedKey string) string {
	return "progress:feed:" + feedKey
}
