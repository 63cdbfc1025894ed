package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"study-portal-service/internal/domain"
)

// ContentLoader fetches study content from a backing store (content file, Postgres).
type ContentLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	LoadChecklist(ctx context.Context, subject string) (domain.Checklist, error)
}

// ContentRepository caches quizzes and checklists with TTL to avoid repeated loader hits.
type ContentRepository struct {
	loader     ContentLoader
	quizzes    *ttlCache[domain.Quiz]
	checklists *ttlCache[domain.Checklist]
}

func NewContentRepository(loader ContentLoader, ttl time.Duration) *ContentRepository {
	return &ContentRepository{
		loader:     loader,
		quizzes:    newTTLCache[domain.Quiz](ttl, time.Now),
		checklists: newTTLCache[domain.Checklist](ttl, time.Now),
	}
}

func (r *ContentRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return r.quizzes.get(quizID, func() (domain.Quiz, error) {
		return r.loader.LoadQuiz(ctx, quizID)
	})
}

func (r *ContentRepository) GetChecklist(ctx context.Context, subject string) (domain.Checklist, error) {
	return r.checklists.get(subject, func() (domain.Checklist, error) {
		return r.loader.LoadChecklist(ctx, subject)
	})
}

type ttlCache[T any] struct {
	ttl   time.Duration
	clock func() time.Time
	sf    singleflight.Group
	rnd   *rand.Rand
	rndMu sync.Mutex

	mu      sync.RWMutex
	entries map[string]cached[T]
}

type cached[T any] struct {
	value     T
	expiresAt time.Time
}

func newTTLCache[T any](ttl time.Duration, clock func() time.Time) *ttlCache[T] {
	return &ttlCache[T]{
		ttl:     ttl,
		clock:   clock,
		rnd:     rand.New(rand.NewSource(time.Now().UnixNano())),
		entries: make(map[string]cached[T]),
	}
}

func (c *ttlCache[T]) lookup(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	if ok && entry.expiresAt.After(c.clock()) {
		return entry.value, true
	}
	var zero T
	return zero, false
}

func (c *ttlCache[T]) get(key string, load func() (T, error)) (T, error) {
	if value, ok := c.lookup(key); ok {
		return value, nil
	}

	result, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled it.
		if value, ok := c.lookup(key); ok {
			return value, nil
		}
		value, err := load()
		if err != nil {
			return value, err
		}
		c.mu.Lock()
		c.entries[key] = cached[T]{value: value, expiresAt: c.clock().Add(c.ttlWithJitter())}
		c.mu.Unlock()
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result.(T), nil
}

func (c *ttlCache[T]) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	c.rndMu.Lock()
	defer c.rndMu.Unlock()
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
