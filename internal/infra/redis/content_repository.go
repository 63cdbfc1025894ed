package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"study-portal-service/internal/domain"
)

// ContentLoader fetches study content from a backing store (e.g., Postgres).
type ContentLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	LoadChecklist(ctx context.Context, subject string) (domain.Checklist, error)
}

// ContentRepository caches content as JSON documents in Redis and falls back to a loader on miss.
// Quizzes are stored as:     SET content:quiz:{quizID} {json}
// Checklists are stored as:  SET content:checklist:{subject} {json}
type ContentRepository struct {
	client *redis.Client
	loader ContentLoader
	ttl    time.Duration
	sf     singleflight.Group
	rndMu  sync.Mutex
	rnd    *rand.Rand
}

func NewContentRepository(client *redis.Client, loader ContentLoader, ttl time.Duration) *ContentRepository {
	return &ContentRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *ContentRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	err := r.cached(ctx, "content:quiz:"+quizID, &quiz, func() (any, error) {
		return r.loader.LoadQuiz(ctx, quizID)
	})
	return quiz, err
}

func (r *ContentRepository) GetChecklist(ctx context.Context, subject string) (domain.Checklist, error) {
	var list domain.Checklist
	err := r.cached(ctx, "content:checklist:"+subject, &list, func() (any, error) {
		return r.loader.LoadChecklist(ctx, subject)
	})
	return list, err
}

// cached decodes key into out, loading and storing it on a miss. Cache write failures are
// ignored; the loaded value is still returned.
func (r *ContentRepository) cached(ctx context.Context, key string, out any, load func() (any, error)) error {
	if r.read(ctx, key, out) {
		return nil
	}

	raw, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if data, err := r.client.Get(ctx, key).Bytes(); err == nil {
			return data, nil
		}
		value, err := load()
		if err != nil {
			return nil, err
		}
		data, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		return data, nil
	})
	if err != nil {
		return err
	}
	return json.Unmarshal(raw.([]byte), out)
}

// read reports a hit. redis.Nil, an unreachable cache and undecodable entries are all misses.
func (r *ContentRepository) read(ctx context.Context, key string, out any) bool {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, out); err != nil {
		_ = r.client.Del(ctx, key).Err()
		return false
	}
	return true
}

func (r *ContentRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
