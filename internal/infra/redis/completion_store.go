package redis

import (
	"context"
	"strconv"

	"github.com/redis/go-redis/v9"

	"study-portal-service/internal/domain"
)

// CompletionStore keeps completion state as one hash per (user, subject).
// Only done items are stored:  HSET progress:{userID}:{subject} {itemID} 1
type CompletionStore struct {
	client *redis.Client
}

func NewCompletionStore(client *redis.Client) *CompletionStore {
	return &CompletionStore{client: client}
}

func (s *CompletionStore) LoadCompletion(ctx context.Context, userID, subject string) (domain.CompletionState, error) {
	fields, err := s.client.HGetAll(ctx, s.key(userID, subject)).Result()
	if err != nil {
		return nil, err
	}
	state := make(domain.CompletionState, len(fields))
	for id, raw := range fields {
		if done, err := strconv.ParseBool(raw); err == nil && done {
			state[id] = true
		}
	}
	return state, nil
}

// SaveCompletion replaces the stored hash atomically with the done items of state.
func (s *CompletionStore) SaveCompletion(ctx context.Context, userID, subject string, state domain.CompletionState) error {
	key := s.key(userID, subject)
	done := state.Done()
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, key)
		if len(done) > 0 {
			values := make([]interface{}, 0, len(done)*2)
			for _, id := range done {
				values = append(values, id, "1")
			}
			pipe.HSet(ctx, key, values...)
		}
		return nil
	})
	return err
}

func (s *CompletionStore) key(userID, subject string) string {
	return "progress:" + domain.ScopedKey(userID, subject)
}

// ExperienceStore keeps experience balances as plain counters: INCRBY xp:{userID} {points}
type ExperienceStore struct {
	client *redis.Client
}

func NewExperienceStore(client *redis.Client) *ExperienceStore {
	return &ExperienceStore{client: client}
}

func (s *ExperienceStore) AddExperience(ctx context.Context, userID string, points int) (int, error) {
	total, err := s.client.IncrBy(ctx, s.key(userID), int64(points)).Result()
	return int(total), err
}

func (s *ExperienceStore) Experience(ctx context.Context, userID string) (int, error) {
	total, err := s.client.Get(ctx, s.key(userID)).Int()
	if err == redis.Nil {
		return 0, nil
	}
	return total, err
}

func (s *ExperienceStore) key(userID string) string {
	return "xp:" + userID
}
