package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"study-portal-service/internal/domain"
)

// CompletionStore persists completion state as a JSONB array of done item ids,
// one row per (user, subject).
type CompletionStore struct {
	pool *pgxpool.Pool
}

func NewCompletionStore(pool *pgxpool.Pool) *CompletionStore {
	return &CompletionStore{pool: pool}
}

func (s *CompletionStore) LoadCompletion(ctx context.Context, userID, subject string) (domain.CompletionState, error) {
	var raw []byte
	err := s.pool.QueryRow(ctx,
		`SELECT items FROM completion_states WHERE user_id=$1 AND subject=$2`,
		userID, subject).Scan(&raw)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.CompletionState{}, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, err
	}
	state := make(domain.CompletionState, len(ids))
	for _, id := range ids {
		state[id] = true
	}
	return state, nil
}

func (s *CompletionStore) SaveCompletion(ctx context.Context, userID, subject string, state domain.CompletionState) error {
	done := state.Done()
	sort.Strings(done)
	data, err := json.Marshal(done)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO completion_states (user_id, subject, items) VALUES ($1, $2, $3::jsonb)
		 ON CONFLICT (user_id, subject) DO UPDATE SET items=EXCLUDED.items, updated_at=now()`,
		userID, subject, string(data))
	return err
}

// ExperienceStore keeps experience balances in the experience table.
type ExperienceStore struct {
	pool *pgxpool.Pool
}

func NewExperienceStore(pool *pgxpool.Pool) *ExperienceStore {
	return &ExperienceStore{pool: pool}
}

func (s *ExperienceStore) AddExperience(ctx context.Context, userID string, points int) (int, error) {
	var total int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO experience (user_id, points) VALUES ($1, $2)
		 ON CONFLICT (user_id) DO UPDATE SET points=experience.points+EXCLUDED.points, updated_at=now()
		 RETURNING points`,
		userID, points).Scan(&total)
	return int(total), err
}

func (s *ExperienceStore) Experience(ctx context.Context, userID string) (int, error) {
	var total int64
	err := s.pool.QueryRow(ctx, `SELECT points FROM experience WHERE user_id=$1`, userID).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return int(total), err
}
