package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"study-portal-service/internal/domain"
)

// ContentLoader loads quiz and checklist JSONB documents from Postgres.
type ContentLoader struct {
	pool *pgxpool.Pool
}

func NewContentLoader(pool *pgxpool.Pool) *ContentLoader {
	return &ContentLoader{pool: pool}
}

func (l *ContentLoader) LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var quiz domain.Quiz
	if err := l.loadDocument(ctx, `SELECT data FROM quizzes WHERE id=$1`, quizID, &quiz); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Quiz{}, domain.ErrQuizNotFound
		}
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	return quiz, nil
}

func (l *ContentLoader) LoadChecklist(ctx context.Context, subject string) (domain.Checklist, error) {
	var list domain.Checklist
	if err := l.loadDocument(ctx, `SELECT data FROM checklists WHERE subject=$1`, subject, &list); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Checklist{}, domain.ErrChecklistNotFound
		}
		return domain.Checklist{}, fmt.Errorf("load checklist: %w", err)
	}
	return list, nil
}

func (l *ContentLoader) loadDocument(ctx context.Context, query, id string, out any) error {
	var raw []byte
	if err := l.pool.QueryRow(ctx, query, id).Scan(&raw); err != nil {
		return err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("unmarshal %s: %w", id, err)
	}
	return nil
}

// SaveQuiz upserts a quiz document. Used by the seed command.
func (l *ContentLoader) SaveQuiz(ctx context.Context, quiz domain.Quiz) error {
	data, err := json.Marshal(quiz)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO quizzes (id, data) VALUES ($1, $2::jsonb)
		 ON CONFLICT (id) DO UPDATE SET data=EXCLUDED.data, updated_at=now()`,
		quiz.ID, string(data))
	return err
}

// SaveChecklist upserts a checklist document. Used by the seed command.
func (l *ContentLoader) SaveChecklist(ctx context.Context, list domain.Checklist) error {
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	_, err = l.pool.Exec(ctx,
		`INSERT INTO checklists (subject, data) VALUES ($1, $2::jsonb)
		 ON CONFLICT (subject) DO UPDATE SET data=EXCLUDED.data, updated_at=now()`,
		list.Subject, string(data))
	return err
}
