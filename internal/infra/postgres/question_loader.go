package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/trutoman/Apalabrazos-sub000/internal/domain"
)

// QuestionLoader loads question JSONB rows from Postgres.
type QuestionLoader struct {
	pool *pgxpool.Pool
}

// NewQuestionLoader wraps a pgx pool.
func NewQuestionLoader(pool *pgxpool.Pool) *QuestionLoader {
	return &QuestionLoader{pool: pool}
}

// LoadQuestions reads up to count questions of the given level, in insert
// order, and fails with domain.ErrInsufficientContent when the table holds
// fewer.
func (l *QuestionLoader) LoadQuestions(ctx context.Context, level domain.QuestionLevel, count int) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT data FROM questions WHERE level=$1 ORDER BY id LIMIT $2`, string(level), count)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0, count)
	for rows.Next() {
		var raw []byte
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		var q domain.Question
		if err := json.Unmarshal(raw, &q); err != nil {
			return nil, fmt.Errorf("unmarshal question: %w", err)
		}
		if err := q.Validate(); err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	if len(questions) < count {
		return nil, fmt.Errorf("%w: level %s has %d questions, need %d", domain.ErrInsufficientContent, level, len(questions), count)
	}
	return questions, nil
}
