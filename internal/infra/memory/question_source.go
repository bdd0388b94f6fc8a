package memory

import (
	"context"
	"fmt"

	"github.com/trutoman/Apalabrazos-sub000/internal/domain"
)

// StaticSource serves questions from an in-memory map keyed by difficulty
// (useful for tests/demos).
type StaticSource struct {
	byLevel map[domain.QuestionLevel][]domain.Question
}

// NewStaticSource builds a source over the given pools.
func NewStaticSource(byLevel map[domain.QuestionLevel][]domain.Question) *StaticSource {
	return &StaticSource{byLevel: byLevel}
}

// LoadQuestions returns fresh copies of the first count questions of the
// level, with their status reset to init.
func (s *StaticSource) LoadQuestions(_ context.Context, level domain.QuestionLevel, count int) ([]domain.Question, error) {
	pool := s.byLevel[level]
	if len(pool) < count {
		return nil, fmt.Errorf("%w: level %s has %d questions, need %d", domain.ErrInsufficientContent, level, len(pool), count)
	}
	out := make([]domain.Question, count)
	for i := 0; i < count; i++ {
		q := pool[i].Clone()
		q.Status = domain.StatusInit
		out[i] = q
	}
	return out, nil
}
