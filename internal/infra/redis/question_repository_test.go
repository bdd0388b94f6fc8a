package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/trutoman/Apalabrazos-sub000/internal/domain"
	"github.com/trutoman/Apalabrazos-sub000/internal/infra/memory"
)

func TestQuestionRepositoryCachesInRedis(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	client := newClient(mr)

	loader := &countingLoader{QuestionLoader: memory.NewStaticSource(samplePool())}
	repo := NewQuestionRepository(client, loader, time.Minute)

	qs, err := repo.LoadQuestions(context.Background(), domain.LevelEasy, 2)
	if err != nil {
		t.Fatalf("load questions: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("got %d questions, want 2", len(qs))
	}
	if loader.calls != 1 {
		t.Fatalf("expected loader called once, got %d", loader.calls)
	}
	if !mr.Exists("questions:easy:2") {
		t.Fatal("expected the set to be cached under questions:easy:2")
	}

	// Second call should hit cache, loader not incremented.
	if _, err := repo.LoadQuestions(context.Background(), domain.LevelEasy, 2); err != nil {
		t.Fatalf("load questions: %v", err)
	}
	if loader.calls != 1 {
		t.Fatalf("expected cache hit, loader calls=%d", loader.calls)
	}
}

func TestQuestionRepositoryFallsBackWhenRedisGone(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	client := newClient(mr)
	mr.Close()

	loader := &countingLoader{QuestionLoader: memory.NewStaticSource(samplePool())}
	repo := NewQuestionRepository(client, loader, time.Minute)

	qs, err := repo.LoadQuestions(context.Background(), domain.LevelEasy, 2)
	if err != nil {
		t.Fatalf("load questions: %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("got %d questions, want 2", len(qs))
	}
	if loader.calls != 1 {
		t.Fatalf("expected one loader hit, got %d", loader.calls)
	}
}

type countingLoader struct {
	memory.QuestionLoader
	calls int
}

func (l *countingLoader) LoadQuestions(ctx context.Context, level domain.QuestionLevel, count int) ([]domain.Question, error) {
	l.calls++
	return l.QuestionLoader.LoadQuestions(ctx, level, count)
}

func samplePool() map[domain.QuestionLevel][]domain.Question {
	q1, _ := domain.NewQuestion("with the a: first letter", []string{"ape", "bee", "cat", "dog"}, 0, domain.LevelEasy)
	q2, _ := domain.NewQuestion("with the b: second letter", []string{"ape", "bee", "cat", "dog"}, 1, domain.LevelEasy)
	return map[domain.QuestionLevel][]domain.Question{
		domain.LevelEasy: {q1, q2},
	}
}

func newClient(mr *miniredis.Miniredis) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})
}
