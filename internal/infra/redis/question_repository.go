package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"github.com/trutoman/Apalabrazos-sub000/internal/domain"
)

// QuestionLoader fetches question content from a backing store.
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, level domain.QuestionLevel, count int) ([]domain.Question, error)
}

// QuestionRepository caches serialized question sets in Redis and falls back
// to a loader on cache miss. Sets are stored as:
//
//	SET questions:{level}:{count} <json array> EX ttl
type QuestionRepository struct {
	client *redis.Client
	loader QuestionLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

// NewQuestionRepository wraps the loader with a Redis cache.
func NewQuestionRepository(client *redis.Client, loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// LoadQuestions serves the cached set when present, otherwise loads through
// singleflight, caches best-effort and returns the loaded set.
func (r *QuestionRepository) LoadQuestions(ctx context.Context, level domain.QuestionLevel, count int) ([]domain.Question, error) {
	key := r.key(level, count)

	if qs, ok := r.fromCache(ctx, key); ok {
		return qs, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if qs, ok := r.fromCache(ctx, key); ok {
			return qs, nil
		}

		questions, err := r.loader.LoadQuestions(ctx, level, count)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(questions); err == nil {
			_ = r.client.Set(ctx, key, data, r.ttlWithJitter()).Err()
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

func (r *QuestionRepository) fromCache(ctx context.Context, key string) ([]domain.Question, bool) {
	data, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	var questions []domain.Question
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, false
	}
	return questions, true
}

func (r *QuestionRepository) key(level domain.QuestionLevel, count int) string {
	return fmt.Sprintf("questions:%s:%d", level, count)
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
