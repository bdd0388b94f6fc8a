package memory

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/trutoman/Apalabrazos-sub000/internal/domain"
)

// QuestionLoader fetches question content from a backing store (file,
// database, ...).
type QuestionLoader interface {
	LoadQuestions(ctx context.Context, level domain.QuestionLevel, count int) ([]domain.Question, error)
}

// QuestionRepository caches question sets with a TTL to avoid repeated
// loader hits; concurrent misses for the same set collapse into one load.
type QuestionRepository struct {
	loader QuestionLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu    sync.RWMutex
	cache map[string]cachedSet
}

type cachedSet struct {
	questions []domain.Question
	expiresAt time.Time
}

// NewQuestionRepository wraps the loader with a TTL cache.
func NewQuestionRepository(loader QuestionLoader, ttl time.Duration) *QuestionRepository {
	return &QuestionRepository{
		loader: loader,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
		cache:  make(map[string]cachedSet),
	}
}

// LoadQuestions serves from cache when fresh, otherwise loads through
// singleflight and caches the result. Returned slices are copies; callers
// may mutate them freely.
func (r *QuestionRepository) LoadQuestions(ctx context.Context, level domain.QuestionLevel, count int) ([]domain.Question, error) {
	key := setKey(level, count)
	now := r.clock()

	r.mu.RLock()
	if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
		r.mu.RUnlock()
		return cloneSet(entry.questions), nil
	}
	r.mu.RUnlock()

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		now := r.clock()
		r.mu.RLock()
		if entry, ok := r.cache[key]; ok && entry.expiresAt.After(now) {
			r.mu.RUnlock()
			return entry.questions, nil
		}
		r.mu.RUnlock()

		questions, err := r.loader.LoadQuestions(ctx, level, count)
		if err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.cache[key] = cachedSet{
			questions: questions,
			expiresAt: now.Add(r.ttlWithJitter()),
		}
		r.mu.Unlock()
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return cloneSet(result.([]domain.Question)), nil
}

func (r *QuestionRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}

func setKey(level domain.QuestionLevel, count int) string {
	return fmt.Sprintf("%s:%d", level, count)
}

func cloneSet(qs []domain.Question) []domain.Question {
	out := make([]domain.Question, len(qs))
	for i, q := range qs {
		out[i] = q.Clone()
	}
	return out
}
