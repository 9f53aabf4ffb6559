package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"angostura-trivia-service/internal/app"
	"angostura-trivia-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

// StaticQuestionSource serves a fixed question set (demos and tests).
type StaticQuestionSource struct {
	questions []domain.Question
}

func NewStaticQuestionSource(questions []domain.Question) *StaticQuestionSource {
	return &StaticQuestionSource{questions: questions}
}

func (s *StaticQuestionSource) FetchActiveQuestions(_ context.Context) ([]domain.Question, error) {
	active := make([]domain.Question, 0, len(s.questions))
	for _, q := range s.questions {
		if q.Active {
			active = append(active, q)
		}
	}
	return active, nil
}

const poolCacheKey = "active-pool"

// CachingQuestionSource caches the active pool with a TTL to avoid
// hitting the backing store on every session start.
type CachingQuestionSource struct {
	upstream app.QuestionSource
	ttl      time.Duration
	clock    func() time.Time
	sf       singleflight.Group
	rnd      *rand.Rand

	mu        sync.RWMutex
	pool      []domain.Question
	expiresAt time.Time
}

func NewCachingQuestionSource(upstream app.QuestionSource, ttl time.Duration) *CachingQuestionSource {
	return &CachingQuestionSource{
		upstream: upstream,
		ttl:      ttl,
		clock:    time.Now,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *CachingQuestionSource) FetchActiveQuestions(ctx context.Context) ([]domain.Question, error) {
	now := c.clock()

	c.mu.RLock()
	if c.pool != nil && c.expiresAt.After(now) {
		pool := c.pool
		c.mu.RUnlock()
		return pool, nil
	}
	c.mu.RUnlock()

	result, err, _ := c.sf.Do(poolCacheKey, func() (interface{}, error) {
		now := c.clock()
		c.mu.RLock()
		if c.pool != nil && c.expiresAt.After(now) {
			pool := c.pool
			c.mu.RUnlock()
			return pool, nil
		}
		c.mu.RUnlock()

		pool, err := c.upstream.FetchActiveQuestions(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.pool = pool
		c.expiresAt = now.Add(c.ttlWithJitter())
		c.mu.Unlock()
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached pool, used after admin edits.
func (c *CachingQuestionSource) Invalidate() {
	c.mu.Lock()
	c.pool = nil
	c.mu.Unlock()
}

func (c *CachingQuestionSource) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
