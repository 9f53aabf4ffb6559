package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"angostura-trivia-service/internal/app"
	"angostura-trivia-service/internal/domain"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const activePoolKey = "trivia:questions:active"

// QuestionCache keeps the serialized active pool in Redis and falls back
// to the upstream source on a miss. Cache errors degrade to the upstream,
// never to the caller.
type QuestionCache struct {
	client   *redis.Client
	upstream app.QuestionSource
	ttl      time.Duration
	sf       singleflight.Group
	rnd      *rand.Rand
}

func NewQuestionCache(client *redis.Client, upstream app.QuestionSource, ttl time.Duration) *QuestionCache {
	return &QuestionCache{
		client:   client,
		upstream: upstream,
		ttl:      ttl,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *QuestionCache) FetchActiveQuestions(ctx context.Context) ([]domain.Question, error) {
	if pool, ok := c.cached(ctx); ok {
		return pool, nil
	}

	result, err, _ := c.sf.Do(activePoolKey, func() (interface{}, error) {
		// Re-check in case another goroutine filled the cache.
		if pool, ok := c.cached(ctx); ok {
			return pool, nil
		}

		pool, err := c.upstream.FetchActiveQuestions(ctx)
		if err != nil {
			return nil, err
		}

		if data, err := json.Marshal(toCacheRecords(pool)); err == nil {
			_ = c.client.Set(ctx, activePoolKey, data, c.ttlWithJitter()).Err()
		}
		return pool, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.Question), nil
}

// Invalidate drops the cached pool after admin edits.
func (c *QuestionCache) Invalidate(ctx context.Context) error {
	if err := c.client.Del(ctx, activePoolKey).Err(); err != nil {
		return fmt.Errorf("invalidate question cache: %w", err)
	}
	return nil
}

func (c *QuestionCache) cached(ctx context.Context) ([]domain.Question, bool) {
	data, err := c.client.Get(ctx, activePoolKey).Bytes()
	if err != nil {
		return nil, false
	}
	var records []cacheRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, false
	}
	return fromCacheRecords(records), true
}

// cacheRecord carries the answer key, which the domain type deliberately
// keeps out of its public JSON shape.
type cacheRecord struct {
	ID           string   `json:"id"`
	Text         string   `json:"text"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correctIndex"`
	Category     string   `json:"category"`
	Difficulty   string   `json:"difficulty"`
	Explanation  string   `json:"explanation"`
}

func toCacheRecords(pool []domain.Question) []cacheRecord {
	records := make([]cacheRecord, 0, len(pool))
	for _, q := range pool {
		records = append(records, cacheRecord{
			ID:           q.ID,
			Text:         q.Text,
			Options:      q.Options,
			CorrectIndex: q.CorrectIndex,
			Category:     q.Category,
			Difficulty:   q.Difficulty,
			Explanation:  q.Explanation,
		})
	}
	return records
}

func fromCacheRecords(records []cacheRecord) []domain.Question {
	pool := make([]domain.Question, 0, len(records))
	for _, r := range records {
		pool = append(pool, domain.Question{
			ID:           r.ID,
			Text:         r.Text,
			Options:      r.Options,
			CorrectIndex: r.CorrectIndex,
			Category:     r.Category,
			Difficulty:   r.Difficulty,
			Explanation:  r.Explanation,
			Active:       true,
		})
	}
	return pool
}

func (c *QuestionCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
