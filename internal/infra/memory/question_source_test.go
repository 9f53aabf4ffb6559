package memory

import (
	"context"
	"testing"
	"time"

	"angostura-trivia-service/internal/domain"
)

func sampleQuestions() []domain.Question {
	return []domain.Question{
		{
			ID:           "q1",
			Text:         "Which river crosses the park?",
			Options:      []string{"Maule", "Biobio", "Itata", "Nuble"},
			CorrectIndex: 1,
			Category:     "geography",
			Difficulty:   "easy",
			Active:       true,
		},
		{
			ID:           "q2",
			Text:         "Inactive question",
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: 0,
			Active:       false,
		},
	}
}

func TestStaticSourceFiltersInactive(t *testing.T) {
	source := NewStaticQuestionSource(sampleQuestions())

	pool, err := source.FetchActiveQuestions(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(pool) != 1 || pool[0].ID != "q1" {
		t.Fatalf("expected only the active question, got %+v", pool)
	}
}

type countingSource struct {
	*StaticQuestionSource
	calls int
}

func (s *countingSource) FetchActiveQuestions(ctx context.Context) ([]domain.Question, error) {
	s.calls++
	return s.StaticQuestionSource.FetchActiveQuestions(ctx)
}

func TestCachingSourceServesFromCache(t *testing.T) {
	upstream := &countingSource{StaticQuestionSource: NewStaticQuestionSource(sampleQuestions())}
	cache := NewCachingQuestionSource(upstream, time.Minute)

	if _, err := cache.FetchActiveQuestions(context.Background()); err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if upstream.calls != 1 {
		t.Fatalf("expected upstream hit once, got %d", upstream.calls)
	}

	if _, err := cache.FetchActiveQuestions(context.Background()); err != nil {
		t.Fatalf("fetch 2: %v", err)
	}
	if upstream.calls != 1 {
		t.Fatalf("expected cache hit, upstream calls %d", upstream.calls)
	}
}

func TestCachingSourceInvalidate(t *testing.T) {
	upstream := &countingSource{StaticQuestionSource: NewStaticQuestionSource(sampleQuestions())}
	cache := NewCachingQuestionSource(upstream, time.Minute)

	_, _ = cache.FetchActiveQuestions(context.Background())
	cache.Invalidate()
	_, _ = cache.FetchActiveQuestions(context.Background())

	if upstream.calls != 2 {
		t.Fatalf("expected refetch after invalidate, got %d calls", upstream.calls)
	}
}
