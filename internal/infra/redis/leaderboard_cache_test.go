package redis

import (
	"context"
	"testing"
	"time"

	"angostura-trivia-service/internal/domain"
	"angostura-trivia-service/internal/infra/memory"
)

func resultWithScore(name string, score int) domain.QuizResult {
	return domain.QuizResult{PlayerName: name, Score: score, CompletedAt: time.Now()}
}

func TestLeaderboardCacheHitsAndInvalidation(t *testing.T) {
	ctx := context.Background()
	client, mr := newClient(t)

	store := memory.NewResultStore()
	cache := NewLeaderboardCache(client, store, time.Minute)

	lb, err := cache.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(lb.Entries) != 0 {
		t.Fatalf("expected empty board, got %d", len(lb.Entries))
	}
	if !mr.Exists(leaderboardKeyPrefix + "10") {
		t.Fatalf("expected snapshot cached")
	}

	// New results land behind the cache; stale snapshot served until invalidated.
	_ = store.RecordResult(ctx, resultWithScore("Ana", 50))
	lb, _ = cache.Leaderboard(ctx, 10)
	if len(lb.Entries) != 0 {
		t.Fatalf("expected stale cached snapshot, got %d entries", len(lb.Entries))
	}

	cache.ResultRecorded(ctx)
	lb, err = cache.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard after invalidate: %v", err)
	}
	if len(lb.Entries) != 1 || lb.Entries[0].PlayerName != "Ana" {
		t.Fatalf("expected fresh snapshot, got %+v", lb.Entries)
	}
}
