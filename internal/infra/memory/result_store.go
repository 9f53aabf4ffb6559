package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"angostura-trivia-service/internal/domain"
)

// ResultStore keeps quiz results and per-question counters in memory.
// It backs deployments without Postgres and doubles as the test sink.
type ResultStore struct {
	clock func() time.Time

	mu       sync.RWMutex
	results  []domain.QuizResult
	outcomes map[string][2]int // questionID -> {attempts, correct}
}

func NewResultStore() *ResultStore {
	return &ResultStore{
		clock:    time.Now,
		outcomes: make(map[string][2]int),
	}
}

func (s *ResultStore) RecordResult(_ context.Context, result domain.QuizResult) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, result)
	return nil
}

func (s *ResultStore) RecordQuestionOutcome(_ context.Context, questionID string, wasCorrect bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := s.outcomes[questionID]
	counts[0]++
	if wasCorrect {
		counts[1]++
	}
	s.outcomes[questionID] = counts
	return nil
}

// Leaderboard ranks stored results: score descending, elapsed ascending.
func (s *ResultStore) Leaderboard(_ context.Context, limit int) (domain.Leaderboard, error) {
	s.mu.RLock()
	results := append([]domain.QuizResult(nil), s.results...)
	s.mu.RUnlock()

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].TotalElapsedSeconds < results[j].TotalElapsedSeconds
	})
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	entries := make([]domain.LeaderboardEntry, 0, len(results))
	for i, r := range results {
		entries = append(entries, domain.LeaderboardEntry{
			Rank:                i + 1,
			PlayerName:          r.PlayerName,
			Score:               r.Score,
			CorrectCount:        r.CorrectCount,
			TotalQuestions:      r.TotalQuestions,
			TotalElapsedSeconds: r.TotalElapsedSeconds,
			CompletedAt:         r.CompletedAt,
		})
	}
	return domain.Leaderboard{Entries: entries, UpdatedAt: s.clock()}, nil
}

// Outcomes returns a copy of the per-question counters.
func (s *ResultStore) Outcomes() map[string][2]int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string][2]int, len(s.outcomes))
	for k, v := range s.outcomes {
		out[k] = v
	}
	return out
}

// Results returns a copy of the recorded results, oldest first.
func (s *ResultStore) Results() []domain.QuizResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.QuizResult(nil), s.results...)
}
