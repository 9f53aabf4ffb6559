package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"angostura-trivia-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// ResultStore persists completed quiz attempts and serves the leaderboard.
type ResultStore struct {
	pool *pgxpool.Pool
}

func NewResultStore(pool *pgxpool.Pool) *ResultStore {
	return &ResultStore{pool: pool}
}

// Insert appends one completed attempt.
func (s *ResultStore) Insert(ctx context.Context, result domain.QuizResult) error {
	answers, err := json.Marshal(result.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO results (player_name, score, total_questions, correct_count, total_elapsed_seconds, answers, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		result.PlayerName, result.Score, result.TotalQuestions, result.CorrectCount,
		result.TotalElapsedSeconds, answers, result.CompletedAt)
	if err != nil {
		return fmt.Errorf("insert result: %w", err)
	}
	return nil
}

// Leaderboard returns the top results: score descending, faster
// completions ranking higher on score ties.
func (s *ResultStore) Leaderboard(ctx context.Context, limit int) (domain.Leaderboard, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, `
		SELECT player_name, score, correct_count, total_questions, total_elapsed_seconds, completed_at
		FROM results
		ORDER BY score DESC, total_elapsed_seconds ASC, completed_at ASC
		LIMIT $1`, limit)
	if err != nil {
		return domain.Leaderboard{}, fmt.Errorf("leaderboard query: %w", err)
	}
	defer rows.Close()

	lb := domain.Leaderboard{UpdatedAt: time.Now()}
	for rows.Next() {
		var e domain.LeaderboardEntry
		if err := rows.Scan(&e.PlayerName, &e.Score, &e.CorrectCount, &e.TotalQuestions,
			&e.TotalElapsedSeconds, &e.CompletedAt); err != nil {
			return domain.Leaderboard{}, err
		}
		e.Rank = len(lb.Entries) + 1
		lb.Entries = append(lb.Entries, e)
	}
	return lb, rows.Err()
}

// Recent returns the newest results for the admin dashboard.
func (s *ResultStore) Recent(ctx context.Context, limit int) ([]domain.QuizResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.pool.Query(ctx, `
		SELECT player_name, score, total_questions, correct_count, total_elapsed_seconds, completed_at
		FROM results
		ORDER BY completed_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent results: %w", err)
	}
	defer rows.Close()

	var results []domain.QuizResult
	for rows.Next() {
		var r domain.QuizResult
		if err := rows.Scan(&r.PlayerName, &r.Score, &r.TotalQuestions, &r.CorrectCount,
			&r.TotalElapsedSeconds, &r.CompletedAt); err != nil {
			return nil, err
		}
		results = append(results, r)
	}
	return results, rows.Err()
}

// Sink adapts the two stores into the app.ResultSink contract: results
// land in the results table, outcomes bump the question counters.
type Sink struct {
	Questions *QuestionStore
	Results   *ResultStore
}

func (s Sink) RecordResult(ctx context.Context, result domain.QuizResult) error {
	return s.Results.Insert(ctx, result)
}

func (s Sink) RecordQuestionOutcome(ctx context.Context, questionID string, wasCorrect bool) error {
	return s.Questions.IncrementOutcome(ctx, questionID, wasCorrect)
}
