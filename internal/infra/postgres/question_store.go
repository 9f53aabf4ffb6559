package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"angostura-trivia-service/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionStore persists trivia questions in Postgres. It implements
// app.QuestionSource for the quiz and the CRUD surface for the admin API.
type QuestionStore struct {
	pool *pgxpool.Pool
}

func NewQuestionStore(pool *pgxpool.Pool) *QuestionStore {
	return &QuestionStore{pool: pool}
}

const questionColumns = `id, text, options, correct_index, category, difficulty, active, explanation, total_attempts, correct_count, created_at, updated_at`

// FetchActiveQuestions returns the active pool. Rows that fail boundary
// validation are dropped here so malformed records never reach a session.
func (s *QuestionStore) FetchActiveQuestions(ctx context.Context) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE active ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("fetch active questions: %w", err)
	}
	defer rows.Close()

	var pool []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		if err := q.Validate(); err != nil {
			log.Printf("dropping malformed question %s: %v", q.ID, err)
			continue
		}
		pool = append(pool, q)
	}
	return pool, rows.Err()
}

// List returns all questions, newest first, for the admin panel.
func (s *QuestionStore) List(ctx context.Context) ([]domain.Question, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

// Get returns one question by ID.
func (s *QuestionStore) Get(ctx context.Context, id string) (domain.Question, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id=$1`, id)
	q, err := scanQuestion(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return q, err
}

// Create inserts a validated question and returns it with server fields set.
func (s *QuestionStore) Create(ctx context.Context, q domain.Question) (domain.Question, error) {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}

	options, err := json.Marshal(q.Options)
	if err != nil {
		return domain.Question{}, fmt.Errorf("marshal options: %w", err)
	}
	row := s.pool.QueryRow(ctx, `
		INSERT INTO questions (id, text, options, correct_index, category, difficulty, active, explanation)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`,
		q.ID, q.Text, options, q.CorrectIndex, q.Category, q.Difficulty, q.Active, q.Explanation)
	if err := row.Scan(&q.CreatedAt, &q.UpdatedAt); err != nil {
		return domain.Question{}, fmt.Errorf("insert question: %w", err)
	}
	return q, nil
}

// Update rewrites the editable fields of an existing question.
func (s *QuestionStore) Update(ctx context.Context, q domain.Question) (domain.Question, error) {
	if err := q.Validate(); err != nil {
		return domain.Question{}, err
	}

	options, err := json.Marshal(q.Options)
	if err != nil {
		return domain.Question{}, fmt.Errorf("marshal options: %w", err)
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE questions
		SET text=$2, options=$3, correct_index=$4, category=$5, difficulty=$6, active=$7, explanation=$8, updated_at=now()
		WHERE id=$1`,
		q.ID, q.Text, options, q.CorrectIndex, q.Category, q.Difficulty, q.Active, q.Explanation)
	if err != nil {
		return domain.Question{}, fmt.Errorf("update question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Question{}, domain.ErrQuestionNotFound
	}
	return s.Get(ctx, q.ID)
}

// Delete removes a question permanently.
func (s *QuestionStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("delete question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// SetActive toggles eligibility for new sessions.
func (s *QuestionStore) SetActive(ctx context.Context, id string, active bool) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE questions SET active=$2, updated_at=now() WHERE id=$1`, id, active)
	if err != nil {
		return fmt.Errorf("toggle question: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// IncrementOutcome bumps the per-question hit counters after a resolution.
func (s *QuestionStore) IncrementOutcome(ctx context.Context, id string, wasCorrect bool) error {
	correct := 0
	if wasCorrect {
		correct = 1
	}
	tag, err := s.pool.Exec(ctx, `
		UPDATE questions
		SET total_attempts = total_attempts + 1,
		    correct_count  = correct_count + $2,
		    updated_at     = now()
		WHERE id=$1`, id, correct)
	if err != nil {
		return fmt.Errorf("increment outcome: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrQuestionNotFound
	}
	return nil
}

// Stats aggregates counters for the admin dashboard.
func (s *QuestionStore) Stats(ctx context.Context) (domain.QuizStats, error) {
	stats := domain.QuizStats{
		ByCategory:   make(map[string]int),
		ByDifficulty: make(map[string]int),
	}

	row := s.pool.QueryRow(ctx, `
		SELECT count(*),
		       count(*) FILTER (WHERE active),
		       coalesce(sum(total_attempts), 0),
		       coalesce(sum(correct_count), 0)
		FROM questions`)
	if err := row.Scan(&stats.TotalQuestions, &stats.ActiveQuestions, &stats.TotalAttempts, &stats.CorrectAnswers); err != nil {
		return domain.QuizStats{}, fmt.Errorf("question totals: %w", err)
	}
	if stats.TotalAttempts > 0 {
		stats.AccuracyPercent = int(float64(stats.CorrectAnswers)/float64(stats.TotalAttempts)*100 + 0.5)
	}

	rows, err := s.pool.Query(ctx, `SELECT category, difficulty, count(*) FROM questions GROUP BY category, difficulty`)
	if err != nil {
		return domain.QuizStats{}, fmt.Errorf("question breakdown: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var category, difficulty string
		var n int
		if err := rows.Scan(&category, &difficulty, &n); err != nil {
			return domain.QuizStats{}, err
		}
		stats.ByCategory[category] += n
		stats.ByDifficulty[difficulty] += n
	}
	return stats, rows.Err()
}

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var (
		q       domain.Question
		options []byte
	)
	err := row.Scan(&q.ID, &q.Text, &options, &q.CorrectIndex, &q.Category, &q.Difficulty,
		&q.Active, &q.Explanation, &q.TotalAttempts, &q.CorrectCount, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return domain.Question{}, err
	}
	if err := json.Unmarshal(options, &q.Options); err != nil {
		return domain.Question{}, fmt.Errorf("unmarshal options for %s: %w", q.ID, err)
	}
	return q, nil
}
