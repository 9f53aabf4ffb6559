package domain

import "time"

// OptionCount is the fixed number of answer options per question.
const OptionCount = 4

// Question is a multiple-choice trivia question about the park.
// CorrectIndex points into Options and is never serialized to players.
type Question struct {
	ID            string    `json:"id"`
	Text          string    `json:"text"`
	Options       []string  `json:"options"`
	CorrectIndex  int       `json:"-"`
	Category      string    `json:"category"`
	Difficulty    string    `json:"difficulty"`
	Active        bool      `json:"active"`
	Explanation   string    `json:"explanation,omitempty"`
	TotalAttempts int       `json:"totalAttempts"`
	CorrectCount  int       `json:"correctCount"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// Validate reports whether the record is well formed enough to enter a session.
func (q Question) Validate() error {
	if q.ID == "" || q.Text == "" {
		return ErrQuestionMalformed
	}
	if len(q.Options) != OptionCount {
		return ErrQuestionMalformed
	}
	for _, opt := range q.Options {
		if opt == "" {
			return ErrQuestionMalformed
		}
	}
	if q.CorrectIndex < 0 || q.CorrectIndex >= len(q.Options) {
		return ErrQuestionMalformed
	}
	return nil
}

// IsCorrect checks a chosen option index against the answer key.
func (q Question) IsCorrect(chosen int) bool {
	return chosen == q.CorrectIndex
}

// AnswerRecord is one resolved question within a session.
// ChosenIndex is -1 when the deadline expired without a submission.
type AnswerRecord struct {
	QuestionID     string `json:"questionId"`
	ChosenIndex    int    `json:"chosenIndex"`
	Skipped        bool   `json:"skipped"`
	Correct        bool   `json:"correct"`
	ElapsedSeconds int    `json:"elapsedSeconds"`
}

// QuizResult is the append-only record emitted once per completed session.
type QuizResult struct {
	PlayerName          string         `json:"playerName"`
	Score               int            `json:"score"`
	TotalQuestions      int            `json:"totalQuestions"`
	CorrectCount        int            `json:"correctCount"`
	TotalElapsedSeconds int            `json:"totalElapsedSeconds"`
	CompletedAt         time.Time      `json:"completedAt"`
	Answers             []AnswerRecord `json:"answers"`
}

// LeaderboardEntry is one ranked row: score descending, elapsed ascending on ties.
type LeaderboardEntry struct {
	Rank                int       `json:"rank"`
	PlayerName          string    `json:"playerName"`
	Score               int       `json:"score"`
	CorrectCount        int       `json:"correctCount"`
	TotalQuestions      int       `json:"totalQuestions"`
	TotalElapsedSeconds int       `json:"totalElapsedSeconds"`
	CompletedAt         time.Time `json:"completedAt"`
}

// Leaderboard is a snapshot of the ranked results.
type Leaderboard struct {
	Entries   []LeaderboardEntry `json:"entries"`
	UpdatedAt time.Time          `json:"updatedAt"`
}

// QuizStats aggregates question usage for the admin dashboard.
type QuizStats struct {
	TotalQuestions  int            `json:"totalQuestions"`
	ActiveQuestions int            `json:"activeQuestions"`
	TotalAttempts   int            `json:"totalAttempts"`
	CorrectAnswers  int            `json:"correctAnswers"`
	AccuracyPercent int            `json:"accuracyPercent"`
	ByCategory      map[string]int `json:"byCategory"`
	ByDifficulty    map[string]int `json:"byDifficulty"`
}
