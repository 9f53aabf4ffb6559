package app

import (
	"math/rand"

	"angostura-trivia-service/internal/domain"
)

// SampleQuestions picks up to n questions from the pool, uniformly at
// random and without replacement. Pools shorter than n are returned in
// full (shuffled); the input slice is never mutated.
func SampleQuestions(pool []domain.Question, n int, rnd *rand.Rand) []domain.Question {
	if n <= 0 || len(pool) == 0 {
		return nil
	}
	shuffled := append([]domain.Question(nil), pool...)
	if n > len(shuffled) {
		n = len(shuffled)
	}
	// Partial Fisher-Yates: only the first n positions need settling.
	for i := 0; i < n; i++ {
		j := i + rnd.Intn(len(shuffled)-i)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled[:n]
}
