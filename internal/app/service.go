package app

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"strings"
	"time"

	"angostura-trivia-service/internal/domain"
	"github.com/google/uuid"
)

// QuestionSource fetches the active question pool from the backing store.
type QuestionSource interface {
	FetchActiveQuestions(ctx context.Context) ([]domain.Question, error)
}

// ResultSink persists completed attempts and per-question hit statistics.
// Both writes are best-effort from the session's point of view.
type ResultSink interface {
	RecordResult(ctx context.Context, result domain.QuizResult) error
	RecordQuestionOutcome(ctx context.Context, questionID string, wasCorrect bool) error
}

// SessionStore keeps live sessions addressable by ID.
type SessionStore interface {
	Put(session *Session)
	Get(id string) (*Session, bool)
	Delete(id string)
}

// ResultListener is notified after a result lands in the sink, e.g. to
// push fresh leaderboard snapshots to websocket subscribers.
type ResultListener interface {
	ResultRecorded(ctx context.Context)
}

const sinkWriteTimeout = 10 * time.Second

// QuizService wires the session machine to its external collaborators.
type QuizService struct {
	source   QuestionSource
	sink     ResultSink
	sessions SessionStore
	rules    Rules
	rnd      *rand.Rand
	listener ResultListener
}

// NewQuizService builds the quiz use cases. listener may be nil.
func NewQuizService(source QuestionSource, sink ResultSink, sessions SessionStore, rules Rules, listener ResultListener) *QuizService {
	return &QuizService{
		source:   source,
		sink:     sink,
		sessions: sessions,
		rules:    rules,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
		listener: listener,
	}
}

// StartSession fetches the active pool, samples a question set and starts
// a fresh session. Collaborator failures are converted to the domain
// error taxonomy; raw transport errors never reach the caller.
func (s *QuizService) StartSession(ctx context.Context, playerName string) (Snapshot, error) {
	if strings.TrimSpace(playerName) == "" {
		return Snapshot{}, domain.ErrInvalidPlayerName
	}

	pool, err := s.source.FetchActiveQuestions(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrEmptyQuestionPool) {
			return Snapshot{}, domain.ErrEmptyQuestionPool
		}
		log.Printf("question fetch failed: %v", err)
		return Snapshot{}, domain.ErrSourceUnavailable
	}

	valid := pool[:0:0]
	for _, q := range pool {
		if err := q.Validate(); err != nil {
			log.Printf("skipping malformed question %q: %v", q.ID, err)
			continue
		}
		valid = append(valid, q)
	}
	if len(valid) == 0 {
		return Snapshot{}, domain.ErrEmptyQuestionPool
	}

	questions := SampleQuestions(valid, s.rules.QuestionsPerQuiz, s.rnd)
	session := NewSession(
		uuid.NewString(),
		playerName,
		questions,
		s.rules,
		WithResolveHook(s.recordOutcome),
		WithCompleteHook(s.recordResult),
	)
	if err := session.Start(); err != nil {
		return Snapshot{}, err
	}
	s.sessions.Put(session)
	return session.Snapshot(), nil
}

// SubmitAnswer resolves the live question of a session.
func (s *QuizService) SubmitAnswer(id string, chosen int) (Resolution, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return Resolution{}, domain.ErrSessionNotFound
	}
	return session.Submit(chosen)
}

// Advance moves a session past its feedback screen.
func (s *QuizService) Advance(id string) (Snapshot, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	if err := session.Advance(); err != nil && !errors.Is(err, domain.ErrNothingToAdvance) {
		return Snapshot{}, err
	}
	return session.Snapshot(), nil
}

// Session returns the current snapshot for a session ID.
func (s *QuizService) Session(id string) (Snapshot, error) {
	session, ok := s.sessions.Get(id)
	if !ok {
		return Snapshot{}, domain.ErrSessionNotFound
	}
	return session.Snapshot(), nil
}

// recordOutcome updates per-question hit statistics off the session's
// critical path. Failures are logged, never surfaced.
func (s *QuizService) recordOutcome(rec domain.AnswerRecord) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sinkWriteTimeout)
		defer cancel()
		if err := s.sink.RecordQuestionOutcome(ctx, rec.QuestionID, rec.Correct); err != nil {
			log.Printf("question outcome write failed for %s: %v", rec.QuestionID, err)
		}
	}()
}

// recordResult persists the final result. The session is already
// Completed by the time this runs; a sink failure costs only the
// leaderboard row, not the player's summary.
func (s *QuizService) recordResult(result domain.QuizResult) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), sinkWriteTimeout)
		defer cancel()
		if err := s.sink.RecordResult(ctx, result); err != nil {
			log.Printf("result write failed for %s: %v", result.PlayerName, err)
			return
		}
		if s.listener != nil {
			s.listener.ResultRecorded(ctx)
		}
	}()
}
