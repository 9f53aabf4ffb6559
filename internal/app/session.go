package app

import (
	"strings"
	"sync"
	"time"

	"angostura-trivia-service/internal/domain"
)

// State identifies where a session is in its lifecycle.
type State string

const (
	StateNotStarted      State = "not_started"
	StateAwaitingAnswer  State = "awaiting_answer"
	StateShowingFeedback State = "showing_feedback"
	StateCompleted       State = "completed"
)

// Rules holds the tunable quiz parameters.
type Rules struct {
	QuestionsPerQuiz int
	AnswerTimeout    time.Duration
	FeedbackDelay    time.Duration
	BasePoints       int
	BonusDivisor     int
}

// DefaultRules mirrors the production quiz: 10 questions, 30s each,
// 20 base points plus one bonus point per 3 seconds left on the clock.
func DefaultRules() Rules {
	return Rules{
		QuestionsPerQuiz: 10,
		AnswerTimeout:    30 * time.Second,
		FeedbackDelay:    1500 * time.Millisecond,
		BasePoints:       20,
		BonusDivisor:     3,
	}
}

// deadlineTimer is the stoppable handle returned by the scheduler.
// *time.Timer satisfies it.
type deadlineTimer interface {
	Stop() bool
}

type scheduler func(time.Duration, func()) deadlineTimer

func afterFunc(d time.Duration, f func()) deadlineTimer {
	return time.AfterFunc(d, f)
}

// Resolution describes the outcome of a single resolved question.
type Resolution struct {
	Record       domain.AnswerRecord
	CorrectIndex int
	Explanation  string
	Awarded      int
	Score        int
	LastQuestion bool
}

// QuestionView is a question as shown to the player, answer key withheld.
type QuestionView struct {
	ID         string   `json:"id"`
	Text       string   `json:"text"`
	Options    []string `json:"options"`
	Category   string   `json:"category"`
	Difficulty string   `json:"difficulty"`
}

// Snapshot is a read-only view of session progress for the transport layer.
type Snapshot struct {
	ID               string             `json:"id"`
	PlayerName       string             `json:"playerName"`
	State            State              `json:"state"`
	CurrentIndex     int                `json:"currentIndex"`
	TotalQuestions   int                `json:"totalQuestions"`
	Score            int                `json:"score"`
	RemainingSeconds int                `json:"remainingSeconds"`
	Question         *QuestionView      `json:"question,omitempty"`
	Result           *domain.QuizResult `json:"result,omitempty"`
}

// Session owns one trivia attempt: question sequencing, per-question
// deadlines, answer acceptance, scoring and final result assembly.
// A session is never restarted; a new attempt means a new Session.
type Session struct {
	id         string
	playerName string
	rules      Rules
	questions  []domain.Question

	now      func() time.Time
	schedule scheduler

	// onResolve fires once per resolved question, onComplete exactly once
	// per session. Both are invoked outside the session lock.
	onResolve  func(domain.AnswerRecord)
	onComplete func(domain.QuizResult)

	mu            sync.Mutex
	state         State
	current       int
	score         int
	log           []domain.AnswerRecord
	askedAt       time.Time
	resolved      bool
	emitted       bool
	answerTimer   deadlineTimer
	feedbackTimer deadlineTimer
	result        *domain.QuizResult
	lastTouched   time.Time
}

// SessionOption customizes a session, mainly for deterministic tests.
type SessionOption func(*Session)

// WithClock overrides the session's time source.
func WithClock(now func() time.Time) SessionOption {
	return func(s *Session) { s.now = now }
}

// WithScheduler overrides deadline scheduling.
func WithScheduler(sched scheduler) SessionOption {
	return func(s *Session) { s.schedule = sched }
}

// WithResolveHook registers the per-question outcome callback.
func WithResolveHook(fn func(domain.AnswerRecord)) SessionOption {
	return func(s *Session) { s.onResolve = fn }
}

// WithCompleteHook registers the final result callback.
func WithCompleteHook(fn func(domain.QuizResult)) SessionOption {
	return func(s *Session) { s.onComplete = fn }
}

// NewSession builds a session in NotStarted over a fixed question set.
func NewSession(id, playerName string, questions []domain.Question, rules Rules, opts ...SessionOption) *Session {
	s := &Session{
		id:         id,
		playerName: playerName,
		rules:      rules,
		questions:  questions,
		now:        time.Now,
		schedule:   afterFunc,
		state:      StateNotStarted,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.lastTouched = s.now()
	return s
}

// ID returns the session identifier.
func (s *Session) ID() string { return s.id }

// Start moves NotStarted to AwaitingAnswer and arms the first deadline.
func (s *Session) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateNotStarted {
		return domain.ErrSessionCompleted
	}
	if strings.TrimSpace(s.playerName) == "" {
		return domain.ErrInvalidPlayerName
	}
	if len(s.questions) == 0 {
		return domain.ErrEmptyQuestionPool
	}

	s.state = StateAwaitingAnswer
	s.current = 0
	s.score = 0
	s.log = nil
	s.askLocked()
	return nil
}

// askLocked arms the countdown for the current question.
func (s *Session) askLocked() {
	s.askedAt = s.now()
	s.lastTouched = s.askedAt
	s.resolved = false
	idx := s.current
	s.answerTimer = s.schedule(s.rules.AnswerTimeout, func() {
		s.expire(idx)
	})
}

// Submit resolves the live question with an explicit answer. Submissions
// outside AwaitingAnswer, or after the question already resolved, are
// rejected without changing state.
func (s *Session) Submit(chosen int) (Resolution, error) {
	s.mu.Lock()
	switch {
	case s.state == StateCompleted:
		s.mu.Unlock()
		return Resolution{}, domain.ErrSessionCompleted
	case s.state != StateAwaitingAnswer || s.resolved:
		s.mu.Unlock()
		return Resolution{}, domain.ErrNotAwaitingAnswer
	}
	if chosen < 0 || chosen >= len(s.questions[s.current].Options) {
		s.mu.Unlock()
		return Resolution{}, domain.ErrAnswerOutOfRange
	}

	if s.answerTimer != nil {
		s.answerTimer.Stop()
	}
	res := s.resolveLocked(chosen, false)
	s.mu.Unlock()

	s.fireResolve(res.Record)
	return res, nil
}

// expire is the deadline callback: an implicit skip scored as incorrect.
// The index guard discards stale timers that fire after the question
// already resolved or the session moved on.
func (s *Session) expire(idx int) {
	s.mu.Lock()
	if s.state != StateAwaitingAnswer || s.current != idx || s.resolved {
		s.mu.Unlock()
		return
	}
	res := s.resolveLocked(-1, true)
	s.mu.Unlock()

	s.fireResolve(res.Record)
}

func (s *Session) resolveLocked(chosen int, skipped bool) Resolution {
	q := s.questions[s.current]

	elapsed := int(s.now().Sub(s.askedAt) / time.Second)
	limit := int(s.rules.AnswerTimeout / time.Second)
	if elapsed < 0 {
		elapsed = 0
	}
	if elapsed > limit || skipped {
		elapsed = limit
	}
	remaining := limit - elapsed

	correct := !skipped && q.IsCorrect(chosen)
	awarded := 0
	if correct {
		awarded = s.rules.BasePoints + remaining/s.rules.BonusDivisor
		s.score += awarded
	}

	rec := domain.AnswerRecord{
		QuestionID:     q.ID,
		ChosenIndex:    chosen,
		Skipped:        skipped,
		Correct:        correct,
		ElapsedSeconds: elapsed,
	}
	s.log = append(s.log, rec)
	s.resolved = true
	s.state = StateShowingFeedback
	s.lastTouched = s.now()

	idx := s.current
	if s.rules.FeedbackDelay > 0 {
		s.feedbackTimer = s.schedule(s.rules.FeedbackDelay, func() {
			s.autoAdvance(idx)
		})
	}

	return Resolution{
		Record:       rec,
		CorrectIndex: q.CorrectIndex,
		Explanation:  q.Explanation,
		Awarded:      awarded,
		Score:        s.score,
		LastQuestion: s.current+1 == len(s.questions),
	}
}

// Advance leaves ShowingFeedback: either the next question or Completed.
func (s *Session) Advance() error {
	s.mu.Lock()
	if s.state == StateCompleted {
		s.mu.Unlock()
		return domain.ErrSessionCompleted
	}
	if s.state != StateShowingFeedback {
		s.mu.Unlock()
		return domain.ErrNothingToAdvance
	}
	if s.feedbackTimer != nil {
		s.feedbackTimer.Stop()
	}
	result := s.advanceLocked()
	s.mu.Unlock()

	s.fireComplete(result)
	return nil
}

// autoAdvance is the feedback-delay callback, with the same stale guard
// as expire.
func (s *Session) autoAdvance(idx int) {
	s.mu.Lock()
	if s.state != StateShowingFeedback || s.current != idx {
		s.mu.Unlock()
		return
	}
	result := s.advanceLocked()
	s.mu.Unlock()

	s.fireComplete(result)
}

// advanceLocked returns a non-nil result only on the transition that
// completed the session; the emitted flag keeps emission at most once
// even if the timer and an explicit advance race.
func (s *Session) advanceLocked() *domain.QuizResult {
	s.lastTouched = s.now()
	if s.current+1 < len(s.questions) {
		s.current++
		s.state = StateAwaitingAnswer
		s.askLocked()
		return nil
	}

	s.state = StateCompleted
	if s.emitted {
		return nil
	}
	s.emitted = true

	correct := 0
	total := 0
	for _, rec := range s.log {
		if rec.Correct {
			correct++
		}
		total += rec.ElapsedSeconds
	}
	res := domain.QuizResult{
		PlayerName:          s.playerName,
		Score:               s.score,
		TotalQuestions:      len(s.questions),
		CorrectCount:        correct,
		TotalElapsedSeconds: total,
		CompletedAt:         s.now(),
		Answers:             append([]domain.AnswerRecord(nil), s.log...),
	}
	s.result = &res
	return &res
}

func (s *Session) fireResolve(rec domain.AnswerRecord) {
	if s.onResolve != nil {
		s.onResolve(rec)
	}
}

func (s *Session) fireComplete(res *domain.QuizResult) {
	if res != nil && s.onComplete != nil {
		s.onComplete(*res)
	}
}

// Snapshot returns the player-facing view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := Snapshot{
		ID:             s.id,
		PlayerName:     s.playerName,
		State:          s.state,
		CurrentIndex:   s.current,
		TotalQuestions: len(s.questions),
		Score:          s.score,
	}
	switch s.state {
	case StateAwaitingAnswer:
		remaining := s.rules.AnswerTimeout - s.now().Sub(s.askedAt)
		if remaining < 0 {
			remaining = 0
		}
		snap.RemainingSeconds = int(remaining / time.Second)
		snap.Question = s.questionViewLocked()
	case StateShowingFeedback:
		snap.Question = s.questionViewLocked()
	case StateCompleted:
		snap.Result = s.result
	}
	return snap
}

func (s *Session) questionViewLocked() *QuestionView {
	q := s.questions[s.current]
	return &QuestionView{
		ID:         q.ID,
		Text:       q.Text,
		Options:    append([]string(nil), q.Options...),
		Category:   q.Category,
		Difficulty: q.Difficulty,
	}
}

// AnswerLog returns a copy of the resolved answers so far.
func (s *Session) AnswerLog() []domain.AnswerRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.AnswerRecord(nil), s.log...)
}

// Score returns the current score.
func (s *Session) Score() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.score
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IdleSince reports the last time the session saw any activity.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastTouched
}

// CancelTimers stops any armed deadline, used when a store evicts the session.
func (s *Session) CancelTimers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.answerTimer != nil {
		s.answerTimer.Stop()
	}
	if s.feedbackTimer != nil {
		s.feedbackTimer.Stop()
	}
}
