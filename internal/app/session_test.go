package app

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"angostura-trivia-service/internal/domain"
)

type fakeTimer struct {
	d       time.Duration
	fn      func()
	stopped bool
}

func (t *fakeTimer) Stop() bool {
	was := t.stopped
	t.stopped = true
	return !was
}

// fakeSchedule captures armed timers so tests fire them by hand.
type fakeSchedule struct {
	timers []*fakeTimer
}

func (fs *fakeSchedule) schedule(d time.Duration, fn func()) deadlineTimer {
	t := &fakeTimer{d: d, fn: fn}
	fs.timers = append(fs.timers, t)
	return t
}

func (fs *fakeSchedule) last() *fakeTimer {
	if len(fs.timers) == 0 {
		return nil
	}
	return fs.timers[len(fs.timers)-1]
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func testQuestions(n int) []domain.Question {
	qs := make([]domain.Question, 0, n)
	for i := 0; i < n; i++ {
		qs = append(qs, domain.Question{
			ID:           fmt.Sprintf("q%d", i+1),
			Text:         fmt.Sprintf("Question %d", i+1),
			Options:      []string{"a", "b", "c", "d"},
			CorrectIndex: 1,
			Category:     "nature",
			Difficulty:   "easy",
			Active:       true,
		})
	}
	return qs
}

func newTestSession(t *testing.T, n int, opts ...SessionOption) (*Session, *fakeClock, *fakeSchedule) {
	t.Helper()
	clock := newFakeClock()
	sched := &fakeSchedule{}
	base := []SessionOption{WithClock(clock.Now), WithScheduler(sched.schedule)}
	s := NewSession("s1", "Ana", testQuestions(n), DefaultRules(), append(base, opts...)...)
	if err := s.Start(); err != nil {
		t.Fatalf("start: %v", err)
	}
	return s, clock, sched
}

func TestStartRejectsInvalidInput(t *testing.T) {
	s := NewSession("s1", "   ", testQuestions(1), DefaultRules())
	if err := s.Start(); !errors.Is(err, domain.ErrInvalidPlayerName) {
		t.Fatalf("expected invalid player name, got %v", err)
	}

	s = NewSession("s2", "Ana", nil, DefaultRules())
	if err := s.Start(); !errors.Is(err, domain.ErrEmptyQuestionPool) {
		t.Fatalf("expected empty pool error, got %v", err)
	}
}

func TestCorrectAnswerAwardsBasePlusTimeBonus(t *testing.T) {
	s, clock, _ := newTestSession(t, 2)

	// Answer with 5 seconds left on a 30 second clock.
	clock.Advance(25 * time.Second)
	res, err := s.Submit(1)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if !res.Record.Correct {
		t.Fatalf("expected correct answer, got %+v", res.Record)
	}
	want := 20 + 5/3
	if res.Awarded != want || res.Score != want {
		t.Fatalf("expected %d points, got awarded=%d score=%d", want, res.Awarded, res.Score)
	}
	if res.Awarded <= 20 {
		t.Fatalf("expected time bonus on top of base, got %d", res.Awarded)
	}
	if res.Record.ElapsedSeconds != 25 {
		t.Fatalf("expected 25s elapsed, got %d", res.Record.ElapsedSeconds)
	}
	if s.State() != StateShowingFeedback {
		t.Fatalf("expected feedback state, got %s", s.State())
	}
}

func TestTimeBonusMonotonic(t *testing.T) {
	fast, _, _ := newTestSession(t, 1)
	fastRes, err := fast.Submit(1)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	slow, clock, _ := newTestSession(t, 1)
	clock.Advance(29 * time.Second)
	slowRes, err := slow.Submit(1)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	if fastRes.Awarded < slowRes.Awarded {
		t.Fatalf("bonus must not grow as time runs out: fast=%d slow=%d", fastRes.Awarded, slowRes.Awarded)
	}
	if fastRes.Awarded != 30 {
		t.Fatalf("full-clock answer should score 20+10, got %d", fastRes.Awarded)
	}
	if slowRes.Awarded != 20 {
		t.Fatalf("1s-left answer should score base only, got %d", slowRes.Awarded)
	}
}

func TestOutOfRangeAnswerLeavesStateUntouched(t *testing.T) {
	s, _, _ := newTestSession(t, 1)

	if _, err := s.Submit(7); !errors.Is(err, domain.ErrAnswerOutOfRange) {
		t.Fatalf("expected out of range error, got %v", err)
	}
	if s.State() != StateAwaitingAnswer {
		t.Fatalf("state changed on rejected input: %s", s.State())
	}
	if len(s.AnswerLog()) != 0 {
		t.Fatalf("log grew on rejected input")
	}
}

func TestDoubleSubmitResolvesOnce(t *testing.T) {
	s, _, _ := newTestSession(t, 2)

	if _, err := s.Submit(1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if _, err := s.Submit(2); !errors.Is(err, domain.ErrNotAwaitingAnswer) {
		t.Fatalf("expected rejection of second submit, got %v", err)
	}
	if got := len(s.AnswerLog()); got != 1 {
		t.Fatalf("expected one log entry, got %d", got)
	}
}

func TestDeadlineExpiryResolvesAsIncorrect(t *testing.T) {
	s, clock, sched := newTestSession(t, 2)

	deadline := sched.timers[0]
	clock.Advance(30 * time.Second)
	deadline.fn()

	log := s.AnswerLog()
	if len(log) != 1 {
		t.Fatalf("expected one resolution, got %d", len(log))
	}
	if log[0].Correct || !log[0].Skipped || log[0].ChosenIndex != -1 {
		t.Fatalf("expiry should record a skip, got %+v", log[0])
	}
	if log[0].ElapsedSeconds != 30 {
		t.Fatalf("expected full elapsed on expiry, got %d", log[0].ElapsedSeconds)
	}
	if s.State() != StateShowingFeedback {
		t.Fatalf("expected feedback after expiry, got %s", s.State())
	}

	// A stale duplicate firing must be a no-op.
	deadline.fn()
	if got := len(s.AnswerLog()); got != 1 {
		t.Fatalf("stale timer duplicated resolution: %d entries", got)
	}
}

func TestSubmitWinsTimerRace(t *testing.T) {
	s, _, sched := newTestSession(t, 1)

	deadline := sched.timers[0]
	if _, err := s.Submit(0); err != nil {
		t.Fatalf("submit: %v", err)
	}
	deadline.fn() // timer already lost the race

	log := s.AnswerLog()
	if len(log) != 1 || log[0].Skipped {
		t.Fatalf("expected single explicit resolution, got %+v", log)
	}
}

func TestAdvanceWalksQuestionsThenCompletes(t *testing.T) {
	var (
		mu      sync.Mutex
		results []domain.QuizResult
	)
	s, clock, _ := newTestSession(t, 2, WithCompleteHook(func(r domain.QuizResult) {
		mu.Lock()
		results = append(results, r)
		mu.Unlock()
	}))

	clock.Advance(10 * time.Second)
	if _, err := s.Submit(1); err != nil {
		t.Fatalf("submit q1: %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}

	snap := s.Snapshot()
	if snap.State != StateAwaitingAnswer || snap.CurrentIndex != 1 {
		t.Fatalf("expected second question live, got %+v", snap)
	}
	if len(s.AnswerLog()) != snap.CurrentIndex {
		t.Fatalf("log length %d != current index %d", len(s.AnswerLog()), snap.CurrentIndex)
	}

	clock.Advance(5 * time.Second)
	if _, err := s.Submit(3); err != nil {
		t.Fatalf("submit q2: %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("final advance: %v", err)
	}

	if s.State() != StateCompleted {
		t.Fatalf("expected completed, got %s", s.State())
	}
	if err := s.Advance(); !errors.Is(err, domain.ErrSessionCompleted) {
		t.Fatalf("expected terminal state error, got %v", err)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(results) != 1 {
		t.Fatalf("expected exactly one result emission, got %d", len(results))
	}
	res := results[0]
	if res.CorrectCount != 1 || res.TotalQuestions != 2 {
		t.Fatalf("unexpected result %+v", res)
	}
	if res.TotalElapsedSeconds != 15 {
		t.Fatalf("expected 15s total elapsed, got %d", res.TotalElapsedSeconds)
	}
	if res.Score != 20+20/3 {
		t.Fatalf("unexpected final score %d", res.Score)
	}
}

func TestSingleQuestionTimeoutCompletesViaAutoAdvance(t *testing.T) {
	var (
		mu      sync.Mutex
		results int
	)
	s, clock, sched := newTestSession(t, 1, WithCompleteHook(func(domain.QuizResult) {
		mu.Lock()
		results++
		mu.Unlock()
	}))

	clock.Advance(30 * time.Second)
	sched.timers[0].fn() // deadline
	feedback := sched.last()
	if feedback == sched.timers[0] {
		t.Fatalf("expected a feedback timer to be armed")
	}
	feedback.fn() // auto-advance

	if s.State() != StateCompleted {
		t.Fatalf("expected completed, got %s", s.State())
	}
	snap := s.Snapshot()
	if snap.Result == nil || snap.Result.CorrectCount != 0 || snap.Result.Score != 0 {
		t.Fatalf("unexpected result %+v", snap.Result)
	}

	mu.Lock()
	defer mu.Unlock()
	if results != 1 {
		t.Fatalf("expected one emission, got %d", results)
	}
}

func TestAutoAdvanceAndExplicitAdvanceEmitOnce(t *testing.T) {
	var (
		mu      sync.Mutex
		results int
	)
	s, _, sched := newTestSession(t, 1, WithCompleteHook(func(domain.QuizResult) {
		mu.Lock()
		results++
		mu.Unlock()
	}))

	if _, err := s.Submit(1); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := s.Advance(); err != nil {
		t.Fatalf("advance: %v", err)
	}
	sched.last().fn() // feedback timer fires after the explicit advance

	mu.Lock()
	defer mu.Unlock()
	if results != 1 {
		t.Fatalf("expected one emission despite the race, got %d", results)
	}
}

func TestScoreNeverDecreases(t *testing.T) {
	s, _, _ := newTestSession(t, 3)

	prev := 0
	answers := []int{0, 1, 3} // wrong, right, wrong
	for i, chosen := range answers {
		if _, err := s.Submit(chosen); err != nil {
			t.Fatalf("submit %d: %v", i, err)
		}
		if got := s.Score(); got < prev {
			t.Fatalf("score decreased: %d -> %d", prev, got)
		} else {
			prev = got
		}
		if i < len(answers)-1 {
			if err := s.Advance(); err != nil {
				t.Fatalf("advance %d: %v", i, err)
			}
		}
	}
}

func TestSnapshotHidesAnswerKey(t *testing.T) {
	s, clock, _ := newTestSession(t, 1)

	clock.Advance(12 * time.Second)
	snap := s.Snapshot()
	if snap.Question == nil {
		t.Fatalf("expected live question in snapshot")
	}
	if snap.RemainingSeconds != 18 {
		t.Fatalf("expected 18s remaining, got %d", snap.RemainingSeconds)
	}
	if len(snap.Question.Options) != domain.OptionCount {
		t.Fatalf("expected %d options, got %d", domain.OptionCount, len(snap.Question.Options))
	}
}
