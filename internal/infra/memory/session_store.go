package memory

import (
	"sync"
	"time"

	"angostura-trivia-service/internal/app"
)

// SessionStore is the in-memory implementation of app.SessionStore.
// Finished or abandoned sessions are swept after an idle TTL so a
// long-running server does not accumulate dead attempts.
type SessionStore struct {
	idleTTL time.Duration

	mu       sync.RWMutex
	sessions map[string]*app.Session

	stop chan struct{}
	once sync.Once
}

// NewSessionStore builds a store sweeping sessions idle longer than idleTTL.
func NewSessionStore(idleTTL time.Duration) *SessionStore {
	s := &SessionStore{
		idleTTL:  idleTTL,
		sessions: make(map[string]*app.Session),
		stop:     make(chan struct{}),
	}
	if idleTTL > 0 {
		go s.sweep()
	}
	return s
}

func (s *SessionStore) Put(session *app.Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID()] = session
}

func (s *SessionStore) Get(id string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[id]
	return session, ok
}

func (s *SessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[id]; ok {
		session.CancelTimers()
		delete(s.sessions, id)
	}
}

// Close stops the background sweeper.
func (s *SessionStore) Close() {
	s.once.Do(func() { close(s.stop) })
}

func (s *SessionStore) sweep() {
	ticker := time.NewTicker(s.idleTTL / 2)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.mu.Lock()
			for id, session := range s.sessions {
				if now.Sub(session.IdleSince()) > s.idleTTL {
					session.CancelTimers()
					delete(s.sessions, id)
				}
			}
			s.mu.Unlock()
		}
	}
}
