package memory

import (
	"sync"

	"quiz-session-service/internal/app"
)

// SessionStore is an in-memory implementation of app.SessionRepository,
// keyed by "quizID/userID".
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*app.Session
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.Session),
	}
}

func (s *SessionStore) Get(key string) (*app.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[key]
	return session, ok
}

// Store keeps the first session registered under a key; a racing attach gets
// the existing one back.
func (s *SessionStore) Store(key string, session *app.Session) *app.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.sessions[key]; ok {
		return existing
	}
	s.sessions[key] = session
	return session
}

func (s *SessionStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, key)
}
