package memory

import (
	"sync"

	"examprep-quiz/internal/app"
	"golang.org/x/sync/singleflight"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
type SessionStore struct {
	mu       sync.Mutex
	sessions map[string]*app.QuizSession
	refs     map[string]int
	sf       singleflight.Group
}

func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*app.QuizSession),
		refs:     make(map[string]int),
	}
}

// Acquire runs create outside the store lock, since it restores from the
// state store; concurrent opens of one id share a single create call.
func (s *SessionStore) Acquire(sessionID string, create func() *app.QuizSession) *app.QuizSession {
	for {
		if session, ok := s.ref(sessionID); ok {
			return session
		}
		s.sf.Do(sessionID, func() (interface{}, error) {
			s.mu.Lock()
			_, ok := s.sessions[sessionID]
			s.mu.Unlock()
			if ok {
				return nil, nil
			}
			session := create()
			s.mu.Lock()
			s.sessions[sessionID] = session
			s.mu.Unlock()
			return nil, nil
		})
		// a release between the insert and our ref loops back to a fresh create
	}
}

func (s *SessionStore) ref(sessionID string) (*app.QuizSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if ok {
		s.refs[sessionID]++
	}
	return session, ok
}

func (s *SessionStore) Get(sessionID string) (*app.QuizSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) Release(sessionID string) (*app.QuizSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, false
	}
	s.refs[sessionID]--
	if s.refs[sessionID] > 0 {
		return nil, false
	}
	delete(s.sessions, sessionID)
	delete(s.refs, sessionID)
	return session, true
}
