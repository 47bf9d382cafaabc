package redis

import (
	"context"
	"sync"
	"time"

	"examprep-quiz/internal/app"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// SessionStore is a Redis-aware implementation of SessionRepository.
// Notes:
//   - Live sessions stay in a local map; their state is mirrored through the
//     StateStore, not through this type.
//   - Redis only carries a liveness marker per attached session, so operators
//     can see which sessions are being played right now.
//   - Neither create nor Redis calls run under the store lock.
type SessionStore struct {
	client   *redis.Client
	ttl      time.Duration
	mu       sync.Mutex
	sessions map[string]*app.QuizSession
	refs     map[string]int
	sf       singleflight.Group
}

func NewSessionStore(client *redis.Client, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client:   client,
		ttl:      ttl,
		sessions: make(map[string]*app.QuizSession),
		refs:     make(map[string]int),
	}
}

func (s *SessionStore) Acquire(sessionID string, create func() *app.QuizSession) *app.QuizSession {
	for {
		if session, refs, ok := s.ref(sessionID); ok {
			s.markLive(sessionID, refs)
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
	}
}

func (s *SessionStore) ref(sessionID string) (*app.QuizSession, int, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	if !ok {
		return nil, 0, false
	}
	s.refs[sessionID]++
	return session, s.refs[sessionID], true
}

func (s *SessionStore) Get(sessionID string) (*app.QuizSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session, ok := s.sessions[sessionID]
	return session, ok
}

func (s *SessionStore) Release(sessionID string) (*app.QuizSession, bool) {
	s.mu.Lock()
	session, ok := s.sessions[sessionID]
	if !ok {
		s.mu.Unlock()
		return nil, false
	}
	s.refs[sessionID]--
	refs := s.refs[sessionID]
	if refs > 0 {
		s.mu.Unlock()
		s.markLive(sessionID, refs)
		return nil, false
	}
	delete(s.sessions, sessionID)
	delete(s.refs, sessionID)
	s.mu.Unlock()

	_ = s.client.Del(context.Background(), s.key(sessionID)).Err()
	return session, true
}

// markLive is a best-effort liveness marker.
func (s *SessionStore) markLive(sessionID string, refs int) {
	_ = s.client.Set(context.Background(), s.key(sessionID), refs, s.ttl).Err()
}

func (s *SessionStore) key(sessionID string) string {
	return "quiz:live:" + sessionID
}
