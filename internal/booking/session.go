package booking

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/carewise/care-coordinator/internal/form"
)

var ErrSessionNotFound = errors.New("booking session not found")

// Session is one in-progress booking for one patient. The synchronizer inside
// it is single-writer; mutations run under the coordinator's guard, and mu
// additionally excludes snapshot reads from an in-flight batch. The Redis
// guard alone cannot do that: it only serializes writers.
type Session struct {
	ID        uuid.UUID
	PatientID uuid.UUID
	Sync      *form.Synchronizer

	mu         sync.Mutex
	lastActive time.Time
}

type sessionStore struct {
	mu   sync.RWMutex
	byID map[uuid.UUID]*Session
}

func newSessionStore() *sessionStore {
	return &sessionStore{byID: make(map[uuid.UUID]*Session)}
}

func (s *sessionStore) put(sess *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[sess.ID] = sess
}

func (s *sessionStore) get(id uuid.UUID) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.byID[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (s *sessionStore) delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
}

func (s *sessionStore) touch(id uuid.UUID, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.byID[id]; ok {
		sess.lastActive = now
	}
}

// evictIdle drops sessions whose last activity is older than the TTL and
// returns how many were removed.
func (s *sessionStore) evictIdle(now time.Time, ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, sess := range s.byID {
		if now.Sub(sess.lastActive) > ttl {
			delete(s.byID, id)
			evicted++
		}
	}
	return evicted
}
