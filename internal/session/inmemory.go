package session

import (
	"context"
	"sync"
	"time"

	"github.com/rkeerthivasan/estateline/internal/dialogue"
	"github.com/rkeerthivasan/estateline/models"
)

type entry struct {
	sess      *dialogue.Session
	expiresAt time.Time
}

// InMemory is the default single-process session store.
type InMemory struct {
	sessions map[string]entry
	ttl      time.Duration
	mu       sync.RWMutex
}

func NewInMemoryStore(ttl time.Duration) *InMemory {
	return &InMemory{sessions: make(map[string]entry), ttl: ttl}
}

func (s *InMemory) GetOrCreate(_ context.Context, callID string, profile models.ClientProfile) (*dialogue.Session, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.sessions[callID]; ok && time.Now().Before(e.expiresAt) {
		e.expiresAt = time.Now().Add(s.ttl)
		s.sessions[callID] = e
		return e.sess, false, nil
	}
	sess := dialogue.NewSession(callID, profile)
	s.sessions[callID] = entry{sess: sess, expiresAt: time.Now().Add(s.ttl)}
	return sess, true, nil
}

func (s *InMemory) Get(_ context.Context, callID string) (*dialogue.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.sessions[callID]
	if !ok || time.Now().After(e.expiresAt) {
		return nil, ErrNotFound
	}
	return e.sess, nil
}

// Save is a no-op: callers mutate the session they already hold.
func (s *InMemory) Save(_ context.Context, _ *dialogue.Session) error { return nil }

func (s *InMemory) Remove(_ context.Context, callID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, callID)
	return nil
}

func (s *InMemory) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	now := time.Now()
	for _, e := range s.sessions {
		if now.Before(e.expiresAt) {
			n++
		}
	}
	return n, nil
}
