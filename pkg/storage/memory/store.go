// Package memory provides the in-process interview session store used by
// tests and single-node development runs.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/prepwise/interviewd/pkg/engine/interview"
)

// Store keeps sessions in a mutex-guarded map keyed by session id. Values are
// cloned on the way in and out so callers never share mutable state.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*interview.Session
}

// New creates an empty store.
func New() *Store {
	return &Store{sessions: make(map[string]*interview.Session)}
}

// Create implements interview.Store.
func (s *Store) Create(_ context.Context, sess *interview.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sessions[sess.ID]; exists {
		return fmt.Errorf("memory: session %s already exists", sess.ID)
	}
	s.sessions[sess.ID] = clone(sess)
	return nil
}

// Get implements interview.Store.
func (s *Store) Get(_ context.Context, id, owner string) (*interview.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || (owner != "" && sess.Owner != owner) {
		return nil, interview.ErrSessionNotFound
	}
	return clone(sess), nil
}

// Update implements interview.Store. Last write wins, matching the engine's
// documented concurrency stance.
func (s *Store) Update(_ context.Context, sess *interview.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sess.ID]; !ok {
		return interview.ErrSessionNotFound
	}
	s.sessions[sess.ID] = clone(sess)
	return nil
}

func clone(sess *interview.Session) *interview.Session {
	raw, err := json.Marshal(sess)
	if err != nil {
		// Session is plain data; marshal cannot fail in practice.
		panic(fmt.Sprintf("memory: clone session: %v", err))
	}
	var out interview.Session
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("memory: clone session: %v", err))
	}
	return &out
}
