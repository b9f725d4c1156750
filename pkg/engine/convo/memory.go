package convo

import (
	"context"
	"sync"

	"github.com/prepwise/interviewd/pkg/engine/ai"
)

// MemoryBackend is the in-process arena: a mutex-guarded map keyed by session
// id, with explicit eviction on completion/clear.
type MemoryBackend struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewMemoryBackend creates an empty in-process backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{sessions: make(map[string]*Session)}
}

// Load implements Backend. The returned session is a copy; callers mutate it
// freely and persist with Save.
func (b *MemoryBackend) Load(_ context.Context, sessionID string) (*Session, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.sessions[sessionID]
	if !ok {
		return nil, false, nil
	}
	return cloneSession(s), true, nil
}

// Save implements Backend.
func (b *MemoryBackend) Save(_ context.Context, s *Session) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sessions[s.ID] = cloneSession(s)
	return nil
}

// Delete implements Backend.
func (b *MemoryBackend) Delete(_ context.Context, sessionID string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.sessions, sessionID)
	return nil
}

// Len returns the number of live sessions.
func (b *MemoryBackend) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.sessions)
}

func cloneSession(s *Session) *Session {
	clone := *s
	clone.Turns = make([]ai.Message, len(s.Turns))
	copy(clone.Turns, s.Turns)
	return &clone
}
