package interview

import "context"

// Store is the document-like persistence contract the engine needs: upsert
// and find by session id + owner. Racing writers resolve last-write-wins at
// the storage layer; the engine assumes one in-flight mutation per session.
type Store interface {
	Create(ctx context.Context, s *Session) error
	// Get returns ErrSessionNotFound when no session matches.
	Get(ctx context.Context, id, owner string) (*Session, error)
	Update(ctx context.Context, s *Session) error
}
