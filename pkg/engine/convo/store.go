// Package convo keeps per-interview conversational memory: a seeded system
// prompt plus the ordered turn history exchanged with the model.
package convo

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/prepwise/interviewd/pkg/engine/ai"
)

// Session is one interview's conversational memory.
type Session struct {
	ID        string       `json:"id"`
	Context   Context      `json:"context"`
	Turns     []ai.Message `json:"turns"`
	CreatedAt time.Time    `json:"created_at"`
}

// Backend persists conversation sessions. The in-process arena backend is the
// default; the redis backend exists for multi-process deployments where turn
// history must survive a request landing on a different instance.
type Backend interface {
	Load(ctx context.Context, sessionID string) (*Session, bool, error)
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, sessionID string) error
}

// Store composes a Backend with the orchestrator that answers each turn.
type Store struct {
	backend Backend
	orch    *ai.Orchestrator
	model   string
	logger  *slog.Logger
	now     func() time.Time
}

// NewStore creates a conversation store.
func NewStore(backend Backend, orch *ai.Orchestrator, model string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{backend: backend, orch: orch, model: model, logger: logger, now: time.Now}
}

// GetOrCreate returns the existing session or seeds a new one with the
// deterministic two-turn prelude: the assembled system prompt and a fixed
// acknowledgement model turn. Creation never fails for session-state reasons.
func (s *Store) GetOrCreate(ctx context.Context, sessionID string, c Context) (*Session, error) {
	if existing, ok, err := s.backend.Load(ctx, sessionID); err != nil {
		return nil, fmt.Errorf("convo: load %s: %w", sessionID, err)
	} else if ok {
		return existing, nil
	}

	sess := &Session{
		ID:      sessionID,
		Context: c,
		Turns: []ai.Message{
			{Role: ai.RoleUser, Content: SystemPrompt(c)},
			{Role: ai.RoleModel, Content: acknowledgement},
		},
		CreatedAt: s.now(),
	}
	if err := s.backend.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("convo: save %s: %w", sessionID, err)
	}
	return sess, nil
}

// SendMessage appends a user turn, asks the model, appends its reply, and
// returns the raw response text. If the model call fails the user turn is
// rolled back: history never ends on an unanswered user turn. A session with
// no history (e.g. after a process restart) is silently recreated with empty
// context, trading continuity for availability.
func (s *Store) SendMessage(ctx context.Context, sessionID, text string) (string, error) {
	sess, ok, err := s.backend.Load(ctx, sessionID)
	if err != nil {
		return "", fmt.Errorf("convo: load %s: %w", sessionID, err)
	}
	if !ok {
		s.logger.Warn("conversation missing, recreating with empty context", "session_id", sessionID)
		sess, err = s.GetOrCreate(ctx, sessionID, Context{})
		if err != nil {
			return "", err
		}
	}

	sess.Turns = append(sess.Turns, ai.Message{Role: ai.RoleUser, Content: text})

	resp, err := s.orch.Execute(ctx, &ai.Request{Model: s.model, Messages: sess.Turns})
	if err != nil {
		// Rollback: drop the dangling user turn before the history is visible
		// to anyone else.
		sess.Turns = sess.Turns[:len(sess.Turns)-1]
		if saveErr := s.backend.Save(ctx, sess); saveErr != nil {
			s.logger.Error("rollback save failed", "session_id", sessionID, "error", saveErr)
		}
		return "", err
	}

	sess.Turns = append(sess.Turns, ai.Message{Role: ai.RoleModel, Content: resp.Text})
	if err := s.backend.Save(ctx, sess); err != nil {
		return "", fmt.Errorf("convo: save %s: %w", sessionID, err)
	}
	return resp.Text, nil
}

// Clear drops a session's history entirely.
func (s *Store) Clear(ctx context.Context, sessionID string) error {
	return s.backend.Delete(ctx, sessionID)
}
