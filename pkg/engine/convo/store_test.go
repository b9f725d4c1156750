package convo

import (
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/prepwise/interviewd/pkg/engine/ai"
)

type scriptedClient struct {
	replies []string
	errs    []error
	calls   int
	lastReq *ai.Request
}

func (c *scriptedClient) Name() string { return "scripted" }

func (c *scriptedClient) GenerateContent(_ context.Context, req *ai.Request) (*ai.Response, error) {
	i := c.calls
	c.calls++
	c.lastReq = req
	if i < len(c.errs) && c.errs[i] != nil {
		return nil, c.errs[i]
	}
	if i < len(c.replies) {
		return &ai.Response{Text: c.replies[i]}, nil
	}
	return &ai.Response{Text: "{}"}, nil
}

func newTestStore(t *testing.T, client ai.Client) (*Store, *MemoryBackend) {
	t.Helper()
	orch, err := ai.NewOrchestrator([]ai.Client{client}, slog.Default())
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	backend := NewMemoryBackend()
	return NewStore(backend, orch, "test-model", slog.Default()), backend
}

func TestGetOrCreate_SeedsTwoTurnPrelude(t *testing.T) {
	store, _ := newTestStore(t, &scriptedClient{})
	c := Context{
		InterviewType: "behavioral",
		Personality:   "friendly",
		Difficulty:    "medium",
		TargetCompany: "Acme",
		Skills:        []string{"Go", "SQL"},
	}

	sess, err := store.GetOrCreate(context.Background(), "s1", c)
	if err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if len(sess.Turns) != 2 {
		t.Fatalf("turns=%d, want 2", len(sess.Turns))
	}
	if sess.Turns[0].Role != ai.RoleUser || sess.Turns[1].Role != ai.RoleModel {
		t.Fatalf("seed roles=%s/%s, want user/model", sess.Turns[0].Role, sess.Turns[1].Role)
	}
	prompt := sess.Turns[0].Content
	for _, want := range []string{"behavioral", "medium", "Acme", "Go, SQL"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("system prompt missing %q:\n%s", want, prompt)
		}
	}

	// Idempotent: a second call returns the existing history.
	again, err := store.GetOrCreate(context.Background(), "s1", Context{})
	if err != nil {
		t.Fatalf("GetOrCreate again: %v", err)
	}
	if len(again.Turns) != 2 || again.Context.TargetCompany != "Acme" {
		t.Fatalf("expected existing session back, got %+v", again)
	}
}

func TestSendMessage_AppendsBothTurns(t *testing.T) {
	client := &scriptedClient{replies: []string{`{"question": "Why Go?"}`}}
	store, backend := newTestStore(t, client)

	if _, err := store.GetOrCreate(context.Background(), "s1", Context{Difficulty: "easy"}); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	text, err := store.SendMessage(context.Background(), "s1", "ask the first question")
	if err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	if !strings.Contains(text, "Why Go?") {
		t.Fatalf("text=%q", text)
	}

	sess, ok, _ := backend.Load(context.Background(), "s1")
	if !ok || len(sess.Turns) != 4 {
		t.Fatalf("turns=%d, want 4", len(sess.Turns))
	}
	if last := sess.Turns[len(sess.Turns)-1]; last.Role != ai.RoleModel {
		t.Fatalf("last turn role=%s, want model", last.Role)
	}
}

func TestSendMessage_RollsBackUserTurnOnFailure(t *testing.T) {
	client := &scriptedClient{errs: []error{ai.NewAPIError("upstream down")}}
	store, backend := newTestStore(t, client)

	if _, err := store.GetOrCreate(context.Background(), "s1", Context{}); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	before, _, _ := backend.Load(context.Background(), "s1")

	if _, err := store.SendMessage(context.Background(), "s1", "hello"); err == nil {
		t.Fatalf("expected error")
	}

	after, ok, _ := backend.Load(context.Background(), "s1")
	if !ok || len(after.Turns) != len(before.Turns) {
		t.Fatalf("turns=%d, want %d (rollback)", len(after.Turns), len(before.Turns))
	}
}

func TestSendMessage_RecreatesMissingSession(t *testing.T) {
	client := &scriptedClient{replies: []string{`{"ok": true}`}}
	store, backend := newTestStore(t, client)

	// No GetOrCreate: simulates a process restart wiping the arena.
	if _, err := store.SendMessage(context.Background(), "ghost", "continue"); err != nil {
		t.Fatalf("SendMessage: %v", err)
	}
	sess, ok, _ := backend.Load(context.Background(), "ghost")
	if !ok {
		t.Fatalf("session not recreated")
	}
	// Two seed turns + user + model.
	if len(sess.Turns) != 4 {
		t.Fatalf("turns=%d, want 4", len(sess.Turns))
	}
}

func TestClear_EvictsSession(t *testing.T) {
	store, backend := newTestStore(t, &scriptedClient{})
	if _, err := store.GetOrCreate(context.Background(), "s1", Context{}); err != nil {
		t.Fatalf("GetOrCreate: %v", err)
	}
	if err := store.Clear(context.Background(), "s1"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if backend.Len() != 0 {
		t.Fatalf("len=%d, want 0", backend.Len())
	}
}
