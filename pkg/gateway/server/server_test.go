package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prepwise/interviewd/pkg/engine/interview"
	"github.com/prepwise/interviewd/pkg/engine/score"
	"github.com/prepwise/interviewd/pkg/gateway/config"
)

type stubEngine struct {
	lastOwner string
	statusRes *interview.StatusResult
	statusErr error
}

func (s *stubEngine) Start(_ context.Context, in interview.StartInput) (*interview.StartResult, error) {
	s.lastOwner = in.Owner
	return &interview.StartResult{
		SessionID:      "sess_1",
		FirstQuestion:  interview.Question{Text: "Tell me about yourself."},
		Difficulty:     score.DifficultyMedium,
		TotalQuestions: 5,
	}, nil
}

func (s *stubEngine) SubmitAnswer(_ context.Context, sessionID, owner, _ string, _ []byte) (*interview.SubmitResult, error) {
	s.lastOwner = owner
	if sessionID != "sess_1" {
		return nil, interview.ErrSessionNotFound
	}
	return &interview.SubmitResult{NextQuestion: &interview.Question{Text: "Next?"}}, nil
}

func (s *stubEngine) End(context.Context, string, string) (*interview.EndResult, error) {
	return &interview.EndResult{QuestionsAnswered: 1}, nil
}

func (s *stubEngine) Status(_ context.Context, sessionID, owner string) (*interview.StatusResult, error) {
	s.lastOwner = owner
	if s.statusErr != nil {
		return nil, s.statusErr
	}
	if s.statusRes != nil {
		return s.statusRes, nil
	}
	return &interview.StatusResult{Status: interview.StatusInProgress, TotalQuestions: 5}, nil
}

func (s *stubEngine) Pause(context.Context, string, string) error { return nil }

func (s *stubEngine) Resume(context.Context, string, string) (*interview.StatusResult, error) {
	return &interview.StatusResult{Status: interview.StatusInProgress}, nil
}

func newTestServer(t *testing.T, cfg config.Config) (*Server, *stubEngine) {
	t.Helper()
	eng := &stubEngine{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(cfg, eng, logger), eng
}

func testConfig() config.Config {
	return config.Config{
		AuthMode:     config.AuthModeRequired,
		APIKeys:      map[string]struct{}{"key-1": {}},
		MaxBodyBytes: 1 << 20,
	}
}

func TestHealthzSkipsAuth(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want=%d", rec.Code, http.StatusOK)
	}
	if got := rec.Body.String(); got != "ok\n" {
		t.Fatalf("body=%q, want=%q", got, "ok\n")
	}
}

func TestStartRequiresAuth(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/interviews", strings.NewReader(`{}`)))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status=%d, want=%d", rec.Code, http.StatusUnauthorized)
	}
}

func TestStartRouting(t *testing.T) {
	srv, eng := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/v1/interviews", strings.NewReader(`{"type":"technical"}`))
	req.Header.Set("Authorization", "Bearer key-1")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d, want=%d body=%s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if eng.lastOwner != "key-1" {
		t.Fatalf("owner=%q, want the caller's api key", eng.lastOwner)
	}
	var got interview.StartResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.SessionID != "sess_1" {
		t.Fatalf("session_id=%q, want=%q", got.SessionID, "sess_1")
	}
}

func TestAnswerPathValueRouting(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/v1/interviews/sess_1/answer", strings.NewReader(`{"text":"hi"}`))
	req.Header.Set("Authorization", "Bearer key-1")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
}

func TestUnknownSessionIs404(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/v1/interviews/missing/answer", strings.NewReader(`{"text":"hi"}`))
	req.Header.Set("Authorization", "Bearer key-1")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want=%d", rec.Code, http.StatusNotFound)
	}
}

func TestUnknownRouteIsJSON404(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodGet, "/v1/nope", nil)
	req.Header.Set("Authorization", "Bearer key-1")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want=%d", rec.Code, http.StatusNotFound)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Fatalf("content-type=%q, want json", ct)
	}
}

func TestReadyzReportsDraining(t *testing.T) {
	cfg := testConfig()
	cfg.GeminiAPIKeys = []string{"g1"}
	cfg.DefaultTotalQuestions = 5
	cfg.LiveMaxAudioBytes = 1 << 20
	cfg.ReadHeaderTimeout = 1
	cfg.ReadTimeout = 1
	srv, _ := newTestServer(t, cfg)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}

	srv.SetDraining()
	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d, want=%d", rec.Code, http.StatusServiceUnavailable)
	}
}

func TestStatusRequiresGet(t *testing.T) {
	srv, _ := newTestServer(t, testConfig())

	req := httptest.NewRequest(http.MethodPost, "/v1/interviews/sess_1/status", nil)
	req.Header.Set("Authorization", "Bearer key-1")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status=%d, want=%d", rec.Code, http.StatusMethodNotAllowed)
	}
}
