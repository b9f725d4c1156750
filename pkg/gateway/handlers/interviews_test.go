package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prepwise/interviewd/pkg/engine/ai"
	"github.com/prepwise/interviewd/pkg/engine/interview"
	"github.com/prepwise/interviewd/pkg/engine/score"
	"github.com/prepwise/interviewd/pkg/gateway/config"
)

type fakeEngine struct {
	startIn   interview.StartInput
	startRes  *interview.StartResult
	startErr  error
	submitID  string
	submitTxt string
	submitAud []byte
	submitRes *interview.SubmitResult
	submitErr error
	endRes    *interview.EndResult
	endErr    error
	statusRes *interview.StatusResult
	statusErr error
	pauseErr  error
	resumeRes *interview.StatusResult
	resumeErr error
}

func (f *fakeEngine) Start(_ context.Context, in interview.StartInput) (*interview.StartResult, error) {
	f.startIn = in
	return f.startRes, f.startErr
}

func (f *fakeEngine) SubmitAnswer(_ context.Context, sessionID, _ string, answerText string, audio []byte) (*interview.SubmitResult, error) {
	f.submitID = sessionID
	f.submitTxt = answerText
	f.submitAud = audio
	return f.submitRes, f.submitErr
}

func (f *fakeEngine) End(_ context.Context, sessionID, _ string) (*interview.EndResult, error) {
	f.submitID = sessionID
	return f.endRes, f.endErr
}

func (f *fakeEngine) Status(context.Context, string, string) (*interview.StatusResult, error) {
	return f.statusRes, f.statusErr
}

func (f *fakeEngine) Pause(context.Context, string, string) error { return f.pauseErr }

func (f *fakeEngine) Resume(context.Context, string, string) (*interview.StatusResult, error) {
	return f.resumeRes, f.resumeErr
}

func testConfig() config.Config {
	return config.Config{MaxBodyBytes: 1 << 20}
}

func TestStartHandlerCreatesSession(t *testing.T) {
	eng := &fakeEngine{startRes: &interview.StartResult{
		SessionID:      "sess_1",
		FirstQuestion:  interview.Question{Text: "Tell me about yourself.", Difficulty: score.DifficultyMedium},
		Difficulty:     score.DifficultyMedium,
		TotalQuestions: 5,
	}}
	h := StartHandler{Config: testConfig(), Engine: eng}

	body := `{"type":"behavioral","difficulty":"hard","total_questions":3,"skills":["go"]}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/interviews", strings.NewReader(body)))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d, want=%d body=%s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if eng.startIn.Type != "behavioral" || eng.startIn.Difficulty != score.DifficultyHard || eng.startIn.TotalQuestions != 3 {
		t.Fatalf("unexpected start input: %+v", eng.startIn)
	}
	var got interview.StartResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.SessionID != "sess_1" || got.FirstQuestion.Text == "" {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestStartHandlerEmptyBodyUsesDefaults(t *testing.T) {
	eng := &fakeEngine{startRes: &interview.StartResult{SessionID: "sess_1"}}
	h := StartHandler{Config: testConfig(), Engine: eng}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/interviews", nil))

	if rec.Code != http.StatusCreated {
		t.Fatalf("status=%d, want=%d body=%s", rec.Code, http.StatusCreated, rec.Body.String())
	}
	if eng.startIn.Type != "" || eng.startIn.TotalQuestions != 0 {
		t.Fatalf("expected zero-value input, got %+v", eng.startIn)
	}
}

func TestStartHandlerRejectsUnknownDifficulty(t *testing.T) {
	h := StartHandler{Config: testConfig(), Engine: &fakeEngine{}}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/interviews", strings.NewReader(`{"difficulty":"impossible"}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want=%d", rec.Code, http.StatusBadRequest)
	}
	var env struct {
		Error *ai.Error `json:"error"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if env.Error == nil || env.Error.Param != "difficulty" {
		t.Fatalf("unexpected envelope: %s", rec.Body.String())
	}
}

func TestStartHandlerRejectsUnknownFields(t *testing.T) {
	h := StartHandler{Config: testConfig(), Engine: &fakeEngine{}}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/v1/interviews", strings.NewReader(`{"bogus":true}`)))

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want=%d", rec.Code, http.StatusBadRequest)
	}
}

func TestAnswerHandlerSubmitsText(t *testing.T) {
	eng := &fakeEngine{submitRes: &interview.SubmitResult{
		Scores:       score.Scores{Correctness: 80},
		NextQuestion: &interview.Question{Text: "Next?"},
	}}
	h := AnswerHandler{Config: testConfig(), Engine: eng}

	req := httptest.NewRequest(http.MethodPost, "/v1/interviews/sess_1/answer", strings.NewReader(`{"text":"my answer"}`))
	req.SetPathValue("id", "sess_1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if eng.submitID != "sess_1" || eng.submitTxt != "my answer" {
		t.Fatalf("got id=%q text=%q", eng.submitID, eng.submitTxt)
	}
}

func TestAnswerHandlerDecodesAudio(t *testing.T) {
	eng := &fakeEngine{submitRes: &interview.SubmitResult{}}
	h := AnswerHandler{Config: testConfig(), Engine: eng}

	// "aGk=" is "hi".
	req := httptest.NewRequest(http.MethodPost, "/v1/interviews/sess_1/answer", strings.NewReader(`{"text":"hi","audio_b64":"aGk="}`))
	req.SetPathValue("id", "sess_1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	if string(eng.submitAud) != "hi" {
		t.Fatalf("audio=%q, want=%q", eng.submitAud, "hi")
	}
}

func TestAnswerHandlerRequiresTextOrAudio(t *testing.T) {
	h := AnswerHandler{Config: testConfig(), Engine: &fakeEngine{}}

	req := httptest.NewRequest(http.MethodPost, "/v1/interviews/sess_1/answer", strings.NewReader(`{}`))
	req.SetPathValue("id", "sess_1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d, want=%d", rec.Code, http.StatusBadRequest)
	}
}

func TestAnswerHandlerMapsCompletedConflict(t *testing.T) {
	h := AnswerHandler{Config: testConfig(), Engine: &fakeEngine{submitErr: interview.ErrAlreadyCompleted}}

	req := httptest.NewRequest(http.MethodPost, "/v1/interviews/sess_1/answer", strings.NewReader(`{"text":"late"}`))
	req.SetPathValue("id", "sess_1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status=%d, want=%d", rec.Code, http.StatusConflict)
	}
}

func TestAnswerHandlerSetsRetryAfterOnExhaustion(t *testing.T) {
	h := AnswerHandler{Config: testConfig(), Engine: &fakeEngine{
		submitErr: ai.NewProviderExhaustedError("all credentials exhausted", 21),
	}}

	req := httptest.NewRequest(http.MethodPost, "/v1/interviews/sess_1/answer", strings.NewReader(`{"text":"hi"}`))
	req.SetPathValue("id", "sess_1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status=%d, want=%d", rec.Code, http.StatusTooManyRequests)
	}
	if got := rec.Header().Get("Retry-After"); got != "21" {
		t.Fatalf("Retry-After=%q, want=%q", got, "21")
	}
}

func TestStatusHandlerNotFound(t *testing.T) {
	h := StatusHandler{Engine: &fakeEngine{statusErr: interview.ErrSessionNotFound}}

	req := httptest.NewRequest(http.MethodGet, "/v1/interviews/missing/status", nil)
	req.SetPathValue("id", "missing")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status=%d, want=%d", rec.Code, http.StatusNotFound)
	}
}

func TestEndHandlerReturnsAggregates(t *testing.T) {
	h := EndHandler{Engine: &fakeEngine{endRes: &interview.EndResult{
		QuestionsAnswered: 2,
		Overall:           &interview.OverallScores{Overall: 74},
	}}}

	req := httptest.NewRequest(http.MethodPost, "/v1/interviews/sess_1/end", nil)
	req.SetPathValue("id", "sess_1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want=%d body=%s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var got interview.EndResult
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.QuestionsAnswered != 2 || got.Overall == nil || got.Overall.Overall != 74 {
		t.Fatalf("unexpected result: %+v", got)
	}
}

func TestPauseHandler(t *testing.T) {
	h := PauseHandler{Engine: &fakeEngine{}}

	req := httptest.NewRequest(http.MethodPost, "/v1/interviews/sess_1/pause", nil)
	req.SetPathValue("id", "sess_1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d, want=%d", rec.Code, http.StatusOK)
	}
	if !strings.Contains(rec.Body.String(), `"paused"`) {
		t.Fatalf("body=%s, want paused status", rec.Body.String())
	}
}

func TestResumeHandlerConflictWhenNotPaused(t *testing.T) {
	h := ResumeHandler{Engine: &fakeEngine{resumeErr: interview.ErrNotPaused}}

	req := httptest.NewRequest(http.MethodPost, "/v1/interviews/sess_1/resume", nil)
	req.SetPathValue("id", "sess_1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status=%d, want=%d", rec.Code, http.StatusConflict)
	}
}
