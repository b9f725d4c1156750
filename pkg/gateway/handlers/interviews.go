package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/prepwise/interviewd/pkg/engine/ai"
	"github.com/prepwise/interviewd/pkg/engine/interview"
	"github.com/prepwise/interviewd/pkg/engine/score"
	"github.com/prepwise/interviewd/pkg/gateway/auth"
	"github.com/prepwise/interviewd/pkg/gateway/config"
	"github.com/prepwise/interviewd/pkg/gateway/mw"
)

// InterviewEngine is the slice of the engine the REST surface needs.
// *interview.Engine satisfies it.
type InterviewEngine interface {
	Start(ctx context.Context, in interview.StartInput) (*interview.StartResult, error)
	SubmitAnswer(ctx context.Context, sessionID, owner, answerText string, audio []byte) (*interview.SubmitResult, error)
	End(ctx context.Context, sessionID, owner string) (*interview.EndResult, error)
	Status(ctx context.Context, sessionID, owner string) (*interview.StatusResult, error)
	Pause(ctx context.Context, sessionID, owner string) error
	Resume(ctx context.Context, sessionID, owner string) (*interview.StatusResult, error)
}

// StartHandler handles POST /v1/interviews.
type StartHandler struct {
	Config config.Config
	Engine InterviewEngine
	Logger *slog.Logger
}

type startRequest struct {
	Type            string   `json:"type"`
	SubCategory     string   `json:"sub_category,omitempty"`
	Personality     string   `json:"personality,omitempty"`
	Difficulty      string   `json:"difficulty,omitempty"`
	TargetCompany   string   `json:"target_company,omitempty"`
	TargetRole      string   `json:"target_role,omitempty"`
	ExperienceYears int      `json:"experience_years,omitempty"`
	Skills          []string `json:"skills,omitempty"`
	TotalQuestions  int      `json:"total_questions,omitempty"`
}

func (h StartHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())

	var req startRequest
	if !decodeBody(w, r, reqID, h.Config.MaxBodyBytes, &req) {
		return
	}
	if req.TotalQuestions < 0 {
		writeErrorJSON(w, reqID, &ai.Error{
			Type: ai.ErrInvalidRequest, Message: "total_questions must be >= 0", Param: "total_questions",
		}, http.StatusBadRequest)
		return
	}
	if req.Difficulty != "" && !score.ValidDifficulty(score.Difficulty(req.Difficulty)) {
		writeErrorJSON(w, reqID, &ai.Error{
			Type: ai.ErrInvalidRequest, Message: "unknown difficulty", Param: "difficulty",
		}, http.StatusBadRequest)
		return
	}

	res, err := h.Engine.Start(r.Context(), interview.StartInput{
		Owner:           ownerFrom(r),
		Type:            strings.TrimSpace(req.Type),
		SubCategory:     req.SubCategory,
		Personality:     req.Personality,
		Difficulty:      score.Difficulty(req.Difficulty),
		TargetCompany:   req.TargetCompany,
		TargetRole:      req.TargetRole,
		ExperienceYears: req.ExperienceYears,
		Skills:          req.Skills,
		TotalQuestions:  req.TotalQuestions,
	})
	if err != nil {
		writeEngineError(w, reqID, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// AnswerHandler handles POST /v1/interviews/{id}/answer.
type AnswerHandler struct {
	Config config.Config
	Engine InterviewEngine
	Logger *slog.Logger
}

type answerRequest struct {
	Text     string `json:"text,omitempty"`
	AudioB64 string `json:"audio_b64,omitempty"`
}

func (h AnswerHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	id := r.PathValue("id")

	var req answerRequest
	if !decodeBody(w, r, reqID, h.Config.MaxBodyBytes, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" && strings.TrimSpace(req.AudioB64) == "" {
		writeErrorJSON(w, reqID, &ai.Error{
			Type: ai.ErrInvalidRequest, Message: "either text or audio_b64 is required", Param: "text",
		}, http.StatusBadRequest)
		return
	}

	var audio []byte
	if req.AudioB64 != "" {
		var err error
		audio, err = base64.StdEncoding.DecodeString(req.AudioB64)
		if err != nil {
			writeErrorJSON(w, reqID, &ai.Error{
				Type: ai.ErrInvalidRequest, Message: "audio_b64 is not valid base64", Param: "audio_b64",
			}, http.StatusBadRequest)
			return
		}
	}

	res, err := h.Engine.SubmitAnswer(r.Context(), id, ownerFrom(r), req.Text, audio)
	if err != nil {
		writeEngineError(w, reqID, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// EndHandler handles POST /v1/interviews/{id}/end.
type EndHandler struct {
	Engine InterviewEngine
	Logger *slog.Logger
}

func (h EndHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	res, err := h.Engine.End(r.Context(), r.PathValue("id"), ownerFrom(r))
	if err != nil {
		writeEngineError(w, reqID, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// StatusHandler handles GET /v1/interviews/{id}/status.
type StatusHandler struct {
	Engine InterviewEngine
	Logger *slog.Logger
}

func (h StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	res, err := h.Engine.Status(r.Context(), r.PathValue("id"), ownerFrom(r))
	if err != nil {
		writeEngineError(w, reqID, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// PauseHandler handles POST /v1/interviews/{id}/pause.
type PauseHandler struct {
	Engine InterviewEngine
	Logger *slog.Logger
}

func (h PauseHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	if err := h.Engine.Pause(r.Context(), r.PathValue("id"), ownerFrom(r)); err != nil {
		writeEngineError(w, reqID, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": string(interview.StatusPaused)})
}

// ResumeHandler handles POST /v1/interviews/{id}/resume.
type ResumeHandler struct {
	Engine InterviewEngine
	Logger *slog.Logger
}

func (h ResumeHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	reqID, _ := mw.RequestIDFrom(r.Context())
	res, err := h.Engine.Resume(r.Context(), r.PathValue("id"), ownerFrom(r))
	if err != nil {
		writeEngineError(w, reqID, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func ownerFrom(r *http.Request) string {
	if p, ok := auth.PrincipalFrom(r.Context()); ok {
		return p.APIKey
	}
	return ""
}

func decodeBody(w http.ResponseWriter, r *http.Request, reqID string, maxBytes int64, dst any) bool {
	if maxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			// An empty body means all-defaults; only malformed JSON is an error.
			return true
		}
		writeErrorJSON(w, reqID, &ai.Error{
			Type: ai.ErrInvalidRequest, Message: "invalid request body: " + err.Error(),
		}, http.StatusBadRequest)
		return false
	}
	return true
}
