// Package session runs one live interview WebSocket connection: it decodes
// client frames, drives the interview engine, and pushes state transitions
// back as server events.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/prepwise/interviewd/pkg/engine/interview"
	"github.com/prepwise/interviewd/pkg/gateway/apierror"
	"github.com/prepwise/interviewd/pkg/gateway/live/protocol"
)

// Engine is the slice of the interview engine a live connection needs.
// *interview.Engine satisfies it.
type Engine interface {
	Status(ctx context.Context, sessionID, owner string) (*interview.StatusResult, error)
	SubmitAnswer(ctx context.Context, sessionID, owner, answerText string, audio []byte) (*interview.SubmitResult, error)
	End(ctx context.Context, sessionID, owner string) (*interview.EndResult, error)
	Pause(ctx context.Context, sessionID, owner string) error
	Resume(ctx context.Context, sessionID, owner string) (*interview.StatusResult, error)
}

// Conn abstracts *websocket.Conn for tests.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	WriteControl(messageType int, data []byte, deadline time.Time) error
	SetReadLimit(limit int64)
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

type Config struct {
	MaxJSONMessageBytes int64
	MaxAudioBytes       int
	HandshakeTimeout    time.Duration
	WriteTimeout        time.Duration
	PingInterval        time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxJSONMessageBytes <= 0 {
		c.MaxJSONMessageBytes = 256 * 1024
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = 5 * time.Second
	}
	if c.WriteTimeout <= 0 {
		c.WriteTimeout = 5 * time.Second
	}
	if c.PingInterval <= 0 {
		c.PingInterval = 20 * time.Second
	}
	return c
}

// Session is one live connection. The read loop owns all state; the ping loop
// only touches the conn through WriteControl.
type Session struct {
	ws     Conn
	engine Engine
	owner  string
	cfg    Config
	logger *slog.Logger

	writeMu sync.Mutex

	sessionID    string
	currentIndex int
	difficulty   string
	audio        *audioBuffer
}

func New(ws Conn, engine Engine, owner string, cfg Config, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	cfg = cfg.withDefaults()
	return &Session{
		ws:     ws,
		engine: engine,
		owner:  owner,
		cfg:    cfg,
		logger: logger,
		audio:  newAudioBuffer(cfg.MaxAudioBytes),
	}
}

// SessionID reports the joined interview session, empty before join.
func (s *Session) SessionID() string { return s.sessionID }

// Warn pushes a non-fatal error event, used to tell the client the server is
// about to drain.
func (s *Session) Warn(code, message string) error {
	s.sendError(&protocol.ServerError{
		Type: "error", ErrorType: "overloaded_error", Code: code, Message: message,
	})
	return nil
}

// Run processes the connection until the client leaves, the transport fails,
// or ctx is canceled. The returned error is nil on orderly shutdown.
func (s *Session) Run(ctx context.Context) error {
	s.ws.SetReadLimit(s.cfg.MaxJSONMessageBytes)

	if err := s.handshake(ctx); err != nil {
		return err
	}

	done := make(chan struct{})
	defer close(done)
	go s.pingLoop(ctx, done)

	for {
		select {
		case <-ctx.Done():
			s.sendError(&protocol.ServerError{
				Type: "error", ErrorType: "api_error", Code: "shutting_down",
				Message: "server is shutting down", Close: true,
			})
			return nil
		default:
		}

		_, data, err := s.ws.ReadMessage()
		if err != nil {
			// Client went away; the interview stays resumable over a new connection.
			return nil
		}
		msg, err := protocol.DecodeClientMessage(data)
		if err != nil {
			s.sendEngineError(err, false)
			continue
		}

		switch m := msg.(type) {
		case protocol.ClientJoin:
			s.sendError(&protocol.ServerError{
				Type: "error", ErrorType: "invalid_request_error", Code: "already_joined",
				Message: "connection already joined a session",
			})
		case protocol.ClientAnswer:
			s.handleSubmit(ctx, m.Index, m.Text, nil)
		case protocol.ClientAudioChunk:
			if err := s.audio.append(m.Index, m.DataB64); err != nil {
				s.sendError(&protocol.ServerError{
					Type: "error", ErrorType: "invalid_request_error", Code: "audio_rejected",
					Message: err.Error(), Param: "data_b64",
				})
			}
		case protocol.ClientAudioComplete:
			audio := s.audio.take(m.Index)
			s.handleSubmit(ctx, m.Index, m.Transcript, audio)
		case protocol.ClientPause:
			if err := s.engine.Pause(ctx, s.sessionID, s.owner); err != nil {
				s.sendEngineError(err, false)
				continue
			}
			s.sendJSON(protocol.ServerPaused{Type: "paused"})
		case protocol.ClientResume:
			st, err := s.engine.Resume(ctx, s.sessionID, s.owner)
			if err != nil {
				s.sendEngineError(err, false)
				continue
			}
			s.sendJSON(protocol.ServerResumed{Type: "resumed"})
			if st.CurrentQuestion != nil {
				s.sendJSON(protocol.ServerNextQuestion{
					Type:       "next_question",
					Index:      s.currentIndex,
					Question:   st.CurrentQuestion.Text,
					Difficulty: string(st.Difficulty),
					IsFollowUp: st.CurrentQuestion.IsFollowUp,
				})
			}
		case protocol.ClientLeave:
			s.audio.reset()
			return nil
		}
	}
}

// handshake expects a join frame within the handshake window and answers it
// with session_joined.
func (s *Session) handshake(ctx context.Context) error {
	_ = s.ws.SetReadDeadline(time.Now().Add(s.cfg.HandshakeTimeout))
	_, data, err := s.ws.ReadMessage()
	if err != nil {
		return err
	}
	_ = s.ws.SetReadDeadline(time.Time{})

	msg, err := protocol.DecodeClientMessage(data)
	if err != nil {
		s.sendEngineError(err, true)
		return err
	}
	join, ok := msg.(protocol.ClientJoin)
	if !ok {
		decErr := &protocol.DecodeError{Code: "bad_request", Message: "first frame must be join", Param: "type"}
		s.sendEngineError(decErr, true)
		return decErr
	}

	st, err := s.engine.Status(ctx, join.SessionID, s.owner)
	if err != nil {
		s.sendEngineError(err, true)
		return err
	}
	s.sessionID = join.SessionID
	s.currentIndex = st.QuestionsAnswered
	s.difficulty = string(st.Difficulty)

	terminal := st.Status == interview.StatusCompleted || st.Status == interview.StatusAbandoned

	joined := protocol.ServerSessionJoined{
		Type:              "session_joined",
		ProtocolVersion:   protocol.ProtocolVersion1,
		SessionID:         join.SessionID,
		Status:            string(st.Status),
		QuestionIndex:     st.QuestionsAnswered,
		QuestionsAnswered: st.QuestionsAnswered,
		TotalQuestions:    st.TotalQuestions,
		Difficulty:        string(st.Difficulty),
	}
	if st.CurrentQuestion != nil && !terminal {
		joined.Question = st.CurrentQuestion.Text
	}
	s.sendJSON(joined)

	// Joining a finished or abandoned interview replays the terminal summary;
	// no question is issued.
	switch st.Status {
	case interview.StatusCompleted:
		s.pushComplete(ctx)
	case interview.StatusAbandoned:
		// Abandoned sessions cannot be re-ended; replay whatever aggregates
		// were stored without routing through End.
		s.sendJSON(protocol.ServerInterviewComplete{
			Type:          "interview_complete",
			SessionID:     s.sessionID,
			OverallScores: st.Overall,
		})
	}
	return nil
}

// handleSubmit runs one answer through the engine and pushes the resulting
// transitions.
func (s *Session) handleSubmit(ctx context.Context, index int, text string, audio []byte) {
	if index != s.currentIndex {
		s.sendError(&protocol.ServerError{
			Type: "error", ErrorType: "invalid_request_error", Code: "stale_index",
			Message: "answer index does not match the pending question", Param: "index",
		})
		return
	}

	s.sendJSON(protocol.ServerProcessing{Type: "processing", Index: index})

	res, err := s.engine.SubmitAnswer(ctx, s.sessionID, s.owner, text, audio)
	if errors.Is(err, interview.ErrAlreadyCompleted) || errors.Is(err, interview.ErrNoPendingQuestion) {
		// The stored session has no pending question: finalize server-side and
		// replay the summary instead of erroring the client out.
		s.pushComplete(ctx)
		return
	}
	if err != nil {
		s.sendEngineError(err, false)
		return
	}

	s.sendJSON(protocol.ServerAnswerEvaluated{
		Type:        "answer_evaluated",
		Index:       index,
		Scores:      res.Scores,
		Strengths:   res.Evaluation.Strengths,
		Weaknesses:  res.Evaluation.Weaknesses,
		Suggestions: res.Evaluation.Suggestions,
		Fallback:    res.Evaluation.Fallback,
	})

	if res.DifficultyChanged {
		s.sendJSON(protocol.ServerDifficultyAdjusted{
			Type:     "difficulty_adjusted",
			Previous: s.difficulty,
			Current:  string(res.NewDifficulty),
		})
	}
	s.difficulty = string(res.NewDifficulty)
	s.currentIndex++

	if res.IsComplete {
		s.pushComplete(ctx)
		return
	}
	if res.NextQuestion != nil {
		s.sendJSON(protocol.ServerNextQuestion{
			Type:       "next_question",
			Index:      s.currentIndex,
			Question:   res.NextQuestion.Text,
			Difficulty: string(res.NextQuestion.Difficulty),
			IsFollowUp: res.NextQuestion.IsFollowUp,
		})
	}
}

// pushComplete ends the session (idempotent for completed ones) and pushes
// interview_complete with the stored aggregates.
func (s *Session) pushComplete(ctx context.Context) {
	res, err := s.engine.End(ctx, s.sessionID, s.owner)
	if errors.Is(err, interview.ErrNotInProgress) {
		// Abandoned mid-join or mid-answer: End cannot run, so replay the
		// stored aggregates instead of dead-ending in an error.
		st, serr := s.engine.Status(ctx, s.sessionID, s.owner)
		if serr != nil {
			s.sendEngineError(serr, false)
			return
		}
		s.sendJSON(protocol.ServerInterviewComplete{
			Type:          "interview_complete",
			SessionID:     s.sessionID,
			OverallScores: st.Overall,
		})
		return
	}
	if err != nil {
		s.sendEngineError(err, false)
		return
	}
	s.sendJSON(protocol.ServerInterviewComplete{
		Type:          "interview_complete",
		SessionID:     s.sessionID,
		OverallScores: res.Overall,
		Analytics:     res.Analytics,
	})
}

func (s *Session) sendEngineError(err error, close bool) {
	ce, _ := apierror.FromError(err, "")
	s.sendError(&protocol.ServerError{
		Type:       "error",
		ErrorType:  string(ce.Type),
		Code:       ce.Code,
		Message:    ce.Message,
		Param:      ce.Param,
		RetryAfter: ce.RetryAfter,
		Close:      close,
	})
}

func (s *Session) sendError(ev *protocol.ServerError) {
	s.sendJSON(ev)
}

func (s *Session) sendJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		s.logger.Error("marshal server event", "error", err)
		return
	}
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	_ = s.ws.SetWriteDeadline(time.Now().Add(s.cfg.WriteTimeout))
	if err := s.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		s.logger.Warn("write server event", "session_id", s.sessionID, "error", err)
	}
}

func (s *Session) pingLoop(ctx context.Context, done <-chan struct{}) {
	ticker := time.NewTicker(s.cfg.PingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			deadline := time.Now().Add(s.cfg.WriteTimeout)
			if err := s.ws.WriteControl(websocket.PingMessage, []byte("ping"), deadline); err != nil {
				return
			}
		}
	}
}
