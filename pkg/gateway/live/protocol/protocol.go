// Package protocol defines the duplex event envelopes exchanged over a live
// interview WebSocket. Client frames are strictly decoded: unknown types and
// missing required fields are rejected before they reach the session loop.
package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

const ProtocolVersion1 = "1"

type DecodeError struct {
	Code    string
	Message string
	Param   string
}

func (e *DecodeError) Error() string {
	if e == nil {
		return ""
	}
	if strings.TrimSpace(e.Param) == "" {
		return e.Message
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Param)
}

func badRequest(message, param string) *DecodeError {
	return &DecodeError{Code: "bad_request", Message: message, Param: param}
}

func unsupported(message, param string) *DecodeError {
	return &DecodeError{Code: "unsupported", Message: message, Param: param}
}

// Client events.

// ClientJoin attaches the connection to an interview session. A session id is
// required: live connections resume sessions created over REST.
type ClientJoin struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
	SessionID       string `json:"session_id"`
}

// ClientAnswer submits a text answer for the question at Index.
type ClientAnswer struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
	Text  string `json:"text"`
}

// ClientAudioChunk carries one base64 fragment of a spoken answer. Chunks
// accumulate server-side until audio_complete arrives.
type ClientAudioChunk struct {
	Type    string `json:"type"`
	Index   int    `json:"index"`
	DataB64 string `json:"data_b64"`
}

// ClientAudioComplete closes the audio answer for the question at Index.
// Transcript, when present, is the client-side transcript used alongside the
// accumulated audio.
type ClientAudioComplete struct {
	Type       string `json:"type"`
	Index      int    `json:"index"`
	Transcript string `json:"transcript,omitempty"`
}

type ClientPause struct {
	Type string `json:"type"`
}

type ClientResume struct {
	Type string `json:"type"`
}

// ClientLeave detaches the connection without ending the interview.
type ClientLeave struct {
	Type string `json:"type"`
}

func DecodeClientMessage(data []byte) (any, error) {
	var envelope struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &envelope); err != nil {
		return nil, badRequest("invalid json frame", "")
	}
	typ := strings.TrimSpace(envelope.Type)
	if typ == "" {
		return nil, badRequest("missing type", "type")
	}

	switch typ {
	case "join":
		var msg ClientJoin
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid join frame", "")
		}
		if strings.TrimSpace(msg.SessionID) == "" {
			return nil, badRequest("join.session_id is required", "session_id")
		}
		if v := strings.TrimSpace(msg.ProtocolVersion); v != "" && v != ProtocolVersion1 {
			return nil, unsupported("unsupported protocol version", "protocol_version")
		}
		return msg, nil
	case "answer":
		var msg ClientAnswer
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid answer frame", "")
		}
		if msg.Index < 0 {
			return nil, badRequest("answer.index must be >= 0", "index")
		}
		if strings.TrimSpace(msg.Text) == "" {
			return nil, badRequest("answer.text is required", "text")
		}
		return msg, nil
	case "audio_chunk":
		var msg ClientAudioChunk
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid audio_chunk frame", "")
		}
		if msg.Index < 0 {
			return nil, badRequest("audio_chunk.index must be >= 0", "index")
		}
		if strings.TrimSpace(msg.DataB64) == "" {
			return nil, badRequest("audio_chunk.data_b64 is required", "data_b64")
		}
		return msg, nil
	case "audio_complete":
		var msg ClientAudioComplete
		if err := json.Unmarshal(data, &msg); err != nil {
			return nil, badRequest("invalid audio_complete frame", "")
		}
		if msg.Index < 0 {
			return nil, badRequest("audio_complete.index must be >= 0", "index")
		}
		return msg, nil
	case "pause":
		return ClientPause{Type: typ}, nil
	case "resume":
		return ClientResume{Type: typ}, nil
	case "leave":
		return ClientLeave{Type: typ}, nil
	default:
		return nil, badRequest("unsupported message type", "type")
	}
}

// Server events.

type ServerSessionJoined struct {
	Type              string `json:"type"`
	ProtocolVersion   string `json:"protocol_version"`
	SessionID         string `json:"session_id"`
	Status            string `json:"status"`
	QuestionIndex     int    `json:"question_index"`
	Question          string `json:"question,omitempty"`
	QuestionsAnswered int    `json:"questions_answered"`
	TotalQuestions    int    `json:"total_questions"`
	Difficulty        string `json:"difficulty"`
}

type ServerNextQuestion struct {
	Type       string `json:"type"`
	Index      int    `json:"index"`
	Question   string `json:"question"`
	Difficulty string `json:"difficulty"`
	IsFollowUp bool   `json:"is_follow_up,omitempty"`
}

// ServerProcessing tells the client its answer was accepted and grading is in
// flight.
type ServerProcessing struct {
	Type  string `json:"type"`
	Index int    `json:"index"`
}

type ServerAnswerEvaluated struct {
	Type        string   `json:"type"`
	Index       int      `json:"index"`
	Scores      any      `json:"scores"`
	Strengths   []string `json:"strengths,omitempty"`
	Weaknesses  []string `json:"weaknesses,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
	Fallback    bool     `json:"fallback,omitempty"`
}

type ServerDifficultyAdjusted struct {
	Type     string `json:"type"`
	Previous string `json:"previous"`
	Current  string `json:"current"`
}

type ServerInterviewComplete struct {
	Type          string `json:"type"`
	SessionID     string `json:"session_id"`
	OverallScores any    `json:"overall_scores"`
	Analytics     any    `json:"analytics"`
}

type ServerPaused struct {
	Type string `json:"type"`
}

type ServerResumed struct {
	Type string `json:"type"`
}

// ServerError carries a non-fatal or fatal error. RetryAfter is set, in
// seconds, when every provider credential is exhausted.
type ServerError struct {
	Type       string `json:"type"`
	ErrorType  string `json:"error_type"`
	Code       string `json:"code,omitempty"`
	Message    string `json:"message"`
	Param      string `json:"param,omitempty"`
	RetryAfter *int   `json:"retry_after,omitempty"`
	Close      bool   `json:"close,omitempty"`
}
