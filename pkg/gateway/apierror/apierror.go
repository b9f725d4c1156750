package apierror

import (
	"context"
	"errors"
	"net/http"

	"github.com/prepwise/interviewd/pkg/engine/ai"
	"github.com/prepwise/interviewd/pkg/engine/interview"
	"github.com/prepwise/interviewd/pkg/gateway/live/protocol"
)

type Envelope struct {
	Error *ai.Error `json:"error"`
}

// FromError maps any engine error to a canonical wire error plus HTTP status.
func FromError(err error, requestID string) (*ai.Error, int) {
	if err == nil {
		return nil, http.StatusOK
	}

	// Context timeouts/cancellation.
	if errors.Is(err, context.DeadlineExceeded) {
		return &ai.Error{
			Type:      ai.ErrAPI,
			Message:   "request timeout",
			RequestID: requestID,
		}, http.StatusGatewayTimeout
	}
	if errors.Is(err, context.Canceled) {
		return &ai.Error{
			Type:      ai.ErrAPI,
			Message:   "request cancelled",
			Code:      "cancelled",
			RequestID: requestID,
		}, http.StatusRequestTimeout
	}

	// Session lifecycle errors.
	switch {
	case errors.Is(err, interview.ErrSessionNotFound):
		return &ai.Error{
			Type:      ai.ErrNotFound,
			Message:   "interview session not found",
			RequestID: requestID,
		}, http.StatusNotFound
	case errors.Is(err, interview.ErrAlreadyCompleted):
		return &ai.Error{
			Type:      ai.ErrInvalidRequest,
			Message:   "interview already completed",
			Code:      "already_completed",
			RequestID: requestID,
		}, http.StatusConflict
	case errors.Is(err, interview.ErrNoPendingQuestion):
		return &ai.Error{
			Type:      ai.ErrInvalidRequest,
			Message:   "no pending question to answer",
			Code:      "no_pending_question",
			RequestID: requestID,
		}, http.StatusConflict
	case errors.Is(err, interview.ErrNotPaused):
		return &ai.Error{
			Type:      ai.ErrInvalidRequest,
			Message:   "interview is not paused",
			Code:      "not_paused",
			RequestID: requestID,
		}, http.StatusConflict
	case errors.Is(err, interview.ErrNotInProgress):
		return &ai.Error{
			Type:      ai.ErrInvalidRequest,
			Message:   "interview is not in progress",
			Code:      "not_in_progress",
			RequestID: requestID,
		}, http.StatusConflict
	}

	// Already canonical.
	var aiErr *ai.Error
	if errors.As(err, &aiErr) && aiErr != nil {
		out := *aiErr
		out.RequestID = requestID
		return &out, StatusFromType(aiErr.Type)
	}

	// Strict decode errors (request bodies and live frames).
	var decodeErr *protocol.DecodeError
	if errors.As(err, &decodeErr) && decodeErr != nil {
		return &ai.Error{
			Type:      ai.ErrInvalidRequest,
			Message:   decodeErr.Message,
			Code:      decodeErr.Code,
			Param:     decodeErr.Param,
			RequestID: requestID,
		}, http.StatusBadRequest
	}

	// Unknown errors: treat as internal (do not leak details by default).
	return &ai.Error{
		Type:      ai.ErrAPI,
		Message:   "internal error",
		RequestID: requestID,
	}, http.StatusInternalServerError
}

func StatusFromType(t ai.ErrorType) int {
	switch t {
	case ai.ErrInvalidRequest:
		return http.StatusBadRequest
	case ai.ErrAuthentication:
		return http.StatusUnauthorized
	case ai.ErrPermission:
		return http.StatusForbidden
	case ai.ErrNotFound:
		return http.StatusNotFound
	case ai.ErrRateLimit, ai.ErrProviderExhausted:
		return http.StatusTooManyRequests
	case ai.ErrOverloaded:
		return http.StatusServiceUnavailable
	case ai.ErrProvider, ai.ErrAPI:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
