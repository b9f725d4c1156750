package interview

import "errors"

// Session/state errors form a closed set matched by kind, never by message
// text. They are the only errors this package surfaces to callers; provider
// failures are recovered locally with fallback content.
var (
	ErrSessionNotFound   = errors.New("interview: session not found")
	ErrNoPendingQuestion = errors.New("interview: no pending question")
	ErrAlreadyCompleted  = errors.New("interview: session already completed")
	ErrNotPaused         = errors.New("interview: session is not paused")
	ErrNotInProgress     = errors.New("interview: session is not in progress")
)
