// Package ai provides the generative-AI boundary of the interview engine: an
// abstract content-generation client, a credential-rotating orchestrator, and
// tolerant parsing of model output.
package ai

import "context"

// Message is one role-tagged turn in a conversation.
type Message struct {
	Role    string `json:"role"` // "user" or "model"
	Content string `json:"content"`
}

const (
	RoleUser  = "user"
	RoleModel = "model"
)

// Request is a single generate-content call.
type Request struct {
	Model    string    `json:"model"`
	System   string    `json:"system,omitempty"`
	Messages []Message `json:"messages"`
}

// Response carries the raw text returned by the provider. Callers that expect
// structured output run it through ExtractJSON.
type Response struct {
	Text string `json:"text"`
}

// Client is a provider-bound content generator. Implementations classify
// failures into the taxonomy in errors.go; in particular quota exhaustion must
// surface as ErrRateLimit or ErrOverloaded so the orchestrator can rotate.
type Client interface {
	// Name returns the provider identifier (e.g. "gemini").
	Name() string

	// GenerateContent sends a non-streaming request.
	GenerateContent(ctx context.Context, req *Request) (*Response, error)
}
