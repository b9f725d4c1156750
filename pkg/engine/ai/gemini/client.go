// Package gemini implements the ai.Client contract on top of the Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/prepwise/interviewd/pkg/engine/ai"
)

// Client is one Gemini credential handle.
type Client struct {
	client       *genai.Client
	defaultModel string
}

// Option configures a Client.
type Option func(*Client)

// WithDefaultModel sets the model used when a request does not name one.
func WithDefaultModel(model string) Option {
	return func(c *Client) { c.defaultModel = model }
}

// New creates a client bound to a single API key.
func New(ctx context.Context, apiKey string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, errors.New("gemini: api key is required")
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: create client: %w", err)
	}
	return &Client{client: gc, defaultModel: "gemini-2.0-flash"}, nil
}

// Name implements ai.Client.
func (c *Client) Name() string { return "gemini" }

// GenerateContent implements ai.Client.
func (c *Client) GenerateContent(ctx context.Context, req *ai.Request) (*ai.Response, error) {
	model := req.Model
	if strings.TrimSpace(model) == "" {
		model = c.defaultModel
	}

	contents := make([]*genai.Content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := genai.RoleUser
		if m.Role == ai.RoleModel {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(m.Content, genai.Role(role)))
	}

	var cfg *genai.GenerateContentConfig
	if strings.TrimSpace(req.System) != "" {
		cfg = &genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(req.System, genai.RoleUser),
		}
	}

	resp, err := c.client.Models.GenerateContent(ctx, model, contents, cfg)
	if err != nil {
		return nil, classifyError(err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return nil, ai.NewAPIError("gemini: empty response")
	}
	return &ai.Response{Text: text}, nil
}

// classifyError maps Gemini API failures onto the engine's error taxonomy.
// The orchestrator only rotates credentials on rate-limit/overload, so the
// quota statuses must never leak through as generic provider errors.
func classifyError(err error) error {
	var apiErr genai.APIError
	if !errors.As(err, &apiErr) {
		return ai.NewProviderError("gemini", err)
	}

	var errType ai.ErrorType
	switch apiErr.Status {
	case "INVALID_ARGUMENT", "FAILED_PRECONDITION":
		errType = ai.ErrInvalidRequest
	case "UNAUTHENTICATED":
		errType = ai.ErrAuthentication
	case "PERMISSION_DENIED":
		errType = ai.ErrPermission
	case "NOT_FOUND":
		errType = ai.ErrNotFound
	case "RESOURCE_EXHAUSTED":
		errType = ai.ErrRateLimit
	case "INTERNAL":
		errType = ai.ErrAPI
	case "UNAVAILABLE":
		errType = ai.ErrOverloaded
	default:
		errType = ai.ErrProvider
	}

	// HTTP status wins over the (sometimes missing) canonical status string.
	switch apiErr.Code {
	case 429:
		errType = ai.ErrRateLimit
	case 503:
		errType = ai.ErrOverloaded
	case 401, 403:
		errType = ai.ErrAuthentication
	}

	out := &ai.Error{
		Type:          errType,
		Message:       apiErr.Message,
		Code:          apiErr.Status,
		ProviderError: err.Error(),
	}
	if errType == ai.ErrRateLimit || errType == ai.ErrOverloaded {
		retryAfter := ai.ParseRetryAfter(err.Error())
		out.RetryAfter = &retryAfter
	}
	return out
}
