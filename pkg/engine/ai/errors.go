package ai

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Error represents a provider error.
type Error struct {
	Type          ErrorType `json:"type"`
	Message       string    `json:"message"`
	Code          string    `json:"code,omitempty"`
	Param         string    `json:"param,omitempty"`
	RequestID     string    `json:"request_id,omitempty"`
	ProviderError any       `json:"provider_error,omitempty"`
	RetryAfter    *int      `json:"retry_after,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes errors.
type ErrorType string

const (
	ErrInvalidRequest    ErrorType = "invalid_request_error"
	ErrAuthentication    ErrorType = "authentication_error"
	ErrPermission        ErrorType = "permission_error"
	ErrNotFound          ErrorType = "not_found_error"
	ErrRateLimit         ErrorType = "rate_limit_error"
	ErrAPI               ErrorType = "api_error"
	ErrOverloaded        ErrorType = "overloaded_error"
	ErrProvider          ErrorType = "provider_error"
	ErrProviderExhausted ErrorType = "provider_exhausted_error"
)

// NewRateLimitError creates a rate limit error.
func NewRateLimitError(message string, retryAfter int) *Error {
	return &Error{
		Type:       ErrRateLimit,
		Message:    message,
		RetryAfter: &retryAfter,
	}
}

// NewAPIError creates a generic API error.
func NewAPIError(message string) *Error {
	return &Error{
		Type:    ErrAPI,
		Message: message,
	}
}

// NewProviderError creates a provider-specific error.
func NewProviderError(provider string, underlying error) *Error {
	return &Error{
		Type:          ErrProvider,
		Message:       fmt.Sprintf("%s: %v", provider, underlying),
		ProviderError: underlying.Error(),
	}
}

// NewProviderExhaustedError is returned when every credential has been rate
// limited, or the backoff ceiling was reached with a single credential.
func NewProviderExhaustedError(message string, retryAfter int) *Error {
	return &Error{
		Type:       ErrProviderExhausted,
		Message:    message,
		RetryAfter: &retryAfter,
	}
}

// IsRateLimit reports whether the error indicates a quota/rate-limit condition.
// Overloaded upstreams are treated the same way: rotating to a different
// credential is the correct response to both.
func (e *Error) IsRateLimit() bool {
	switch e.Type {
	case ErrRateLimit, ErrOverloaded:
		return true
	default:
		return false
	}
}

// Unwrap returns the underlying error for error wrapping.
func (e *Error) Unwrap() error {
	if ue, ok := e.ProviderError.(error); ok {
		return ue
	}
	return nil
}

// DefaultRetryAfterSeconds is used when the provider gives no usable hint.
const DefaultRetryAfterSeconds = 30

var (
	retryAfterPhrase = regexp.MustCompile(`(?i)retry\s+(?:in|after)\s+(\d+(?:\.\d+)?)\s*s`)
	retryDelayField  = regexp.MustCompile(`(?i)"retryDelay"\s*:\s*"(\d+(?:\.\d+)?)s"`)
)

// ParseRetryAfter extracts a retry hint, in whole seconds, from free-form
// provider error text. Falls back to DefaultRetryAfterSeconds.
func ParseRetryAfter(text string) int {
	for _, re := range []*regexp.Regexp{retryDelayField, retryAfterPhrase} {
		m := re.FindStringSubmatch(text)
		if len(m) != 2 {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(m[1]), 64)
		if err != nil || f <= 0 {
			continue
		}
		secs := int(f)
		if f > float64(secs) {
			secs++
		}
		return secs
	}
	return DefaultRetryAfterSeconds
}

// RetryAfterFrom returns the retry hint carried by err, or a value parsed from
// its message, or the default.
func RetryAfterFrom(err error) int {
	if err == nil {
		return DefaultRetryAfterSeconds
	}
	if e, ok := err.(*Error); ok && e.RetryAfter != nil && *e.RetryAfter > 0 {
		return *e.RetryAfter
	}
	return ParseRetryAfter(err.Error())
}
