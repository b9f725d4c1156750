package gemini

import (
	"errors"
	"testing"

	"google.golang.org/genai"

	"github.com/prepwise/interviewd/pkg/engine/ai"
)

func classify(t *testing.T, in error) *ai.Error {
	t.Helper()
	var aiErr *ai.Error
	if !errors.As(classifyError(in), &aiErr) {
		t.Fatalf("classifyError(%v) did not produce *ai.Error", in)
	}
	return aiErr
}

func TestClassifyError_QuotaStatusIsRateLimit(t *testing.T) {
	got := classify(t, genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED", Message: "quota exceeded, retry after 9s"})
	if got.Type != ai.ErrRateLimit {
		t.Fatalf("type=%s, want %s", got.Type, ai.ErrRateLimit)
	}
	if got.RetryAfter == nil || *got.RetryAfter != 9 {
		t.Fatalf("retry_after=%v, want 9", got.RetryAfter)
	}
}

func TestClassifyError_HTTPStatusOverridesMissingCanonical(t *testing.T) {
	got := classify(t, genai.APIError{Code: 429, Message: "too many requests"})
	if got.Type != ai.ErrRateLimit {
		t.Fatalf("type=%s, want %s", got.Type, ai.ErrRateLimit)
	}
}

func TestClassifyError_Unavailable(t *testing.T) {
	got := classify(t, genai.APIError{Code: 503, Status: "UNAVAILABLE", Message: "overloaded"})
	if got.Type != ai.ErrOverloaded {
		t.Fatalf("type=%s, want %s", got.Type, ai.ErrOverloaded)
	}
	if !got.IsRateLimit() {
		t.Fatalf("overloaded should rotate credentials")
	}
}

func TestClassifyError_AuthNeverRotates(t *testing.T) {
	got := classify(t, genai.APIError{Code: 401, Status: "UNAUTHENTICATED", Message: "bad key"})
	if got.Type != ai.ErrAuthentication {
		t.Fatalf("type=%s, want %s", got.Type, ai.ErrAuthentication)
	}
	if got.IsRateLimit() {
		t.Fatalf("auth errors must not look like rate limits")
	}
}

func TestClassifyError_NonAPIErrorBecomesProviderError(t *testing.T) {
	got := classify(t, errors.New("dial tcp: connection refused"))
	if got.Type != ai.ErrProvider {
		t.Fatalf("type=%s, want %s", got.Type, ai.ErrProvider)
	}
}
