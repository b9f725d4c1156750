package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sethvargo/go-retry"
)

const (
	// maxBackoffAttempts bounds the single-credential retry path.
	maxBackoffAttempts = 3
	// backoffBase is the first delay of the exponential backoff ladder.
	backoffBase = 500 * time.Millisecond
)

// credential wraps one provider client handle with its failure tally.
// Credentials are never disabled: a rate-limited credential stays eligible for
// future calls once the rotation comes back around.
type credential struct {
	client   Client
	index    int
	failures int
}

// Orchestrator executes generate-content calls against a pool of provider
// credentials, rotating round-robin when the current one is rate limited.
// The rotation cursor and failure tallies are shared across all sessions using
// this instance; only credential selection is serialized, the provider calls
// themselves run unserialized.
type Orchestrator struct {
	mu      sync.Mutex
	creds   []*credential
	current int

	logger *slog.Logger
}

// NewOrchestrator builds an orchestrator over the given clients, one
// credential per client handle.
func NewOrchestrator(clients []Client, logger *slog.Logger) (*Orchestrator, error) {
	if len(clients) == 0 {
		return nil, errors.New("ai: at least one client is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	creds := make([]*credential, len(clients))
	for i, c := range clients {
		creds[i] = &credential{client: c, index: i}
	}
	return &Orchestrator{creds: creds, logger: logger}, nil
}

// Execute runs one generate-content call against the current credential.
// On a rate-limit signal it rotates to the next credential and retries, at
// most once per credential. With a single credential it instead backs off
// exponentially up to maxBackoffAttempts. Any non-rate-limit error propagates
// immediately without rotation.
func (o *Orchestrator) Execute(ctx context.Context, req *Request) (*Response, error) {
	if len(o.creds) == 1 {
		return o.executeWithBackoff(ctx, req)
	}

	var lastErr error
	for attempt := 0; attempt < len(o.creds); attempt++ {
		cred := o.pick()
		resp, err := cred.client.GenerateContent(ctx, req)
		if err == nil {
			return resp, nil
		}
		if !isRateLimit(err) {
			return nil, err
		}
		lastErr = err
		o.recordRateLimit(cred)
	}
	return nil, NewProviderExhaustedError(
		fmt.Sprintf("all %d credentials rate limited", len(o.creds)),
		RetryAfterFrom(lastErr),
	)
}

// executeWithBackoff is the single-credential path: no rotation target exists,
// so rate limits are absorbed with exponential delays instead.
func (o *Orchestrator) executeWithBackoff(ctx context.Context, req *Request) (*Response, error) {
	cred := o.creds[0]

	var resp *Response
	backoff := retry.WithMaxRetries(maxBackoffAttempts, retry.NewExponential(backoffBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		r, err := cred.client.GenerateContent(ctx, req)
		if err == nil {
			resp = r
			return nil
		}
		if !isRateLimit(err) {
			return err
		}
		o.recordRateLimit(cred)
		return retry.RetryableError(err)
	})
	if err == nil {
		return resp, nil
	}
	if isRateLimit(err) {
		return nil, NewProviderExhaustedError("credential still rate limited after backoff", RetryAfterFrom(err))
	}
	return nil, err
}

// pick returns the current credential. One critical section per selection
// decision; see the concurrency note on Orchestrator.
func (o *Orchestrator) pick() *credential {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.creds[o.current]
}

// recordRateLimit bumps the failure tally and advances the rotation cursor
// past the failed credential, unless a concurrent session already moved it.
func (o *Orchestrator) recordRateLimit(cred *credential) {
	o.mu.Lock()
	cred.failures++
	failures := cred.failures
	if len(o.creds) > 1 && o.creds[o.current] == cred {
		o.current = (o.current + 1) % len(o.creds)
	}
	o.mu.Unlock()
	o.logger.Warn("credential rate limited",
		"provider", cred.client.Name(),
		"credential", cred.index,
		"failures", failures)
}

// FailureCounts returns a snapshot of per-credential failure tallies, indexed
// by credential ordinal. Observability only.
func (o *Orchestrator) FailureCounts() []int {
	o.mu.Lock()
	defer o.mu.Unlock()
	counts := make([]int, len(o.creds))
	for i, c := range o.creds {
		counts[i] = c.failures
	}
	return counts
}

func isRateLimit(err error) bool {
	var aiErr *Error
	if errors.As(err, &aiErr) {
		return aiErr.IsRateLimit()
	}
	// go-retry wraps retryable errors; unwrap handled by errors.As above.
	return false
}

// IsExhausted reports whether err is a provider-exhaustion error.
func IsExhausted(err error) bool {
	var aiErr *Error
	return errors.As(err, &aiErr) && aiErr.Type == ErrProviderExhausted
}
