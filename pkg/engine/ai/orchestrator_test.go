package ai

import (
	"context"
	"errors"
	"log/slog"
	"testing"
)

type fakeClient struct {
	name  string
	calls int
	fn    func(call int) (*Response, error)
}

func (f *fakeClient) Name() string { return f.name }

func (f *fakeClient) GenerateContent(ctx context.Context, req *Request) (*Response, error) {
	f.calls++
	return f.fn(f.calls)
}

func rateLimited() error { return NewRateLimitError("quota exceeded", 10) }

func newTestOrchestrator(t *testing.T, clients ...Client) *Orchestrator {
	t.Helper()
	o, err := NewOrchestrator(clients, slog.Default())
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	return o
}

func TestExecute_RotatesOnRateLimit(t *testing.T) {
	a := &fakeClient{name: "a", fn: func(int) (*Response, error) { return nil, rateLimited() }}
	b := &fakeClient{name: "b", fn: func(int) (*Response, error) { return &Response{Text: "ok"}, nil }}
	o := newTestOrchestrator(t, a, b)

	resp, err := o.Execute(context.Background(), &Request{Model: "m"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Text != "ok" {
		t.Fatalf("text=%q, want %q", resp.Text, "ok")
	}
	if a.calls != 1 || b.calls != 1 {
		t.Fatalf("calls a=%d b=%d, want 1 and 1", a.calls, b.calls)
	}
}

func TestExecute_VisitsEachCredentialOnceBeforeExhaustion(t *testing.T) {
	clients := make([]Client, 3)
	fakes := make([]*fakeClient, 3)
	for i := range clients {
		f := &fakeClient{name: "c", fn: func(int) (*Response, error) { return nil, rateLimited() }}
		fakes[i] = f
		clients[i] = f
	}
	o := newTestOrchestrator(t, clients...)

	_, err := o.Execute(context.Background(), &Request{Model: "m"})
	if !IsExhausted(err) {
		t.Fatalf("err=%v, want provider exhausted", err)
	}
	for i, f := range fakes {
		if f.calls != 1 {
			t.Fatalf("credential %d calls=%d, want 1", i, f.calls)
		}
	}
	var aiErr *Error
	if !errors.As(err, &aiErr) || aiErr.RetryAfter == nil || *aiErr.RetryAfter != 10 {
		t.Fatalf("retry_after missing from %v", err)
	}
}

func TestExecute_NonRateLimitErrorPropagatesWithoutRotation(t *testing.T) {
	boom := NewAPIError("upstream 500")
	a := &fakeClient{name: "a", fn: func(int) (*Response, error) { return nil, boom }}
	b := &fakeClient{name: "b", fn: func(int) (*Response, error) { return &Response{Text: "ok"}, nil }}
	o := newTestOrchestrator(t, a, b)

	_, err := o.Execute(context.Background(), &Request{Model: "m"})
	if !errors.Is(err, boom) && err != boom {
		t.Fatalf("err=%v, want propagated api error", err)
	}
	if b.calls != 0 {
		t.Fatalf("second credential called %d times, want 0", b.calls)
	}
}

func TestExecute_SingleCredentialBacksOffThenSucceeds(t *testing.T) {
	a := &fakeClient{name: "a", fn: func(call int) (*Response, error) {
		if call < 3 {
			return nil, rateLimited()
		}
		return &Response{Text: "recovered"}, nil
	}}
	o := newTestOrchestrator(t, a)

	resp, err := o.Execute(context.Background(), &Request{Model: "m"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if resp.Text != "recovered" {
		t.Fatalf("text=%q, want %q", resp.Text, "recovered")
	}
	if a.calls != 3 {
		t.Fatalf("calls=%d, want 3", a.calls)
	}
}

func TestExecute_SingleCredentialExhaustsAfterCeiling(t *testing.T) {
	a := &fakeClient{name: "a", fn: func(int) (*Response, error) { return nil, rateLimited() }}
	o := newTestOrchestrator(t, a)

	_, err := o.Execute(context.Background(), &Request{Model: "m"})
	if !IsExhausted(err) {
		t.Fatalf("err=%v, want provider exhausted", err)
	}
	if a.calls != maxBackoffAttempts+1 {
		t.Fatalf("calls=%d, want %d", a.calls, maxBackoffAttempts+1)
	}
}

func TestFailureCounts(t *testing.T) {
	a := &fakeClient{name: "a", fn: func(int) (*Response, error) { return nil, rateLimited() }}
	b := &fakeClient{name: "b", fn: func(int) (*Response, error) { return &Response{Text: "ok"}, nil }}
	o := newTestOrchestrator(t, a, b)

	if _, err := o.Execute(context.Background(), &Request{Model: "m"}); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	counts := o.FailureCounts()
	if counts[0] != 1 || counts[1] != 0 {
		t.Fatalf("counts=%v, want [1 0]", counts)
	}
}
