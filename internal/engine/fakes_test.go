package engine

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/AlosedAG/market-creation/internal/llm"
	"github.com/AlosedAG/market-creation/internal/model"
)

var epoch = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

// fakeClock advances only when something sleeps on it.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func newFakeClock() *fakeClock { return &fakeClock{now: epoch} }

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
	return nil
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// sleepsOf counts recorded sleeps of exactly d.
func (c *fakeClock) sleepsOf(d time.Duration) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, s := range c.sleeps {
		if s == d {
			n++
		}
	}
	return n
}

type outcome struct {
	text string
	err  error
}

// fakeClient replays scripted outcomes; once they run out it repeats the last one.
type fakeClient struct {
	clock    Clock
	outcomes []outcome
	requests []llm.Request
	starts   []time.Time
	onCall   func(n int)
}

func (f *fakeClient) Generate(_ context.Context, req llm.Request) (string, error) {
	f.requests = append(f.requests, req)
	if f.clock != nil {
		f.starts = append(f.starts, f.clock.Now())
	}
	n := len(f.requests)
	if f.onCall != nil {
		f.onCall(n)
	}
	o := f.outcomes[min(n, len(f.outcomes))-1]
	return o.text, o.err
}

func (f *fakeClient) ProviderName() string { return "fake" }
func (f *fakeClient) ModelName() string    { return "fake-model" }

func transient() outcome {
	return outcome{err: &llm.ProviderError{
		Provider:   "fake",
		Kind:       llm.KindTransient,
		StatusCode: 429,
		Err:        errors.New("RESOURCE_EXHAUSTED: quota exceeded"),
	}}
}

func fatal() outcome {
	return outcome{err: &llm.ProviderError{
		Provider:   "fake",
		Kind:       llm.KindFatal,
		StatusCode: 400,
		Err:        errors.New("INVALID_ARGUMENT: API key not valid"),
	}}
}

func success(text string) outcome { return outcome{text: text} }

type fakeRecorder struct {
	calls []*model.LLMCall
	err   error
}

func (r *fakeRecorder) Create(_ context.Context, call *model.LLMCall) error {
	r.calls = append(r.calls, call)
	return r.err
}
