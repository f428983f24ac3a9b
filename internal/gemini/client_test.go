// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package gemini

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// scriptedGenerator returns canned responses in order, then repeats the
// last one.
type scriptedGenerator struct {
	mu        sync.Mutex
	responses []scriptedResponse
	calls     int
}

type scriptedResponse struct {
	text  string
	usage *Usage
	err   error
}

func (g *scriptedGenerator) Generate(ctx context.Context, instruction string, imagePNG []byte) (string, *Usage, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	idx := g.calls
	if idx >= len(g.responses) {
		idx = len(g.responses) - 1
	}
	g.calls++
	r := g.responses[idx]
	return r.text, r.usage, r.err
}

func (g *scriptedGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

// noSleep replaces the backoff sleep so retry tests run instantly.
func noSleep(ctx context.Context, d time.Duration) error {
	return ctx.Err()
}

func TestExtract_Success(t *testing.T) {
	gen := &scriptedGenerator{responses: []scriptedResponse{
		{text: "response text", usage: &Usage{PromptTokens: 10, OutputTokens: 5}},
	}}
	counter := &TokenCounter{}
	e := NewExtractor(gen, 2, 5, counter)
	e.sleep = noSleep

	text, ok := e.Extract(context.Background(), []byte("png"), "instruction", "1")
	if !ok {
		t.Fatalf("Extract failed on successful response")
	}
	if text != "response text" {
		t.Errorf("Expected response text, got %q", text)
	}
	if gen.callCount() != 1 {
		t.Errorf("Expected 1 call, got %d", gen.callCount())
	}
	prompt, output := counter.Totals()
	if prompt != 10 || output != 5 {
		t.Errorf("Expected token totals 10/5, got %d/%d", prompt, output)
	}
}

func TestExtract_RetriesOnEmptyThenSucceeds(t *testing.T) {
	gen := &scriptedGenerator{responses: []scriptedResponse{
		{text: ""},
		{text: ""},
		{text: "finally"},
	}}
	e := NewExtractor(gen, 1, 5, nil)
	e.sleep = noSleep

	text, ok := e.Extract(context.Background(), nil, "instruction", "2")
	if !ok {
		t.Fatalf("Extract should succeed on third attempt")
	}
	if text != "finally" {
		t.Errorf("Expected third response, got %q", text)
	}
	if gen.callCount() != 3 {
		t.Errorf("Expected 3 calls, got %d", gen.callCount())
	}
}

func TestExtract_ExhaustsRetries(t *testing.T) {
	gen := &scriptedGenerator{responses: []scriptedResponse{
		{err: errors.New("boom")},
	}}
	e := NewExtractor(gen, 1, 5, nil)
	e.sleep = noSleep

	text, ok := e.Extract(context.Background(), nil, "instruction", "3")
	if ok {
		t.Fatalf("Extract should fail after exhausting retries, got %q", text)
	}
	if gen.callCount() != 5 {
		t.Errorf("Expected exactly 5 attempts, got %d", gen.callCount())
	}
}

func TestExtract_CancelledContext(t *testing.T) {
	gen := &scriptedGenerator{responses: []scriptedResponse{
		{err: errors.New("boom")},
	}}
	e := NewExtractor(gen, 1, 5, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Cancellation during backoff terminates the retry loop early.
	if _, ok := e.Extract(ctx, nil, "instruction", "4"); ok {
		t.Errorf("Extract should fail under a cancelled context")
	}
	if gen.callCount() > 1 {
		t.Errorf("Expected at most 1 attempt under cancelled context, got %d", gen.callCount())
	}
}

func TestExtract_LimiterBoundsConcurrency(t *testing.T) {
	var mu sync.Mutex
	inFlight, maxInFlight := 0, 0
	release := make(chan struct{})

	gen := blockingGenerator{
		enter: func() {
			mu.Lock()
			inFlight++
			if inFlight > maxInFlight {
				maxInFlight = inFlight
			}
			mu.Unlock()
		},
		wait: release,
		exit: func() {
			mu.Lock()
			inFlight--
			mu.Unlock()
		},
	}
	e := NewExtractor(gen, 2, 1, nil)
	e.sleep = noSleep

	var wg sync.WaitGroup
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Extract(context.Background(), nil, "instruction", "c")
		}()
	}

	// Let the goroutines pile up against the limiter, then release them.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if maxInFlight > 2 {
		t.Errorf("Limiter allowed %d concurrent calls, expected at most 2", maxInFlight)
	}
}

type blockingGenerator struct {
	enter func()
	wait  chan struct{}
	exit  func()
}

func (g blockingGenerator) Generate(ctx context.Context, instruction string, imagePNG []byte) (string, *Usage, error) {
	g.enter()
	<-g.wait
	g.exit()
	return "ok", nil, nil
}

func TestTokenCounter_ConcurrentAdds(t *testing.T) {
	counter := &TokenCounter{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			counter.Add(&Usage{PromptTokens: 2, OutputTokens: 1})
		}()
	}
	wg.Wait()

	prompt, output := counter.Totals()
	if prompt != 100 || output != 50 {
		t.Errorf("Expected totals 100/50, got %d/%d", prompt, output)
	}
}

func TestTokenCounter_NilSafe(t *testing.T) {
	var counter *TokenCounter
	counter.Add(&Usage{PromptTokens: 1}) // must not panic
	(&TokenCounter{}).Add(nil)           // nil usage is a no-op
}
