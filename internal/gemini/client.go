// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package gemini

import (
	"context"
	"log"
	"sync"
	"time"
)

const (
	// DefaultMaxConcurrent caps simultaneous in-flight model calls across
	// the whole process, shared by every page of every document.
	DefaultMaxConcurrent = 50

	// DefaultRetries is the attempt ceiling per page/chunk call.
	DefaultRetries = 5

	// maxBackoff caps the exponential backoff on erroring calls.
	maxBackoff = 60 * time.Second
)

// TokenCounter accumulates best-effort running token totals for cost
// observability. Multiple concurrent calls update it, so it is guarded
// by a mutex; it is not transactional with anything else.
type TokenCounter struct {
	mu     sync.Mutex
	prompt int64
	output int64
}

// Add records the usage of one completed call. A nil usage is a no-op.
func (c *TokenCounter) Add(u *Usage) {
	if c == nil || u == nil {
		return
	}
	c.mu.Lock()
	c.prompt += u.PromptTokens
	c.output += u.OutputTokens
	c.mu.Unlock()
}

// Totals returns the accumulated prompt and output token counts.
func (c *TokenCounter) Totals() (prompt, output int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompt, c.output
}

// Extractor wraps a Generator with the admission limiter and the
// retry/backoff policy. One Extractor is shared by all document jobs in
// the process so overlapping documents share the same concurrency
// ceiling.
type Extractor struct {
	gen     Generator
	limiter chan struct{}
	retries int
	counter *TokenCounter

	// sleep is swapped out in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewExtractor creates an Extractor. counter may be nil.
func NewExtractor(gen Generator, maxConcurrent, retries int, counter *TokenCounter) *Extractor {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if retries <= 0 {
		retries = DefaultRetries
	}
	return &Extractor{
		gen:     gen,
		limiter: make(chan struct{}, maxConcurrent),
		retries: retries,
		counter: counter,
		sleep:   sleepCtx,
	}
}

// Extract sends one image plus instruction to the model and returns the
// raw response text. An attempt fails when the call errors or comes back
// empty; failed attempts back off exponentially (capped at 60s for API
// errors, uncapped for empty responses, matching how quota errors and
// slow-start behave differently). After exhausting retries it returns
// ok=false rather than an error: the caller must treat the page as
// unextractable, not abort the document.
func (e *Extractor) Extract(ctx context.Context, imagePNG []byte, instruction, pageID string) (string, bool) {
	select {
	case e.limiter <- struct{}{}:
	case <-ctx.Done():
		log.Printf("Extract: page %s: cancelled while waiting for admission: %v", pageID, ctx.Err())
		return "", false
	}
	defer func() { <-e.limiter }()

	for attempt := 0; attempt < e.retries; attempt++ {
		text, usage, err := e.gen.Generate(ctx, instruction, imagePNG)
		e.counter.Add(usage)

		if err == nil && text != "" {
			return text, true
		}

		backoff := time.Duration(1<<uint(attempt)) * time.Second
		if err != nil {
			log.Printf("Extract: API error on page %s, attempt %d: %v", pageID, attempt+1, err)
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
		} else {
			log.Printf("Extract: empty response for page %s, attempt %d", pageID, attempt+1)
		}

		if attempt < e.retries-1 {
			if err := e.sleep(ctx, backoff); err != nil {
				log.Printf("Extract: page %s: cancelled during backoff: %v", pageID, err)
				return "", false
			}
		}
	}

	log.Printf("Extract: failed to get response for page %s after %d retries", pageID, e.retries)
	return "", false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
