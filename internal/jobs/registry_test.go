// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package jobs

import (
	"sync"
	"testing"
)

func TestRegistry_SetAndGet(t *testing.T) {
	reg := NewRegistry()

	reg.Set("job-1", StatusQueued, "Files queued for processing...")
	state, ok := reg.Get("job-1")
	if !ok {
		t.Fatalf("Expected job-1 to exist")
	}
	if state.Status != StatusQueued {
		t.Errorf("Expected queued, got %s", state.Status)
	}

	reg.Set("job-1", StatusComplete, "done")
	state, _ = reg.Get("job-1")
	if state.Status != StatusComplete || state.Message != "done" {
		t.Errorf("Unexpected state after update: %+v", state)
	}
}

func TestRegistry_UnknownJob(t *testing.T) {
	reg := NewRegistry()
	if _, ok := reg.Get("missing"); ok {
		t.Errorf("Expected unknown job id to report ok=false")
	}
}

func TestRegistry_ConcurrentUpdates(t *testing.T) {
	reg := NewRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reg.Set("job-1", StatusProcessing, "working")
			reg.Get("job-1")
		}()
	}
	wg.Wait()

	state, ok := reg.Get("job-1")
	if !ok || state.Status != StatusProcessing {
		t.Errorf("Unexpected final state: %+v ok=%v", state, ok)
	}
}
