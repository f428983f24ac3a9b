// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package queue

import (
	"context"
	"fmt"
)

// MemoryQueue is a buffered in-process queue, used when Redis is not
// available. Jobs do not survive a restart.
type MemoryQueue struct {
	jobs chan Job
}

// NewMemoryQueue creates an in-memory queue holding up to capacity
// pending jobs.
func NewMemoryQueue(capacity int) *MemoryQueue {
	if capacity <= 0 {
		capacity = 100
	}
	return &MemoryQueue{jobs: make(chan Job, capacity)}
}

// Enqueue adds a job without blocking; a full queue is an error rather
// than a stall of the upload handler.
func (m *MemoryQueue) Enqueue(ctx context.Context, job Job) error {
	select {
	case m.jobs <- job:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	default:
		return fmt.Errorf("job queue full")
	}
}

// Dequeue blocks until a job is available or the context is cancelled.
func (m *MemoryQueue) Dequeue(ctx context.Context) (Job, error) {
	select {
	case job := <-m.jobs:
		return job, nil
	case <-ctx.Done():
		return Job{}, ctx.Err()
	}
}
