// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package queue carries extraction jobs from the upload handlers and the
// watch-folder to the worker pool. Jobs survive a restart when Redis
// backs the queue; the in-memory queue is the single-process fallback.
package queue

import (
	"context"
	"encoding/json"
	"time"
)

// Job represents one queued unit of work.
type Job struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Queue is the job-queue interface the workers consume from.
type Queue interface {
	// Enqueue adds a job to the queue.
	Enqueue(ctx context.Context, job Job) error

	// Dequeue blocks until a job is available, then returns it.
	// Returns an error when the context is cancelled or the backend fails.
	Dequeue(ctx context.Context) (Job, error)
}
