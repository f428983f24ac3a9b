// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package jobs tracks background processing jobs. The registry replaces
// the usual global job map: it is an explicit process-scoped object
// injected into handlers and workers, guarded by its own lock.
package jobs

import (
	"encoding/json"
	"sync"
	"time"
)

// Status is a job's lifecycle state. These four values are the entire
// exit surface of the service; no other states exist.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusProcessing Status = "processing"
	StatusComplete   Status = "complete"
	StatusError      Status = "error"
)

// JobTypeExtract identifies a PDF extraction job on the queue.
const JobTypeExtract = "extract_pdf"

// ExtractPayload is the queue payload of one extraction job. Cleanup
// marks the paths as temporary uploads to delete once the job finishes,
// whatever the outcome; watch-folder jobs leave their source files alone.
type ExtractPayload struct {
	JobID    string   `json:"job_id"`
	PDFPaths []string `json:"pdf_paths"`
	Cleanup  bool     `json:"cleanup"`
}

// Marshal encodes the payload for the queue.
func (p ExtractPayload) Marshal() (json.RawMessage, error) {
	return json.Marshal(p)
}

// State is a point-in-time snapshot of one job.
type State struct {
	Status    Status    `json:"status"`
	Message   string    `json:"message"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Registry is a thread-safe job-status store.
type Registry struct {
	mu   sync.RWMutex
	jobs map[string]State
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{jobs: make(map[string]State)}
}

// Set records the current status and message of a job.
func (r *Registry) Set(jobID string, status Status, message string) {
	r.mu.Lock()
	r.jobs[jobID] = State{Status: status, Message: message, UpdatedAt: time.Now()}
	r.mu.Unlock()
}

// Get returns the state of a job. ok is false for unknown job ids.
func (r *Registry) Get(jobID string) (State, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	state, ok := r.jobs[jobID]
	return state, ok
}
