// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/voterscan/internal/database"
	"github.com/voterscan/internal/jobs"
	"github.com/voterscan/internal/pipeline"
	"github.com/voterscan/internal/queue"
)

// ExtractHandler processes PDF extraction jobs. Each job opens its own
// database connection so workers never share one.
type ExtractHandler struct {
	processor *pipeline.Processor
	registry  *jobs.Registry
	dbPath    string
}

// NewExtractHandler creates a handler backed by the given processor and
// status registry. dbPath is the sqlite file each job connects to.
func NewExtractHandler(processor *pipeline.Processor, registry *jobs.Registry, dbPath string) *ExtractHandler {
	return &ExtractHandler{
		processor: processor,
		registry:  registry,
		dbPath:    dbPath,
	}
}

// Handle runs one extraction job end to end. A failure on one document
// marks the job errored but the remaining documents are still
// processed; the final status reflects the whole batch.
func (h *ExtractHandler) Handle(ctx context.Context, job queue.Job) error {
	var payload jobs.ExtractPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("invalid extract payload: %w", err)
	}
	if payload.JobID == "" {
		return fmt.Errorf("extract payload missing job_id")
	}

	log.Printf("Handle: job %s with %d files", payload.JobID, len(payload.PDFPaths))
	if payload.Cleanup {
		defer func() {
			for _, path := range payload.PDFPaths {
				if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
					log.Printf("Handle: failed to remove %s: %v", path, err)
				}
			}
		}()
	}

	h.registry.Set(payload.JobID, jobs.StatusProcessing, "Starting extraction...")

	db, err := database.Open(h.dbPath)
	if err != nil {
		h.registry.Set(payload.JobID, jobs.StatusError, fmt.Sprintf("Database error: %v", err))
		return fmt.Errorf("open database for job %s: %w", payload.JobID, err)
	}
	defer db.Close()

	failed := 0
	for _, pdfPath := range payload.PDFPaths {
		report := func(status jobs.Status, message string) {
			h.registry.Set(payload.JobID, status, message)
		}
		if err := h.processor.ProcessDocument(ctx, pdfPath, db, report); err != nil {
			log.Printf("Handle: job %s document %s failed: %v", payload.JobID, pdfPath, err)
			h.registry.Set(payload.JobID, jobs.StatusError, fmt.Sprintf("Error processing %s: %v", pdfPath, err))
			if events, evErr := database.NewEventStore(db); evErr == nil {
				if logErr := events.Log(database.EventFailed, filepath.Base(pdfPath), err.Error()); logErr != nil {
					log.Printf("Handle: failed to record event for %s: %v", pdfPath, logErr)
				}
			}
			failed++
			continue
		}
	}

	if failed == len(payload.PDFPaths) && failed > 0 {
		// Leave the last error status standing.
		return fmt.Errorf("job %s: all %d documents failed", payload.JobID, failed)
	}

	h.registry.Set(payload.JobID, jobs.StatusComplete,
		fmt.Sprintf("Successfully processed %d of %d files", len(payload.PDFPaths)-failed, len(payload.PDFPaths)))
	return nil
}
