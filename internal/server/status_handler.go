// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/voterscan/internal/jobs"
)

// StatusResponse reports the state of one extraction job
type StatusResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// HandleStatus returns the current status for /status/{job_id}.
func HandleStatus(w http.ResponseWriter, r *http.Request, registry *jobs.Registry) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	jobID := strings.TrimPrefix(r.URL.Path, "/status/")
	if jobID == "" || strings.Contains(jobID, "/") {
		http.Error(w, "Invalid job ID", http.StatusBadRequest)
		return
	}

	state, ok := registry.Get(jobID)
	if !ok {
		http.Error(w, "Job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(StatusResponse{
		JobID:   jobID,
		Status:  string(state.Status),
		Message: state.Message,
	})
}
