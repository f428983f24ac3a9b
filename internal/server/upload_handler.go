// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

package server

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/voterscan/internal/jobs"
	"github.com/voterscan/internal/queue"
)

// maxUploadBytes bounds the total multipart form size (200 MB).
const maxUploadBytes = 200 << 20

// UploadResponse is returned after a successful upload
type UploadResponse struct {
	JobID   string `json:"job_id"`
	Files   int    `json:"files"`
	Message string `json:"message"`
}

// HandleUpload accepts one or more PDFs, saves them to the upload
// directory and enqueues a single extraction job covering all of them.
func HandleUpload(w http.ResponseWriter, r *http.Request, uploadDir string, q queue.Queue, registry *jobs.Registry) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		http.Error(w, "Invalid multipart form: "+err.Error(), http.StatusBadRequest)
		return
	}

	fileHeaders := r.MultipartForm.File["files"]
	if len(fileHeaders) == 0 {
		// Single-file clients use the "file" field.
		fileHeaders = r.MultipartForm.File["file"]
	}
	if len(fileHeaders) == 0 {
		http.Error(w, "No files uploaded", http.StatusBadRequest)
		return
	}

	jobID := uuid.New().String()
	var savedPaths []string
	for _, fh := range fileHeaders {
		if !strings.EqualFold(filepath.Ext(fh.Filename), ".pdf") {
			cleanupFiles(savedPaths)
			http.Error(w, fmt.Sprintf("Unsupported file type: %s", fh.Filename), http.StatusBadRequest)
			return
		}

		path, err := saveUpload(jobID, uploadDir, fh)
		if err != nil {
			log.Printf("HandleUpload: failed to save %s: %v", fh.Filename, err)
			cleanupFiles(savedPaths)
			http.Error(w, "Failed to save upload", http.StatusInternalServerError)
			return
		}
		savedPaths = append(savedPaths, path)
	}

	payload := jobs.ExtractPayload{
		JobID:    jobID,
		PDFPaths: savedPaths,
		Cleanup:  true,
	}
	raw, err := payload.Marshal()
	if err != nil {
		cleanupFiles(savedPaths)
		http.Error(w, "Failed to build job", http.StatusInternalServerError)
		return
	}

	registry.Set(jobID, jobs.StatusQueued, fmt.Sprintf("Queued %d file(s)", len(savedPaths)))
	if err := q.Enqueue(r.Context(), queue.Job{Type: jobs.JobTypeExtract, Payload: raw}); err != nil {
		log.Printf("HandleUpload: enqueue failed: %v", err)
		registry.Set(jobID, jobs.StatusError, "Failed to queue job")
		cleanupFiles(savedPaths)
		http.Error(w, "Failed to queue job", http.StatusServiceUnavailable)
		return
	}

	log.Printf("HandleUpload: queued job %s with %d file(s)", jobID, len(savedPaths))
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(UploadResponse{
		JobID:   jobID,
		Files:   len(savedPaths),
		Message: "Files queued for extraction",
	})
}

// saveUpload writes one multipart file under uploadDir with a
// job-scoped name so concurrent uploads of the same file never collide.
func saveUpload(jobID, uploadDir string, fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	base := filepath.Base(fh.Filename)
	dstPath := filepath.Join(uploadDir, jobID+"_"+base)
	dst, err := os.Create(dstPath)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(dstPath)
		return "", err
	}
	return dstPath, nil
}

func cleanupFiles(paths []string) {
	for _, p := range paths {
		os.Remove(p)
	}
}
