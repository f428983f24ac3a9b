// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

package server

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/voterscan/internal/database"
)

// DocumentResponse is one processed roll in the documents listing
type DocumentResponse struct {
	ID                   int64       `json:"id"`
	FileName             string      `json:"file_name"`
	AssemblyConstituency string      `json:"assembly_constituency"`
	PartNumber           string      `json:"part_number"`
	PublicationDate      string      `json:"publication_date"`
	TotalVotersCount     interface{} `json:"total_voters_count"`
}

// SectionResponse is one section of a document with its voter count
type SectionResponse struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	VoterCount int    `json:"voter_count"`
}

// HandleDocuments lists all processed documents.
func HandleDocuments(w http.ResponseWriter, r *http.Request, db *sql.DB) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	docs, err := database.NewDocumentStore(db).List()
	if err != nil {
		log.Printf("HandleDocuments: list failed: %v", err)
		http.Error(w, "Failed to list documents", http.StatusInternalServerError)
		return
	}

	out := make([]DocumentResponse, 0, len(docs))
	for _, d := range docs {
		out = append(out, DocumentResponse{
			ID:                   d.ID,
			FileName:             d.FileName,
			AssemblyConstituency: d.AssemblyConstituency,
			PartNumber:           d.PartNumber,
			PublicationDate:      d.PublicationDate,
			TotalVotersCount:     d.TotalVotersCount,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// HandleSections lists the sections of one document for
// /api/sections/{document_id}.
func HandleSections(w http.ResponseWriter, r *http.Request, db *sql.DB) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	documentID, ok := pathID(w, r.URL.Path, "/api/sections/")
	if !ok {
		return
	}

	sections, err := database.NewSectionStore(db).ListByDocument(documentID)
	if err != nil {
		log.Printf("HandleSections: list failed for document %d: %v", documentID, err)
		http.Error(w, "Failed to list sections", http.StatusInternalServerError)
		return
	}

	voters := database.NewVoterStore(db)
	out := make([]SectionResponse, 0, len(sections))
	for _, s := range sections {
		count, err := voters.CountBySection(s.ID)
		if err != nil {
			log.Printf("HandleSections: count failed for section %d: %v", s.ID, err)
			count = 0
		}
		out = append(out, SectionResponse{ID: s.ID, Name: s.Name, VoterCount: count})
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}

// AnalyticsResponse carries gender and age breakdowns for a document
// or a section
type AnalyticsResponse struct {
	Gender []database.GenderCount `json:"gender"`
	Age    []database.AgeBucket   `json:"age"`
}

// HandleDocumentAnalytics serves /api/analytics/document/{id}.
func HandleDocumentAnalytics(w http.ResponseWriter, r *http.Request, db *sql.DB) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	documentID, ok := pathID(w, r.URL.Path, "/api/analytics/document/")
	if !ok {
		return
	}

	voters := database.NewVoterStore(db)
	gender, err := voters.GenderCountsByDocument(documentID)
	if err != nil {
		log.Printf("HandleDocumentAnalytics: gender query failed: %v", err)
		http.Error(w, "Analytics query failed", http.StatusInternalServerError)
		return
	}
	age, err := voters.AgeDistributionByDocument(documentID)
	if err != nil {
		log.Printf("HandleDocumentAnalytics: age query failed: %v", err)
		http.Error(w, "Analytics query failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AnalyticsResponse{Gender: gender, Age: age})
}

// HandleSectionAnalytics serves /api/analytics/section/{id}.
func HandleSectionAnalytics(w http.ResponseWriter, r *http.Request, db *sql.DB) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	sectionID, ok := pathID(w, r.URL.Path, "/api/analytics/section/")
	if !ok {
		return
	}

	voters := database.NewVoterStore(db)
	gender, err := voters.GenderCountsBySection(sectionID)
	if err != nil {
		log.Printf("HandleSectionAnalytics: gender query failed: %v", err)
		http.Error(w, "Analytics query failed", http.StatusInternalServerError)
		return
	}
	age, err := voters.AgeDistributionBySection(sectionID)
	if err != nil {
		log.Printf("HandleSectionAnalytics: age query failed: %v", err)
		http.Error(w, "Analytics query failed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AnalyticsResponse{Gender: gender, Age: age})
}

// pathID parses the numeric id after prefix, writing a 400 on failure.
func pathID(w http.ResponseWriter, path, prefix string) (int64, bool) {
	raw := strings.TrimPrefix(path, prefix)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
