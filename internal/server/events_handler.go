// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

package server

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/voterscan/internal/database"
)

// HandleEvents returns the recent extraction history. Supports
// ?limit=N and ?file=name filters.
func HandleEvents(w http.ResponseWriter, r *http.Request, db *sql.DB) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	events, err := database.NewEventStore(db)
	if err != nil {
		log.Printf("HandleEvents: event store unavailable: %v", err)
		http.Error(w, "Events unavailable", http.StatusInternalServerError)
		return
	}

	var out []database.Event
	if file := r.URL.Query().Get("file"); file != "" {
		out, err = events.ByFile(file)
	} else {
		limit := 100
		if raw := r.URL.Query().Get("limit"); raw != "" {
			if n, convErr := strconv.Atoi(raw); convErr == nil {
				limit = n
			}
		}
		out, err = events.Recent(limit)
	}
	if err != nil {
		log.Printf("HandleEvents: query failed: %v", err)
		http.Error(w, "Events query failed", http.StatusInternalServerError)
		return
	}

	if out == nil {
		out = []database.Event{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(out)
}
