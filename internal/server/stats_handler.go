// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

package server

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/voterscan/internal/gemini"
)

// StatsResponse reports system counters
type StatsResponse struct {
	PromptTokens   int64  `json:"prompt_tokens"`
	OutputTokens   int64  `json:"output_tokens"`
	Documents      int    `json:"documents"`
	Voters         int    `json:"voters"`
	DatabaseStatus string `json:"database_status"`
}

// HandleStats returns token usage and database counters.
func HandleStats(w http.ResponseWriter, r *http.Request, counter *gemini.TokenCounter, db *sql.DB) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := StatsResponse{DatabaseStatus: "connected"}
	stats.PromptTokens, stats.OutputTokens = counter.Totals()

	if err := db.PingContext(r.Context()); err != nil {
		stats.DatabaseStatus = "disconnected"
	} else {
		if err := db.QueryRowContext(r.Context(), "SELECT COUNT(*) FROM documents").Scan(&stats.Documents); err != nil {
			stats.DatabaseStatus = "error"
		}
		if err := db.QueryRowContext(r.Context(), "SELECT COUNT(*) FROM voters").Scan(&stats.Voters); err != nil {
			stats.DatabaseStatus = "error"
		}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stats)
}
