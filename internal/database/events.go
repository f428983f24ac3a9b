// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"fmt"
	"time"
)

// Extraction event types.
const (
	EventProcessed = "processed"
	EventSkipped   = "skipped"
	EventFailed    = "failed"
)

// Event is one row of the extraction history
type Event struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	EventType string    `json:"event_type"`
	FileName  string    `json:"file_name"`
	Details   string    `json:"details"`
}

// EventStore records per-document extraction outcomes
type EventStore struct {
	db *sql.DB
}

// NewEventStore creates the store, creating the events table on first use.
func NewEventStore(db *sql.DB) (*EventStore, error) {
	s := &EventStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize events schema: %w", err)
	}
	return s, nil
}

func (s *EventStore) initSchema() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		event_type TEXT NOT NULL,
		file_name TEXT NOT NULL,
		details TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_events_timestamp ON events(timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_events_file_name ON events(file_name);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Log records one extraction outcome for a file.
func (s *EventStore) Log(eventType, fileName, details string) error {
	_, err := s.db.Exec(
		"INSERT INTO events (timestamp, event_type, file_name, details) VALUES (?, ?, ?, ?)",
		time.Now(), eventType, fileName, details,
	)
	return err
}

// Recent returns the last N events, newest first.
func (s *EventStore) Recent(limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(
		"SELECT id, timestamp, event_type, file_name, details FROM events ORDER BY timestamp DESC, id DESC LIMIT ?",
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.Timestamp, &ev.EventType, &ev.FileName, &ev.Details); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

// ByFile returns all events for one file, newest first.
func (s *EventStore) ByFile(fileName string) ([]Event, error) {
	rows, err := s.db.Query(
		"SELECT id, timestamp, event_type, file_name, details FROM events WHERE file_name = ? ORDER BY timestamp DESC, id DESC",
		fileName,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.Timestamp, &ev.EventType, &ev.FileName, &ev.Details); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
