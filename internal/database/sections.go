// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"fmt"

	"github.com/voterscan/internal/reconcile"
)

// SectionStore handles the sections table.
type SectionStore struct {
	db *sql.DB
}

// NewSectionStore creates a section store.
func NewSectionStore(db *sql.DB) *SectionStore {
	return &SectionStore{db: db}
}

// InsertAll inserts the named sections for a document, skipping names
// already present for that document, and returns the name→id cache in
// declaration order for the reconciler. The cache is scoped to one
// document's run and must not be shared across jobs.
func (s *SectionStore) InsertAll(documentID int64, names []string) ([]reconcile.Section, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	cache := make([]reconcile.Section, 0, len(names))
	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if name == "" || seen[name] {
			continue
		}
		seen[name] = true

		var id int64
		err := tx.QueryRow("SELECT id FROM sections WHERE document_id = ? AND section_name = ?", documentID, name).Scan(&id)
		switch {
		case err == sql.ErrNoRows:
			res, err := tx.Exec("INSERT INTO sections (document_id, section_name) VALUES (?, ?)", documentID, name)
			if err != nil {
				return nil, fmt.Errorf("failed to insert section %q: %w", name, err)
			}
			id, err = res.LastInsertId()
			if err != nil {
				return nil, fmt.Errorf("failed to get section id: %w", err)
			}
		case err != nil:
			return nil, fmt.Errorf("failed to check for existing section: %w", err)
		}
		cache = append(cache, reconcile.Section{ID: id, Name: name})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit section inserts: %w", err)
	}
	return cache, nil
}

// ListByDocument returns the sections of a document ordered by name.
func (s *SectionStore) ListByDocument(documentID int64) ([]reconcile.Section, error) {
	rows, err := s.db.Query("SELECT id, section_name FROM sections WHERE document_id = ? ORDER BY section_name", documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sections []reconcile.Section
	for rows.Next() {
		var sec reconcile.Section
		if err := rows.Scan(&sec.ID, &sec.Name); err != nil {
			return nil, err
		}
		sections = append(sections, sec)
	}
	return sections, rows.Err()
}
