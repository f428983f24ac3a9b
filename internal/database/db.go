// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package database is the persistence layer: idempotent upserts of
// documents, sections, voters and summary statistics into SQLite,
// enforcing uniqueness and foreign-key integrity.
package database

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Open opens the SQLite database at path with foreign keys enforced.
// Each document-processing job opens and owns its own connection; the
// handle is not shared across concurrently running jobs.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return db, nil
}

// InitSchema creates the four tables if they do not exist. Called once
// at process startup, not per document.
func InitSchema(db *sql.DB) error {
	const schema = `
	CREATE TABLE IF NOT EXISTS documents (
		id INTEGER PRIMARY KEY,
		file_name TEXT NOT NULL UNIQUE,
		assembly_constituency TEXT,
		part_number TEXT,
		publication_date TEXT,
		total_voters_count INTEGER,
		processed_at TEXT DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS sections (
		id INTEGER PRIMARY KEY,
		document_id INTEGER NOT NULL,
		section_name TEXT,
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS voters (
		id INTEGER PRIMARY KEY,
		section_id INTEGER NOT NULL,
		idc_no TEXT NOT NULL UNIQUE,
		voter_name TEXT,
		relative_name TEXT,
		rln_type TEXT,
		house_no TEXT,
		age INTEGER,
		gender TEXT,
		sl_no_in_pdf INTEGER,
		box_no_on_page INTEGER,
		page_no INTEGER,
		all_text TEXT,
		statustype TEXT DEFAULT 'N',
		FOREIGN KEY (section_id) REFERENCES sections(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS summary_stats (
		id INTEGER PRIMARY KEY,
		document_id INTEGER NOT NULL,
		description TEXT,
		male_count INTEGER,
		female_count INTEGER,
		other_gender_count INTEGER,
		total_count INTEGER,
		FOREIGN KEY (document_id) REFERENCES documents(id) ON DELETE CASCADE
	);
	`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create tables: %w", err)
	}
	return nil
}
