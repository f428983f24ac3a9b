// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"fmt"
	"log"
)

// Document is one processed PDF's metadata row.
type Document struct {
	ID                   int64
	FileName             string
	AssemblyConstituency string
	PartNumber           string
	PublicationDate      string // ISO form, empty when unparseable
	TotalVotersCount     interface{}
}

// SummaryStat is one row of the footer's voter-count breakdown.
type SummaryStat struct {
	Description      string
	MaleCount        interface{}
	FemaleCount      interface{}
	OtherGenderCount interface{}
	TotalCount       interface{}
}

// DocumentStore handles the documents and summary_stats tables.
type DocumentStore struct {
	db *sql.DB
}

// NewDocumentStore creates a document store.
func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// Insert inserts a document together with its summary rows in one
// transaction. A file name already present is not an error: the existing
// id is returned with existed=true and nothing is written — callers must
// treat that as "skip sections and voters for this run".
func (s *DocumentStore) Insert(doc Document, stats []SummaryStat) (id int64, existed bool, err error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var existingID int64
	err = tx.QueryRow("SELECT id FROM documents WHERE file_name = ?", doc.FileName).Scan(&existingID)
	if err == nil {
		log.Printf("Insert: document %q already exists (id %d), skipping", doc.FileName, existingID)
		return existingID, true, nil
	}
	if err != sql.ErrNoRows {
		return 0, false, fmt.Errorf("failed to check for existing document: %w", err)
	}

	var pubDate interface{}
	if doc.PublicationDate != "" {
		pubDate = doc.PublicationDate
	}
	res, err := tx.Exec(
		"INSERT INTO documents (file_name, assembly_constituency, part_number, publication_date, total_voters_count) VALUES (?, ?, ?, ?, ?)",
		doc.FileName, doc.AssemblyConstituency, doc.PartNumber, pubDate, doc.TotalVotersCount,
	)
	if err != nil {
		return 0, false, fmt.Errorf("failed to insert document: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, false, fmt.Errorf("failed to get document id: %w", err)
	}

	for _, stat := range stats {
		_, err = tx.Exec(
			"INSERT INTO summary_stats (document_id, description, male_count, female_count, other_gender_count, total_count) VALUES (?, ?, ?, ?, ?, ?)",
			id, stat.Description, stat.MaleCount, stat.FemaleCount, stat.OtherGenderCount, stat.TotalCount,
		)
		if err != nil {
			return 0, false, fmt.Errorf("failed to insert summary stat: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("failed to commit document insert: %w", err)
	}
	log.Printf("Insert: inserted document %q with id %d (%d summary rows)", doc.FileName, id, len(stats))
	return id, false, nil
}

// List returns all processed documents, oldest first.
func (s *DocumentStore) List() ([]Document, error) {
	rows, err := s.db.Query("SELECT id, file_name, assembly_constituency, part_number, COALESCE(publication_date, ''), total_voters_count FROM documents ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		var d Document
		var total sql.NullInt64
		if err := rows.Scan(&d.ID, &d.FileName, &d.AssemblyConstituency, &d.PartNumber, &d.PublicationDate, &total); err != nil {
			return nil, err
		}
		if total.Valid {
			d.TotalVotersCount = total.Int64
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}
