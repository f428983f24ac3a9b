// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"fmt"

	"github.com/voterscan/internal/extract"
)

// VoterStore handles the voters table.
type VoterStore struct {
	db *sql.DB
}

// NewVoterStore creates a voter store.
func NewVoterStore(db *sql.DB) *VoterStore {
	return &VoterStore{db: db}
}

// Insert writes one voter record under the given section using
// INSERT OR IGNORE on the globally unique identity-card number. A
// duplicate silently affects zero rows and returns inserted=false; it is
// not an error. A record without an identity-card number is rejected —
// such records must be dropped before persistence.
func (s *VoterStore) Insert(sectionID int64, rec extract.VoterRecord) (inserted bool, err error) {
	if rec.IDCardNo == "" {
		return false, fmt.Errorf("voter record without identity-card number")
	}

	rlnType := rec.RlnType
	if rlnType == "" {
		rlnType = "O"
	}
	statusType := rec.StatusType
	if statusType == "" {
		statusType = "N"
	}

	res, err := s.db.Exec(
		`INSERT OR IGNORE INTO voters
		(section_id, idc_no, voter_name, relative_name, rln_type, house_no, age, gender, sl_no_in_pdf, box_no_on_page, page_no, statustype, all_text)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sectionID, rec.IDCardNo, rec.VoterName, rec.RelativeName, rlnType, rec.HouseNo,
		rec.Age.Int(), rec.Gender, rec.SlNo.Int(), rec.BoxNoOnPage, rec.PageNo, statusType, rec.AllText,
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert voter %q: %w", rec.IDCardNo, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return affected > 0, nil
}

// CountBySection returns the number of voters stored under a section.
func (s *VoterStore) CountBySection(sectionID int64) (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM voters WHERE section_id = ?", sectionID).Scan(&count)
	return count, err
}

// GenderCount is one gender bucket of an analytics query.
type GenderCount struct {
	Gender string `json:"gender"`
	Count  int    `json:"count"`
}

// AgeBucket is one age-range bucket of an analytics query.
type AgeBucket struct {
	AgeGroup string `json:"age_group"`
	Count    int    `json:"count"`
}

const ageBucketExpr = `
	CASE
		WHEN age BETWEEN 18 AND 29 THEN '18-29'
		WHEN age BETWEEN 30 AND 39 THEN '30-39'
		WHEN age BETWEEN 40 AND 49 THEN '40-49'
		WHEN age BETWEEN 50 AND 59 THEN '50-59'
		ELSE '60+'
	END`

// GenderCountsBySection returns per-gender voter counts for one section.
func (s *VoterStore) GenderCountsBySection(sectionID int64) ([]GenderCount, error) {
	return scanGenderCounts(s.db.Query(
		"SELECT gender, COUNT(*) as count FROM voters WHERE section_id = ? GROUP BY gender", sectionID))
}

// GenderCountsByDocument returns per-gender voter counts across a whole
// document.
func (s *VoterStore) GenderCountsByDocument(documentID int64) ([]GenderCount, error) {
	return scanGenderCounts(s.db.Query(
		`SELECT v.gender, COUNT(*) as count
		FROM voters v JOIN sections sec ON v.section_id = sec.id
		WHERE sec.document_id = ?
		GROUP BY v.gender`, documentID))
}

// AgeDistributionBySection returns the age-bucket distribution for one
// section. Voters with no parseable age are excluded.
func (s *VoterStore) AgeDistributionBySection(sectionID int64) ([]AgeBucket, error) {
	return scanAgeBuckets(s.db.Query(
		"SELECT "+ageBucketExpr+" as age_group, COUNT(*) as count FROM voters WHERE section_id = ? AND age IS NOT NULL GROUP BY age_group ORDER BY age_group", sectionID))
}

// AgeDistributionByDocument returns the age-bucket distribution across a
// whole document.
func (s *VoterStore) AgeDistributionByDocument(documentID int64) ([]AgeBucket, error) {
	return scanAgeBuckets(s.db.Query(
		`SELECT `+ageBucketExpr+` as age_group, COUNT(*) as count
		FROM voters v JOIN sections sec ON v.section_id = sec.id
		WHERE sec.document_id = ? AND v.age IS NOT NULL
		GROUP BY age_group ORDER BY age_group`, documentID))
}

func scanGenderCounts(rows *sql.Rows, err error) ([]GenderCount, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var counts []GenderCount
	for rows.Next() {
		var gc GenderCount
		if err := rows.Scan(&gc.Gender, &gc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, gc)
	}
	return counts, rows.Err()
}

func scanAgeBuckets(rows *sql.Rows, err error) ([]AgeBucket, error) {
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var buckets []AgeBucket
	for rows.Next() {
		var b AgeBucket
		if err := rows.Scan(&b.AgeGroup, &b.Count); err != nil {
			return nil, err
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}
