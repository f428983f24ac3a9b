// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"testing"

	"github.com/voterscan/internal/extract"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := InitSchema(db); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return db
}

func TestDocumentInsert_SkipOnDuplicateFileName(t *testing.T) {
	db := openTestDB(t)
	store := NewDocumentStore(db)

	doc := Document{FileName: "roll-86.pdf", AssemblyConstituency: "160-Surat North", PartNumber: "86"}
	stats := []SummaryStat{{Description: "original roll", MaleCount: 584, FemaleCount: 459, OtherGenderCount: 0, TotalCount: 1043}}

	id1, existed, err := store.Insert(doc, stats)
	if err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if existed {
		t.Fatalf("first insert reported existed=true")
	}

	id2, existed, err := store.Insert(doc, stats)
	if err != nil {
		t.Fatalf("second insert failed: %v", err)
	}
	if !existed {
		t.Errorf("second insert of same file name should report existed=true")
	}
	if id2 != id1 {
		t.Errorf("second insert returned id %d, expected existing id %d", id2, id1)
	}

	var docCount, statCount int
	db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&docCount)
	db.QueryRow("SELECT COUNT(*) FROM summary_stats").Scan(&statCount)
	if docCount != 1 {
		t.Errorf("Expected exactly 1 documents row, got %d", docCount)
	}
	// Summary rows are written only for the first run.
	if statCount != 1 {
		t.Errorf("Expected exactly 1 summary_stats row, got %d", statCount)
	}
}

func TestSectionInsertAll_IdempotentAndOrdered(t *testing.T) {
	db := openTestDB(t)
	docStore := NewDocumentStore(db)
	secStore := NewSectionStore(db)

	docID, _, err := docStore.Insert(Document{FileName: "roll.pdf"}, nil)
	if err != nil {
		t.Fatalf("document insert failed: %v", err)
	}

	cache, err := secStore.InsertAll(docID, []string{"Ward A", "Ward B", "Ward A", ""})
	if err != nil {
		t.Fatalf("InsertAll failed: %v", err)
	}
	if len(cache) != 2 {
		t.Fatalf("Expected 2 cached sections, got %d", len(cache))
	}
	if cache[0].Name != "Ward A" || cache[1].Name != "Ward B" {
		t.Errorf("Cache order not preserved: %+v", cache)
	}

	// Re-running the same names must not add rows.
	again, err := secStore.InsertAll(docID, []string{"Ward A", "Ward B"})
	if err != nil {
		t.Fatalf("second InsertAll failed: %v", err)
	}
	if len(again) != 2 || again[0].ID != cache[0].ID || again[1].ID != cache[1].ID {
		t.Errorf("Second InsertAll returned different ids: %+v vs %+v", again, cache)
	}

	var count int
	db.QueryRow("SELECT COUNT(*) FROM sections WHERE document_id = ?", docID).Scan(&count)
	if count != 2 {
		t.Errorf("Expected 2 section rows, got %d", count)
	}
}

func TestVoterInsert_DuplicateIgnored(t *testing.T) {
	db := openTestDB(t)
	docStore := NewDocumentStore(db)
	secStore := NewSectionStore(db)
	voterStore := NewVoterStore(db)

	docID, _, _ := docStore.Insert(Document{FileName: "roll.pdf"}, nil)
	cache, _ := secStore.InsertAll(docID, []string{"Ward A"})
	sectionID := cache[0].ID

	rec := extract.VoterRecord{IDCardNo: "SRV2111425", VoterName: "Voter One", PageNo: 3, BoxNoOnPage: 1}
	inserted, err := voterStore.Insert(sectionID, rec)
	if err != nil {
		t.Fatalf("first insert failed: %v", err)
	}
	if !inserted {
		t.Errorf("first insert should report inserted=true")
	}

	inserted, err = voterStore.Insert(sectionID, rec)
	if err != nil {
		t.Fatalf("duplicate insert errored: %v", err)
	}
	if inserted {
		t.Errorf("duplicate identity-card number should affect zero rows")
	}

	count, err := voterStore.CountBySection(sectionID)
	if err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected exactly 1 voter row, got %d", count)
	}
}

func TestVoterInsert_MissingIDCardRejected(t *testing.T) {
	db := openTestDB(t)
	docStore := NewDocumentStore(db)
	secStore := NewSectionStore(db)
	voterStore := NewVoterStore(db)

	docID, _, _ := docStore.Insert(Document{FileName: "roll.pdf"}, nil)
	cache, _ := secStore.InsertAll(docID, []string{"Ward A"})

	if _, err := voterStore.Insert(cache[0].ID, extract.VoterRecord{VoterName: "No ID"}); err == nil {
		t.Errorf("Expected error for voter without identity-card number")
	}
}

func TestVoterInsert_Defaults(t *testing.T) {
	db := openTestDB(t)
	docStore := NewDocumentStore(db)
	secStore := NewSectionStore(db)
	voterStore := NewVoterStore(db)

	docID, _, _ := docStore.Insert(Document{FileName: "roll.pdf"}, nil)
	cache, _ := secStore.InsertAll(docID, []string{"Ward A"})

	// Missing relation and status codes fall back to O and N.
	if _, err := voterStore.Insert(cache[0].ID, extract.VoterRecord{IDCardNo: "XDA3171667"}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	var rlnType, statusType string
	var age sql.NullInt64
	err := db.QueryRow("SELECT rln_type, statustype, age FROM voters WHERE idc_no = ?", "XDA3171667").
		Scan(&rlnType, &statusType, &age)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if rlnType != "O" {
		t.Errorf("Expected default rln_type O, got %q", rlnType)
	}
	if statusType != "N" {
		t.Errorf("Expected default statustype N, got %q", statusType)
	}
	if age.Valid {
		t.Errorf("Expected NULL age for record without one, got %d", age.Int64)
	}
}

func TestCascadeDelete(t *testing.T) {
	db := openTestDB(t)
	docStore := NewDocumentStore(db)
	secStore := NewSectionStore(db)
	voterStore := NewVoterStore(db)

	docID, _, _ := docStore.Insert(Document{FileName: "roll.pdf"},
		[]SummaryStat{{Description: "total", TotalCount: 2}})
	cache, _ := secStore.InsertAll(docID, []string{"Ward A"})
	voterStore.Insert(cache[0].ID, extract.VoterRecord{IDCardNo: "ID1"})

	if _, err := db.Exec("DELETE FROM documents WHERE id = ?", docID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	for _, table := range []string{"sections", "voters", "summary_stats"} {
		var count int
		db.QueryRow("SELECT COUNT(*) FROM " + table).Scan(&count)
		if count != 0 {
			t.Errorf("Expected cascade delete to empty %s, found %d rows", table, count)
		}
	}
}

func TestAnalyticsQueries(t *testing.T) {
	db := openTestDB(t)
	docStore := NewDocumentStore(db)
	secStore := NewSectionStore(db)
	voterStore := NewVoterStore(db)

	docID, _, _ := docStore.Insert(Document{FileName: "roll.pdf"}, nil)
	cache, _ := secStore.InsertAll(docID, []string{"Ward A"})
	sectionID := cache[0].ID

	voters := []extract.VoterRecord{
		{IDCardNo: "ID1", Gender: extract.GenderMale, Age: extract.Number{Value: 25, Valid: true}},
		{IDCardNo: "ID2", Gender: extract.GenderMale, Age: extract.Number{Value: 45, Valid: true}},
		{IDCardNo: "ID3", Gender: extract.GenderFemale, Age: extract.Number{Value: 64, Valid: true}},
		{IDCardNo: "ID4", Gender: extract.GenderFemale}, // no age: excluded from buckets
	}
	for _, v := range voters {
		if _, err := voterStore.Insert(sectionID, v); err != nil {
			t.Fatalf("insert failed: %v", err)
		}
	}

	genders, err := voterStore.GenderCountsByDocument(docID)
	if err != nil {
		t.Fatalf("gender query failed: %v", err)
	}
	total := 0
	for _, g := range genders {
		total += g.Count
	}
	if total != 4 {
		t.Errorf("Expected 4 voters across gender buckets, got %d", total)
	}

	buckets, err := voterStore.AgeDistributionBySection(sectionID)
	if err != nil {
		t.Fatalf("age query failed: %v", err)
	}
	bucketTotal := 0
	for _, b := range buckets {
		bucketTotal += b.Count
	}
	if bucketTotal != 3 {
		t.Errorf("Expected 3 voters with ages in buckets, got %d", bucketTotal)
	}
}

func TestDumpTable(t *testing.T) {
	db := openTestDB(t)
	docStore := NewDocumentStore(db)
	docStore.Insert(Document{FileName: "roll.pdf", PartNumber: "86"}, nil)

	columns, records, err := DumpTable(db, "documents")
	if err != nil {
		t.Fatalf("DumpTable failed: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
	if len(columns) == 0 {
		t.Errorf("Expected column names")
	}

	if _, _, err := DumpTable(db, "sqlite_master"); err == nil {
		t.Errorf("Expected rejection of unknown table name")
	}
}
