// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package pipeline

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/voterscan/internal/database"
	"github.com/voterscan/internal/jobs"
)

// testPagePNG is a small real PNG so voter pages survive the half split.
func testPagePNG(t *testing.T) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("failed to encode test page: %v", err)
	}
	return buf.Bytes()
}

// fakeSource serves canned page images.
type fakeSource struct {
	pages [][]byte
}

func (s *fakeSource) NumPages() int                { return len(s.pages) }
func (s *fakeSource) PagePNG(i int) ([]byte, error) { return s.pages[i], nil }
func (s *fakeSource) Close() error                 { return nil }

// fakeClient returns canned responses keyed by page identifier and
// records which identifiers were requested.
type fakeClient struct {
	mu        sync.Mutex
	responses map[string]string
	requested []string
}

func (c *fakeClient) Extract(ctx context.Context, imagePNG []byte, instruction, pageID string) (string, bool) {
	c.mu.Lock()
	c.requested = append(c.requested, pageID)
	text, ok := c.responses[pageID]
	c.mu.Unlock()
	return text, ok && text != ""
}

func (c *fakeClient) sawRequest(pageID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, id := range c.requested {
		if id == pageID {
			return true
		}
	}
	return false
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := database.InitSchema(db); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}
	return db
}

func newTestProcessor(client ExtractClient, source PageSource) *Processor {
	p := NewProcessor(client, 72, 0)
	p.open = func(path string) (PageSource, error) { return source, nil }
	return p
}

const headerResponse = `{
	"type": "header_metadata",
	"assembly_constituency_number_name_estimated": "160-Surat North",
	"part_number_top_right": "86",
	"publication_date": "10-04-2025",
	"location_1": "Ward A",
	"location_2": "Ward B"
}`

const footerResponse = "```json\n" + `{
	"type": "footer_summary",
	"part_number": "86",
	"summary_voters": {"rows": [
		{"description_type": "grand total", "male_count": "1", "female_count": "1", "other_gender_count": "0", "total_count": "2"}
	]}
}` + "\n```"

// Voter responses claim a wrong PAGE_NO on purpose: post-processing must
// overwrite it with the dispatch-assigned index.
const voterTopResponse = `{"type": "voter", "SL_NO": 1, "VOTER_NAME": "Voter One", "GENDER": "પુરૂષ", "IDCARD_NO": "SRV0000001", "PAGE_SECTION_NAME": "Word A", "PAGE_NO": 99, "BOX_NO_ON_PAGE": 9}
{"type": "voter", "SL_NO": 2, "VOTER_NAME": "Voter Two", "GENDER": "સ્ત્રી", "PAGE_SECTION_NAME": "Word A", "PAGE_NO": 99}`

const voterBottomResponse = `{"type": "voter", "SL_NO": 3, "VOTER_NAME": "Voter Three", "GENDER": "સ્ત્રી", "IDCARD_NO": "SRV0000003", "PAGE_SECTION_NAME": "Word A", "PAGE_NO": 99}`

func fourPageClient() *fakeClient {
	return &fakeClient{responses: map[string]string{
		"1":        headerResponse,
		"3-Top":    voterTopResponse,
		"3-Bottom": voterBottomResponse,
		"4":        footerResponse,
	}}
}

func TestProcessDocument_EndToEnd(t *testing.T) {
	db := openTestDB(t)
	pagePNG := testPagePNG(t)
	source := &fakeSource{pages: [][]byte{pagePNG, pagePNG, pagePNG, pagePNG}}
	client := fourPageClient()
	p := newTestProcessor(client, source)

	var statuses []jobs.Status
	report := func(status jobs.Status, message string) { statuses = append(statuses, status) }

	if err := p.ProcessDocument(context.Background(), "/tmp/roll-86.pdf", db, report); err != nil {
		t.Fatalf("ProcessDocument failed: %v", err)
	}

	// Page index 1 must never reach the model.
	if client.sawRequest("2") || client.sawRequest("2-Top") {
		t.Errorf("Page index 1 should be skipped without a model call")
	}

	var docCount, sectionCount, voterCount, statCount int
	db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&docCount)
	db.QueryRow("SELECT COUNT(*) FROM sections").Scan(&sectionCount)
	db.QueryRow("SELECT COUNT(*) FROM voters").Scan(&voterCount)
	db.QueryRow("SELECT COUNT(*) FROM summary_stats").Scan(&statCount)

	if docCount != 1 {
		t.Errorf("Expected 1 document, got %d", docCount)
	}
	if sectionCount != 2 {
		t.Errorf("Expected 2 sections, got %d", sectionCount)
	}
	// Three voter objects parsed, one lacks an identity-card number.
	if voterCount != 2 {
		t.Errorf("Expected 2 voters (record without id dropped), got %d", voterCount)
	}
	if statCount != 1 {
		t.Errorf("Expected 1 summary row, got %d", statCount)
	}

	// Document metadata normalized from the header/footer.
	var pubDate string
	var totalVoters int
	if err := db.QueryRow("SELECT publication_date, total_voters_count FROM documents").Scan(&pubDate, &totalVoters); err != nil {
		t.Fatalf("document query failed: %v", err)
	}
	if pubDate != "2025-04-10" {
		t.Errorf("Expected ISO publication date 2025-04-10, got %q", pubDate)
	}
	if totalVoters != 2 {
		t.Errorf("Expected total voters 2 from last footer row, got %d", totalVoters)
	}

	// Voters carry the dispatch-assigned page number and recomputed box
	// positions, land in the fuzzy-matched section ("Word A" -> "Ward A"),
	// and have canonical gender tokens.
	rows, err := db.Query(`SELECT v.page_no, v.box_no_on_page, v.gender, s.section_name
		FROM voters v JOIN sections s ON v.section_id = s.id ORDER BY v.box_no_on_page`)
	if err != nil {
		t.Fatalf("voter query failed: %v", err)
	}
	defer rows.Close()

	var boxes []int
	for rows.Next() {
		var pageNo, boxNo int
		var gender, sectionName string
		if err := rows.Scan(&pageNo, &boxNo, &gender, &sectionName); err != nil {
			t.Fatalf("scan failed: %v", err)
		}
		if pageNo != 3 {
			t.Errorf("Expected page_no 3 (dispatch-assigned), got %d", pageNo)
		}
		if sectionName != "Ward A" {
			t.Errorf("Expected section Ward A, got %q", sectionName)
		}
		if gender != "પુરુષ" && gender != "સ્ત્રી" {
			t.Errorf("Expected canonical gender token, got %q", gender)
		}
		boxes = append(boxes, boxNo)
	}
	// Box positions follow parse order: record 1 and record 3 (record 2
	// was dropped for its missing id after renumbering to box 2).
	if len(boxes) != 2 || boxes[0] != 1 || boxes[1] != 3 {
		t.Errorf("Unexpected box positions: %v", boxes)
	}

	for _, s := range statuses {
		if s != jobs.StatusProcessing {
			t.Errorf("Unexpected status %s during successful run", s)
		}
	}
}

func TestProcessDocument_ReprocessSkips(t *testing.T) {
	db := openTestDB(t)
	pagePNG := testPagePNG(t)
	source := &fakeSource{pages: [][]byte{pagePNG, pagePNG, pagePNG, pagePNG}}
	report := func(jobs.Status, string) {}

	p := newTestProcessor(fourPageClient(), source)
	if err := p.ProcessDocument(context.Background(), "/tmp/roll-86.pdf", db, report); err != nil {
		t.Fatalf("first run failed: %v", err)
	}

	p2 := newTestProcessor(fourPageClient(), source)
	var messages []string
	if err := p2.ProcessDocument(context.Background(), "/tmp/roll-86.pdf", db, func(_ jobs.Status, msg string) {
		messages = append(messages, msg)
	}); err != nil {
		t.Fatalf("second run errored, expected skip: %v", err)
	}

	var docCount, sectionCount int
	db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&docCount)
	db.QueryRow("SELECT COUNT(*) FROM sections").Scan(&sectionCount)
	if docCount != 1 {
		t.Errorf("Expected exactly 1 document after re-run, got %d", docCount)
	}
	if sectionCount != 2 {
		t.Errorf("Re-run must not duplicate sections, got %d", sectionCount)
	}

	skipped := false
	for _, msg := range messages {
		if strings.Contains(msg, "Skipped") {
			skipped = true
		}
	}
	if !skipped {
		t.Errorf("Expected a skip message on re-run, got %v", messages)
	}
}

func TestProcessDocument_MissingHeaderFatal(t *testing.T) {
	db := openTestDB(t)
	pagePNG := testPagePNG(t)
	source := &fakeSource{pages: [][]byte{pagePNG, pagePNG, pagePNG, pagePNG}}
	client := fourPageClient()
	client.responses["1"] = "" // header extraction fails every attempt

	p := newTestProcessor(client, source)
	err := p.ProcessDocument(context.Background(), "/tmp/roll-86.pdf", db, func(jobs.Status, string) {})
	if err == nil {
		t.Fatalf("Expected error for missing header")
	}

	// Nothing may be committed for the document.
	var docCount int
	db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&docCount)
	if docCount != 0 {
		t.Errorf("Expected no documents committed, got %d", docCount)
	}
}

func TestProcessDocument_NoSectionsDiscardsVoters(t *testing.T) {
	db := openTestDB(t)
	pagePNG := testPagePNG(t)
	source := &fakeSource{pages: [][]byte{pagePNG, pagePNG, pagePNG, pagePNG}}
	client := fourPageClient()
	client.responses["1"] = `{"type": "header_metadata", "part_number_top_right": "86"}` // no location_N fields

	p := newTestProcessor(client, source)
	if err := p.ProcessDocument(context.Background(), "/tmp/roll-86.pdf", db, func(jobs.Status, string) {}); err != nil {
		t.Fatalf("ProcessDocument failed: %v", err)
	}

	var docCount, voterCount int
	db.QueryRow("SELECT COUNT(*) FROM documents").Scan(&docCount)
	db.QueryRow("SELECT COUNT(*) FROM voters").Scan(&voterCount)
	if docCount != 1 {
		t.Errorf("Expected document row despite empty section set, got %d", docCount)
	}
	if voterCount != 0 {
		t.Errorf("Expected zero voters with no sections, got %d", voterCount)
	}
}

func TestProcessDocument_FailedChunkIsolated(t *testing.T) {
	db := openTestDB(t)
	pagePNG := testPagePNG(t)
	source := &fakeSource{pages: [][]byte{pagePNG, pagePNG, pagePNG, pagePNG}}
	client := fourPageClient()
	delete(client.responses, "3-Bottom") // bottom half exhausts retries

	p := newTestProcessor(client, source)
	if err := p.ProcessDocument(context.Background(), "/tmp/roll-86.pdf", db, func(jobs.Status, string) {}); err != nil {
		t.Fatalf("ProcessDocument failed: %v", err)
	}

	// The top half's single complete record still lands.
	var voterCount int
	db.QueryRow("SELECT COUNT(*) FROM voters").Scan(&voterCount)
	if voterCount != 1 {
		t.Errorf("Expected 1 voter from surviving half, got %d", voterCount)
	}
}

func TestProcessDocument_OpenFailure(t *testing.T) {
	db := openTestDB(t)
	p := NewProcessor(&fakeClient{}, 72, 0)
	err := p.ProcessDocument(context.Background(), "/nonexistent/file.pdf", db, func(jobs.Status, string) {})
	if err == nil {
		t.Fatalf("Expected error opening nonexistent PDF")
	}
}
