// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package pipeline orchestrates extraction of one PDF document: page
// classification, concurrent model extraction, response parsing,
// post-processing, section reconciliation, and persistence.
package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/voterscan/internal/classify"
	"github.com/voterscan/internal/database"
	"github.com/voterscan/internal/extract"
	"github.com/voterscan/internal/jobs"
	"github.com/voterscan/internal/prompt"
	"github.com/voterscan/internal/rasterize"
	"github.com/voterscan/internal/reconcile"
)

// StatusFunc receives coarse job-milestone updates. Purely
// observational; no return value is consumed.
type StatusFunc func(status jobs.Status, message string)

// ExtractClient is the seam over the model extraction client.
type ExtractClient interface {
	Extract(ctx context.Context, imagePNG []byte, instruction, pageID string) (string, bool)
}

// PageSource yields rasterized pages of one document.
type PageSource interface {
	NumPages() int
	PagePNG(i int) ([]byte, error)
	Close() error
}

// Opener opens a PDF as a PageSource.
type Opener func(path string) (PageSource, error)

// fitzOpener is the production Opener, backed by MuPDF.
func fitzOpener(dpi float64) Opener {
	return func(path string) (PageSource, error) {
		return rasterize.OpenDPI(path, dpi)
	}
}

// Processor runs the extraction pipeline for documents. One Processor is
// shared by all worker jobs; its extract client carries the process-wide
// admission limiter.
type Processor struct {
	client         ExtractClient
	open           Opener
	matchThreshold int
}

// NewProcessor creates a Processor rasterizing at the given dpi.
// matchThreshold is the minimum fuzzy score for section reconciliation;
// 0 always accepts the best available match.
func NewProcessor(client ExtractClient, dpi float64, matchThreshold int) *Processor {
	return &Processor{
		client:         client,
		open:           fitzOpener(dpi),
		matchThreshold: matchThreshold,
	}
}

// pageResult is the raw response text of one page, gathered positionally
// so the dispatch-assigned page index survives any completion order.
type pageResult struct {
	text string
	ok   bool
}

// ProcessDocument runs the full pipeline for one PDF against the given
// database connection. The connection belongs to the calling job and is
// not shared across jobs. Failures below document granularity (a page, a
// line, a row) are logged and recovered; only a missing header or a
// persistence fault at the document level returns an error.
func (p *Processor) ProcessDocument(ctx context.Context, pdfPath string, db *sql.DB, report StatusFunc) error {
	fileName := filepath.Base(pdfPath)
	log.Printf("ProcessDocument: starting %s", fileName)
	report(jobs.StatusProcessing, fmt.Sprintf("Opening %s...", fileName))

	doc, err := p.open(pdfPath)
	if err != nil {
		return fmt.Errorf("could not open PDF %s: %w", fileName, err)
	}
	defer doc.Close()

	numPages := doc.NumPages()
	roles := classify.Roles(numPages)
	report(jobs.StatusProcessing, fmt.Sprintf("Extracting data from %d pages...", numPages))

	results := p.extractPages(ctx, doc, roles)

	header, footer, voterPages := p.parsePages(results, roles)
	if header == nil {
		return fmt.Errorf("missing header data for %s", fileName)
	}

	report(jobs.StatusProcessing, fmt.Sprintf("Saving extracted data for %s...", fileName))
	skipped, err := p.persist(db, fileName, header, footer, voterPages)
	if err != nil {
		return err
	}
	if skipped {
		report(jobs.StatusProcessing, fmt.Sprintf("%s already exists in database. Skipped.", fileName))
		logEvent(db, database.EventSkipped, fileName, "file name already present")
		return nil
	}

	log.Printf("ProcessDocument: finished %s", fileName)
	logEvent(db, database.EventProcessed, fileName, fmt.Sprintf("%d pages", numPages))
	return nil
}

// logEvent appends to the extraction history, best-effort.
func logEvent(db *sql.DB, eventType, fileName, details string) {
	events, err := database.NewEventStore(db)
	if err != nil {
		log.Printf("logEvent: event store unavailable: %v", err)
		return
	}
	if err := events.Log(eventType, fileName, details); err != nil {
		log.Printf("logEvent: failed to record %s for %s: %v", eventType, fileName, err)
	}
}

// extractPages fans out one model call (or one pair of chunk calls) per
// page and gathers the raw responses by page index. Rasterization is
// sequential: MuPDF handles are not safe for concurrent use, and the
// model calls dominate wall time anyway.
func (p *Processor) extractPages(ctx context.Context, doc PageSource, roles []classify.Role) []pageResult {
	numPages := len(roles)
	results := make([]pageResult, numPages)
	var wg sync.WaitGroup

	for i := 0; i < numPages; i++ {
		if classify.Skipped(i, numPages) {
			// Completed no-op: the positional slot stays empty without
			// consuming a model call.
			continue
		}

		pagePNG, err := doc.PagePNG(i)
		if err != nil {
			log.Printf("extractPages: failed to rasterize page %d: %v", i+1, err)
			continue
		}

		wg.Add(1)
		if roles[i] == classify.RoleVoterPage {
			go func(i int, png []byte) {
				defer wg.Done()
				text, ok := p.extractVoterPageChunks(ctx, png, i)
				results[i] = pageResult{text: text, ok: ok}
			}(i, pagePNG)
		} else {
			go func(i int, png []byte, role classify.Role) {
				defer wg.Done()
				text, ok := p.client.Extract(ctx, png, prompt.ForRole(role), fmt.Sprintf("%d", i+1))
				results[i] = pageResult{text: text, ok: ok}
			}(i, pagePNG, roles[i])
		}
	}

	wg.Wait()
	return results
}

// extractVoterPageChunks splits a voter page at the vertical midpoint
// and extracts both halves in parallel. Either half may fail on its own;
// the survivors are concatenated into one line-delimited text. The page
// as a whole fails only when both halves do.
func (p *Processor) extractVoterPageChunks(ctx context.Context, pagePNG []byte, pageIndex int) (string, bool) {
	log.Printf("extractVoterPageChunks: splitting voter page %d for chunked processing", pageIndex+1)

	top, bottom, err := rasterize.SplitHalves(pagePNG)
	if err != nil {
		// Fall back to extracting the unsplit page.
		log.Printf("extractVoterPageChunks: split failed for page %d, extracting whole page: %v", pageIndex+1, err)
		return p.client.Extract(ctx, pagePNG, prompt.VoterListPage, fmt.Sprintf("%d", pageIndex+1))
	}

	type chunk struct {
		text string
		ok   bool
	}
	chunks := make([]chunk, 2)
	var wg sync.WaitGroup
	for c, png := range [][]byte{top, bottom} {
		wg.Add(1)
		label := "Top"
		if c == 1 {
			label = "Bottom"
		}
		go func(c int, png []byte, label string) {
			defer wg.Done()
			text, ok := p.client.Extract(ctx, png, prompt.VoterListPage, fmt.Sprintf("%d-%s", pageIndex+1, label))
			chunks[c] = chunk{text: text, ok: ok}
		}(c, png, label)
	}
	wg.Wait()

	var combined strings.Builder
	any := false
	for c, res := range chunks {
		if !res.ok || res.text == "" {
			log.Printf("extractVoterPageChunks: no valid result for page %d, part %d", pageIndex+1, c+1)
			continue
		}
		combined.WriteString(extract.StripFences(res.text))
		combined.WriteString("\n")
		any = true
	}
	return strings.TrimSpace(combined.String()), any
}

// voterPage is one voter page's finalized records plus its dispatch
// page index.
type voterPage struct {
	pageNo  int
	records []extract.VoterRecord
}

// parsePages converts the raw per-page responses into structured data.
// Parse failures discard the page (object mode) or the line (line mode),
// never the document.
func (p *Processor) parsePages(results []pageResult, roles []classify.Role) (*extract.Header, *extract.Footer, []voterPage) {
	var header *extract.Header
	var footer *extract.Footer
	var voterPages []voterPage

	for i, res := range results {
		if !res.ok || res.text == "" {
			if !classify.Skipped(i, len(roles)) {
				log.Printf("parsePages: no result for page %d", i+1)
			}
			continue
		}
		pageID := fmt.Sprintf("%d", i+1)
		switch roles[i] {
		case classify.RoleHeader:
			if h, ok := extract.ParseHeader(res.text, pageID); ok {
				header = h
			}
		case classify.RoleFooter:
			if f, ok := extract.ParseFooter(res.text, pageID); ok {
				footer = f
			}
		default:
			records := extract.ParseVoterLines(res.text, pageID)
			extract.FinalizePage(records, i+1)
			log.Printf("parsePages: page %d: parsed %d voter records", i+1, len(records))
			if len(records) > 0 {
				voterPages = append(voterPages, voterPage{pageNo: i + 1, records: records})
			}
		}
	}
	return header, footer, voterPages
}

// persist writes one document's data. Returns skipped=true when the file
// name was already present (a documented no-op, not an error).
func (p *Processor) persist(db *sql.DB, fileName string, header *extract.Header, footer *extract.Footer, voterPages []voterPage) (skipped bool, err error) {
	docStore := database.NewDocumentStore(db)
	secStore := database.NewSectionStore(db)
	voterStore := database.NewVoterStore(db)

	doc := database.Document{
		FileName:             fileName,
		AssemblyConstituency: header.AssemblyConstituency(),
		PartNumber:           header.PartNumber(),
		PublicationDate:      header.PublicationDateISO(),
	}
	var stats []database.SummaryStat
	if footer != nil {
		doc.TotalVotersCount = footer.TotalVoters()
		for _, row := range footer.SummaryVoters.Rows {
			stats = append(stats, database.SummaryStat{
				Description:      row.DescriptionType,
				MaleCount:        row.MaleCount.Int(),
				FemaleCount:      row.FemaleCount.Int(),
				OtherGenderCount: row.OtherGenderCount.Int(),
				TotalCount:       row.TotalCount.Int(),
			})
		}
	}

	docID, existed, err := docStore.Insert(doc, stats)
	if err != nil {
		return false, fmt.Errorf("failed to insert document: %w", err)
	}
	if existed {
		return true, nil
	}

	sections, err := secStore.InsertAll(docID, header.Locations())
	if err != nil {
		return false, fmt.Errorf("failed to insert sections: %w", err)
	}

	p.persistVoters(voterStore, sections, voterPages)
	return false, nil
}

// persistVoters reconciles and writes the voter pages. Everything in
// here is best-effort per row: an unmatched page or a bad row is logged
// and skipped, the rest of the batch proceeds.
func (p *Processor) persistVoters(voterStore *database.VoterStore, sections []reconcile.Section, voterPages []voterPage) {
	inserted := 0
	for _, page := range voterPages {
		sectionName := pageSectionName(page.records)
		if sectionName == "" {
			log.Printf("persistVoters: SKIPPING page %d: no section name reported, discarding %d records", page.pageNo, len(page.records))
			continue
		}

		section, ok := reconcile.Match(sectionName, sections, p.matchThreshold)
		if !ok {
			log.Printf("persistVoters: SKIPPING page %d: no matching section for %q, discarding %d records", page.pageNo, sectionName, len(page.records))
			continue
		}

		for _, rec := range page.records {
			if rec.IDCardNo == "" {
				log.Printf("persistVoters: SKIPPING record on page %d: missing identity-card number (name %q)", page.pageNo, rec.VoterName)
				continue
			}
			ok, err := voterStore.Insert(section.ID, rec)
			if err != nil {
				log.Printf("persistVoters: row insert failed on page %d: %v", page.pageNo, err)
				continue
			}
			if !ok {
				log.Printf("persistVoters: DUPLICATE IGNORED on page %d: id %q", page.pageNo, rec.IDCardNo)
				continue
			}
			inserted++
		}
	}
	log.Printf("persistVoters: committed %d new voter records", inserted)
}

// pageSectionName returns the first non-empty section name the page's
// records report. With chunked extraction the first half can come back
// without one while the second half carries it, so the whole page is
// scanned rather than trusting only the first record.
func pageSectionName(records []extract.VoterRecord) string {
	for _, rec := range records {
		if name := strings.TrimSpace(rec.PageSectionName); name != "" {
			return name
		}
	}
	return ""
}
