// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

package server

import (
	"archive/zip"
	"database/sql"
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/voterscan/internal/database"
)

// HandleDownloadCSV streams a zip archive with one CSV per table.
func HandleDownloadCSV(w http.ResponseWriter, r *http.Request, db *sql.DB) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	filename := fmt.Sprintf("voterscan_export_%s.zip", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	zw := zip.NewWriter(w)
	defer zw.Close()

	for _, table := range database.ExportTables {
		columns, records, err := database.DumpTable(db, table)
		if err != nil {
			log.Printf("HandleDownloadCSV: dump of %s failed: %v", table, err)
			return
		}

		entry, err := zw.Create(table + ".csv")
		if err != nil {
			log.Printf("HandleDownloadCSV: zip entry for %s failed: %v", table, err)
			return
		}

		cw := csv.NewWriter(entry)
		if err := cw.Write(columns); err != nil {
			log.Printf("HandleDownloadCSV: header write for %s failed: %v", table, err)
			return
		}
		if err := cw.WriteAll(records); err != nil {
			log.Printf("HandleDownloadCSV: rows write for %s failed: %v", table, err)
			return
		}
		cw.Flush()
	}
}

// HandleDownloadXLSX builds a workbook with one sheet per table.
func HandleDownloadXLSX(w http.ResponseWriter, r *http.Request, db *sql.DB) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	f := excelize.NewFile()
	defer f.Close()

	for i, table := range database.ExportTables {
		columns, records, err := database.DumpTable(db, table)
		if err != nil {
			log.Printf("HandleDownloadXLSX: dump of %s failed: %v", table, err)
			http.Error(w, "Export failed", http.StatusInternalServerError)
			return
		}

		if i == 0 {
			if err := f.SetSheetName("Sheet1", table); err != nil {
				log.Printf("HandleDownloadXLSX: rename sheet failed: %v", err)
				http.Error(w, "Export failed", http.StatusInternalServerError)
				return
			}
		} else {
			if _, err := f.NewSheet(table); err != nil {
				log.Printf("HandleDownloadXLSX: new sheet %s failed: %v", table, err)
				http.Error(w, "Export failed", http.StatusInternalServerError)
				return
			}
		}

		header := make([]interface{}, len(columns))
		for c, name := range columns {
			header[c] = name
		}
		if err := f.SetSheetRow(table, "A1", &header); err != nil {
			log.Printf("HandleDownloadXLSX: header row for %s failed: %v", table, err)
			http.Error(w, "Export failed", http.StatusInternalServerError)
			return
		}

		for rowIdx, record := range records {
			row := make([]interface{}, len(record))
			for c, v := range record {
				row[c] = v
			}
			cell := fmt.Sprintf("A%d", rowIdx+2)
			if err := f.SetSheetRow(table, cell, &row); err != nil {
				log.Printf("HandleDownloadXLSX: row write for %s failed: %v", table, err)
				http.Error(w, "Export failed", http.StatusInternalServerError)
				return
			}
		}
	}

	filename := fmt.Sprintf("voterscan_export_%s.xlsx", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)

	if err := f.Write(w); err != nil {
		log.Printf("HandleDownloadXLSX: write failed: %v", err)
	}
}
