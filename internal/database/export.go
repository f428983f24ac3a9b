// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"database/sql"
	"fmt"
)

// ExportTables lists the tables included in a full export, in dump order.
var ExportTables = []string{"documents", "sections", "voters", "summary_stats"}

// DumpTable reads an entire table for export and returns its column
// names and stringified rows. Only the four known tables are accepted;
// the table name is never interpolated from user input.
func DumpTable(db *sql.DB, table string) (columns []string, records [][]string, err error) {
	known := false
	for _, t := range ExportTables {
		if t == table {
			known = true
			break
		}
	}
	if !known {
		return nil, nil, fmt.Errorf("unknown export table: %s", table)
	}

	rows, err := db.Query("SELECT * FROM " + table)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read table %s: %w", table, err)
	}
	defer rows.Close()

	columns, err = rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	for rows.Next() {
		values := make([]sql.NullString, len(columns))
		scanArgs := make([]interface{}, len(columns))
		for i := range values {
			scanArgs[i] = &values[i]
		}
		if err := rows.Scan(scanArgs...); err != nil {
			return nil, nil, err
		}
		record := make([]string, len(columns))
		for i, v := range values {
			if v.Valid {
				record[i] = v.String
			}
		}
		records = append(records, record)
	}
	return columns, records, rows.Err()
}
