// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package database

import (
	"testing"
)

func TestEventStore(t *testing.T) {
	db := openTestDB(t)

	events, err := NewEventStore(db)
	if err != nil {
		t.Fatalf("NewEventStore failed: %v", err)
	}

	if err := events.Log(EventProcessed, "part1.pdf", "3 pages"); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if err := events.Log(EventFailed, "part2.pdf", "missing header data"); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if err := events.Log(EventSkipped, "part1.pdf", "file name already present"); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	recent, err := events.Recent(10)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(recent) != 3 {
		t.Fatalf("expected 3 events, got %d", len(recent))
	}
	if recent[0].EventType != EventSkipped {
		t.Errorf("expected newest event first, got %s", recent[0].EventType)
	}

	byFile, err := events.ByFile("part1.pdf")
	if err != nil {
		t.Fatalf("ByFile failed: %v", err)
	}
	if len(byFile) != 2 {
		t.Errorf("expected 2 events for part1.pdf, got %d", len(byFile))
	}

	limited, err := events.Recent(1)
	if err != nil {
		t.Fatalf("Recent failed: %v", err)
	}
	if len(limited) != 1 {
		t.Errorf("expected limit to apply, got %d events", len(limited))
	}
}
