// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package extract interprets raw model responses: it parses the JSON /
// JSON-Lines payloads the extraction model returns for each page role and
// normalizes the resulting records. The model is unreliable by contract,
// so everything in here is tolerant: a bad line or a bad field never
// invalidates its siblings.
package extract

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
)

// Number is an integer field the model may emit as a JSON number, a
// quoted number, or garbage. Valid is false when no integer could be
// recovered.
type Number struct {
	Value int64
	Valid bool
}

// UnmarshalJSON accepts 47, "47", "47 years", null and anything else;
// only the first two mark the number valid.
func (n *Number) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" || s == `""` {
		return nil
	}
	s = strings.Trim(s, `"`)
	// Tolerate trailing junk like "47." or "47 years"
	for i, r := range s {
		if r < '0' || r > '9' {
			s = s[:i]
			break
		}
	}
	v, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return nil
	}
	n.Value = v
	n.Valid = true
	return nil
}

// Int returns a nullable database value for the number.
func (n Number) Int() interface{} {
	if !n.Valid {
		return nil
	}
	return n.Value
}

// VoterRecord is one voter box as reported by the model. PageNo and
// BoxNoOnPage are overwritten during post-processing; the model's
// self-reported values are untrusted.
type VoterRecord struct {
	Type            string `json:"type"`
	SlNo            Number `json:"SL_NO"`
	VoterName       string `json:"VOTER_NAME"`
	RelativeName    string `json:"RELATIVE_NAME"`
	RlnType         string `json:"RLN_TYPE"`
	HouseNo         string `json:"HOUSE_NO"`
	Age             Number `json:"AGE"`
	Gender          string `json:"GENDER"`
	IDCardNo        string `json:"IDCARD_NO"`
	AllText         string `json:"ALL_TXT"`
	BoxNoOnPage     int    `json:"BOX_NO_ON_PAGE"`
	StatusType      string `json:"STATUSTYPE"`
	PageSectionName string `json:"PAGE_SECTION_NAME"`
	PageNo          int    `json:"PAGE_NO"`
}

// Header holds the parsed header-metadata page. The model returns a flat
// object with a variable-length set of location_N keys, so the fields are
// kept as a string map with typed accessors on top.
type Header struct {
	Fields map[string]string
}

// Locations returns the section names declared by the location_N keys,
// ordered by N. Empty values are dropped.
func (h *Header) Locations() []string {
	type loc struct {
		n    int
		name string
	}
	var locs []loc
	for key, value := range h.Fields {
		if !strings.HasPrefix(key, "location_") {
			continue
		}
		name := strings.TrimSpace(value)
		if name == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(key, "location_"))
		if err != nil {
			continue
		}
		locs = append(locs, loc{n: n, name: name})
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i].n < locs[j].n })

	names := make([]string, 0, len(locs))
	for _, l := range locs {
		names = append(names, l.name)
	}
	return names
}

// AssemblyConstituency returns the constituency label from the header.
func (h *Header) AssemblyConstituency() string {
	return h.Fields["assembly_constituency_number_name_estimated"]
}

// PartNumber returns the part number from the top right of the header.
func (h *Header) PartNumber() string {
	return h.Fields["part_number_top_right"]
}

// publicationDateLayouts are the locale date formats seen on these rolls.
var publicationDateLayouts = []string{
	"02-01-2006",
	"02/01/2006",
	"2006-01-02",
	"02.01.2006",
}

// PublicationDateISO normalizes the header's publication date to
// YYYY-MM-DD. Returns an empty string when the date is absent or in no
// recognized format.
func (h *Header) PublicationDateISO() string {
	raw := strings.TrimSpace(h.Fields["publication_date"])
	if raw == "" {
		return ""
	}
	for _, layout := range publicationDateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.Format("2006-01-02")
		}
	}
	return ""
}

// SummaryRow is one row of the footer's voter-count breakdown table.
type SummaryRow struct {
	DescriptionType  string `json:"description_type"`
	MaleCount        Number `json:"male_count"`
	FemaleCount      Number `json:"female_count"`
	OtherGenderCount Number `json:"other_gender_count"`
	TotalCount       Number `json:"total_count"`
}

// Footer holds the parsed footer-summary page.
type Footer struct {
	AssemblyConstituencyNumberName string `json:"assembly_constituency_number_name"`
	PartNumber                     string `json:"part_number"`
	SummaryVoters                  struct {
		Rows []SummaryRow `json:"rows"`
	} `json:"summary_voters"`
}

// TotalVoters returns the total count of the last summary row, which is
// the grand total on these rolls. Nil when the footer carries no rows.
func (f *Footer) TotalVoters() interface{} {
	if f == nil || len(f.SummaryVoters.Rows) == 0 {
		return nil
	}
	return f.SummaryVoters.Rows[len(f.SummaryVoters.Rows)-1].TotalCount.Int()
}

// stringify renders a decoded JSON value as the flat string the header
// field map stores.
func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprintf("%v", t)
		}
		return string(b)
	}
}
