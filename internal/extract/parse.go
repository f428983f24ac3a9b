// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package extract

import (
	"encoding/json"
	"log"
	"strings"
)

// StripFences removes a surrounding markdown code fence from a model
// response. The model is told not to emit one, but it often does anyway.
func StripFences(text string) string {
	s := strings.TrimSpace(text)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// objectSpan returns the span from the first '{' to the last '}' in s,
// which is where the single JSON object of a header/footer response
// lives regardless of surrounding prose.
func objectSpan(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start == -1 || end == -1 || end < start {
		return "", false
	}
	return s[start : end+1], true
}

// ParseHeader parses a header-metadata response into a Header. Returns
// ok=false when no JSON object can be recovered; the caller must treat
// the page as missing, not abort the document.
func ParseHeader(text string, pageID string) (*Header, bool) {
	raw, ok := parseObject(text, pageID)
	if !ok {
		return nil, false
	}
	fields := make(map[string]string, len(raw))
	for key, value := range raw {
		fields[key] = stringify(value)
	}
	return &Header{Fields: fields}, true
}

// ParseFooter parses a footer-summary response into a Footer. Returns
// ok=false when no JSON object can be recovered.
func ParseFooter(text string, pageID string) (*Footer, bool) {
	raw, ok := parseObject(text, pageID)
	if !ok {
		return nil, false
	}
	// Re-marshal the recovered object into the typed footer so Number
	// fields get their tolerant decoding.
	data, err := json.Marshal(raw)
	if err != nil {
		log.Printf("ParseFooter: page %s: failed to remarshal object: %v", pageID, err)
		return nil, false
	}
	var footer Footer
	if err := json.Unmarshal(data, &footer); err != nil {
		log.Printf("ParseFooter: page %s: failed to decode footer: %v", pageID, err)
		return nil, false
	}
	return &footer, true
}

func parseObject(text string, pageID string) (map[string]interface{}, bool) {
	if strings.TrimSpace(text) == "" {
		log.Printf("parseObject: page %s: cannot parse empty response", pageID)
		return nil, false
	}
	span, found := objectSpan(StripFences(text))
	if !found {
		log.Printf("parseObject: page %s: no JSON object found in response", pageID)
		return nil, false
	}
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(span), &raw); err != nil {
		log.Printf("parseObject: page %s: JSON decode error: %v", pageID, err)
		return nil, false
	}
	return raw, true
}

// ParseVoterLines parses a line-delimited voter list response. Each
// non-blank line is decoded independently; a corrupt line is logged and
// skipped without invalidating its siblings. The returned slice preserves
// line order and may be empty.
func ParseVoterLines(text string, pageID string) []VoterRecord {
	var records []VoterRecord
	for i, line := range strings.Split(strings.TrimSpace(text), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == "```" || line == "```json" {
			continue
		}
		var rec VoterRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			log.Printf("ParseVoterLines: page %s, line %d: could not parse JSONL: %v, raw line: %q", pageID, i+1, err, line)
			continue
		}
		records = append(records, rec)
	}
	return records
}
