// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package reconcile maps the free-text, OCR-derived section name a voter
// page reports to one of the canonical sections declared in the document
// header, using fuzzy partial-ratio similarity.
package reconcile

import (
	fuzzy "github.com/paul-mannino/go-fuzzywuzzy"
)

// Section is a canonical section persisted for the owning document.
type Section struct {
	ID   int64
	Name string
}

// Match selects the canonical section whose name scores highest against
// pageSection. The comparison is a running maximum over the candidates in
// order, so on a tie the first-seen candidate wins. threshold is the
// minimum acceptable score; pass 0 to always accept the best available
// match even when poor (the historical behavior, with its known
// misattribution risk).
//
// Returns ok=false when the candidate set is empty, pageSection is
// empty, or the best score falls below threshold.
func Match(pageSection string, sections []Section, threshold int) (Section, bool) {
	if pageSection == "" || len(sections) == 0 {
		return Section{}, false
	}

	best := sections[0]
	bestScore := fuzzy.PartialRatio(pageSection, sections[0].Name)
	for _, s := range sections[1:] {
		if score := fuzzy.PartialRatio(pageSection, s.Name); score > bestScore {
			best = s
			bestScore = score
		}
	}

	if bestScore < threshold {
		return Section{}, false
	}
	return best, true
}
