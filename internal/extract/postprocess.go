// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package extract

import "strings"

// Canonical gender tokens and the phonetic roots that identify them in
// noisy OCR output (Gujarati script).
const (
	GenderMale   = "પુરુષ"
	GenderFemale = "સ્ત્રી"

	maleRoot   = "પુર"
	femaleRoot = "સ્ત્ર"
)

// NormalizeGender canonicalizes a gender string from the model. Any
// string containing the male phonetic root maps to the male token, any
// containing the female root maps to the female token, everything else
// (including an empty string) passes through unchanged.
func NormalizeGender(gender string) string {
	if strings.Contains(gender, maleRoot) {
		return GenderMale
	}
	if strings.Contains(gender, femaleRoot) {
		return GenderFemale
	}
	return gender
}

// FinalizePage applies the post-parse field fixes to one page's records,
// in place:
//   - every record's page number is overwritten with the 1-based page
//     index assigned at dispatch time; the model's self-reported value
//     is untrusted,
//   - box positions are renumbered to the record's 1-based position in
//     parse order, again overriding the model,
//   - gender is canonicalized.
func FinalizePage(records []VoterRecord, pageNo int) {
	for i := range records {
		records[i].PageNo = pageNo
		records[i].BoxNoOnPage = i + 1
		records[i].Gender = NormalizeGender(records[i].Gender)
	}
}
