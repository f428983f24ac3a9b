// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package extract

import "testing"

func TestNormalizeGender(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"પુરુષ", GenderMale},
		{"પુરૂષ", GenderMale},   // OCR variant spelling
		{"પુર", GenderMale},     // bare root
		{"સ્ત્રી", GenderFemale},
		{"સ્ત્ર", GenderFemale},
		{"અન્ય", "અન્ય"}, // other: passed through
		{"", ""},
		{"M", "M"}, // latin text passes through untouched
	}
	for _, tc := range cases {
		if got := NormalizeGender(tc.in); got != tc.want {
			t.Errorf("NormalizeGender(%q): expected %q, got %q", tc.in, tc.want, got)
		}
	}
}

func TestFinalizePage_OverwritesPageAndBoxNumbers(t *testing.T) {
	records := []VoterRecord{
		{IDCardNo: "ID1", PageNo: 99, BoxNoOnPage: 7},
		{IDCardNo: "ID2", PageNo: 0, BoxNoOnPage: 7},
		{IDCardNo: "ID3", PageNo: 3, BoxNoOnPage: 1},
	}

	FinalizePage(records, 3)

	for i, rec := range records {
		if rec.PageNo != 3 {
			t.Errorf("Record %d: expected page number 3 (dispatch-assigned), got %d", i, rec.PageNo)
		}
		if rec.BoxNoOnPage != i+1 {
			t.Errorf("Record %d: expected box number %d, got %d", i, i+1, rec.BoxNoOnPage)
		}
	}
}

func TestFinalizePage_Empty(t *testing.T) {
	// k = 0 must be a no-op, not a panic.
	FinalizePage(nil, 5)
	FinalizePage([]VoterRecord{}, 5)
}

func TestFinalizePage_NormalizesGender(t *testing.T) {
	records := []VoterRecord{{IDCardNo: "ID1", Gender: "પુરૂષ"}}
	FinalizePage(records, 2)
	if records[0].Gender != GenderMale {
		t.Errorf("Expected canonical male token, got %q", records[0].Gender)
	}
}
