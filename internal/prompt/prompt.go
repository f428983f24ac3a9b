// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch

// Package prompt holds the role-specific instruction templates sent to the
// extraction model. Every template demands machine-parseable output only:
// one JSON object for header/footer pages, line-delimited JSON objects for
// voter list pages.
package prompt

import "github.com/voterscan/internal/classify"

// HeaderPage requests one JSON object holding the roll's metadata,
// including the variable-length set of location_N keys that enumerate
// the polling sections of this part.
const HeaderPage = `Perform OCR on this image. This is the header/metadata page of a voter list PDF.
Your response MUST be a valid JSON object only, with no additional text, explanations, or conversational elements.

Extract the following fields:
- 'type': "header_metadata"
- 'roll_main_title': the main title of the electoral roll.
- 'assembly_constituency_number_name_estimated': the full assembly constituency number and name text.
- 'part_number_top_right': the part number from the top right of the page.
- 'revision_year': the revision year.
- 'qualification_date': the qualification date.
- 'revision_type': the type of revision.
- 'publication_date': the publication date.
- 'electoral_roll_details': the full descriptive paragraph about the roll revision, as a single string.
- 'location_1': the full text of the first polling location line.
- 'location_2': the full text of the second polling location line.
- Continue with 'location_3', 'location_4', ... for every location line present on the page.
- 'district', 'taluka', 'department', 'pin_code': from the general survey section.
- 'polling_station_name_number', 'polling_station_type': from the polling station section.
- 'total_voters_male_count', 'total_voters_female_count', 'total_voters_other_gender_count', 'total_voters_grand_total_count': from the voter summary table.

Keep all extracted text in the script it appears in on the page.
If a field is not present or OCR confidence is low, return an empty string for that key, but keep the JSON structure.`

// VoterListPage requests one JSON object per output line, one object per
// voter box, traversing the grid row by row, left to right.
const VoterListPage = `You are an expert at extracting structured information from voter list PDF images.
Perform OCR on this image, then extract every individual voter box.

MANDATORY EXTRACTION PLAN:
1. Analyze the full image first. The page is a grid of voter boxes arranged in rows and columns.
2. Process the grid row by row, left column to right column, top row to bottom row.
3. Before concluding, sweep the grid once more to make sure no box was missed.
4. Output one valid JSON object per line. The response must contain ONLY the JSON objects, no extra text.

First identify the section name printed at the top of the page; use it for every voter object.

Each voter object (one per line) has exactly these fields:
- 'type': "voter"
- 'SL_NO': the serial number printed next to the voter box.
- 'VOTER_NAME': the complete full name of the voter, joining all words and surname parts into one string.
- 'RELATIVE_NAME': the complete full name of the father/husband/mother, or an empty string if absent.
- 'RLN_TYPE': "H" if the relation label is husband, "F" for father, "M" for mother, "O" otherwise.
- 'HOUSE_NO': the house number.
- 'AGE': the age as a number.
- 'GENDER': the gender text as printed.
- 'IDCARD_NO': the voter ID card number. Extracting this field is critical; a voter object without it is unusable.
- 'ALL_TXT': all raw text inside this voter's box.
- 'BOX_NO_ON_PAGE': the sequential number of the box on this page.
- 'STATUSTYPE': "D" if a DELETED stamp covers the box, "M" if a '#' precedes the serial number, otherwise "N".
- 'PAGE_SECTION_NAME': the section name identified at the start, identical for every object on this page.

Favor completeness over speed; extract every box.`

// FooterPage requests one JSON object with the nested summary table rows.
const FooterPage = `Perform OCR on this image. This is the final summary page of a voter list PDF.
STRICTLY extract information into a JSON object.
Your response MUST be a valid JSON object ONLY, with absolutely no additional text, explanations, or conversational elements.

Return JSON in the following format:
{
  "type": "footer_summary",
  "assembly_constituency_number_name": "<the assembly constituency number and name>",
  "part_number": "<the part number>",
  "summary_voters": {
    "rows": [
      {
        "description_type": "<the row description>",
        "male_count": "<number>",
        "female_count": "<number>",
        "other_gender_count": "<number>",
        "total_count": "<number>"
      }
    ]
  }
}

Emit one row object per row of the summary table, in table order.`

// ForRole returns the instruction template for a page role.
func ForRole(role classify.Role) string {
	switch role {
	case classify.RoleHeader:
		return HeaderPage
	case classify.RoleFooter:
		return FooterPage
	default:
		return VoterListPage
	}
}
