// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package classify

// Role determines which prompt template and parsing mode apply to a page.
type Role string

const (
	RoleHeader    Role = "header_metadata"
	RoleFooter    Role = "footer_summary"
	RoleVoterPage Role = "voter_list_page"
)

// Roles assigns a role to every page index of an n-page document:
// index 0 is the header/metadata page, index n-1 is the footer/summary
// page, everything in between is a voter list page.
func Roles(numPages int) []Role {
	roles := make([]Role, numPages)
	for i := 0; i < numPages; i++ {
		switch {
		case i == 0:
			roles[i] = RoleHeader
		case i == numPages-1:
			roles[i] = RoleFooter
		default:
			roles[i] = RoleVoterPage
		}
	}
	return roles
}

// Skipped reports whether page index i is excluded from extraction.
// The second physical page of these rolls repeats header boilerplate and
// never carries voter rows, so it is skipped without consuming a model
// call. In a 2-page document index 1 is the footer and is NOT skipped:
// the role assignment wins over the skip rule.
func Skipped(i, numPages int) bool {
	return i == 1 && i != numPages-1
}
