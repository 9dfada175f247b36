package core

import "strings"

// CleanCell trims whitespace and stray wrapping quotes from a CSV cell.
// Used for header cells only; data values pass through the converter
// verbatim.
func CleanCell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, `"`)
	return strings.TrimSpace(s)
}

// CleanHeader normalizes a header cell for case-insensitive lookups.
func CleanHeader(s string) string {
	return strings.ToLower(CleanCell(s))
}

// MakeHeaderIndex builds a lookup from normalized header name to column
// position. Later duplicates overwrite earlier ones, matching spreadsheet
// behavior where the rightmost column of a name wins.
func MakeHeaderIndex(header []string) HeaderIndex {
	idx := make(HeaderIndex, len(header))
	for i, h := range header {
		idx[CleanHeader(h)] = i
	}
	return idx
}
