package assemble

import "sort"

// Sort orders pages for aggregate listings: dated pages first, newest first,
// undated pages after; ties broken by source path ascending so repeated
// builds list identically.
func Sort(pages []*Page) {
	sort.SliceStable(pages, func(i, j int) bool {
		a, b := pages[i], pages[j]
		if a.HasDate != b.HasDate {
			return a.HasDate
		}
		if a.HasDate && !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.RelPath < b.RelPath
	})
}

// Sorted returns a date-ordered copy, leaving the input order untouched.
func Sorted(pages []*Page) []*Page {
	out := make([]*Page, len(pages))
	copy(out, pages)
	Sort(out)
	return out
}
