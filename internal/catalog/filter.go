package catalog

import "strings"

// ResetFilter is the filter value that bypasses matching.
const ResetFilter = "reset filter"

// IsReset reports whether text is the reset value, compared the same way
// filter text is (case-insensitively).
func IsReset(text string) bool {
	return strings.ToLower(text) == ResetFilter
}

// Filter returns the entries whose lowered title, or lowered ", "-joined
// genre names, contain the lowered text. The reset value returns entries
// unchanged. The result never aliases entries.
func Filter(entries []Entry, text string) []Entry {
	if IsReset(text) {
		return append([]Entry(nil), entries...)
	}

	needle := strings.ToLower(text)
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if matches(e, needle) {
			out = append(out, e)
		}
	}
	return out
}

func matches(e Entry, needle string) bool {
	if strings.Contains(strings.ToLower(e.Title), needle) {
		return true
	}
	genres := strings.ToLower(strings.Join(e.GenreNames(), ", "))
	return strings.Contains(genres, needle)
}
