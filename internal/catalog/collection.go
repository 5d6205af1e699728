package catalog

// Collection is the append-only, ordered list of entries fetched so far.
// Entries are kept in arrival order and are not deduplicated.
type Collection struct {
	entries []Entry
}

// Append adds a page's entries after the ones already held.
func (c *Collection) Append(entries ...Entry) {
	c.entries = append(c.entries, entries...)
}

// Len returns the number of accumulated entries.
func (c *Collection) Len() int {
	return len(c.entries)
}

// All returns a copy of every accumulated entry.
func (c *Collection) All() []Entry {
	return append([]Entry(nil), c.entries...)
}

// Filter applies the client-side filter to the accumulated entries.
func (c *Collection) Filter(text string) []Entry {
	return Filter(c.entries, text)
}

// Find returns the first accumulated entry with the given id.
func (c *Collection) Find(id int) (Entry, bool) {
	for _, e := range c.entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}
