// Package entity defines the core domain entities of the feed reader: entries,
// sources, aggregated views and the sort rules applied to them, together with
// their validation rules and domain-specific errors.
package entity

import "time"

// EpochZero is the publication time assigned to entries whose date is missing
// or cannot be parsed.
var EpochZero = time.Unix(0, 0).UTC()

// UntitledTitle is the title used when a document or entry does not carry one.
const UntitledTitle = "Untitled"

// Entry is one content record of a Source. ID is assigned by the source and is
// unique within it and stable across re-fetches.
type Entry struct {
	ID          string    `json:"id"`
	SourceURL   string    `json:"source_url"`
	Title       string    `json:"title"`
	Link        string    `json:"link"`
	Description string    `json:"description"`
	PublishedAt time.Time `json:"published_at"`
	Visited     bool      `json:"visited"`
	Starred     bool      `json:"starred"`
}

// Flags holds the per-user state of an entry that survives re-fetches.
type Flags struct {
	Visited bool `json:"visited" yaml:"visited"`
	Starred bool `json:"starred" yaml:"starred"`
}

// IsZero reports whether no flag is set.
func (f Flags) IsZero() bool {
	return !f.Visited && !f.Starred
}

// Flags returns the entry's user flags.
func (e Entry) Flags() Flags {
	return Flags{Visited: e.Visited, Starred: e.Starred}
}

// WithFlags returns a copy of e carrying f.
func (e Entry) WithFlags(f Flags) Entry {
	e.Visited = f.Visited
	e.Starred = f.Starred
	return e
}

// Document is the transient result of parsing one syndicated document.
// Entries are in document order and already carry fallback values.
type Document struct {
	URL         string
	Title       string
	Link        string
	Description string
	Entries     []Entry
}
