package entity

import (
	"maps"
	"slices"
	"sync/atomic"
	"time"
)

// SourceSnapshot is an immutable copy of a Source handed to readers.
type SourceSnapshot struct {
	URL           string     `json:"url"`
	Title         string     `json:"title"`
	Link          string     `json:"link"`
	Description   string     `json:"description"`
	Entries       []Entry    `json:"entries"`
	LastFetchedAt *time.Time `json:"last_fetched_at,omitempty"`
	LastError     string     `json:"last_error,omitempty"`
}

// sourceState is never modified after it has been published.
type sourceState struct {
	title         string
	link          string
	description   string
	entries       []Entry
	retained      map[string]Flags
	lastFetchedAt time.Time
	lastError     string
}

// Source is a syndicated document identified by its URL, owning an ordered
// collection of entries.
//
// Readers may call any method concurrently. Mutating methods (Publish,
// MarkFailed, SetFlags, Retain, Accept) must be serialized by the owner; each
// of them builds a new state and swaps it in atomically so a reader always
// observes either the old or the new collection, never a mix.
//
// Fetches may overlap. Each one takes a ticket from BeginFetch before it
// starts, and its result is applied only if Accept admits the ticket, so an
// older document never replaces a newer one.
type Source struct {
	url     string
	state   atomic.Pointer[sourceState]
	tickets atomic.Uint64

	// newest ticket whose result was applied
	accepted uint64
}

// NewSource creates an empty Source for url. The title is UntitledTitle until
// the first successful fetch.
func NewSource(url string) *Source {
	s := &Source{url: url}
	s.state.Store(&sourceState{title: UntitledTitle})
	return s
}

// URL returns the identity of the source.
func (s *Source) URL() string {
	return s.url
}

func (s *Source) load() *sourceState {
	return s.state.Load()
}

// BeginFetch issues the ticket for a fetch about to start. Tickets grow in
// the order fetches start.
func (s *Source) BeginFetch() uint64 {
	return s.tickets.Add(1)
}

// Accept reports whether the result of the fetch holding ticket may be
// applied, and records it if so. A result is refused once the result of a
// later-started fetch has been accepted.
func (s *Source) Accept(ticket uint64) bool {
	if ticket <= s.accepted {
		return false
	}
	s.accepted = ticket
	return true
}

// Title returns the current title.
func (s *Source) Title() string {
	return s.load().title
}

// Entries returns a copy of the current entry collection.
func (s *Source) Entries() []Entry {
	return slices.Clone(s.load().entries)
}

// Len returns the number of entries.
func (s *Source) Len() int {
	return len(s.load().entries)
}

// Entry looks up an entry by id.
func (s *Source) Entry(id string) (Entry, bool) {
	for _, e := range s.load().entries {
		if e.ID == id {
			return e, true
		}
	}
	return Entry{}, false
}

// Retained returns the flags loaded from the store for an entry that has not
// been fetched since.
func (s *Source) Retained(id string) (Flags, bool) {
	f, ok := s.load().retained[id]
	return f, ok
}

// Snapshot returns an immutable copy of the source.
func (s *Source) Snapshot() SourceSnapshot {
	st := s.load()
	snap := SourceSnapshot{
		URL:         s.url,
		Title:       st.title,
		Link:        st.link,
		Description: st.description,
		Entries:     slices.Clone(st.entries),
		LastError:   st.lastError,
	}
	if snap.Entries == nil {
		snap.Entries = []Entry{}
	}
	if !st.lastFetchedAt.IsZero() {
		t := st.lastFetchedAt
		snap.LastFetchedAt = &t
	}
	return snap
}

// FlagSet returns the flags worth persisting: every entry with a flag set plus
// any retained flags not yet matched by a fetch.
func (s *Source) FlagSet() map[string]Flags {
	st := s.load()
	out := make(map[string]Flags, len(st.retained))
	for id, f := range st.retained {
		if !f.IsZero() {
			out[id] = f
		}
	}
	for _, e := range st.entries {
		if f := e.Flags(); !f.IsZero() {
			out[e.ID] = f
		}
	}
	return out
}

// Publish replaces metadata and the entry collection in one swap. Retained
// flags and the last error are cleared: the caller has already merged them.
func (s *Source) Publish(doc *Document, entries []Entry, fetchedAt time.Time) {
	s.state.Store(&sourceState{
		title:         doc.Title,
		link:          doc.Link,
		description:   doc.Description,
		entries:       entries,
		lastFetchedAt: fetchedAt,
	})
}

// MarkFailed records a failed fetch without touching the entries.
func (s *Source) MarkFailed(err error) {
	next := *s.load()
	next.lastError = err.Error()
	s.state.Store(&next)
}

// Retain merges flags loaded from the store. They are applied by id on the
// next reconciliation and, where an entry with that id already exists, at once.
func (s *Source) Retain(flags map[string]Flags) {
	if len(flags) == 0 {
		return
	}
	cur := s.load()
	next := *cur
	next.retained = maps.Clone(cur.retained)
	if next.retained == nil {
		next.retained = make(map[string]Flags, len(flags))
	}
	next.entries = slices.Clone(cur.entries)
	for id, f := range flags {
		if i := indexOf(next.entries, id); i >= 0 {
			next.entries[i] = next.entries[i].WithFlags(f)
			continue
		}
		next.retained[id] = f
	}
	s.state.Store(&next)
}

// SetFlags applies fn to the flags of entry id. The collection is copied, not
// mutated, so concurrent readers keep a consistent view.
func (s *Source) SetFlags(id string, fn func(*Flags)) error {
	cur := s.load()
	i := indexOf(cur.entries, id)
	if i < 0 {
		return ErrEntryNotFound
	}
	next := *cur
	next.entries = slices.Clone(cur.entries)
	f := next.entries[i].Flags()
	fn(&f)
	next.entries[i] = next.entries[i].WithFlags(f)
	s.state.Store(&next)
	return nil
}

func indexOf(entries []Entry, id string) int {
	return slices.IndexFunc(entries, func(e Entry) bool { return e.ID == id })
}
