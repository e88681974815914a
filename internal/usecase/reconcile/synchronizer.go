// Package reconcile merges freshly parsed documents into existing sources,
// carrying per-entry flags forward by entry id.
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"feedreader/internal/domain/entity"
)

// DocumentParser retrieves and parses one document.
// Implementations return *entity.DocumentUnavailableError on any failure.
type DocumentParser interface {
	Parse(ctx context.Context, url string) (*entity.Document, error)
}

// Result describes what one reconciliation did to a source.
type Result struct {
	// Changed is true when an entry id appeared that src did not hold.
	// Title, link or description changes alone do not count.
	Changed bool
	Added   int
	Removed int
}

// Dirty reports whether the set of entry ids differs in either direction.
// A removal drops the entry's flags, so it still has to reach the store.
func (r Result) Dirty() bool {
	return r.Added > 0 || r.Removed > 0
}

// Synchronizer re-parses sources and merges the result.
//
// Fetch touches only the network; Apply touches only the source. Callers
// holding a lock over many sources fetch first, without the lock, and apply
// afterwards under it.
type Synchronizer struct {
	Parser DocumentParser
	now    func() time.Time
}

// NewSynchronizer creates a Synchronizer backed by parser.
func NewSynchronizer(parser DocumentParser) *Synchronizer {
	return &Synchronizer{Parser: parser, now: time.Now}
}

// Fetch parses the document at url. Errors from the parser are returned unchanged.
func (s *Synchronizer) Fetch(ctx context.Context, url string) (*entity.Document, error) {
	return s.Parser.Parse(ctx, url)
}

// Apply merges doc into src and swaps the new entry collection in.
//
// Metadata is replaced unconditionally. An entry whose id already exists
// keeps that entry's visited/starred flags and takes every other field from
// doc. A new id starts unflagged unless src retains flags loaded from the
// store for it. Entries missing from doc are dropped. Order follows doc.
func (s *Synchronizer) Apply(src *entity.Source, doc *entity.Document) Result {
	current := src.Entries()
	existing := make(map[string]entity.Flags, len(current))
	for _, e := range current {
		existing[e.ID] = e.Flags()
	}

	var res Result
	fresh := make([]entity.Entry, 0, len(doc.Entries))
	seen := make(map[string]struct{}, len(doc.Entries))
	for _, e := range doc.Entries {
		if _, dup := seen[e.ID]; dup {
			continue
		}
		seen[e.ID] = struct{}{}

		e.SourceURL = src.URL()
		if f, ok := existing[e.ID]; ok {
			e = e.WithFlags(f)
		} else {
			res.Added++
			f, _ := src.Retained(e.ID)
			e = e.WithFlags(f)
		}
		fresh = append(fresh, e)
	}
	for id := range existing {
		if _, ok := seen[id]; !ok {
			res.Removed++
		}
	}
	res.Changed = res.Added > 0

	src.Publish(doc, fresh, s.now())
	return res
}

// Update re-parses src and merges the result. It reports whether an entry
// id new to src appeared. A DocumentUnavailable error is returned unchanged and
// src is left untouched.
//
// When a fetch started later has already been applied to src, the result is
// discarded and Update reports no change.
func (s *Synchronizer) Update(ctx context.Context, src *entity.Source) (bool, error) {
	ticket := src.BeginFetch()
	doc, err := s.Fetch(ctx, src.URL())
	if err != nil {
		return false, err
	}
	if !src.Accept(ticket) {
		return false, nil
	}
	res := s.Apply(src, doc)
	if res.Dirty() {
		slog.Debug("source reconciled",
			slog.String("url", src.URL()),
			slog.Int("added", res.Added),
			slog.Int("removed", res.Removed))
	}
	return res.Changed, nil
}
