package reconcile

import (
	"context"
	"errors"
	"testing"
	"time"

	"feedreader/internal/domain/entity"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const feedURL = "https://example.com/feed"

type stubParser struct {
	docs  []*entity.Document
	err   error
	calls int
}

func (p *stubParser) Parse(_ context.Context, url string) (*entity.Document, error) {
	p.calls++
	if p.err != nil {
		return nil, entity.NewDocumentUnavailable(url, p.err)
	}
	doc := p.docs[0]
	if len(p.docs) > 1 {
		p.docs = p.docs[1:]
	}
	return doc, nil
}

func doc(title string, entries ...entity.Entry) *entity.Document {
	return &entity.Document{URL: feedURL, Title: title, Entries: entries}
}

func entry(id, title string) entity.Entry {
	return entity.Entry{ID: id, Title: title, Link: "https://example.com/" + id, PublishedAt: entity.EpochZero}
}

func ids(entries []entity.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func newSynchronizer(p DocumentParser) *Synchronizer {
	s := NewSynchronizer(p)
	s.now = func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

// Source [A(1), B(2)], refetch [B(2, new title), C(3)] -> [B(new title, B's flags), C(unflagged)].
func TestUpdate_ReplacesAndMerges(t *testing.T) {
	parser := &stubParser{docs: []*entity.Document{
		doc("Feed", entry("1", "A"), entry("2", "B")),
		doc("Feed renamed", entry("2", "B v2"), entry("3", "C")),
	}}
	s := newSynchronizer(parser)
	src := entity.NewSource(feedURL)

	changed, err := s.Update(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, changed)

	require.NoError(t, src.SetFlags("2", func(f *entity.Flags) { f.Visited = true; f.Starred = true }))
	require.NoError(t, src.SetFlags("1", func(f *entity.Flags) { f.Starred = true }))

	changed, err = s.Update(context.Background(), src)
	require.NoError(t, err)
	assert.True(t, changed)

	got := src.Entries()
	assert.Equal(t, []string{"2", "3"}, ids(got))
	assert.Equal(t, "B v2", got[0].Title)
	assert.Equal(t, entity.Flags{Visited: true, Starred: true}, got[0].Flags())
	assert.Equal(t, entity.Flags{}, got[1].Flags())
	assert.Equal(t, "Feed renamed", src.Title())
}

func TestApply_FlagsPreservedExactly(t *testing.T) {
	s := newSynchronizer(nil)
	src := entity.NewSource(feedURL)
	s.Apply(src, doc("Feed", entry("1", "one"), entry("2", "two"), entry("3", "three")))

	require.NoError(t, src.SetFlags("1", func(f *entity.Flags) { f.Visited = true }))
	require.NoError(t, src.SetFlags("3", func(f *entity.Flags) { f.Starred = true }))
	want := src.FlagSet()

	res := s.Apply(src, doc("Feed", entry("3", "three"), entry("1", "one"), entry("2", "two")))

	assert.False(t, res.Changed, "same ids in a different order are not a change")
	if diff := cmp.Diff(want, src.FlagSet()); diff != "" {
		t.Errorf("flags mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []string{"3", "1", "2"}, ids(src.Entries()), "document order is kept")
}

func TestApply_ChangeDetection(t *testing.T) {
	tests := []struct {
		name        string
		next        *entity.Document
		wantChanged bool
		wantDirty   bool
		wantAdded   int
		wantRemoved int
	}{
		{"metadata only", doc("Other title", entry("1", "renamed"), entry("2", "b")), false, false, 0, 0},
		{"entry removed", doc("Feed", entry("1", "a")), false, true, 0, 1},
		{"entry added", doc("Feed", entry("1", "a"), entry("2", "b"), entry("3", "c")), true, true, 1, 0},
		{"replaced", doc("Feed", entry("1", "a"), entry("3", "c")), true, true, 1, 1},
		{"emptied", doc("Feed"), false, true, 0, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSynchronizer(nil)
			src := entity.NewSource(feedURL)
			s.Apply(src, doc("Feed", entry("1", "a"), entry("2", "b")))

			res := s.Apply(src, tt.next)

			assert.Equal(t, tt.wantChanged, res.Changed)
			assert.Equal(t, tt.wantDirty, res.Dirty())
			assert.Equal(t, tt.wantAdded, res.Added)
			assert.Equal(t, tt.wantRemoved, res.Removed)
		})
	}
}

func TestApply_RetainedFlagsApplyToNewIDs(t *testing.T) {
	s := newSynchronizer(nil)
	src := entity.NewSource(feedURL)
	src.Retain(map[string]entity.Flags{
		"2":    {Starred: true},
		"gone": {Visited: true},
	})

	res := s.Apply(src, doc("Feed", entry("1", "a"), entry("2", "b")))

	assert.True(t, res.Changed)
	got := src.Entries()
	assert.Equal(t, entity.Flags{}, got[0].Flags())
	assert.Equal(t, entity.Flags{Starred: true}, got[1].Flags())
	_, ok := src.Retained("gone")
	assert.False(t, ok, "retained flags are dropped once a fetch has been applied")
}

func TestApply_StampsSourceURLAndFetchTime(t *testing.T) {
	s := newSynchronizer(nil)
	src := entity.NewSource(feedURL)

	e := entry("1", "a")
	e.SourceURL = "https://elsewhere.example/feed"
	s.Apply(src, doc("Feed", e))

	snap := src.Snapshot()
	assert.Equal(t, feedURL, snap.Entries[0].SourceURL)
	require.NotNil(t, snap.LastFetchedAt)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), *snap.LastFetchedAt)
}

func TestUpdate_PropagatesDocumentUnavailable(t *testing.T) {
	parser := &stubParser{docs: []*entity.Document{doc("Feed", entry("1", "a"))}}
	s := newSynchronizer(parser)
	src := entity.NewSource(feedURL)
	_, err := s.Update(context.Background(), src)
	require.NoError(t, err)
	require.NoError(t, src.SetFlags("1", func(f *entity.Flags) { f.Visited = true }))

	parser.err = errors.New("connection refused")
	changed, err := s.Update(context.Background(), src)

	assert.False(t, changed)
	assert.True(t, errors.Is(err, entity.ErrDocumentUnavailable))
	assert.Equal(t, []string{"1"}, ids(src.Entries()), "entries are untouched on failure")
	e, _ := src.Entry("1")
	assert.True(t, e.Visited)
}

type overlapParser struct {
	doc    *entity.Document
	during func()
}

func (p *overlapParser) Parse(context.Context, string) (*entity.Document, error) {
	doc := p.doc
	if fn := p.during; fn != nil {
		p.during = nil
		fn()
	}
	return doc, nil
}

func TestUpdate_DiscardsResultOlderThanApplied(t *testing.T) {
	parser := &overlapParser{doc: doc("Old", entry("old", "a"))}
	s := newSynchronizer(parser)
	src := entity.NewSource(feedURL)

	parser.during = func() {
		parser.doc = doc("New", entry("new", "b"))
		changed, err := s.Update(context.Background(), src)
		require.NoError(t, err)
		require.True(t, changed)
	}

	changed, err := s.Update(context.Background(), src)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, "New", src.Title())
	assert.Equal(t, []string{"new"}, ids(src.Entries()))
}
