package registry

import (
	"context"
	"testing"
	"time"

	"feedreader/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func populated(t *testing.T) (*Registry, *fakeParser, *memStore) {
	t.Helper()
	r, parser, store := newRegistry(t)
	parser.set(feedA, at("1", "one", t0), at("2", "two", t0))
	parser.set(feedB, at("3", "three", t0))

	require.NoError(t, r.AddView("Tech"))
	require.NoError(t, r.AddView("News"))
	require.NoError(t, r.AddSource(context.Background(), feedA, "Tech"))
	require.NoError(t, r.AddSource(context.Background(), feedB, "Tech"))
	require.NoError(t, r.AddSource(context.Background(), feedA, "News"))
	require.NoError(t, r.SetSortRule("Tech", entity.SortRule{Criterion: entity.SortByTitle, Direction: entity.Ascending}))
	require.NoError(t, r.SetDisplay("News", false))
	require.NoError(t, r.SetVisited(feedA, "1", true))
	require.NoError(t, r.SetStarred(feedB, "3", true))
	return r, parser, store
}

func TestState(t *testing.T) {
	r, _, _ := populated(t)

	state := r.State()

	require.Len(t, state.Views, 2)
	assert.Equal(t, r.LastChanged(), state.LastChanged)

	tech := state.Views[0]
	assert.Equal(t, "Tech", tech.Name)
	assert.Equal(t, []string{feedA, feedB}, tech.Sources)
	assert.Equal(t, entity.SortRule{Criterion: entity.SortByTitle, Direction: entity.Ascending}, tech.Sort)
	assert.Equal(t, []entity.EntryFlags{
		{SourceURL: feedA, EntryID: "1", Visited: true},
		{SourceURL: feedB, EntryID: "3", Starred: true},
	}, tech.Flags)

	news := state.Views[1]
	assert.False(t, news.Display)
	assert.Equal(t, []entity.EntryFlags{{SourceURL: feedA, EntryID: "1", Visited: true}}, news.Flags)
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	r, parser, store := populated(t)
	require.NoError(t, r.Save(context.Background()))
	saved := r.LastChanged()

	loaded := New(parser, store, Config{})
	require.NoError(t, loaded.Load(context.Background(), ""))

	assert.Equal(t, saved.UnixNano(), loaded.LastChanged().UnixNano())

	views := loaded.Views()
	require.Len(t, views, 2)
	assert.Equal(t, "Tech", views[0].Name)
	assert.Equal(t, []string{feedA, feedB}, views[0].Sources)
	assert.Equal(t, entity.SortByTitle, views[0].Sort.Criterion)
	assert.False(t, views[1].Display)

	// Sources start empty until the first refresh.
	entries, err := loaded.Entries("Tech")
	require.NoError(t, err)
	assert.Empty(t, entries)

	_, err = loaded.Refresh(context.Background())
	require.NoError(t, err)

	a, _ := loaded.Source(feedA)
	require.Len(t, a.Entries, 2)
	assert.True(t, a.Entries[0].Visited, "retained flag applied on first fetch")
	assert.False(t, a.Entries[1].Visited)
	b, _ := loaded.Source(feedB)
	assert.True(t, b.Entries[0].Starred)
}

func TestSave_SkipsWhenNothingChanged(t *testing.T) {
	r, _, store := populated(t)

	require.NoError(t, r.Save(context.Background()))
	require.NoError(t, r.Save(context.Background()))
	assert.Equal(t, 1, store.writes)

	require.NoError(t, r.SetVisited(feedA, "2", true))
	require.NoError(t, r.Save(context.Background()))
	assert.Equal(t, 2, store.writes)
}

func TestSaveTo(t *testing.T) {
	r, _, store := populated(t)

	require.NoError(t, r.SaveTo(context.Background(), "other.db"))
	assert.Equal(t, "other.db", store.Path())
	assert.Contains(t, store.data, "other.db")

	store.failOn = "save"
	err := r.SaveTo(context.Background(), "third.db")
	assert.ErrorIs(t, err, entity.ErrPersistenceFailure)
	assert.Equal(t, "other.db", store.Path(), "path restored after failed save")

	store.failOn = ""
	store.badPath = "/forbidden"
	assert.ErrorIs(t, r.SaveTo(context.Background(), "/forbidden"), entity.ErrPersistenceFailure)
	assert.Equal(t, "other.db", store.Path())
}

func TestLoad_FailureLeavesRegistryUnchanged(t *testing.T) {
	r, _, store := populated(t)
	before := r.Views()
	changed := r.LastChanged()

	store.failOn = "load"
	err := r.Load(context.Background(), "elsewhere.db")

	assert.ErrorIs(t, err, entity.ErrPersistenceFailure)
	assert.Equal(t, before, r.Views())
	assert.Equal(t, changed, r.LastChanged())
	assert.Equal(t, "state.db", store.Path())
}

func TestLoad_EmptyStore(t *testing.T) {
	r, _, store := populated(t)
	store.data = map[string]*entity.State{}

	require.NoError(t, r.Load(context.Background(), ""))

	assert.Empty(t, r.Views())
	assert.Empty(t, r.Sources())
	assert.True(t, r.LastChanged().IsZero())
}

func TestNoStore(t *testing.T) {
	r := New(newFakeParser(), nil, Config{})

	assert.ErrorIs(t, r.Save(context.Background()), ErrNoStore)
	assert.ErrorIs(t, r.SaveTo(context.Background(), "x"), ErrNoStore)
	assert.ErrorIs(t, r.Load(context.Background(), ""), ErrNoStore)
}

func TestBuildFromState(t *testing.T) {
	state := &entity.State{
		LastChanged: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Views: []entity.ViewState{
			{
				Name:    "Tech",
				Sort:    entity.SortRule{Criterion: "BOGUS"},
				Display: true,
				Sources: []string{feedA, " " + feedA, feedB, ""},
				Flags: []entity.EntryFlags{
					{SourceURL: feedA, EntryID: "1", Visited: true},
					{SourceURL: "https://not-a-member.example", EntryID: "9", Starred: true},
					{SourceURL: feedA, EntryID: ""},
				},
			},
			{Name: "  ", Sources: []string{feedB}},
			{Name: "Tech", Sources: []string{"https://dup.example"}},
			{
				Name:    "News",
				Sources: []string{feedA},
				Flags:   []entity.EntryFlags{{SourceURL: feedA, EntryID: "1", Starred: true}},
			},
		},
	}

	views, sources := buildFromState(state)

	require.Len(t, views, 2)
	assert.Equal(t, "Tech", views[0].Name)
	assert.Equal(t, []string{feedA, feedB}, views[0].Sources)
	assert.Equal(t, entity.DefaultSortRule, views[0].Sort)
	assert.Equal(t, "News", views[1].Name)

	require.Len(t, sources, 2)
	f, ok := sources[feedA].Retained("1")
	require.True(t, ok)
	assert.Equal(t, entity.Flags{Visited: true, Starred: true}, f, "flags merged across views")
	_, ok = sources[feedB].Retained("1")
	assert.False(t, ok)
}
