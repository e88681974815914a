package entity

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryAt(id, title string, published time.Time) Entry {
	return Entry{ID: id, Title: title, PublishedAt: published}
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}

func TestParseSortRule(t *testing.T) {
	tests := []struct {
		in      string
		want    SortRule
		wantErr bool
	}{
		{in: "", want: DefaultSortRule},
		{in: "TITLE_ASC", want: SortRule{SortByTitle, Ascending}},
		{in: "title_dec", want: SortRule{SortByTitle, Descending}},
		{in: "date_desc", want: SortRule{SortByDate, Descending}},
		{in: " DATE_ASC ", want: SortRule{SortByDate, Ascending}},
		{in: "AUTHOR_ASC", wantErr: true},
		{in: "TITLE", wantErr: true},
		{in: "TITLE_UP", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSortRule(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrValidationFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSortRule_NormalizeDefaultsToDateDescending(t *testing.T) {
	assert.Equal(t, DefaultSortRule, SortRule{}.Normalize())
	assert.Equal(t, DefaultSortRule, SortRule{Criterion: "AUTHOR", Direction: Ascending}.Normalize())
	assert.Equal(t, "DATE_DEC", SortRule{}.String())
	assert.Equal(t, "TITLE_ASC", SortRule{SortByTitle, Ascending}.String())
}

func TestSortEntries_DefaultRuleIsDateDescending(t *testing.T) {
	jan := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	jun := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	in := []Entry{entryAt("jan", "January", jan), entryAt("jun", "June", jun)}

	got := SortEntries(in, SortRule{})

	assert.Equal(t, []string{"jun", "jan"}, ids(got))
	// input untouched
	assert.Equal(t, []string{"jan", "jun"}, ids(in))
}

func TestSortEntries_TitleIsCaseInsensitive(t *testing.T) {
	t0 := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	in := []Entry{
		entryAt("1", "banana", t0),
		entryAt("2", "Apple", t0),
		entryAt("3", "cherry", t0),
		entryAt("4", "APRICOT", t0),
		entryAt("5", "Zebra", t0),
		entryAt("6", "zebra", t0),
	}

	asc := SortEntries(in, SortRule{SortByTitle, Ascending})
	assert.Equal(t, []string{"2", "4", "1", "3", "5", "6"}, ids(asc))

	dec := SortEntries(in, SortRule{SortByTitle, Descending})
	want := ids(asc)
	for i, j := 0, len(want)-1; i < j; i, j = i+1, j-1 {
		want[i], want[j] = want[j], want[i]
	}
	if diff := cmp.Diff(want, ids(dec)); diff != "" {
		t.Errorf("TITLE_DEC must be the exact reverse of TITLE_ASC (-want +got):\n%s", diff)
	}
}

func TestSortEntries_DateTiesKeepOriginalOrder(t *testing.T) {
	same := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	later := same.Add(time.Second)
	in := []Entry{
		entryAt("a", "x", same),
		entryAt("b", "x", later),
		entryAt("c", "x", same),
		entryAt("d", "x", same),
	}

	assert.Equal(t, []string{"a", "c", "d", "b"}, ids(SortEntries(in, SortRule{SortByDate, Ascending})))
	assert.Equal(t, []string{"b", "a", "c", "d"}, ids(SortEntries(in, SortRule{SortByDate, Descending})))
}

func TestSortEntries_DateComparesFullTimestamp(t *testing.T) {
	// Same calendar day, different zones: string slicing would get this wrong.
	tokyo := time.FixedZone("JST", 9*60*60)
	a := entryAt("early", "", time.Date(2024, 5, 2, 8, 0, 0, 0, tokyo)) // 2024-05-01T23:00Z
	b := entryAt("late", "", time.Date(2024, 5, 2, 1, 0, 0, 0, time.UTC))

	got := SortEntries([]Entry{b, a}, SortRule{SortByDate, Ascending})
	assert.Equal(t, []string{"early", "late"}, ids(got))
}

func TestSortEntries_Deterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	in := make([]Entry, 200)
	for i := range in {
		in[i] = entryAt(string(rune('A'+i%26))+string(rune('a'+i/26)), string(rune('a'+rng.Intn(5))), base.Add(time.Duration(rng.Intn(10))*time.Hour))
	}

	for _, rule := range []SortRule{{SortByTitle, Ascending}, {SortByTitle, Descending}, {SortByDate, Ascending}, {SortByDate, Descending}} {
		first := SortEntries(in, rule)
		second := SortEntries(in, rule)
		require.Len(t, first, len(in))
		if diff := cmp.Diff(first, second); diff != "" {
			t.Errorf("%s not deterministic (-first +second):\n%s", rule, diff)
		}
	}
}

func TestSortEntries_MatchesOrderingInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	in := make([]Entry, 97)
	for i := range in {
		in[i] = entryAt(string(rune(i)), "", base.Add(time.Duration(rng.Intn(30))*24*time.Hour))
	}

	got := SortEntries(in, SortRule{SortByDate, Ascending})
	pos := make(map[string]int, len(in))
	for i, e := range in {
		pos[e.ID] = i
	}
	for i := 1; i < len(got); i++ {
		prev, cur := got[i-1], got[i]
		require.False(t, cur.PublishedAt.Before(prev.PublishedAt), "not ascending at %d", i)
		if cur.PublishedAt.Equal(prev.PublishedAt) {
			require.Less(t, pos[prev.ID], pos[cur.ID], "tie at %d not stable", i)
		}
	}
}

func TestSortEntries_Empty(t *testing.T) {
	assert.Empty(t, SortEntries(nil, DefaultSortRule))
	assert.Empty(t, SortEntries([]Entry{}, SortRule{SortByTitle, Ascending}))
}
