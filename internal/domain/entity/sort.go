package entity

import (
	"fmt"
	"slices"
	"strings"

	"golang.org/x/text/cases"
)

// Criterion selects the entry field a view is ordered by.
type Criterion string

// Direction selects ascending or descending order.
type Direction string

const (
	SortByTitle Criterion = "TITLE"
	SortByDate  Criterion = "DATE"

	Ascending  Direction = "ASC"
	Descending Direction = "DEC"
)

// SortRule is a criterion/direction pair.
type SortRule struct {
	Criterion Criterion `json:"criterion" yaml:"criterion"`
	Direction Direction `json:"direction" yaml:"direction"`
}

// DefaultSortRule orders newest entries first. It applies whenever a rule is
// unset or unknown.
var DefaultSortRule = SortRule{Criterion: SortByDate, Direction: Descending}

// Normalize returns r when it is a known rule and DefaultSortRule otherwise.
func (r SortRule) Normalize() SortRule {
	switch r.Criterion {
	case SortByTitle, SortByDate:
	default:
		return DefaultSortRule
	}
	switch r.Direction {
	case Ascending, Descending:
	default:
		return DefaultSortRule
	}
	return r
}

// String renders the rule as "CRITERION_DIRECTION", e.g. "DATE_DEC".
func (r SortRule) String() string {
	r = r.Normalize()
	return string(r.Criterion) + "_" + string(r.Direction)
}

// ParseSortRule parses "title_asc", "DATE_DEC" and similar forms. "DESC" is
// accepted as an alias of "DEC". An empty string yields DefaultSortRule.
func ParseSortRule(s string) (SortRule, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultSortRule, nil
	}
	crit, dir, ok := strings.Cut(strings.ToUpper(s), "_")
	if !ok {
		return SortRule{}, &ValidationError{Field: "sort", Message: fmt.Sprintf("invalid sort rule %q", s)}
	}
	if dir == "DESC" {
		dir = string(Descending)
	}
	r := SortRule{Criterion: Criterion(crit), Direction: Direction(dir)}
	if r.Normalize() != r {
		return SortRule{}, &ValidationError{Field: "sort", Message: fmt.Sprintf("invalid sort rule %q", s)}
	}
	return r, nil
}

// SortEntries returns a new slice holding entries ordered by rule. The input is
// not modified.
//
// Ordering uses a stable merge sort, so entries with equal keys keep their
// pre-sort order. TITLE compares Unicode case-folded titles; DATE compares full
// timestamps. TITLE_DEC is the exact reverse of TITLE_ASC.
func SortEntries(entries []Entry, rule SortRule) []Entry {
	rule = rule.Normalize()
	switch rule.Criterion {
	case SortByTitle:
		out := sortByTitle(entries)
		if rule.Direction == Descending {
			slices.Reverse(out)
		}
		return out
	default:
		if rule.Direction == Ascending {
			return mergeSort(entries, func(a, b Entry) int { return a.PublishedAt.Compare(b.PublishedAt) })
		}
		return mergeSort(entries, func(a, b Entry) int { return b.PublishedAt.Compare(a.PublishedAt) })
	}
}

type titleKey struct {
	key   string
	entry Entry
}

func sortByTitle(entries []Entry) []Entry {
	fold := cases.Fold()
	keyed := make([]titleKey, len(entries))
	for i, e := range entries {
		keyed[i] = titleKey{key: fold.String(e.Title), entry: e}
	}
	keyed = mergeSort(keyed, func(a, b titleKey) int { return strings.Compare(a.key, b.key) })

	out := make([]Entry, len(keyed))
	for i, k := range keyed {
		out[i] = k.entry
	}
	return out
}

// mergeSort is a bottom-up stable merge sort returning a new slice.
func mergeSort[T any](in []T, cmp func(a, b T) int) []T {
	n := len(in)
	src := slices.Clone(in)
	if n < 2 {
		return src
	}
	dst := make([]T, n)
	for width := 1; width < n; width *= 2 {
		for lo := 0; lo < n; lo += 2 * width {
			mid := min(lo+width, n)
			hi := min(lo+2*width, n)
			merge(src[lo:mid], src[mid:hi], dst[lo:hi], cmp)
		}
		src, dst = dst, src
	}
	return src
}

// merge takes from left on ties, which is what keeps the sort stable.
func merge[T any](left, right, out []T, cmp func(a, b T) int) {
	i, j, k := 0, 0, 0
	for i < len(left) && j < len(right) {
		if cmp(right[j], left[i]) < 0 {
			out[k] = right[j]
			j++
		} else {
			out[k] = left[i]
			i++
		}
		k++
	}
	k += copy(out[k:], left[i:])
	copy(out[k:], right[j:])
}
