package entity

import (
	"fmt"
	"slices"
)

// View is a named, sorted aggregation over a set of sources. Sources holds the
// member URLs in insertion order without duplicates.
type View struct {
	Name    string   `json:"name"`
	Sort    SortRule `json:"sort"`
	Display bool     `json:"display"`
	Sources []string `json:"sources"`
}

// NewView creates an empty, displayed view with the default sort rule.
func NewView(name string) View {
	return View{
		Name:    name,
		Sort:    DefaultSortRule,
		Display: true,
		Sources: []string{},
	}
}

// Has reports whether url is a member of the view.
func (v *View) Has(url string) bool {
	return slices.Contains(v.Sources, url)
}

// Add appends url to the members.
// Returns ErrDuplicateSource if url is already a member.
func (v *View) Add(url string) error {
	if v.Has(url) {
		return fmt.Errorf("view %q: %s: %w", v.Name, url, ErrDuplicateSource)
	}
	v.Sources = append(slices.Clip(v.Sources), url)
	return nil
}

// Remove deletes url from the members.
// Returns ErrSourceNotFound if url is not a member; the view is left unchanged.
func (v *View) Remove(url string) error {
	i := slices.Index(v.Sources, url)
	if i < 0 {
		return fmt.Errorf("view %q: %s: %w", v.Name, url, ErrSourceNotFound)
	}
	v.Sources = slices.Delete(slices.Clone(v.Sources), i, i+1)
	return nil
}

// Clone returns a deep copy of the view.
func (v View) Clone() View {
	v.Sources = slices.Clone(v.Sources)
	if v.Sources == nil {
		v.Sources = []string{}
	}
	return v
}

// ViewSnapshot is a view plus counters over its current entries.
type ViewSnapshot struct {
	View
	Entries   int `json:"entries"`
	Unvisited int `json:"unvisited"`
	Starred   int `json:"starred"`
}
