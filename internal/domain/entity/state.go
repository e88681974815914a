package entity

import "time"

// EntryFlags is the persisted form of one entry's flags, keyed by the view it
// was saved under, the source it belongs to and its id.
type EntryFlags struct {
	SourceURL string `yaml:"source_url"`
	EntryID   string `yaml:"entry_id"`
	Visited   bool   `yaml:"visited"`
	Starred   bool   `yaml:"starred"`
}

// ViewState is the persisted form of one view.
type ViewState struct {
	Name    string       `yaml:"name"`
	Sort    SortRule     `yaml:"sort"`
	Display bool         `yaml:"display"`
	Sources []string     `yaml:"sources"`
	Flags   []EntryFlags `yaml:"flags,omitempty"`
}

// State is everything the state store keeps: view topology, sort rules,
// display flags and per-entry flags. Entry text is never part of it.
type State struct {
	Views []ViewState `yaml:"views"`
	// LastChanged is the registry's last-change time on save and the stored
	// last-saved time on load.
	LastChanged time.Time `yaml:"last_saved"`
}

// IsEmpty reports whether the state holds no views.
func (s *State) IsEmpty() bool {
	return s == nil || len(s.Views) == 0
}
