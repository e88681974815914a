// Package yamlfile provides an alternate state store that keeps the state in
// one human-editable YAML document.
package yamlfile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"gopkg.in/yaml.v3"

	"feedreader/internal/domain/entity"
	"feedreader/internal/repository"
)

// Store reads and writes the state as YAML. Writes go to a temporary file in
// the same directory that is then renamed over the target, so a reader never
// sees a partial document.
type Store struct {
	mu   sync.Mutex
	path string
}

var _ repository.StateStore = (*Store)(nil)

// New returns a store for path. The file is created on the first save.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, entity.NewPersistenceError("open", errors.New("empty path"))
	}
	return &Store{path: path}, nil
}

// Path returns the file path.
func (s *Store) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

// SetPath switches to another file. The directory must exist.
func (s *Store) SetPath(path string) error {
	if path == "" {
		return entity.NewPersistenceError("set path", errors.New("empty path"))
	}
	info, err := os.Stat(filepath.Dir(path))
	if err != nil {
		return entity.NewPersistenceError("set path", err)
	}
	if !info.IsDir() {
		return entity.NewPersistenceError("set path", fmt.Errorf("%s is not a directory", filepath.Dir(path)))
	}
	s.mu.Lock()
	s.path = path
	s.mu.Unlock()
	return nil
}

// Close is a no-op; the store holds no open handles.
func (s *Store) Close() error { return nil }

// Load reads the file. A missing or empty file yields an empty State.
func (s *Store) Load(ctx context.Context) (*entity.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, entity.NewPersistenceError("load", err)
	}
	state, err := s.read()
	if err != nil {
		return nil, entity.NewPersistenceError("load", err)
	}
	return state, nil
}

// Save writes state unless the file already holds this or a later state.
func (s *Store) Save(ctx context.Context, state *entity.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return entity.NewPersistenceError("save", err)
	}
	current, err := s.read()
	if err != nil {
		return entity.NewPersistenceError("save", err)
	}
	if !current.LastChanged.IsZero() && !current.LastChanged.Before(state.LastChanged) {
		return nil
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(compact(state)); err != nil {
		return entity.NewPersistenceError("save", fmt.Errorf("encode: %w", err))
	}
	if err := enc.Close(); err != nil {
		return entity.NewPersistenceError("save", fmt.Errorf("encode: %w", err))
	}
	if err := writeAtomic(s.path, buf.Bytes()); err != nil {
		return entity.NewPersistenceError("save", err)
	}
	return nil
}

func (s *Store) read() (*entity.State, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &entity.State{Views: []entity.ViewState{}}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}

	state := &entity.State{}
	if len(bytes.TrimSpace(data)) > 0 {
		if err := yaml.Unmarshal(data, state); err != nil {
			return nil, fmt.Errorf("decode %s: %w", s.path, err)
		}
	}
	if state.Views == nil {
		state.Views = []entity.ViewState{}
	}
	for i := range state.Views {
		if state.Views[i].Sources == nil {
			state.Views[i].Sources = []string{}
		}
	}
	return state, nil
}

// compact drops flags with nothing set.
func compact(state *entity.State) *entity.State {
	out := &entity.State{LastChanged: state.LastChanged.UTC(), Views: make([]entity.ViewState, 0, len(state.Views))}
	for _, vs := range state.Views {
		vs.Sort = vs.Sort.Normalize()
		flags := make([]entity.EntryFlags, 0, len(vs.Flags))
		for _, f := range vs.Flags {
			if f.Visited || f.Starred {
				flags = append(flags, f)
			}
		}
		vs.Flags = nil
		if len(flags) > 0 {
			vs.Flags = flags
		}
		out.Views = append(out.Views, vs)
	}
	return out
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".state-*.yaml")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}
