package registry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"feedreader/internal/domain/entity"
)

type fakeParser struct {
	mu    sync.Mutex
	docs  map[string]*entity.Document
	fail  map[string]error
	calls map[string]int
	block chan struct{}
}

func newFakeParser() *fakeParser {
	return &fakeParser{
		docs:  make(map[string]*entity.Document),
		fail:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (p *fakeParser) set(url string, entries ...entity.Entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for i := range entries {
		entries[i].SourceURL = url
	}
	p.docs[url] = &entity.Document{URL: url, Title: "Feed " + url, Entries: entries}
	delete(p.fail, url)
}

func (p *fakeParser) breaks(url string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fail[url] = errors.New("connection refused")
}

func (p *fakeParser) hold() chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.block = make(chan struct{})
	return p.block
}

// resume lets later calls through while calls already held stay blocked.
func (p *fakeParser) resume() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.block = nil
}

func (p *fakeParser) count(url string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls[url]
}

func (p *fakeParser) Parse(ctx context.Context, url string) (*entity.Document, error) {
	p.mu.Lock()
	p.calls[url]++
	block := p.block
	doc, ok := p.docs[url]
	err := p.fail[url]
	p.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, entity.NewDocumentUnavailable(url, ctx.Err())
		}
	}
	if err != nil {
		return nil, entity.NewDocumentUnavailable(url, err)
	}
	if !ok {
		return nil, entity.NewDocumentUnavailable(url, fmt.Errorf("404"))
	}
	cp := *doc
	cp.Entries = append([]entity.Entry(nil), doc.Entries...)
	return &cp, nil
}

type memStore struct {
	mu      sync.Mutex
	path    string
	data    map[string]*entity.State
	writes  int
	failOn  string
	badPath string
}

func newMemStore(path string) *memStore {
	return &memStore{path: path, data: make(map[string]*entity.State)}
}

func (s *memStore) Load(context.Context) (*entity.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == "load" {
		return nil, entity.NewPersistenceError("load", errors.New("corrupt"))
	}
	st, ok := s.data[s.path]
	if !ok {
		return &entity.State{}, nil
	}
	cp := *st
	return &cp, nil
}

func (s *memStore) Save(_ context.Context, state *entity.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failOn == "save" {
		return entity.NewPersistenceError("save", errors.New("disk full"))
	}
	if st, ok := s.data[s.path]; ok && !st.LastChanged.Before(state.LastChanged) {
		return nil
	}
	cp := *state
	s.data[s.path] = &cp
	s.writes++
	return nil
}

func (s *memStore) SetPath(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if path == s.badPath {
		return entity.NewPersistenceError("open", errors.New("permission denied"))
	}
	s.path = path
	return nil
}

func (s *memStore) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path
}

func (s *memStore) Close() error { return nil }

func at(id, title string, ts time.Time) entity.Entry {
	return entity.Entry{ID: id, Title: title, Link: "https://example.com/" + id, PublishedAt: ts}
}

func entryIDs(entries []entity.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.ID
	}
	return out
}
