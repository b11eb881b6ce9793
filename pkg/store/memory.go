package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
)

// Memory is an in-process Store with synchronous change delivery. It backs
// tests and local development; the production store is Mongo.
type Memory struct {
	mu      sync.Mutex
	docs    map[string][]Doc // collection path -> docs in insertion order
	subs    map[int]*memorySub
	nextSub int
}

type memorySub struct {
	pattern  string
	onChange ChangeHandler
	active   bool
}

func NewMemory() *Memory {
	return &Memory{
		docs: make(map[string][]Doc),
		subs: make(map[int]*memorySub),
	}
}

func (m *Memory) Create(_ context.Context, collection string, doc Document) (string, error) {
	id := uuid.NewString()
	m.mu.Lock()
	m.docs[collection] = append(m.docs[collection], Doc{
		ID:   id,
		Path: collection + "/" + id,
		Data: cloneDocument(doc),
	})
	m.mu.Unlock()
	m.notify(collection)
	return id, nil
}

func (m *Memory) Update(_ context.Context, docPath string, fields Document) error {
	collection, id, err := SplitDocPath(docPath)
	if err != nil {
		return err
	}
	m.mu.Lock()
	for i, d := range m.docs[collection] {
		if d.ID == id {
			for k, v := range fields {
				m.docs[collection][i].Data[k] = v
			}
			break
		}
	}
	m.mu.Unlock()
	m.notify(collection)
	return nil
}

func (m *Memory) Delete(_ context.Context, docPath string) error {
	collection, id, err := SplitDocPath(docPath)
	if err != nil {
		return err
	}
	m.mu.Lock()
	docs := m.docs[collection]
	for i, d := range docs {
		if d.ID == id {
			m.docs[collection] = append(docs[:i:i], docs[i+1:]...)
			break
		}
	}
	m.mu.Unlock()
	m.notify(collection)
	return nil
}

func (m *Memory) DeleteAll(_ context.Context, collection string) error {
	m.mu.Lock()
	delete(m.docs, collection)
	m.mu.Unlock()
	m.notify(collection)
	return nil
}

func (m *Memory) Subscribe(_ context.Context, pattern string, onChange ChangeHandler, _ ErrorHandler) (Unsubscribe, error) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	sub := &memorySub{pattern: pattern, onChange: onChange, active: true}
	m.subs[id] = sub
	initial := m.snapshotLocked(pattern)
	m.mu.Unlock()

	onChange(initial)

	return func() {
		m.mu.Lock()
		sub.active = false
		delete(m.subs, id)
		m.mu.Unlock()
	}, nil
}

// Dump returns the current documents of a collection, for tests.
func (m *Memory) Dump(collection string) []Doc {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Doc, len(m.docs[collection]))
	copy(out, m.docs[collection])
	return out
}

func (m *Memory) notify(collection string) {
	m.mu.Lock()
	type delivery struct {
		fn   ChangeHandler
		snap Snapshot
	}
	var pending []delivery
	for _, sub := range m.subs {
		if sub.active && MatchPattern(sub.pattern, collection) {
			pending = append(pending, delivery{sub.onChange, m.snapshotLocked(sub.pattern)})
		}
	}
	m.mu.Unlock()

	for _, d := range pending {
		d.fn(d.snap)
	}
}

func (m *Memory) snapshotLocked(pattern string) Snapshot {
	var collections []string
	for c := range m.docs {
		if MatchPattern(pattern, c) {
			collections = append(collections, c)
		}
	}
	sort.Strings(collections)

	snap := Snapshot{Pattern: pattern}
	for _, c := range collections {
		for _, d := range m.docs[c] {
			snap.Docs = append(snap.Docs, Doc{ID: d.ID, Path: d.Path, Data: cloneDocument(d.Data)})
		}
	}
	return snap
}

func cloneDocument(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
