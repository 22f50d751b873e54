// Package memory is an in-process store.Store with optimistic concurrency.
// Each transaction records the version of every document and collection it
// read; commit fails with store.ErrConflict if any of them moved.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gigboard/gigboard-api/internal/store"
)

type record struct {
	data    json.RawMessage
	version int64
}

type docKey struct {
	collection string
	id         string
}

// Store keeps all documents in memory
type Store struct {
	mu          sync.Mutex
	docs        map[string]map[string]*record
	collections map[string]int64
	clock       int64
	maxAttempts int
}

// Option configures the store
type Option func(*Store)

// WithMaxAttempts overrides the conflict retry budget
func WithMaxAttempts(n int) Option {
	return func(s *Store) { s.maxAttempts = n }
}

// New creates an empty store
func New(opts ...Option) *Store {
	s := &Store{
		docs:        make(map[string]map[string]*record),
		collections: make(map[string]int64),
		maxAttempts: store.DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunAtomic implements store.Store
func (s *Store) RunAtomic(ctx context.Context, fn store.TxFunc) error {
	return store.Retry(ctx, s.maxAttempts, func() error {
		t := &tx{
			s:        s,
			reads:    make(map[docKey]int64),
			colReads: make(map[string]int64),
		}
		if err := fn(ctx, t); err != nil {
			return err
		}
		return t.commit()
	})
}

// Get implements store.Store
func (s *Store) Get(_ context.Context, collection, id string, dst interface{}) error {
	data, _, err := s.load(collection, id)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

// Query implements store.Store
func (s *Store) Query(_ context.Context, q store.Query) ([]store.Document, error) {
	docs, _, err := s.scan(q)
	return docs, err
}

// Set implements store.Store
func (s *Store) Set(_ context.Context, collection, id string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(collection, id, data)
	return nil
}

// Close implements store.Store
func (s *Store) Close() error { return nil }

// Len returns the number of documents in a collection
func (s *Store) Len(collection string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs[collection])
}

func (s *Store) load(collection, id string) (json.RawMessage, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.docs[collection][id]
	if !ok {
		return nil, 0, store.ErrNotFound
	}
	return rec.data, rec.version, nil
}

func (s *Store) scan(q store.Query) ([]store.Document, int64, error) {
	if q.Collection == "" {
		return nil, 0, store.ErrInvalidQuery
	}

	s.mu.Lock()
	version := s.collections[q.Collection]
	candidates := make([]store.Document, 0, len(s.docs[q.Collection]))
	for id, rec := range s.docs[q.Collection] {
		candidates = append(candidates, store.Document{ID: id, Data: rec.data})
	}
	s.mu.Unlock()

	var out []store.Document
	var values []map[string]interface{}
	for _, doc := range candidates {
		var m map[string]interface{}
		if err := json.Unmarshal(doc.Data, &m); err != nil {
			return nil, 0, fmt.Errorf("decode %s/%s: %w", q.Collection, doc.ID, err)
		}
		if matches(m, q.Filters) {
			out = append(out, doc)
			values = append(values, m)
		}
	}

	idx := make([]int, len(out))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		da, db := out[idx[a]], out[idx[b]]
		if q.OrderBy != "" {
			c := compare(lookup(values[idx[a]], q.OrderBy), lookup(values[idx[b]], q.OrderBy))
			if c != 0 {
				if q.Desc {
					return c > 0
				}
				return c < 0
			}
		}
		return da.ID < db.ID
	})

	sorted := make([]store.Document, len(out))
	for i, j := range idx {
		sorted[i] = out[j]
	}
	if q.Limit > 0 && len(sorted) > q.Limit {
		sorted = sorted[:q.Limit]
	}
	return sorted, version, nil
}

// put must be called with mu held
func (s *Store) put(collection, id string, data json.RawMessage) {
	s.clock++
	col, ok := s.docs[collection]
	if !ok {
		col = make(map[string]*record)
		s.docs[collection] = col
	}
	col[id] = &record{data: data, version: s.clock}
	s.collections[collection] = s.clock
}

type write struct {
	key    docKey
	data   json.RawMessage
	create bool
}

type tx struct {
	s        *Store
	reads    map[docKey]int64
	colReads map[string]int64
	writes   []write
}

func (t *tx) Get(_ context.Context, collection, id string, dst interface{}) error {
	if len(t.writes) > 0 {
		return store.ErrReadAfterWrite
	}
	data, version, err := t.s.load(collection, id)
	t.reads[docKey{collection, id}] = version
	if err != nil {
		return err
	}
	return json.Unmarshal(data, dst)
}

func (t *tx) Query(_ context.Context, q store.Query) ([]store.Document, error) {
	if len(t.writes) > 0 {
		return nil, store.ErrReadAfterWrite
	}
	docs, version, err := t.s.scan(q)
	if err != nil {
		return nil, err
	}
	t.colReads[q.Collection] = version
	return docs, nil
}

func (t *tx) Set(collection, id string, v interface{}) error {
	return t.buffer(collection, id, v, false)
}

func (t *tx) Create(collection, id string, v interface{}) error {
	return t.buffer(collection, id, v, true)
}

func (t *tx) buffer(collection, id string, v interface{}, create bool) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	t.writes = append(t.writes, write{key: docKey{collection, id}, data: data, create: create})
	return nil
}

func (t *tx) commit() error {
	s := t.s
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, seen := range t.reads {
		var current int64
		if rec, ok := s.docs[key.collection][key.id]; ok {
			current = rec.version
		}
		if current != seen {
			return store.ErrConflict
		}
	}
	for collection, seen := range t.colReads {
		if s.collections[collection] != seen {
			return store.ErrConflict
		}
	}

	pending := make(map[docKey]bool)
	for _, w := range t.writes {
		if w.create {
			if _, ok := s.docs[w.key.collection][w.key.id]; ok || pending[w.key] {
				return fmt.Errorf("%s/%s: %w", w.key.collection, w.key.id, store.ErrAlreadyExists)
			}
		}
		pending[w.key] = true
	}

	for _, w := range t.writes {
		s.put(w.key.collection, w.key.id, w.data)
	}
	return nil
}

func matches(doc map[string]interface{}, filters []store.Filter) bool {
	for _, f := range filters {
		got, err := json.Marshal(lookup(doc, f.Field))
		if err != nil {
			return false
		}
		want, err := json.Marshal(f.Value)
		if err != nil {
			return false
		}
		if string(got) != string(want) {
			return false
		}
	}
	return true
}

func lookup(doc map[string]interface{}, path string) interface{} {
	var cur interface{} = doc
	for _, part := range strings.Split(path, ".") {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[part]
	}
	return cur
}

func compare(a, b interface{}) int {
	switch av := a.(type) {
	case float64:
		if bv, ok := b.(float64); ok {
			switch {
			case av < bv:
				return -1
			case av > bv:
				return 1
			}
			return 0
		}
	case string:
		if bv, ok := b.(string); ok {
			ta, errA := time.Parse(time.RFC3339Nano, av)
			tb, errB := time.Parse(time.RFC3339Nano, bv)
			if errA == nil && errB == nil {
				return ta.Compare(tb)
			}
			return strings.Compare(av, bv)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
