// Package firestore adapts Cloud Firestore to store.Store. Documents are
// JSON-encoded first so field names follow the json tags of the domain
// types, then written as native Firestore maps with timestamps restored.
package firestore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	gcfirestore "cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/gigboard/gigboard-api/internal/store"
)

// Store is a store.Store backed by Firestore
type Store struct {
	client      *gcfirestore.Client
	maxAttempts int
}

// New wraps a Firestore client
func New(client *gcfirestore.Client, maxAttempts int) *Store {
	if maxAttempts <= 0 {
		maxAttempts = store.DefaultMaxAttempts
	}
	return &Store{client: client, maxAttempts: maxAttempts}
}

// RunAtomic implements store.Store. Firestore retries aborted transactions
// itself; MaxAttempts bounds it.
func (s *Store) RunAtomic(ctx context.Context, fn store.TxFunc) error {
	err := s.client.RunTransaction(ctx, func(ctx context.Context, t *gcfirestore.Transaction) error {
		return fn(ctx, &tx{client: s.client, tx: t})
	}, gcfirestore.MaxAttempts(s.maxAttempts))
	return mapError(err)
}

// Get implements store.Store
func (s *Store) Get(ctx context.Context, collection, id string, dst interface{}) error {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return mapError(err)
	}
	return decode(snap, dst)
}

// Query implements store.Store
func (s *Store) Query(ctx context.Context, q store.Query) ([]store.Document, error) {
	fq, err := buildQuery(s.client, q)
	if err != nil {
		return nil, err
	}
	snaps, err := fq.Documents(ctx).GetAll()
	if err != nil {
		return nil, mapError(err)
	}
	return documents(snaps)
}

// Set implements store.Store
func (s *Store) Set(ctx context.Context, collection, id string, v interface{}) error {
	data, err := encode(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	_, err = s.client.Collection(collection).Doc(id).Set(ctx, data)
	return mapError(err)
}

// Close implements store.Store
func (s *Store) Close() error {
	return s.client.Close()
}

func buildQuery(client *gcfirestore.Client, q store.Query) (gcfirestore.Query, error) {
	if q.Collection == "" {
		return gcfirestore.Query{}, store.ErrInvalidQuery
	}
	fq := client.Collection(q.Collection).Query
	for _, f := range q.Filters {
		fq = fq.Where(f.Field, "==", normalizeValue(f.Value))
	}
	if q.OrderBy != "" {
		dir := gcfirestore.Asc
		if q.Desc {
			dir = gcfirestore.Desc
		}
		fq = fq.OrderBy(q.OrderBy, dir)
	}
	if q.Limit > 0 {
		fq = fq.Limit(q.Limit)
	}
	return fq, nil
}

type tx struct {
	client *gcfirestore.Client
	tx     *gcfirestore.Transaction
	wrote  bool
}

func (t *tx) Get(_ context.Context, collection, id string, dst interface{}) error {
	if t.wrote {
		return store.ErrReadAfterWrite
	}
	snap, err := t.tx.Get(t.client.Collection(collection).Doc(id))
	if err != nil {
		return mapError(err)
	}
	return decode(snap, dst)
}

func (t *tx) Query(_ context.Context, q store.Query) ([]store.Document, error) {
	if t.wrote {
		return nil, store.ErrReadAfterWrite
	}
	fq, err := buildQuery(t.client, q)
	if err != nil {
		return nil, err
	}
	snaps, err := t.tx.Documents(fq).GetAll()
	if err != nil {
		return nil, mapError(err)
	}
	return documents(snaps)
}

func (t *tx) Set(collection, id string, v interface{}) error {
	data, err := encode(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	t.wrote = true
	return t.tx.Set(t.client.Collection(collection).Doc(id), data)
}

func (t *tx) Create(collection, id string, v interface{}) error {
	data, err := encode(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}
	t.wrote = true
	return t.tx.Create(t.client.Collection(collection).Doc(id), data)
}

func documents(snaps []*gcfirestore.DocumentSnapshot) ([]store.Document, error) {
	docs := make([]store.Document, 0, len(snaps))
	for _, snap := range snaps {
		raw, err := json.Marshal(snap.Data())
		if err != nil {
			return nil, fmt.Errorf("decode %s: %w", snap.Ref.Path, err)
		}
		docs = append(docs, store.Document{ID: snap.Ref.ID, Data: raw})
	}
	return docs, nil
}

func decode(snap *gcfirestore.DocumentSnapshot, dst interface{}) error {
	raw, err := json.Marshal(snap.Data())
	if err != nil {
		return fmt.Errorf("decode %s: %w", snap.Ref.Path, err)
	}
	return json.Unmarshal(raw, dst)
}

// encode turns v into a Firestore map, keeping integers as integers
func encode(v interface{}) (map[string]interface{}, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var m map[string]interface{}
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return normalizeMap(m), nil
}

func normalizeMap(m map[string]interface{}) map[string]interface{} {
	for k, v := range m {
		m[k] = normalizeValue(v)
	}
	return m
}

func normalizeValue(v interface{}) interface{} {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		f, _ := val.Float64()
		return f
	case map[string]interface{}:
		return normalizeMap(val)
	case []interface{}:
		for i := range val {
			val[i] = normalizeValue(val[i])
		}
		return val
	case string:
		return stringValue(val)
	case int:
		return int64(val)
	}

	// named string types (e.g. a status enum) must reach Firestore as plain strings
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return stringValue(s)
	}
	return v
}

// stringValue stores encoded UTC instants as Firestore timestamps so they
// order chronologically. Firestore keeps microseconds.
func stringValue(s string) interface{} {
	if len(s) < len("2006-01-02T15:04:05Z") || s[4] != '-' || s[10] != 'T' || s[len(s)-1] != 'Z' {
		return s
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil || t.Format(time.RFC3339Nano) != s {
		return s
	}
	return t
}

func mapError(err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.NotFound:
		return store.ErrNotFound
	case codes.AlreadyExists:
		return fmt.Errorf("%w: %v", store.ErrAlreadyExists, err)
	case codes.Aborted:
		return fmt.Errorf("%w: %v", store.ErrConflict, err)
	}
	return err
}
