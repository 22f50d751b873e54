// Package store defines the transactional document store every ledger
// mutation goes through. Documents are JSON values addressed by
// collection and id.
//
// Transactions follow a read-then-write discipline: all Get and Query
// calls must happen before the first Set or Create. Backends that cannot
// enforce this themselves (postgres) still accept it; the in-memory and
// Firestore backends reject reads issued after a write.
package store

import (
	"context"
	"encoding/json"
)

// Collections
const (
	CollectionUsers              = "users"
	CollectionPayments           = "payments"
	CollectionCreditTransactions = "creditTransactions"
	CollectionPosts              = "posts"
	CollectionEngagements        = "engagements"
	CollectionNotifications      = "notifications"
	CollectionMessages           = "messages"
)

// Filter is an equality match on a dotted field path, e.g. "visibility.priority".
type Filter struct {
	Field string
	Value interface{}
}

// Query selects documents of one collection
type Query struct {
	Collection string
	Filters    []Filter
	OrderBy    string
	Desc       bool
	Limit      int
}

// Where returns a query on collection with a single equality filter
func Where(collection, field string, value interface{}) Query {
	return Query{Collection: collection, Filters: []Filter{{Field: field, Value: value}}}
}

// And appends an equality filter
func (q Query) And(field string, value interface{}) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Value: value})
	return q
}

// Document is a raw query result
type Document struct {
	ID   string
	Data json.RawMessage
}

// DataTo decodes the document into dst
func (d Document) DataTo(dst interface{}) error {
	return json.Unmarshal(d.Data, dst)
}

// Tx is the view of the store inside RunAtomic
type Tx interface {
	Get(ctx context.Context, collection, id string, dst interface{}) error
	Query(ctx context.Context, q Query) ([]Document, error)
	Set(collection, id string, v interface{}) error
	// Create fails with ErrAlreadyExists when the document exists at commit.
	Create(collection, id string, v interface{}) error
}

// TxFunc is the body of an atomic unit. It may run more than once.
type TxFunc func(ctx context.Context, tx Tx) error

// Store is the injected persistence boundary
type Store interface {
	// RunAtomic runs fn in a transaction, retrying on ErrConflict.
	RunAtomic(ctx context.Context, fn TxFunc) error
	Get(ctx context.Context, collection, id string, dst interface{}) error
	Query(ctx context.Context, q Query) ([]Document, error)
	Set(ctx context.Context, collection, id string, v interface{}) error
	Close() error
}
