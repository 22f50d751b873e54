// Package postgres stores documents as jsonb rows in a single table and
// runs every atomic unit at SERIALIZABLE isolation.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gigboard/gigboard-api/internal/store"
)

const queryTimeout = 3 * time.Second

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	collection  TEXT        NOT NULL,
	id          TEXT        NOT NULL,
	data        JSONB       NOT NULL,
	version     BIGINT      NOT NULL DEFAULT 1,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (collection, id)
);
CREATE INDEX IF NOT EXISTS documents_data_gin ON documents USING GIN (data jsonb_path_ops);
`

const upsertSQL = `
	INSERT INTO documents (collection, id, data)
	VALUES ($1, $2, $3::jsonb)
	ON CONFLICT (collection, id) DO UPDATE
	SET data = EXCLUDED.data, version = documents.version + 1, updated_at = now()
`

const insertSQL = `
	INSERT INTO documents (collection, id, data)
	VALUES ($1, $2, $3::jsonb)
`

// Store is a store.Store backed by PostgreSQL
type Store struct {
	db          *sqlx.DB
	maxAttempts int
}

// New wraps an open connection pool
func New(db *sqlx.DB, maxAttempts int) *Store {
	return &Store{db: db, maxAttempts: maxAttempts}
}

// Migrate creates the documents table if it does not exist
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate documents: %w", err)
	}
	return nil
}

// RunAtomic implements store.Store
func (s *Store) RunAtomic(ctx context.Context, fn store.TxFunc) error {
	return store.Retry(ctx, s.maxAttempts, func() error {
		sqlTx, err := s.db.BeginTxx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
		if err != nil {
			return mapError(err)
		}
		defer sqlTx.Rollback()

		if err := fn(ctx, &tx{ctx: ctx, tx: sqlTx}); err != nil {
			return mapError(err)
		}
		return mapError(sqlTx.Commit())
	})
}

// Get implements store.Store
func (s *Store) Get(ctx context.Context, collection, id string, dst interface{}) error {
	return get(ctx, s.db, collection, id, dst, false)
}

// Query implements store.Store
func (s *Store) Query(ctx context.Context, q store.Query) ([]store.Document, error) {
	return query(ctx, s.db, q)
}

// Set implements store.Store
func (s *Store) Set(ctx context.Context, collection, id string, v interface{}) error {
	return exec(ctx, s.db, upsertSQL, collection, id, v)
}

// Close implements store.Store
func (s *Store) Close() error {
	return s.db.Close()
}

type tx struct {
	ctx context.Context
	tx  *sqlx.Tx
}

func (t *tx) Get(ctx context.Context, collection, id string, dst interface{}) error {
	return get(ctx, t.tx, collection, id, dst, true)
}

func (t *tx) Query(ctx context.Context, q store.Query) ([]store.Document, error) {
	return query(ctx, t.tx, q)
}

func (t *tx) Set(collection, id string, v interface{}) error {
	return exec(t.ctx, t.tx, upsertSQL, collection, id, v)
}

func (t *tx) Create(collection, id string, v interface{}) error {
	return exec(t.ctx, t.tx, insertSQL, collection, id, v)
}

func get(ctx context.Context, q sqlx.QueryerContext, collection, id string, dst interface{}, lock bool) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	stmt := `SELECT data FROM documents WHERE collection = $1 AND id = $2`
	if lock {
		stmt += ` FOR UPDATE`
	}

	var data []byte
	if err := sqlx.GetContext(ctx, q, &data, stmt, collection, id); err != nil {
		return mapError(err)
	}
	return json.Unmarshal(data, dst)
}

type row struct {
	ID   string `db:"id"`
	Data []byte `db:"data"`
}

func query(ctx context.Context, q sqlx.QueryerContext, sel store.Query) ([]store.Document, error) {
	stmt, args, err := buildQuery(sel)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var rows []row
	if err := sqlx.SelectContext(ctx, q, &rows, stmt, args...); err != nil {
		return nil, mapError(err)
	}

	docs := make([]store.Document, 0, len(rows))
	for _, r := range rows {
		docs = append(docs, store.Document{ID: r.ID, Data: r.Data})
	}
	return docs, nil
}

func exec(ctx context.Context, e sqlx.ExecerContext, stmt, collection, id string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, id, err)
	}

	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	if _, err := e.ExecContext(ctx, stmt, collection, id, string(data)); err != nil {
		return fmt.Errorf("%s/%s: %w", collection, id, mapError(err))
	}
	return nil
}

// buildQuery translates equality filters into jsonb path comparisons
func buildQuery(q store.Query) (string, []interface{}, error) {
	if q.Collection == "" {
		return "", nil, store.ErrInvalidQuery
	}

	var sb strings.Builder
	args := []interface{}{q.Collection}
	sb.WriteString(`SELECT id, data FROM documents WHERE collection = $1`)

	for _, f := range q.Filters {
		if f.Field == "" {
			return "", nil, store.ErrInvalidQuery
		}
		value, err := json.Marshal(f.Value)
		if err != nil {
			return "", nil, fmt.Errorf("%w: filter %s: %v", store.ErrInvalidQuery, f.Field, err)
		}
		args = append(args, pq.Array(strings.Split(f.Field, ".")), string(value))
		fmt.Fprintf(&sb, ` AND data #> $%d::text[] = $%d::jsonb`, len(args)-1, len(args))
	}

	if q.OrderBy != "" {
		args = append(args, pq.Array(strings.Split(q.OrderBy, ".")))
		dir := "ASC"
		if q.Desc {
			dir = "DESC"
		}
		sb.WriteString(` ORDER BY `)
		sb.WriteString(orderKeys(len(args), dir))
		sb.WriteString(`, id`)
	} else {
		sb.WriteString(` ORDER BY id`)
	}

	if q.Limit > 0 {
		fmt.Fprintf(&sb, ` LIMIT %d`, q.Limit)
	}
	return sb.String(), args, nil
}

// orderKeys sorts numbers numerically and RFC 3339 strings as instants,
// falling back to text. Encoded times drop trailing zeros, so plain text
// order would put "...:00Z" after "...:00.5Z".
func orderKeys(param int, dir string) string {
	value := fmt.Sprintf(`data #>> $%d::text[]`, param)
	return fmt.Sprintf(
		`CASE WHEN jsonb_typeof(data #> $%d::text[]) = 'number' THEN (%s)::numeric END %s, `+
			`CASE WHEN %s ~ '^\d{4}-\d{2}-\d{2}T' THEN (%s)::timestamptz END %s, `+
			`%s %s`,
		param, value, dir,
		value, value, dir,
		value, dir,
	)
}

// mapError folds driver errors into the store taxonomy
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01":
			return fmt.Errorf("%w: %s", store.ErrConflict, pqErr.Message)
		case "23505":
			return fmt.Errorf("%w: %s", store.ErrAlreadyExists, pqErr.Message)
		}
	}
	return err
}
