package payment

import (
	"context"
	"errors"

	"github.com/gigboard/gigboard-api/internal/store"
)

// Repository reads payment records outside transactions
type Repository struct {
	store store.Store
}

// NewRepository creates payment repository
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// GetByID returns the record of an applied payment
func (r *Repository) GetByID(ctx context.Context, id string) (*Record, error) {
	var rec Record
	if err := r.store.Get(ctx, store.CollectionPayments, id, &rec); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// ListByUser returns the newest applied payments of a user
func (r *Repository) ListByUser(ctx context.Context, userID string, limit int) ([]Record, error) {
	q := store.Where(store.CollectionPayments, "userId", userID)
	q.OrderBy = "createdAt"
	q.Desc = true
	q.Limit = limit

	docs, err := r.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	records := make([]Record, 0, len(docs))
	for _, d := range docs {
		var rec Record
		if err := d.DataTo(&rec); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}
