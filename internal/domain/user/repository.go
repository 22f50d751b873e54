package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gigboard/gigboard-api/internal/store"
)

// GetTx loads a user inside a transaction
func GetTx(ctx context.Context, tx store.Tx, id string) (*User, error) {
	var u User
	if err := tx.Get(ctx, store.CollectionUsers, id, &u); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("load user %s: %w", id, err)
	}
	return &u, nil
}

// SaveTx writes the user back inside a transaction
func SaveTx(tx store.Tx, u *User, now time.Time) error {
	u.UpdatedAt = now.UTC()
	return tx.Set(store.CollectionUsers, u.ID, u)
}

// Repository reads users outside transactions
type Repository struct {
	store store.Store
}

// NewRepository creates a user repository
func NewRepository(s store.Store) *Repository {
	return &Repository{store: s}
}

// GetByID returns a user or ErrUserNotFound
func (r *Repository) GetByID(ctx context.Context, id string) (*User, error) {
	var u User
	if err := r.store.Get(ctx, store.CollectionUsers, id, &u); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Ensure returns the user, creating a free-tier profile on first access
func (r *Repository) Ensure(ctx context.Context, id string, now time.Time) (*User, error) {
	var out *User
	err := r.store.RunAtomic(ctx, func(ctx context.Context, tx store.Tx) error {
		u, err := GetTx(ctx, tx, id)
		if err == nil {
			out = u
			return nil
		}
		if !errors.Is(err, ErrUserNotFound) {
			return err
		}
		out = New(id, now)
		return tx.Create(store.CollectionUsers, id, out)
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return r.GetByID(ctx, id)
	}
	return out, err
}
