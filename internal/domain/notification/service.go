package notification

import (
	"context"
	"errors"
	"time"

	"github.com/gigboard/gigboard-api/internal/store"
)

const maxListLimit = 100

// WriteTx records a notification inside the caller's transaction
func WriteTx(tx store.Tx, n *Notification) error {
	return tx.Create(store.CollectionNotifications, n.ID, n)
}

// Service reads and acknowledges notifications
type Service struct {
	store store.Store
	now   func() time.Time
}

// NewService creates notification service
func NewService(s store.Store) *Service {
	return &Service{store: s, now: time.Now}
}

// List returns notifications for user, newest first
func (s *Service) List(ctx context.Context, userID string, limit int, unreadOnly bool) ([]Notification, error) {
	if limit <= 0 || limit > maxListLimit {
		limit = 20
	}
	q := store.Where(store.CollectionNotifications, "userId", userID)
	if unreadOnly {
		q = q.And("read", false)
	}
	q.OrderBy = "createdAt"
	q.Desc = true
	q.Limit = limit

	docs, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return decodeAll(docs)
}

// GetUnreadCount returns unread count
func (s *Service) GetUnreadCount(ctx context.Context, userID string) (int, error) {
	docs, err := s.store.Query(ctx, store.Where(store.CollectionNotifications, "userId", userID).And("read", false))
	if err != nil {
		return 0, err
	}
	return len(docs), nil
}

// MarkAsRead marks a single notification of userID as read
func (s *Service) MarkAsRead(ctx context.Context, userID, id string) error {
	return s.store.RunAtomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var n Notification
		if err := tx.Get(ctx, store.CollectionNotifications, id, &n); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotificationNotFound
			}
			return err
		}
		if n.UserID != userID {
			return ErrNotificationNotFound
		}
		if n.Read {
			return nil
		}
		markRead(&n, s.now())
		return tx.Set(store.CollectionNotifications, n.ID, n)
	})
}

// MarkAllAsRead marks all notifications of userID as read
func (s *Service) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	var marked int
	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx store.Tx) error {
		docs, err := tx.Query(ctx, store.Where(store.CollectionNotifications, "userId", userID).And("read", false))
		if err != nil {
			return err
		}
		unread, err := decodeAll(docs)
		if err != nil {
			return err
		}

		now := s.now()
		for i := range unread {
			markRead(&unread[i], now)
			if err := tx.Set(store.CollectionNotifications, unread[i].ID, unread[i]); err != nil {
				return err
			}
		}
		marked = len(unread)
		return nil
	})
	return marked, err
}

func markRead(n *Notification, now time.Time) {
	at := now.UTC()
	n.Read = true
	n.ReadAt = &at
}

func decodeAll(docs []store.Document) ([]Notification, error) {
	out := make([]Notification, 0, len(docs))
	for _, d := range docs {
		var n Notification
		if err := d.DataTo(&n); err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, nil
}
