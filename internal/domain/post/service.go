package post

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/gigboard/gigboard-api/internal/domain/credit"
	"github.com/gigboard/gigboard-api/internal/domain/membership"
	"github.com/gigboard/gigboard-api/internal/domain/user"
	"github.com/gigboard/gigboard-api/internal/store"
)

const defaultListLimit = 20

// Service handles posting business logic
type Service struct {
	store  store.Store
	ledger *credit.Ledger
	now    func() time.Time
}

// NewService creates post service
func NewService(s store.Store, ledger *credit.Ledger) *Service {
	return &Service{store: s, ledger: ledger, now: time.Now}
}

// WithClock returns a copy of the service using now as its time source
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

// Create publishes a post. Active premium members post for free; everyone
// else pays one credit in the same transaction that writes the post.
// Full-time posts also count against the monthly allowance.
func (s *Service) Create(ctx context.Context, ownerID string, req *CreateRequest) (*Post, error) {
	now := s.now().UTC()

	p := &Post{
		ID:          uuid.NewString(),
		UserID:      ownerID,
		Type:        Type(req.Type),
		Title:       req.Title,
		Description: req.Description,
		Location:    req.Location,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if p.Location == nil {
		p.Location = []string{}
	}
	if req.Rate != nil {
		p.Rate = Rate{AmountCents: req.Rate.AmountCents, Unit: req.Rate.Unit}
	}
	if req.Schedule != nil {
		if !req.Schedule.End.After(req.Schedule.Start) {
			return nil, ErrInvalidSchedule
		}
		p.Schedule = &Schedule{Start: req.Schedule.Start.UTC(), End: req.Schedule.End.UTC()}
	}
	if p.Type == TypeSeasonal && p.Schedule == nil {
		return nil, ErrScheduleRequired
	}
	p.SetPriority(InitialPriority(p.Type, p.Schedule, now), now)

	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx store.Tx) error {
		p.LedgerEntryID = ""

		u, err := user.GetTx(ctx, tx, ownerID)
		if err != nil {
			return err
		}

		if p.Type == TypeFullTime {
			if err := membership.ConsumeFullTimeAd(u, now); err != nil {
				return err
			}
		}

		if u.IsPremiumActive(now) {
			if err := user.SaveTx(tx, u, now); err != nil {
				return err
			}
		} else {
			entryID, err := s.ledger.DeductTx(ctx, tx, u, credit.ReasonPostCreated, credit.Ref{PostID: p.ID})
			if err != nil {
				return err
			}
			p.LedgerEntryID = entryID
		}

		return tx.Create(store.CollectionPosts, p.ID, p)
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("post_id", p.ID).
		Str("user_id", ownerID).
		Str("type", string(p.Type)).
		Str("priority", string(p.Visibility.Priority)).
		Bool("charged", p.LedgerEntryID != "").
		Msg("Post created")
	return p, nil
}

// Withdraw lets the owner take an active post down
func (s *Service) Withdraw(ctx context.Context, ownerID, postID string) (*Post, error) {
	var out *Post
	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx store.Tx) error {
		p, err := GetTx(ctx, tx, postID)
		if err != nil {
			return err
		}
		if !p.IsOwnedBy(ownerID) {
			return ErrNotPostOwner
		}
		if !p.IsActive() {
			return ErrPostNotActive
		}
		p.SetPriority(PriorityWithdrawn, s.now())
		out = p
		return SaveTx(tx, p)
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("post_id", postID).Str("user_id", ownerID).Msg("Post withdrawn")
	return out, nil
}

// GetByID returns a post
func (s *Service) GetByID(ctx context.Context, id string) (*Post, error) {
	var p Post
	if err := s.store.Get(ctx, store.CollectionPosts, id, &p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns active posts, or every post of filter.UserID when set
func (s *Service) List(ctx context.Context, filter ListFilter) ([]Post, error) {
	var q store.Query
	if filter.UserID != "" {
		q = store.Where(store.CollectionPosts, "userId", filter.UserID)
	} else {
		q = store.Where(store.CollectionPosts, "visibility.priority", PriorityActive)
	}
	if filter.Type != "" {
		q = q.And("type", filter.Type)
	}
	q.OrderBy = "createdAt"
	q.Desc = true
	q.Limit = filter.Limit
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = defaultListLimit
	}

	docs, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	return Decode(docs)
}
