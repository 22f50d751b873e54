package engagement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gigboard/gigboard-api/internal/domain/credit"
	"github.com/gigboard/gigboard-api/internal/domain/notification"
	"github.com/gigboard/gigboard-api/internal/domain/post"
	"github.com/gigboard/gigboard-api/internal/domain/user"
	"github.com/gigboard/gigboard-api/internal/store"
)

const defaultListLimit = 20

// Service handles the engagement lifecycle
type Service struct {
	store  store.Store
	ledger *credit.Ledger
	now    func() time.Time
}

// NewService creates engagement service
func NewService(s store.Store, ledger *credit.Ledger) *Service {
	return &Service{store: s, ledger: ledger, now: time.Now}
}

// WithClock returns a copy of the service using now as its time source
func (s *Service) WithClock(now func() time.Time) *Service {
	cp := *s
	cp.now = now
	return &cp
}

// Now is the service clock, for callers composing the Tx methods
func (s *Service) Now() time.Time {
	return s.now().UTC()
}

// Change is an engagement mutation whose reads are done. Apply performs
// its writes, including Notice.
type Change struct {
	Engagement *Engagement
	Notice     *notification.Notification
	apply      func() error
}

// Apply performs the writes of the change on its transaction
func (c *Change) Apply() error {
	return c.apply()
}

// Create charges the employer one credit and opens a pending engagement
// on the worker's post
func (s *Service) Create(ctx context.Context, employerID string, req CreateRequest) (*Engagement, error) {
	var c *Change
	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if c, err = s.PrepareCreate(ctx, tx, employerID, req); err != nil {
			return err
		}
		return c.Apply()
	})
	if errors.Is(err, store.ErrAlreadyExists) {
		return nil, ErrDuplicateEngagement
	}
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("engagement_id", c.Engagement.ID).
		Str("user_id", employerID).
		Str("worker_id", c.Engagement.WorkerID).
		Str("post_id", c.Engagement.AvailabilityPostID).
		Msg("Engagement created")
	return c.Engagement, nil
}

// PrepareCreate performs every read of a create inside tx. Callers that
// add their own documents must finish their reads before Apply.
func (s *Service) PrepareCreate(ctx context.Context, tx store.Tx, employerID string, req CreateRequest) (*Change, error) {
	if employerID == req.WorkerID {
		return nil, ErrSelfEngagement
	}
	now := s.Now()
	id := ID(employerID, req.WorkerID, req.PostID)

	var existing Engagement
	err := tx.Get(ctx, store.CollectionEngagements, id, &existing)
	if err == nil {
		return nil, ErrDuplicateEngagement
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("load engagement %s: %w", id, err)
	}

	p, err := post.GetTx(ctx, tx, req.PostID)
	if err != nil {
		return nil, err
	}
	if !p.IsOwnedBy(req.WorkerID) {
		return nil, ErrPostOwnerMismatch
	}
	if !p.IsActive() {
		return nil, post.ErrPostNotActive
	}

	employer, err := user.GetTx(ctx, tx, employerID)
	if err != nil {
		return nil, err
	}

	e := &Engagement{
		ID:                 id,
		FromUserID:         employerID,
		WorkerID:           req.WorkerID,
		AvailabilityPostID: req.PostID,
		Status:             StatusPending,
		Message:            req.Message,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	notice := notification.New(
		req.WorkerID,
		notification.TypeEngagementReceived,
		"New engagement request",
		"An employer is interested in \""+p.Title+"\"",
		map[string]string{"engagementId": id, "postId": req.PostID},
		now,
	)

	apply := func() error {
		e.ChargedUnlimited = employer.Credits.IsUnlimited()
		entryID, err := s.ledger.DeductTx(ctx, tx, employer, credit.ReasonEngagementSent, credit.Ref{EngagementID: id, PostID: req.PostID})
		if err != nil {
			return err
		}
		e.LedgerEntryID = entryID

		if err := tx.Create(store.CollectionEngagements, id, e); err != nil {
			return err
		}
		return notification.WriteTx(tx, notice)
	}
	return &Change{Engagement: e, Notice: notice, apply: apply}, nil
}

// Transition moves a pending engagement to next on behalf of actor.
// Declines and withdrawals refund the employer in the same transaction.
func (s *Service) Transition(ctx context.Context, actor, id string, next Status) (*Engagement, error) {
	var c *Change
	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx store.Tx) error {
		var err error
		if c, err = s.PrepareTransition(ctx, tx, actor, id, next); err != nil {
			return err
		}
		return c.Apply()
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("engagement_id", id).
		Str("user_id", actor).
		Str("status", string(next)).
		Msg("Engagement status changed")
	return c.Engagement, nil
}

// PrepareTransition performs the reads of a transition inside tx
func (s *Service) PrepareTransition(ctx context.Context, tx store.Tx, actor, id string, next Status) (*Change, error) {
	e, err := GetTx(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if !e.IsParticipant(actor) {
		return nil, ErrEngagementNotFound
	}
	if err := e.CanTransition(actor, next); err != nil {
		return nil, err
	}

	reason := RefundReason(next)
	var employer *user.User
	if reason != "" {
		if employer, err = user.GetTx(ctx, tx, e.FromUserID); err != nil {
			return nil, err
		}
	}

	now := s.Now()
	e.Status = next
	e.UpdatedAt = now
	notice := transitionNotice(e, actor, now)

	apply := func() error {
		if err := tx.Set(store.CollectionEngagements, e.ID, e); err != nil {
			return err
		}
		if employer != nil {
			ref := credit.Ref{EngagementID: e.ID, PostID: e.AvailabilityPostID, Unlimited: e.ChargedUnlimited}
			if err := s.ledger.RefundTx(ctx, tx, employer, reason, ref); err != nil {
				return err
			}
		}
		return notification.WriteTx(tx, notice)
	}
	return &Change{Engagement: e, Notice: notice, apply: apply}, nil
}

func transitionNotice(e *Engagement, actor string, now time.Time) *notification.Notification {
	var (
		typ   notification.Type
		title string
	)
	switch e.Status {
	case StatusAccepted:
		typ, title = notification.TypeEngagementAccepted, "Engagement accepted"
	case StatusDeclined:
		typ, title = notification.TypeEngagementDeclined, "Engagement declined, your credit was refunded"
	default:
		typ, title = notification.TypeEngagementWithdrawn, "Engagement withdrawn"
	}
	return notification.New(
		e.Counterpart(actor),
		typ,
		title,
		"",
		map[string]string{"engagementId": e.ID, "postId": e.AvailabilityPostID, "status": string(e.Status)},
		now,
	)
}

// GetTx loads an engagement inside a transaction
func GetTx(ctx context.Context, tx store.Tx, id string) (*Engagement, error) {
	var e Engagement
	if err := tx.Get(ctx, store.CollectionEngagements, id, &e); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrEngagementNotFound
		}
		return nil, fmt.Errorf("load engagement %s: %w", id, err)
	}
	return &e, nil
}

// GetByID returns an engagement visible to userID
func (s *Service) GetByID(ctx context.Context, userID, id string) (*Engagement, error) {
	var e Engagement
	if err := s.store.Get(ctx, store.CollectionEngagements, id, &e); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrEngagementNotFound
		}
		return nil, err
	}
	if !e.IsParticipant(userID) {
		return nil, ErrEngagementNotFound
	}
	return &e, nil
}

// List returns the engagements userID sent or received, newest first
func (s *Service) List(ctx context.Context, userID string, role Role, status Status, limit int) ([]Engagement, error) {
	field := "fromUserId"
	if role == RoleReceived {
		field = "workerId"
	}
	q := store.Where(store.CollectionEngagements, field, userID)
	if status != "" {
		q = q.And("status", status)
	}
	q.OrderBy = "createdAt"
	q.Desc = true
	q.Limit = limit
	if q.Limit <= 0 || q.Limit > 100 {
		q.Limit = defaultListLimit
	}

	docs, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]Engagement, 0, len(docs))
	for _, d := range docs {
		var e Engagement
		if err := d.DataTo(&e); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

// ReferencedPosts reports which of postIDs have at least one engagement,
// in any status, using reads on tx
func ReferencedPosts(ctx context.Context, tx store.Tx, postIDs []string) (map[string]bool, error) {
	refs := make(map[string]bool, len(postIDs))
	for _, id := range postIDs {
		q := store.Where(store.CollectionEngagements, "availabilityPostId", id)
		q.Limit = 1
		docs, err := tx.Query(ctx, q)
		if err != nil {
			return nil, err
		}
		refs[id] = len(docs) > 0
	}
	return refs, nil
}
