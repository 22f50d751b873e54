package credit

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gigboard/gigboard-api/internal/domain/user"
	"github.com/gigboard/gigboard-api/internal/store"
)

const defaultHistoryLimit = 50

// Service runs ledger operations as standalone atomic units and serves
// read models
type Service struct {
	store  store.Store
	ledger *Ledger
}

// NewService creates credit service
func NewService(s store.Store, ledger *Ledger) *Service {
	return &Service{store: s, ledger: ledger}
}

// Deduct spends one credit from userID in its own transaction
func (s *Service) Deduct(ctx context.Context, userID, reason string, ref Ref) (string, error) {
	var entryID string
	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx store.Tx) error {
		u, err := user.GetTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		entryID, err = s.ledger.DeductTx(ctx, tx, u, reason, ref)
		return err
	})
	if err != nil {
		return "", err
	}

	log.Info().
		Str("user_id", userID).
		Str("engagement_id", ref.EngagementID).
		Str("entry_id", entryID).
		Msg("Credit deducted")
	return entryID, nil
}

// Refund returns one credit to userID in its own transaction
func (s *Service) Refund(ctx context.Context, userID, reason string, ref Ref) error {
	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx store.Tx) error {
		u, err := user.GetTx(ctx, tx, userID)
		if err != nil {
			return err
		}
		return s.ledger.RefundTx(ctx, tx, u, reason, ref)
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("user_id", userID).
		Str("engagement_id", ref.EngagementID).
		Str("reason", reason).
		Msg("Credit refunded")
	return nil
}

// Balance returns the user's credits
func (s *Service) Balance(ctx context.Context, userID string) (user.Credits, error) {
	u, err := user.NewRepository(s.store).GetByID(ctx, userID)
	if err != nil {
		return user.Credits{}, err
	}
	return u.Credits, nil
}

// History returns the newest ledger entries of a user
func (s *Service) History(ctx context.Context, userID string, limit int) ([]Transaction, error) {
	if limit <= 0 || limit > 200 {
		limit = defaultHistoryLimit
	}

	q := store.Where(store.CollectionCreditTransactions, "userId", userID)
	q.OrderBy = "createdAt"
	q.Desc = true
	q.Limit = limit

	docs, err := s.store.Query(ctx, q)
	if err != nil {
		return nil, err
	}

	out := make([]Transaction, 0, len(docs))
	for _, d := range docs {
		var t Transaction
		if err := d.DataTo(&t); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

// Summary is the GET /credits payload
type Summary struct {
	Credits      user.Credits  `json:"credits"`
	Unlimited    bool          `json:"unlimited"`
	Transactions []Transaction `json:"transactions"`
	AsOf         time.Time     `json:"asOf"`
}
