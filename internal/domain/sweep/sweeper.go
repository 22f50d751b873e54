// Package sweep advances the visibility of seasonal posts whose schedule
// has ended.
package sweep

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gigboard/gigboard-api/internal/domain/engagement"
	"github.com/gigboard/gigboard-api/internal/domain/post"
	"github.com/gigboard/gigboard-api/internal/store"
)

// Result summarizes one sweep
type Result struct {
	Examined int `json:"examined"`
	Expired  int `json:"expired"`
	Consumed int `json:"consumed"`
}

// Changed is the number of posts moved out of active
func (r Result) Changed() int {
	return r.Expired + r.Consumed
}

// Sweeper moves ended seasonal posts out of active
type Sweeper struct {
	store store.Store
}

// NewSweeper creates a sweeper
func NewSweeper(s store.Store) *Sweeper {
	return &Sweeper{store: s}
}

// Run examines every active seasonal post. Posts whose schedule ended at
// or before now become consumed when any engagement references them and
// expired otherwise. All changes commit in one transaction; only active
// posts are selected, so a post is never advanced twice.
func (s *Sweeper) Run(ctx context.Context, now time.Time) (Result, error) {
	now = now.UTC()
	var res Result

	err := s.store.RunAtomic(ctx, func(ctx context.Context, tx store.Tx) error {
		res = Result{}

		docs, err := tx.Query(ctx, post.ActiveSeasonalQuery())
		if err != nil {
			return err
		}
		active, err := post.Decode(docs)
		if err != nil {
			return err
		}
		res.Examined = len(active)

		var (
			due []post.Post
			ids []string
		)
		for _, p := range active {
			if p.Schedule.Ended(now) {
				due = append(due, p)
				ids = append(ids, p.ID)
			}
		}
		if len(due) == 0 {
			return nil
		}

		referenced, err := engagement.ReferencedPosts(ctx, tx, ids)
		if err != nil {
			return err
		}

		for i := range due {
			p := &due[i]
			if referenced[p.ID] {
				p.SetPriority(post.PriorityConsumed, now)
				res.Consumed++
			} else {
				p.SetPriority(post.PriorityExpired, now)
				res.Expired++
			}
			if err := post.SaveTx(tx, p); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Result{}, err
	}

	log.Info().
		Int("examined", res.Examined).
		Int("expired", res.Expired).
		Int("consumed", res.Consumed).
		Msg("Visibility sweep finished")
	return res, nil
}
