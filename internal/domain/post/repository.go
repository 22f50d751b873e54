package post

import (
	"context"
	"errors"
	"fmt"

	"github.com/gigboard/gigboard-api/internal/store"
)

// GetTx loads a post inside a transaction
func GetTx(ctx context.Context, tx store.Tx, id string) (*Post, error) {
	var p Post
	if err := tx.Get(ctx, store.CollectionPosts, id, &p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPostNotFound
		}
		return nil, fmt.Errorf("load post %s: %w", id, err)
	}
	return &p, nil
}

// SaveTx writes the post inside a transaction
func SaveTx(tx store.Tx, p *Post) error {
	return tx.Set(store.CollectionPosts, p.ID, p)
}

// ActiveSeasonalQuery selects the posts the sweeper may advance
func ActiveSeasonalQuery() store.Query {
	return store.Where(store.CollectionPosts, "type", TypeSeasonal).
		And("visibility.priority", PriorityActive)
}

// Decode turns query results into posts
func Decode(docs []store.Document) ([]Post, error) {
	out := make([]Post, 0, len(docs))
	for _, d := range docs {
		var p Post
		if err := d.DataTo(&p); err != nil {
			return nil, fmt.Errorf("decode post %s: %w", d.ID, err)
		}
		out = append(out, p)
	}
	return out, nil
}
