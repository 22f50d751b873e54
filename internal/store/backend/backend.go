// Package backend opens the store.Store selected by configuration
package backend

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"github.com/rs/zerolog/log"

	"github.com/gigboard/gigboard-api/internal/config"
	"github.com/gigboard/gigboard-api/internal/pkg/database"
	"github.com/gigboard/gigboard-api/internal/store"
	"github.com/gigboard/gigboard-api/internal/store/firestore"
	"github.com/gigboard/gigboard-api/internal/store/memory"
	"github.com/gigboard/gigboard-api/internal/store/postgres"
)

// NeedsFirebase reports whether cfg requires a Firebase app
func NeedsFirebase(cfg *config.Config) bool {
	return cfg.StoreDriver == config.StoreFirestore || cfg.AuthProvider == config.AuthFirebase
}

// Open returns the store for cfg.StoreDriver. app is only used by the
// firestore driver.
func Open(ctx context.Context, cfg *config.Config, app *firebase.App) (store.Store, error) {
	switch cfg.StoreDriver {
	case config.StoreMemory:
		log.Warn().Msg("Using in-memory store, data is lost on restart")
		return memory.New(memory.WithMaxAttempts(cfg.StoreMaxAttempts)), nil

	case config.StorePostgres:
		db, err := database.NewPostgres(cfg.DatabaseURL, database.PostgresOptions{
			MaxOpenConns: cfg.DBMaxOpenConns,
			MaxIdleConns: cfg.DBMaxIdleConns,
			ConnLifetime: cfg.DBConnLifetime,
		})
		if err != nil {
			return nil, err
		}
		s := postgres.New(db, cfg.StoreMaxAttempts)
		if err := s.Migrate(ctx); err != nil {
			database.ClosePostgres(db)
			return nil, err
		}
		return s, nil

	case config.StoreFirestore:
		if app == nil {
			return nil, fmt.Errorf("firestore store requires a firebase app")
		}
		client, err := app.Firestore(ctx)
		if err != nil {
			return nil, fmt.Errorf("open firestore: %w", err)
		}
		return firestore.New(client, cfg.StoreMaxAttempts), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
