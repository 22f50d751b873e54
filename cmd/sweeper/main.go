// Command sweeper runs the visibility sweep once and exits. It is meant
// for cron-driven deployments where the API runs with SWEEP_ENABLED=false.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/rs/zerolog/log"

	"github.com/gigboard/gigboard-api/internal/config"
	"github.com/gigboard/gigboard-api/internal/domain/sweep"
	"github.com/gigboard/gigboard-api/internal/pkg/database"
	"github.com/gigboard/gigboard-api/internal/pkg/logger"
	"github.com/gigboard/gigboard-api/internal/store"
	"github.com/gigboard/gigboard-api/internal/store/backend"
)

func main() {
	at := flag.String("at", "", "sweep as of this RFC3339 time instead of now")
	flag.Parse()

	os.Exit(run(*at))
}

// run returns the process exit code so a scheduler sees failed sweeps
func run(at string) int {
	cfg := config.Load()
	if _, err := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env}); err != nil {
		log.Error().Err(err).Msg("Failed to init logger")
		return 1
	}

	now := time.Now().UTC()
	if at != "" {
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			log.Error().Err(err).Str("at", at).Msg("Invalid -at time")
			return 2
		}
		now = t.UTC()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	var app *firebase.App
	if backend.NeedsFirebase(cfg) {
		var err error
		if app, err = database.NewFirebaseApp(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile); err != nil {
			log.Error().Err(err).Msg("Failed to initialize Firebase")
			return 1
		}
	}

	st, err := backend.Open(ctx, cfg, app)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open store")
		return 1
	}
	defer st.Close()

	if err := sweepOnce(ctx, st, now); err != nil {
		log.Error().Err(err).Msg("Visibility sweep failed")
		return 1
	}
	return 0
}

func sweepOnce(ctx context.Context, st store.Store, now time.Time) error {
	res, err := sweep.NewSweeper(st).Run(ctx, now)
	if err != nil {
		return err
	}

	log.Info().
		Int("examined", res.Examined).
		Int("expired", res.Expired).
		Int("consumed", res.Consumed).
		Time("as_of", now).
		Msg("Visibility sweep finished")
	return nil
}
