package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	firebase "firebase.google.com/go/v4"
	"github.com/rs/zerolog/log"

	"github.com/gigboard/gigboard-api/internal/config"
	"github.com/gigboard/gigboard-api/internal/domain/sweep"
	"github.com/gigboard/gigboard-api/internal/middleware"
	"github.com/gigboard/gigboard-api/internal/pkg/database"
	"github.com/gigboard/gigboard-api/internal/pkg/firebaseauth"
	"github.com/gigboard/gigboard-api/internal/pkg/jwt"
	"github.com/gigboard/gigboard-api/internal/pkg/logger"
	"github.com/gigboard/gigboard-api/internal/pkg/payment"
	"github.com/gigboard/gigboard-api/internal/store/backend"
)

func main() {
	cfg := config.Load()

	logCloser, err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		LogFile:     cfg.LogFile,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open log file")
	}
	defer logCloser.Close()

	log.Info().
		Str("env", cfg.Env).
		Str("port", cfg.Port).
		Str("store", cfg.StoreDriver).
		Str("auth", cfg.AuthProvider).
		Msg("Starting Gigboard API")

	ctx := context.Background()

	var app *firebase.App
	if backend.NeedsFirebase(cfg) {
		app, err = database.NewFirebaseApp(ctx, cfg.FirebaseProjectID, cfg.FirebaseCredentialsFile)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize Firebase")
		}
	}

	st, err := backend.Open(ctx, cfg, app)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	verifier, err := newVerifier(ctx, cfg, app)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize auth")
	}

	var provider payment.PaymentProvider
	if cfg.StripeSecretKey != "" || cfg.StripeWebhookSecret != "" {
		provider = payment.NewStripeProvider(payment.StripeConfig{
			SecretKey:     cfg.StripeSecretKey,
			WebhookSecret: cfg.StripeWebhookSecret,
		})
	} else {
		log.Warn().Msg("Stripe not configured, payment intents and webhooks are disabled")
	}

	a := newApp(cfg, st, verifier, provider)

	redis, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(redis)

	var worker *sweep.Worker
	if cfg.SweepEnabled {
		var opts []sweep.WorkerOption
		if redis != nil {
			opts = append(opts, sweep.WithLocker(sweep.NewRedisLocker(redis), cfg.SweepLockTTL))
		}
		worker, err = sweep.NewWorker(a.sweeper, cfg.SweepAt, opts...)
		if err != nil {
			log.Fatal().Err(err).Str("sweep_at", cfg.SweepAt).Msg("Invalid sweep schedule")
		}
		worker.Start()
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	if worker != nil {
		worker.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
		return
	}

	log.Info().Msg("Server exited properly")
}

func newVerifier(ctx context.Context, cfg *config.Config, app *firebase.App) (middleware.TokenVerifier, error) {
	switch cfg.AuthProvider {
	case config.AuthJWT:
		if cfg.IsProduction() && cfg.JWTSecret == config.DefaultJWTSecret {
			return nil, fmt.Errorf("JWT_SECRET must be set in production")
		}
		return jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL), nil
	case config.AuthFirebase:
		return firebaseauth.NewVerifier(ctx, app)
	}
	return nil, fmt.Errorf("unknown auth provider %q", cfg.AuthProvider)
}
