// Command devtoken issues an access token for a uid and makes sure the
// user document exists. Development only.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/gigboard/gigboard-api/internal/config"
	"github.com/gigboard/gigboard-api/internal/domain/user"
	"github.com/gigboard/gigboard-api/internal/pkg/jwt"
	"github.com/gigboard/gigboard-api/internal/pkg/logger"
	"github.com/gigboard/gigboard-api/internal/store/backend"
)

func main() {
	uid := flag.String("uid", "", "user id to issue a token for")
	flag.Parse()

	cfg := config.Load()
	if _, err := logger.Init(logger.Config{Level: cfg.LogLevel, Environment: cfg.Env}); err != nil {
		log.Fatal().Err(err).Msg("Failed to init logger")
	}

	if *uid == "" {
		flag.Usage()
		os.Exit(2)
	}
	if cfg.IsProduction() {
		log.Fatal().Msg("devtoken refuses to run in production")
	}
	if cfg.AuthProvider != config.AuthJWT {
		log.Fatal().Str("auth", cfg.AuthProvider).Msg("devtoken only works with AUTH_PROVIDER=jwt")
	}
	if cfg.StoreDriver == config.StoreMemory {
		log.Warn().Msg("Memory store selected, the user document will not outlive this process")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	st, err := backend.Open(ctx, cfg, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open store")
	}
	defer st.Close()

	u, err := user.NewRepository(st).Ensure(ctx, *uid, time.Now())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to provision user")
	}

	token, err := jwt.NewService(cfg.JWTSecret, cfg.JWTAccessTTL).GenerateAccessToken(u.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to sign token")
	}

	log.Info().
		Str("user_id", u.ID).
		Int("balance", u.Credits.Balance).
		Dur("ttl", cfg.JWTAccessTTL).
		Msg("Token issued")
	fmt.Println(token)
}
