package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/gigboard/gigboard-api/internal/config"
	"github.com/gigboard/gigboard-api/internal/domain/chat"
	"github.com/gigboard/gigboard-api/internal/domain/credit"
	"github.com/gigboard/gigboard-api/internal/domain/engagement"
	"github.com/gigboard/gigboard-api/internal/domain/notification"
	"github.com/gigboard/gigboard-api/internal/domain/payment"
	"github.com/gigboard/gigboard-api/internal/domain/post"
	"github.com/gigboard/gigboard-api/internal/domain/sweep"
	"github.com/gigboard/gigboard-api/internal/domain/user"
	"github.com/gigboard/gigboard-api/internal/middleware"
	gateway "github.com/gigboard/gigboard-api/internal/pkg/payment"
	pkgresponse "github.com/gigboard/gigboard-api/internal/pkg/response"
	"github.com/gigboard/gigboard-api/internal/store"
)

// app holds the wired services
type app struct {
	cfg      *config.Config
	verifier middleware.TokenVerifier

	users         *user.Repository
	credits       *credit.Service
	payments      *payment.Service
	posts         *post.Service
	engagements   *engagement.Service
	chat          *chat.Service
	notifications *notification.Service
	sweeper       *sweep.Sweeper
}

func newApp(cfg *config.Config, st store.Store, verifier middleware.TokenVerifier, provider gateway.PaymentProvider) *app {
	ledger := credit.NewLedger()
	engagements := engagement.NewService(st, ledger)

	return &app{
		cfg:           cfg,
		verifier:      verifier,
		users:         user.NewRepository(st),
		credits:       credit.NewService(st, ledger),
		payments:      payment.NewService(st, ledger, provider),
		posts:         post.NewService(st, ledger),
		engagements:   engagements,
		chat:          chat.NewService(st, engagements),
		notifications: notification.NewService(st),
		sweeper:       sweep.NewSweeper(st),
	}
}

func (a *app) router() http.Handler {
	authMiddleware := middleware.Auth(a.verifier)

	userHandler := user.NewHandler(a.users)
	creditHandler := credit.NewHandler(a.credits)
	paymentHandler := payment.NewHandler(a.payments)
	postHandler := post.NewHandler(a.posts)
	engagementHandler := engagement.NewHandler(a.engagements)
	chatHandler := chat.NewHandler(a.chat)
	notificationHandler := notification.NewHandler(a.notifications)

	r := chi.NewRouter()

	r.Use(chimw.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recover)
	r.Use(middleware.CORSHandler(a.cfg.AllowedOrigins))
	r.Use(chimw.Timeout(10 * time.Second))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		pkgresponse.OK(w, map[string]string{
			"status":  "ok",
			"version": "1.0.0",
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
			pkgresponse.OK(w, map[string]string{"message": "pong"})
		})

		r.With(authMiddleware).Get("/me", userHandler.Me)
		r.Mount("/credits", creditHandler.Routes(authMiddleware))
		r.Mount("/payments", paymentHandler.Routes(authMiddleware))
		r.Mount("/posts", postHandler.Routes(authMiddleware))
		r.Mount("/engagements", engagementHandler.Routes(authMiddleware))
		r.Mount("/chat", chatHandler.Routes(authMiddleware))
		r.Mount("/notifications", notificationHandler.Routes(authMiddleware))
	})

	r.Mount("/webhooks", paymentHandler.WebhookRoutes())

	return r
}
