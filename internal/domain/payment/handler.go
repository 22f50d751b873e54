package payment

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gigboard/gigboard-api/internal/middleware"
	"github.com/gigboard/gigboard-api/internal/pkg/errorhandler"
	"github.com/gigboard/gigboard-api/internal/pkg/response"
	"github.com/gigboard/gigboard-api/internal/pkg/validator"
)

// maxWebhookBody bounds the payload read from the processor
const maxWebhookBody = 64 << 10

// Handler handles payment HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates payment handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// CreateIntent handles POST /payments/intents
// @Summary Create a payment intent for a plan or a credit pack
// @Tags Payment
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body IntentRequest true "Either plan or pack"
// @Param Idempotency-Key header string false "Client nonce; a retry with the same key returns the same intent"
// @Success 201 {object} response.Response{data=IntentResponse}
// @Failure 400 {object} response.Response
// @Failure 401 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /payments/intents [post]
func (h *Handler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	uid, err := middleware.RequireUserID(r.Context())
	if err != nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	var req IntentRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}
	req.IdempotencyKey = r.Header.Get("Idempotency-Key")

	out, err := h.service.CreateIntent(r.Context(), uid, req)
	if err != nil {
		switch {
		case errors.Is(err, ErrInvalidInput):
			response.BadRequest(w, "Provide exactly one of plan or pack")
		case errors.Is(err, ErrPaymentsUnavailable):
			response.ServiceUnavailable(w, "Payments are not available")
		default:
			errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create payment intent", err)
		}
		return
	}

	response.Created(w, out)
}

// GetHistory handles GET /payments
// @Summary Applied payments of the current user
// @Tags Payment
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Number of records (default 20, max 100)"
// @Success 200 {object} response.Response{data=[]Record}
// @Router /payments [get]
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	uid, err := middleware.RequireUserID(r.Context())
	if err != nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	records, err := h.service.History(r.Context(), uid, limit)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load payments", err)
		return
	}

	response.OK(w, records)
}

// StripeWebhook handles POST /webhooks/stripe
// @Summary Stripe payment_intent.succeeded webhook
// @Tags Payment Webhooks
// @Accept json
// @Produce json
// @Param Stripe-Signature header string true "Webhook signature"
// @Success 200 {object} object{received=bool}
// @Failure 400 {object} response.Response
// @Failure 500 {object} response.Response
// @Failure 503 {object} response.Response
// @Router /webhooks/stripe [post]
func (h *Handler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		response.BadRequest(w, "Unable to read body")
		return
	}

	err = h.service.HandleWebhook(r.Context(), payload, r.Header.Get("Stripe-Signature"))
	switch {
	case err == nil:
		response.Raw(w, http.StatusOK, map[string]bool{"received": true})
	case errors.Is(err, ErrSignatureVerificationFailed):
		errorhandler.HandleError(r.Context(), w, http.StatusBadRequest, "INVALID_SIGNATURE", "Webhook signature verification failed", err)
	case errors.Is(err, ErrInvalidInput):
		errorhandler.HandleError(r.Context(), w, http.StatusBadRequest, "INVALID_INPUT", "Invalid payment metadata", err)
	case errors.Is(err, ErrPaymentsUnavailable):
		response.ServiceUnavailable(w, "Payments are not configured")
	default:
		// a 5xx makes the processor redeliver
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process payment", err)
	}
}

// Routes returns payment router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.GetHistory)
	r.Post("/intents", h.CreateIntent)
	return r
}

// WebhookRoutes returns webhook router (no auth, but signature verification)
func (h *Handler) WebhookRoutes() chi.Router {
	r := chi.NewRouter()
	r.Post("/stripe", h.StripeWebhook)
	return r
}
