package credit

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gigboard/gigboard-api/internal/domain/user"
	"github.com/gigboard/gigboard-api/internal/middleware"
	"github.com/gigboard/gigboard-api/internal/pkg/errorhandler"
	"github.com/gigboard/gigboard-api/internal/pkg/response"
)

// Handler handles credit HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates credit handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Routes returns credit routes
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)
	r.Get("/", h.Get)
	return r
}

// Get handles GET /credits
// @Summary Balance and latest ledger entries
// @Tags Credits
// @Security BearerAuth
// @Param limit query int false "Entries to return (max 200)"
// @Success 200 {object} response.Response{data=Summary}
// @Router /credits [get]
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	uid, err := middleware.RequireUserID(r.Context())
	if err != nil {
		response.Unauthorized(w, "Authentication required")
		return
	}

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	credits, err := h.service.Balance(r.Context(), uid)
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			response.NotFound(w, "Profile not found")
			return
		}
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load credits", err)
		return
	}

	history, err := h.service.History(r.Context(), uid, limit)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load credit history", err)
		return
	}

	response.OK(w, Summary{
		Credits:      credits,
		Unlimited:    credits.IsUnlimited(),
		Transactions: history,
		AsOf:         time.Now().UTC(),
	})
}

// WriteError maps ledger errors onto the response envelope. Returns false
// when err is not a ledger error.
func WriteError(w http.ResponseWriter, err error) bool {
	var insufficient *InsufficientCreditsError
	if errors.As(err, &insufficient) {
		response.PaymentRequired(w, "INSUFFICIENT_CREDITS", "Not enough credits", map[string]string{
			"balance":  strconv.Itoa(insufficient.Balance),
			"required": strconv.Itoa(insufficient.Required),
		})
		return true
	}

	var expired *MembershipExpiredError
	if errors.As(err, &expired) {
		response.PaymentRequired(w, "MEMBERSHIP_EXPIRED", "Premium membership has expired", map[string]string{
			"expiredAt": expired.ExpiredAt.Format(time.RFC3339),
		})
		return true
	}

	switch {
	case errors.Is(err, ErrInsufficientCredits):
		response.PaymentRequired(w, "INSUFFICIENT_CREDITS", "Not enough credits", nil)
		return true
	case errors.Is(err, ErrMembershipExpired):
		response.PaymentRequired(w, "MEMBERSHIP_EXPIRED", "Premium membership has expired", nil)
		return true
	}
	return false
}
