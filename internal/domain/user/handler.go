package user

import (
	"net/http"
	"time"

	"github.com/gigboard/gigboard-api/internal/middleware"
	"github.com/gigboard/gigboard-api/internal/pkg/errorhandler"
	"github.com/gigboard/gigboard-api/internal/pkg/response"
)

// ProfileResponse is the caller's own profile
type ProfileResponse struct {
	ID            string     `json:"id"`
	Credits       Credits    `json:"credits"`
	Membership    Membership `json:"membership"`
	EffectiveTier Tier       `json:"effectiveTier"`
	PremiumActive bool       `json:"premiumActive"`
	CreatedAt     time.Time  `json:"createdAt"`
}

// Handler serves the profile endpoint
type Handler struct {
	repo *Repository
	now  func() time.Time
}

// NewHandler creates a profile handler
func NewHandler(repo *Repository) *Handler {
	return &Handler{repo: repo, now: time.Now}
}

// Me handles GET /me
// @Summary Current user's credits and membership
// @Tags User
// @Security BearerAuth
// @Success 200 {object} response.Response{data=ProfileResponse}
// @Router /me [get]
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	uid := middleware.GetUserID(r.Context())
	if uid == "" {
		response.Unauthorized(w, "Authentication required")
		return
	}

	now := h.now()
	u, err := h.repo.Ensure(r.Context(), uid, now)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load profile", err)
		return
	}

	response.OK(w, ProfileResponse{
		ID:            u.ID,
		Credits:       u.Credits,
		Membership:    u.Membership,
		EffectiveTier: u.EffectiveTier(now),
		PremiumActive: u.IsPremiumActive(now),
		CreatedAt:     u.CreatedAt,
	})
}
