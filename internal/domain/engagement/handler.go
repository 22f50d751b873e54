package engagement

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gigboard/gigboard-api/internal/domain/credit"
	"github.com/gigboard/gigboard-api/internal/domain/post"
	"github.com/gigboard/gigboard-api/internal/domain/user"
	"github.com/gigboard/gigboard-api/internal/middleware"
	"github.com/gigboard/gigboard-api/internal/pkg/errorhandler"
	"github.com/gigboard/gigboard-api/internal/pkg/response"
	"github.com/gigboard/gigboard-api/internal/pkg/validator"
	"github.com/gigboard/gigboard-api/internal/store"
)

// Handler handles engagement HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates engagement handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /engagements
// @Summary Send a paid engagement request to a worker
// @Tags Engagement
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRequest true "Worker and post"
// @Success 201 {object} response.Response{data=Engagement}
// @Failure 402 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /engagements [post]
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		errorhandler.LogValidationError(r.Context(), errs)
		response.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())
	e, err := h.service.Create(r.Context(), userID, req)
	if err != nil {
		WriteError(w, r, err)
		return
	}

	response.Created(w, e)
}

// UpdateStatus handles PATCH /engagements/{id}/status
// @Summary Accept, decline or withdraw a pending engagement
// @Tags Engagement
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Engagement ID"
// @Param request body UpdateStatusRequest true "New status"
// @Success 200 {object} response.Response{data=Engagement}
// @Failure 403 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /engagements/{id}/status [patch]
func (h *Handler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	var req UpdateStatusRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())
	e, err := h.service.Transition(r.Context(), userID, chi.URLParam(r, "id"), Status(req.Status))
	if err != nil {
		WriteError(w, r, err)
		return
	}

	response.OK(w, e)
}

// GetByID handles GET /engagements/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	e, err := h.service.GetByID(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		WriteError(w, r, err)
		return
	}
	response.OK(w, e)
}

// List handles GET /engagements?role=sent|received
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	role := Role(q.Get("role"))
	if role == "" {
		role = RoleSent
	}
	if role != RoleSent && role != RoleReceived {
		response.BadRequest(w, "role must be sent or received")
		return
	}
	limit, _ := strconv.Atoi(q.Get("limit"))

	userID := middleware.GetUserID(r.Context())
	items, err := h.service.List(r.Context(), userID, role, Status(q.Get("status")), limit)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list engagements", err)
		return
	}
	response.OK(w, items)
}

// WriteError maps engagement errors onto the response envelope
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	if credit.WriteError(w, err) {
		return
	}

	switch {
	case errors.Is(err, ErrEngagementNotFound):
		response.NotFound(w, "Engagement not found")
	case errors.Is(err, post.ErrPostNotFound):
		response.NotFound(w, "Post not found")
	case errors.Is(err, user.ErrUserNotFound):
		response.NotFound(w, "Profile not found")
	case errors.Is(err, ErrSelfEngagement), errors.Is(err, ErrPostOwnerMismatch):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrActorNotAllowed):
		response.Forbidden(w, "You cannot make this change")
	case errors.Is(err, ErrDuplicateEngagement):
		response.Error(w, http.StatusConflict, "DUPLICATE_ENGAGEMENT", "You already contacted this worker about this post")
	case errors.Is(err, ErrInvalidTransition):
		response.Error(w, http.StatusConflict, "INVALID_TRANSITION", "Engagement is no longer pending")
	case errors.Is(err, post.ErrPostNotActive):
		response.Conflict(w, "Post is not active")
	case errors.Is(err, store.ErrConflict):
		errorhandler.HandleError(r.Context(), w, http.StatusConflict, "CONFLICT", "Concurrent update, please retry", err)
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "Engagement operation failed", err)
	}
}

// Routes returns engagement router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.GetByID)
	r.Patch("/{id}/status", h.UpdateStatus)

	return r
}
