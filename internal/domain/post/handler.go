package post

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gigboard/gigboard-api/internal/domain/credit"
	"github.com/gigboard/gigboard-api/internal/domain/membership"
	"github.com/gigboard/gigboard-api/internal/domain/user"
	"github.com/gigboard/gigboard-api/internal/middleware"
	"github.com/gigboard/gigboard-api/internal/pkg/errorhandler"
	"github.com/gigboard/gigboard-api/internal/pkg/response"
	"github.com/gigboard/gigboard-api/internal/pkg/validator"
)

// Handler handles post HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates post handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /posts
// @Summary Publish an availability post
// @Tags Post
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateRequest true "Post"
// @Success 201 {object} response.Response{data=Post}
// @Failure 402 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 422 {object} response.Response
// @Router /posts [post]
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
	p, err := h.service.Create(r.Context(), userID, &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	response.Created(w, p)
}

// GetByID handles GET /posts/{id}
func (h *Handler) GetByID(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, p)
}

// List handles GET /posts
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, _ := strconv.Atoi(q.Get("limit"))

	filter := ListFilter{Type: Type(q.Get("type")), Limit: limit}
	if q.Get("mine") == "true" {
		filter.UserID = middleware.GetUserID(r.Context())
	}

	posts, err := h.service.List(r.Context(), filter)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list posts", err)
		return
	}
	response.OK(w, posts)
}

// Withdraw handles PATCH /posts/{id}/withdraw
func (h *Handler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	p, err := h.service.Withdraw(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, p)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	if credit.WriteError(w, err) {
		return
	}

	var limitErr *membership.LimitError
	if errors.As(err, &limitErr) {
		response.ErrorWithDetails(w, http.StatusForbidden, "LIMIT_EXCEEDED", "Monthly full-time posting limit reached", map[string]string{
			"current":    strconv.Itoa(limitErr.Current),
			"limit":      strconv.Itoa(limitErr.Limit),
			"tier":       string(limitErr.Tier),
			"upgrade_to": string(limitErr.UpgradeTo),
		})
		return
	}

	switch {
	case errors.Is(err, ErrPostNotFound):
		response.NotFound(w, "Post not found")
	case errors.Is(err, user.ErrUserNotFound):
		response.NotFound(w, "Profile not found")
	case errors.Is(err, ErrNotPostOwner):
		response.Forbidden(w, "You can only change your own posts")
	case errors.Is(err, ErrPostNotActive):
		response.Conflict(w, "Post is not active")
	case errors.Is(err, ErrInvalidSchedule), errors.Is(err, ErrScheduleRequired):
		response.BadRequest(w, err.Error())
	default:
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "Post operation failed", err)
	}
}

// Routes returns post router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Get("/{id}", h.GetByID)
	r.Patch("/{id}/withdraw", h.Withdraw)

	return r
}
