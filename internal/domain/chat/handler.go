package chat

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/gigboard/gigboard-api/internal/domain/engagement"
	"github.com/gigboard/gigboard-api/internal/middleware"
	"github.com/gigboard/gigboard-api/internal/pkg/errorhandler"
	"github.com/gigboard/gigboard-api/internal/pkg/response"
	"github.com/gigboard/gigboard-api/internal/pkg/validator"
)

// Handler handles chat HTTP requests
type Handler struct {
	service *Service
}

// NewHandler creates chat handler
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// SendMessage handles POST /chat/messages
// @Summary Send a text message
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SendMessageRequest true "Message"
// @Success 201 {object} response.Response{data=Message}
// @Router /chat/messages [post]
func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req SendMessageRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())
	m, err := h.service.SendText(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, m)
}

// SendOffer handles POST /chat/offers
// @Summary Send an engagement offer card
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body SendOfferRequest true "Offer"
// @Success 201 {object} response.Response{data=OfferResponse}
// @Failure 402 {object} response.Response
// @Router /chat/offers [post]
func (h *Handler) SendOffer(w http.ResponseWriter, r *http.Request) {
	var req SendOfferRequest
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
	out, err := h.service.SendOffer(r.Context(), userID, req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.Created(w, out)
}

// UpdateOffer handles PATCH /chat/offers/{messageId}
// @Summary Accept, decline or withdraw an offer card
// @Tags Chat
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param messageId path string true "Message ID"
// @Param request body UpdateOfferRequest true "New status"
// @Success 200 {object} response.Response{data=OfferResponse}
// @Router /chat/offers/{messageId} [patch]
func (h *Handler) UpdateOffer(w http.ResponseWriter, r *http.Request) {
	var req UpdateOfferRequest
	if err := response.DecodeJSON(r.Body, &req); err != nil {
		response.BadRequest(w, "Invalid JSON body")
		return
	}
	if errs := validator.Validate(&req); errs != nil {
		response.ValidationError(w, errs)
		return
	}

	userID := middleware.GetUserID(r.Context())
	out, err := h.service.UpdateOffer(r.Context(), userID, chi.URLParam(r, "messageId"), engagement.Status(req.Status))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	response.OK(w, out)
}

// History handles GET /chat/conversations/{userId}/messages
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	userID := middleware.GetUserID(r.Context())
	items, err := h.service.History(r.Context(), userID, chi.URLParam(r, "userId"), limit)
	if err != nil {
		errorhandler.HandleError(r.Context(), w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load messages", err)
		return
	}
	response.OK(w, items)
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrCannotChatSelf), errors.Is(err, ErrEmptyMessage):
		response.BadRequest(w, err.Error())
	case errors.Is(err, ErrMessageNotFound):
		response.NotFound(w, "Message not found")
	case errors.Is(err, ErrNotOffer):
		response.BadRequest(w, "Message is not an offer")
	default:
		engagement.WriteError(w, r, err)
	}
}

// Routes returns chat router
func (h *Handler) Routes(authMiddleware func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()
	r.Use(authMiddleware)

	r.Post("/messages", h.SendMessage)
	r.Post("/offers", h.SendOffer)
	r.Patch("/offers/{messageId}", h.UpdateOffer)
	r.Get("/conversations/{userId}/messages", h.History)

	return r
}
