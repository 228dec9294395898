package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"parkspot/internal/places/service"
	apperrors "parkspot/pkg/errors"
	httputil "parkspot/pkg/http"
	"parkspot/pkg/logger"
	"parkspot/pkg/middleware"
	"parkspot/pkg/model"
	"parkspot/pkg/token"
)

type PlaceHandler struct {
	service service.PlaceService
	tokens  *token.Service
	log     *logger.Logger
}

func NewPlaceHandler(service service.PlaceService, tokens *token.Service, log *logger.Logger) *PlaceHandler {
	return &PlaceHandler{
		service: service,
		tokens:  tokens,
		log:     log,
	}
}

func (h *PlaceHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.writeError(w, "Create", apperrors.Unauthorized("Authentication required"))
		return
	}

	var place model.Place
	if err := json.NewDecoder(r.Body).Decode(&place); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.Create(r.Context(), &place, principal.UserID); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, place); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *PlaceHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	page, limit, err := httputil.ExtractPageLimit(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	places, total, err := h.service.GetAll(r.Context(), limit, int64(page-1)*int64(limit))
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePage(w, places, total, page, limit); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "error", err)
	}
}

func (h *PlaceHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	place, err := h.service.GetByID(r.Context(), ps.ByName("placeId"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, place); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *PlaceHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.writeError(w, "Update", apperrors.Unauthorized("Authentication required"))
		return
	}

	var updates model.PlaceUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	updated, err := h.service.Update(r.Context(), ps.ByName("placeId"), principal.UserID, &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message":      "Place updated successfully",
		"updatedPlace": updated,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "error", err)
	}
}

func (h *PlaceHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.writeError(w, "Delete", apperrors.Unauthorized("Authentication required"))
		return
	}

	if err := h.service.Delete(r.Context(), ps.ByName("placeId"), principal.UserID); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := httputil.WriteSuccess(w, httputil.MessageResponse{Message: "Place deleted successfully"}); err != nil {
		h.log.Error("failed to write success response", "handler", "Delete", "error", err)
	}
}

func (h *PlaceHandler) ListReservations(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.writeError(w, "ListReservations", apperrors.Unauthorized("Authentication required"))
		return
	}

	page, limit, err := httputil.ExtractPageLimit(r)
	if err != nil {
		h.writeError(w, "ListReservations", err)
		return
	}

	reservations, total, err := h.service.ListReservations(r.Context(), ps.ByName("placeId"), principal.UserID, limit, int64(page-1)*int64(limit))
	if err != nil {
		h.writeError(w, "ListReservations", err)
		return
	}

	if err := httputil.WritePage(w, reservations, total, page, limit); err != nil {
		h.log.Error("failed to write paginated response", "handler", "ListReservations", "error", err)
	}
}

func (h *PlaceHandler) writeError(w http.ResponseWriter, op string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", op, "error", writeErr)
	}
}

func (h *PlaceHandler) RegisterRoutes(router *httprouter.Router) {
	authenticated := middleware.Authenticate(h.tokens, h.log)

	router.GET("/places", h.GetAll)
	router.GET("/places/:placeId", h.GetByID)
	router.POST("/places", authenticated(h.Create))
	router.PUT("/places/:placeId", authenticated(h.Update))
	router.DELETE("/places/:placeId", authenticated(h.Delete))
	router.GET("/places/:placeId/reservations", authenticated(h.ListReservations))
}
