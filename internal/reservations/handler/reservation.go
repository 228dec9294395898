package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"parkspot/internal/reservations/service"
	apperrors "parkspot/pkg/errors"
	httputil "parkspot/pkg/http"
	"parkspot/pkg/logger"
	"parkspot/pkg/middleware"
	"parkspot/pkg/model"
	"parkspot/pkg/token"
)

type ReservationHandler struct {
	service service.ReservationService
	tokens  *token.Service
	log     *logger.Logger
}

func NewReservationHandler(service service.ReservationService, tokens *token.Service, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service: service,
		tokens:  tokens,
		log:     log,
	}
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.writeError(w, "Create", apperrors.Unauthorized("Authentication required"))
		return
	}

	var reservation model.Reservation
	if err := json.NewDecoder(r.Body).Decode(&reservation); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.Create(r.Context(), &reservation, principal.UserID); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteJSON(w, http.StatusCreated, map[string]any{
		"message":     "Reservation created successfully",
		"reservation": reservation,
	}); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *ReservationHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	page, limit, err := httputil.ExtractPageLimit(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	reservations, _, err := h.service.GetAll(r.Context(), limit, int64(page-1)*int64(limit))
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	// This listing is a bare array; the paginated envelope is reserved
	// for the per-place listing.
	if reservations == nil {
		reservations = []*model.Reservation{}
	}
	if err := httputil.WriteSuccess(w, reservations); err != nil {
		h.log.Error("failed to write success response", "handler", "GetAll", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	detail, err := h.service.GetByID(r.Context(), ps.ByName("reservationId"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, detail); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *ReservationHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.writeError(w, "Update", apperrors.Unauthorized("Authentication required"))
		return
	}

	var updates model.ReservationUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	updated, err := h.service.Update(r.Context(), ps.ByName("reservationId"), principal.UserID, &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteJSON(w, http.StatusOK, map[string]any{
		"message":            "Reservation updated successfully",
		"updatedReservation": updated,
	}); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "error", err)
	}
}

func (h *ReservationHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	principal, ok := middleware.PrincipalFromContext(r.Context())
	if !ok {
		h.writeError(w, "Delete", apperrors.Unauthorized("Authentication required"))
		return
	}

	if err := h.service.Delete(r.Context(), ps.ByName("reservationId"), principal.UserID); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	if err := httputil.WriteSuccess(w, httputil.MessageResponse{Message: "Reservation deleted successfully"}); err != nil {
		h.log.Error("failed to write success response", "handler", "Delete", "error", err)
	}
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, op string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", op, "error", writeErr)
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	authenticated := middleware.Authenticate(h.tokens, h.log)

	router.GET("/reservations", h.GetAll)
	router.GET("/reservations/:reservationId", h.GetByID)
	router.POST("/reservations", authenticated(h.Create))
	router.PUT("/reservations/:reservationId", authenticated(h.Update))
	router.DELETE("/reservations/:reservationId", authenticated(h.Delete))
}
