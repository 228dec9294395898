package handler

import (
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	apperrors "parkspot/pkg/errors"
	httputil "parkspot/pkg/http"
)

type loginRequest struct {
	UserName string `json:"userName"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token  string `json:"token"`
	UserID string `json:"userId"`
	Admin  bool   `json:"admin"`
}

func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Login", apperrors.InvalidInput("Invalid request body"))
		return
	}

	user, err := h.service.Authenticate(r.Context(), req.UserName, req.Password)
	if err != nil {
		h.writeError(w, "Login", err)
		return
	}

	signed, err := h.tokens.Generate(user.ID, user.Admin)
	if err != nil {
		h.log.Error("failed to sign token", "handler", "Login", "error", err)
		h.writeError(w, "Login", apperrors.Internal("Failed to issue token", err))
		return
	}

	if err := httputil.WriteSuccess(w, loginResponse{Token: signed, UserID: user.ID, Admin: user.Admin}); err != nil {
		h.log.Error("failed to write success response", "handler", "Login", "error", err)
	}
}
