package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pharmacart/account-api/internal/application/auth"
	"github.com/pharmacart/account-api/internal/transport/http/middleware"
)

// PasswordRecoveryHandler handles the forgot-password flow.
type PasswordRecoveryHandler struct {
	svc    auth.Service
	cookie SessionCookie
}

func NewPasswordRecoveryHandler(svc auth.Service, cookie SessionCookie) *PasswordRecoveryHandler {
	return &PasswordRecoveryHandler{svc: svc, cookie: cookie}
}

func (h *PasswordRecoveryHandler) Action(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "request":
		var body struct {
			Email string `json:"email"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := h.svc.RequestPasswordRecovery(r.Context(), body.Email); err != nil {
			httpError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "recovery code sent"})
	case "validate-code":
		var body struct {
			Email string `json:"email"`
			Code  string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		res, err := h.svc.ValidateRecoveryCode(r.Context(), body.Email, body.Code, loginMeta(r))
		if err != nil {
			httpError(w, err)
			return
		}
		// A valid recovery code logs the user in so they can set a new password.
		http.SetCookie(w, h.cookie.bake(res.Token))
		writeJSON(w, http.StatusOK, Envelope{Success: true, User: toSafeUser(res.User)})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}

func (h *PasswordRecoveryHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var body struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(body.Password) < 8 || len(body.Password) > 72 {
		writeError(w, http.StatusBadRequest, "password must be between 8 and 72 characters")
		return
	}
	if err := h.svc.ChangePassword(r.Context(), claims.UserID, body.Password); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "password changed"})
}
