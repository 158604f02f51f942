package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/pharmacart/account-api/internal/application/auth"
	"github.com/pharmacart/account-api/internal/application/registration"
	"github.com/pharmacart/account-api/internal/domain"
	"github.com/pharmacart/account-api/internal/pkg/validate"
	"github.com/pharmacart/account-api/internal/transport/http/middleware"
)

// SessionCookie describes how the session token is persisted client-side.
type SessionCookie struct {
	Name   string
	Secure bool
	TTL    time.Duration
}

func (c SessionCookie) bake(token string) *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.TTL.Seconds()),
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (c SessionCookie) expire() *http.Cookie {
	return &http.Cookie{
		Name:     c.Name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.Secure,
		SameSite: http.SameSiteStrictMode,
	}
}

// AuthHandler handles signup, verification, login, logout and identity.
type AuthHandler struct {
	regSvc  registration.Service
	authSvc auth.Service
	cookie  SessionCookie
}

func NewAuthHandler(regSvc registration.Service, authSvc auth.Service, cookie SessionCookie) *AuthHandler {
	return &AuthHandler{regSvc: regSvc, authSvc: authSvc, cookie: cookie}
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.regSvc.Signup(r.Context(), req)
	if err != nil {
		writeError(w, statusForAuthErr(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: "verification code sent, please check your email",
		Data:    map[string]string{"id": u.UserID},
	})
}

func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ID  string `json:"id"`
		OTP string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	res, err := h.authSvc.Verify(r.Context(), body.ID, body.OTP, loginMeta(r))
	if err != nil {
		writeError(w, statusForAuthErr(err), err.Error())
		return
	}
	http.SetCookie(w, h.cookie.bake(res.Token))
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "account verified"})
}

// Login answers 200 on success and 500 on every failure, so that the response
// never distinguishes an unknown email from a wrong password at the status
// level. The message still does.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusInternalServerError, "invalid request body")
		return
	}
	res, err := h.authSvc.Login(r.Context(), body.Email, body.Password, loginMeta(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	http.SetCookie(w, h.cookie.bake(res.Token))
	writeJSON(w, http.StatusOK, Envelope{Success: true, User: toSafeUser(res.User)})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	// Tokens are stateless; logout just drops the cookie.
	http.SetCookie(w, h.cookie.expire())
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "logged out"})
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Data: map[string]interface{}{
			"username":   claims.Username,
			"email":      claims.Email,
			"isVerified": claims.Verified,
		},
	})
}

func loginMeta(r *http.Request) auth.LoginMeta {
	return auth.LoginMeta{IP: r.RemoteAddr, UserAgent: r.UserAgent()}
}
