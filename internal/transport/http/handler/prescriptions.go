package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/pharmacart/account-api/internal/application/prescription"
	"github.com/pharmacart/account-api/internal/transport/http/middleware"
)

// PrescriptionHandler handles prescription scan endpoints.
type PrescriptionHandler struct {
	svc prescription.Service
}

func NewPrescriptionHandler(svc prescription.Service) *PrescriptionHandler {
	return &PrescriptionHandler{svc: svc}
}

func (h *PrescriptionHandler) Upload(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	f, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer f.Close()

	p, err := h.svc.Upload(r.Context(), claims.UserID, header.Filename,
		header.Header.Get("Content-Type"), header.Size, f)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, Envelope{Success: true, Data: p})
}

func (h *PrescriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	list, err := h.svc.List(r.Context(), claims.UserID)
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: list})
}

func (h *PrescriptionHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	url, err := h.svc.DownloadURL(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Data: map[string]string{"url": url}})
}

func (h *PrescriptionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.svc.Delete(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		httpError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Envelope{Success: true, Message: "prescription deleted"})
}
