package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/simplesign/simplesign/services"
)

// SigningController handles the token-authenticated signer API
type SigningController struct {
	services *services.Services
}

// NewSigningController creates a new signing controller
func NewSigningController(services *services.Services) *SigningController {
	return &SigningController{services: services}
}

// Get handles GET /api/sign/{token}
func (sc *SigningController) Get(w http.ResponseWriter, r *http.Request) {
	session, err := sc.services.Signing.GetSession(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

// Submit handles POST /api/sign/{token}/submit
func (sc *SigningController) Submit(w http.ResponseWriter, r *http.Request) {
	var body struct {
		FieldValues map[string]string `json:"field_values"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	signer, err := sc.services.Signing.Submit(r.Context(), chi.URLParam(r, "token"), body.FieldValues)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, signer)
}

// Decline handles POST /api/sign/{token}/decline
func (sc *SigningController) Decline(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Reason string `json:"reason"`
	}
	if err := decodeJSON(r, &body); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := sc.services.Signing.Decline(r.Context(), chi.URLParam(r, "token"), body.Reason); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "declined"})
}

// File handles GET /api/sign/{token}/file
func (sc *SigningController) File(w http.ResponseWriter, r *http.Request) {
	data, err := sc.services.Signing.GetFile(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Write(data)
}
