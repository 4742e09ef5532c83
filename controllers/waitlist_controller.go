package controllers

import (
	"net/http"

	"github.com/simplesign/simplesign/models"
	"github.com/simplesign/simplesign/services"
)

// WaitlistController handles public waitlist signups
type WaitlistController struct {
	services *services.Services
}

// NewWaitlistController creates a new waitlist controller
func NewWaitlistController(services *services.Services) *WaitlistController {
	return &WaitlistController{services: services}
}

// Join handles POST /api/waitlist
func (wc *WaitlistController) Join(w http.ResponseWriter, r *http.Request) {
	var form models.WaitlistForm
	if err := decodeJSON(r, &form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := wc.services.Waitlist.Join(r.Context(), &form); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusAccepted, map[string]string{"status": "joined"})
}
