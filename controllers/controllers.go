package controllers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/simplesign/simplesign/authenticator"
	"github.com/simplesign/simplesign/models"
	"github.com/simplesign/simplesign/services"
)

// Controllers holds all controller instances
type Controllers struct {
	Auth      *AuthController
	Documents *DocumentsController
	Signing   *SigningController
	Waitlist  *WaitlistController
}

// NewControllers creates and initializes all controller instances
func NewControllers(services *services.Services, auth authenticator.Provider) *Controllers {
	return &Controllers{
		Auth:      NewAuthController(auth),
		Documents: NewDocumentsController(services),
		Signing:   NewSigningController(services),
		Waitlist:  NewWaitlistController(services),
	}
}

// respondJSON writes data as a JSON response with the given status code
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// respondError writes an error message as a JSON response
func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}

// handleServiceError maps service errors to HTTP status codes
func handleServiceError(w http.ResponseWriter, err error) {
	var validationErr *models.ValidationError
	switch {
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, validationErr.Message)
	case errors.Is(err, models.ErrNotFound):
		respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, models.ErrDocumentExpired):
		respondError(w, http.StatusGone, "document has expired")
	default:
		log.Printf("internal error: %v", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// decodeJSON parses a JSON request body into dst
func decodeJSON(r *http.Request, dst interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dst)
}
