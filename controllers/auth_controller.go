package controllers

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"

	"gitea.com/go-chi/session"

	"github.com/simplesign/simplesign/authenticator"
)

// AuthController handles login, callback and logout
type AuthController struct {
	auth authenticator.Provider
}

// NewAuthController creates a new auth controller
func NewAuthController(auth authenticator.Provider) *AuthController {
	return &AuthController{auth: auth}
}

// Login initiates the authentication process
func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	// Generate random state
	state, err := generateRandomState()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	// Save the state in the session to validate in callback
	sess := session.GetSession(r)
	sess.Set("state", state)

	http.Redirect(w, r, ac.auth.GetAuthURL(state), http.StatusTemporaryRedirect)
}

// Callback handles the redirect back from the identity provider
func (ac *AuthController) Callback(w http.ResponseWriter, r *http.Request) {
	sess := session.GetSession(r)

	// Verify state
	storedState, ok := sess.Get("state").(string)
	if !ok || storedState == "" {
		http.Error(w, "State not found in session", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("state") != storedState {
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	// Exchange the code for a token
	token, err := ac.auth.ExchangeCode(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		http.Error(w, "Failed to exchange authorization code for a token: "+err.Error(), http.StatusUnauthorized)
		return
	}

	// Verify the ID token and extract the user profile
	claims, err := ac.auth.GetClaims(r.Context(), token)
	if err != nil {
		http.Error(w, "Failed to verify ID Token: "+err.Error(), http.StatusUnauthorized)
		return
	}

	if claims.Subject() == "" {
		http.Error(w, "ID token is missing a subject", http.StatusUnauthorized)
		return
	}

	sess.Set("user_id", claims.Subject())
	sess.Set("user_email", claims.Email())
	sess.Set("user_name", claims.Name())

	// Clear the state from session
	sess.Delete("state")

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Logout clears the user session
func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	sess := session.GetSession(r)
	sess.Delete("user_id")
	sess.Delete("user_email")
	sess.Delete("user_name")

	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// generateRandomState generates a random state value for CSRF protection
func generateRandomState() (string, error) {
	b := make([]byte, 32)
	_, err := rand.Read(b)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}
