package middleware

import (
	"encoding/json"
	"net/http"

	"gitea.com/go-chi/session"

	"github.com/simplesign/simplesign/userctx"
)

// RequireAuth ensures the user is authenticated
// Unauthenticated requests get a 401 JSON response
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess := session.GetSession(r)
		userID, ok := sess.Get("user_id").(string)

		if !ok || userID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"error": "authentication required"})
			return
		}

		// Add user identity to request context for use in handlers
		ctx := userctx.SetUserID(r.Context(), userID)
		if email, ok := sess.Get("user_email").(string); ok {
			ctx = userctx.SetUserEmail(ctx, email)
		}
		if name, ok := sess.Get("user_name").(string); ok {
			ctx = userctx.SetUserName(ctx, name)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
