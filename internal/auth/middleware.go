package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/quizforge/quizforge/internal/identity"
)

// Middleware authenticates the bearer token and attaches the full user
// record to the request context. The user is reloaded per request so guest
// deletion and account conversion take effect immediately.
func Middleware(svc *Service, users *identity.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			h := r.Header.Get("Authorization")
			if !strings.HasPrefix(h, "Bearer ") {
				http.Error(w, "missing bearer token", http.StatusUnauthorized)
				return
			}
			id, _, err := svc.Parse(strings.TrimPrefix(h, "Bearer "))
			if err != nil {
				http.Error(w, "invalid token", http.StatusUnauthorized)
				return
			}
			u, err := users.ByID(r.Context(), id)
			if err != nil {
				if errors.Is(err, identity.ErrNotFound) {
					http.Error(w, "invalid token", http.StatusUnauthorized)
					return
				}
				http.Error(w, "internal error", http.StatusInternalServerError)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), u)))
		})
	}
}

// RequireAdmin gates handlers behind the admin flag. Guests can never reach
// here with admin set; the identity store refuses that combination.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok || !u.Admin {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}
