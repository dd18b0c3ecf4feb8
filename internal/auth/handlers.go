package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"golang.org/x/crypto/bcrypt"

	"github.com/quizforge/quizforge/internal/identity"
)

type sessionOut struct {
	AccessToken string `json:"access_token"`
	UserID      int64  `json:"user_id"`
	Username    string `json:"username"`
	Guest       bool   `json:"guest"`
}

// LoginHandler authenticates an email/password pair and issues a token.
func LoginHandler(svc *Service, users *identity.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		u, err := users.ByEmail(r.Context(), req.Email)
		if err != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(req.Password)) != nil {
			http.Error(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		writeSession(w, svc, u)
	}
}

// RegisterHandler creates a registered account and signs it in.
func RegisterHandler(svc *Service, users *identity.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email    string `json:"email"`
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Email == "" || req.Username == "" || req.Password == "" {
			http.Error(w, "email, username and password required", http.StatusBadRequest)
			return
		}
		u, err := users.Create(r.Context(), req.Email, req.Username, req.Password, false)
		if err != nil {
			http.Error(w, "could not create account", http.StatusUnprocessableEntity)
			return
		}
		writeSession(w, svc, u)
	}
}

// GuestLoginHandler creates an ephemeral guest identity and signs it in.
func GuestLoginHandler(svc *Service, users *identity.Store, enabled bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !enabled {
			http.Error(w, "guest auth disabled", http.StatusForbidden)
			return
		}
		u, err := users.CreateGuest(r.Context())
		if err != nil {
			http.Error(w, "could not create guest", http.StatusInternalServerError)
			return
		}
		writeSession(w, svc, u)
	}
}

// LogoutHandler ends the session. A guest whose attempt quota is reached is
// destroyed on the way out; their records go with them.
func LogoutHandler(users *identity.Store, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if ok && u.IsGuest() {
			reached, err := users.GuestExaminationLimitReached(r.Context(), u)
			if err != nil {
				log.Error("guest quota check on sign-out failed", "user_id", u.ID, "err", err)
			} else if reached {
				if err := users.Delete(r.Context(), u.ID); err != nil {
					log.Error("guest delete on sign-out failed", "user_id", u.ID, "err", err)
				}
			}
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// UpdateAccountHandler converts the current guest into a registered account:
// real email, username and password, sticky quota flag cleared.
func UpdateAccountHandler(svc *Service, users *identity.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := UserFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			Email    string `json:"email"`
			Username string `json:"username"`
			Password string `json:"password"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		if req.Email == "" || req.Username == "" || req.Password == "" {
			http.Error(w, "email, username and password required", http.StatusBadRequest)
			return
		}
		updated, err := users.ConvertToRegistered(r.Context(), u.ID, req.Email, req.Username, req.Password)
		if err != nil {
			if errors.Is(err, identity.ErrNotFound) {
				http.Error(w, "not found", http.StatusNotFound)
				return
			}
			http.Error(w, "could not update account", http.StatusUnprocessableEntity)
			return
		}
		writeSession(w, svc, updated)
	}
}

func writeSession(w http.ResponseWriter, svc *Service, u identity.User) {
	tok, err := svc.IssueToken(u.ID, u.Admin)
	if err != nil {
		http.Error(w, "issue token", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(sessionOut{
		AccessToken: tok,
		UserID:      u.ID,
		Username:    u.Username,
		Guest:       u.IsGuest(),
	})
}
