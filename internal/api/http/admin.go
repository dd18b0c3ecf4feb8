package http

import (
	"log/slog"
	"net/http"

	"github.com/quizforge/quizforge/internal/identity"
)

// CleanupGuestsHandler triggers the guest sweep on demand, mirroring what
// the scheduled task does. Safe to re-run; a second run with no new old
// guests deletes nothing.
func CleanupGuestsHandler(users *identity.Store, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deleted, err := users.CleanupOldGuests(r.Context())
		if err != nil {
			respondError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"deleted": deleted})
	}
}
