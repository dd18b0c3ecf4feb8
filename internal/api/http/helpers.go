package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/quizforge/quizforge/internal/exam"
	"github.com/quizforge/quizforge/internal/minitest"
	"github.com/quizforge/quizforge/internal/policy"
	"github.com/quizforge/quizforge/internal/sanitize"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps the error taxonomy onto HTTP responses. Authorization
// denials answer not-found so a foreign record's existence never leaks, but
// they are logged as denials, not as missing records.
func respondError(w http.ResponseWriter, log *slog.Logger, err error) {
	var verr *sanitize.ValidationError
	var ferrs minitest.ValidationErrors
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{"error": verr.Msg})
	case errors.As(err, &ferrs):
		writeJSON(w, http.StatusBadRequest, map[string]any{"errors": ferrs})
	case errors.Is(err, policy.ErrNotAuthorized):
		log.Warn("authorization denied", "err", err)
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	case errors.Is(err, exam.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		log.Error("request failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func parseID(s string) (int64, error) {
	return strconv.ParseInt(s, 10, 64)
}
