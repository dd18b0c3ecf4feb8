package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/quizforge/quizforge/internal/auth"
	"github.com/quizforge/quizforge/internal/exam"
)

// SubmitResultHandler is the submission boundary: it accepts a test ID and a
// raw choice-ID list, runs the atomic submission pipeline and answers with
// the persisted examination ID. On a rejected answer set nothing is
// persisted and the submitted IDs are echoed back so a client can redisplay
// them.
func SubmitResultHandler(svc *exam.Service, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.UserFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req struct {
			TestID    any   `json:"test_id"`
			ChoiceIDs []any `json:"choice_ids"`
		}
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}
		testID, err := strconv.ParseInt(coerceID(req.TestID), 10, 64)
		if err != nil || testID <= 0 {
			http.Error(w, "test_id required", http.StatusBadRequest)
			return
		}
		choiceIDs := coerceIDs(req.ChoiceIDs)

		ex, err := svc.SubmitResult(r.Context(), u, testID, time.Now(), choiceIDs)
		if err != nil {
			if errors.Is(err, exam.ErrInvalidChoice) {
				log.Error("examination submission failed", "user_id", u.ID, "test_id", testID, "err", err)
				writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
					"error":      "could not save examination result",
					"choice_ids": choiceIDs,
				})
				return
			}
			respondError(w, log, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"examination_id": ex.ID})
	}
}

// coerceID renders a JSON string or number as its raw token. Anything else
// comes back empty and gets dropped by the sanitizer.
func coerceID(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	default:
		return ""
	}
}

func coerceIDs(vs []any) []string {
	out := make([]string, 0, len(vs))
	for _, v := range vs {
		out = append(out, coerceID(v))
	}
	return out
}
