package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quizforge/quizforge/internal/exam"
)

// ShowTestHandler returns a test with its questions in order, each with
// choices and tags, for a client about to take the exam.
func ShowTestHandler(store *exam.SQLStore, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := parseID(chi.URLParam(r, "testID"))
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		test, err := store.GetTest(r.Context(), id)
		if err != nil {
			respondError(w, log, err)
			return
		}
		questions, err := store.QuestionsForTest(r.Context(), id)
		if err != nil {
			respondError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"test": test, "questions": questions})
	}
}
