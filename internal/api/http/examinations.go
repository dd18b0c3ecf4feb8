package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/quizforge/quizforge/internal/auth"
	"github.com/quizforge/quizforge/internal/exam"
	"github.com/quizforge/quizforge/internal/policy"
)

// ListExaminationsHandler returns the acting user's examinations only; the
// policy scope is evaluated eagerly as a query on the owner column.
func ListExaminationsHandler(store *exam.SQLStore, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.UserFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		exs, err := store.ExaminationsByUser(r.Context(), u.ID)
		if err != nil {
			respondError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"examinations": policy.ScopeExaminations(u, exs)})
	}
}

// ShowExaminationHandler returns one examination with its score, test and
// the test's questions in order. Foreign records answer not-found.
func ShowExaminationHandler(store *exam.SQLStore, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.UserFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		id, err := parseID(chi.URLParam(r, "examinationID"))
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		ex, err := store.GetExamination(r.Context(), id)
		if err != nil {
			respondError(w, log, err)
			return
		}
		if err := policy.AuthorizeExamination(u, ex, policy.ActionShow); err != nil {
			respondError(w, log, err)
			return
		}

		score, err := store.GetScore(r.Context(), ex.ID)
		if err != nil {
			respondError(w, log, err)
			return
		}
		test, err := store.GetTest(r.Context(), ex.TestID)
		if err != nil {
			respondError(w, log, err)
			return
		}
		questions, err := store.QuestionsForTest(r.Context(), ex.TestID)
		if err != nil {
			respondError(w, log, err)
			return
		}
		responses, err := store.ResponsesForExamination(r.Context(), ex.ID)
		if err != nil {
			respondError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"examination": ex,
			"score":       score,
			"test":        test,
			"questions":   questions,
			"responses":   responses,
		})
	}
}

// DeleteExaminationHandler destroys an owned examination together with its
// responses and score.
func DeleteExaminationHandler(store *exam.SQLStore, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.UserFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		id, err := parseID(chi.URLParam(r, "examinationID"))
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		ex, err := store.GetExamination(r.Context(), id)
		if err != nil {
			respondError(w, log, err)
			return
		}
		if err := policy.AuthorizeExamination(u, ex, policy.ActionDestroy); err != nil {
			respondError(w, log, err)
			return
		}
		if err := store.DeleteExamination(r.Context(), ex.ID); err != nil {
			respondError(w, log, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ShowScoreHandler returns the score of an owned examination. Score access
// is authorized through the owning examination.
func ShowScoreHandler(store *exam.SQLStore, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.UserFromContext(r.Context())
		if !ok {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		id, err := parseID(chi.URLParam(r, "examinationID"))
		if err != nil {
			http.Error(w, "bad id", http.StatusBadRequest)
			return
		}
		ex, err := store.GetExamination(r.Context(), id)
		if err != nil {
			respondError(w, log, err)
			return
		}
		if err := policy.AuthorizeScore(u, ex, policy.ActionShow); err != nil {
			respondError(w, log, err)
			return
		}
		score, err := store.GetScore(r.Context(), ex.ID)
		if err != nil {
			respondError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"score": score})
	}
}
