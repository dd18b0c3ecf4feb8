package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/quizforge/quizforge/internal/minitest"
)

// SearchMiniTestHandler lists a random practice set for the given tag/test
// filters. Query form:
//
//	GET /api/mini-tests?tag_ids=1&tag_ids=2&test_ids=7&question_count=5
func SearchMiniTestHandler(store minitest.Store, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		form := minitest.NewSearchForm(q["tag_ids"], q["test_ids"], q.Get("question_count"))

		ferrs, err := form.Validate(r.Context(), store)
		if err != nil {
			respondError(w, log, err)
			return
		}
		if ferrs != nil {
			respondError(w, log, ferrs)
			return
		}

		questions, err := form.Search(r.Context(), store)
		if err != nil {
			respondError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"questions": questions})
	}
}

// CreateMiniTestHandler grades an ad-hoc practice round: it associates the
// submitted answers with their questions and returns the association.
// Nothing is persisted.
func CreateMiniTestHandler(store minitest.Store, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			QuestionIDs []any `json:"question_ids"`
			ChoiceIDs   []any `json:"choice_ids"`
		}
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&req); err != nil {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		sel, err := minitest.Assemble(r.Context(), store, coerceIDs(req.QuestionIDs), coerceIDs(req.ChoiceIDs))
		if err != nil {
			respondError(w, log, err)
			return
		}
		writeJSON(w, http.StatusOK, sel)
	}
}
