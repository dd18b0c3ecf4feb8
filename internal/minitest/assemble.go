package minitest

import (
	"context"

	"github.com/quizforge/quizforge/internal/exam"
	"github.com/quizforge/quizforge/internal/sanitize"
)

// Selection associates the chosen answers with their questions. It is the
// rendered result of a mini-test creation; nothing in it is persisted.
type Selection struct {
	Questions []exam.Question   `json:"questions"`
	Answers   map[int64][]int64 `json:"answers"` // question id -> selected choice ids
}

// Assemble validates the submitted question and choice IDs and builds the
// association of selected answers to their questions. Both lists are
// re-sanitized here regardless of what the search boundary already did.
func Assemble(ctx context.Context, store Store, rawQuestionIDs, rawChoiceIDs []string) (Selection, error) {
	questionIDs, err := sanitize.UniqueQuestionIDs(rawQuestionIDs)
	if err != nil {
		return Selection{}, err
	}
	choiceIDs, err := sanitize.UniqueChoiceIDs(rawChoiceIDs)
	if err != nil {
		return Selection{}, err
	}

	ok, err := store.QuestionIDsExist(ctx, questionIDs)
	if err != nil {
		return Selection{}, err
	}
	if !ok {
		return Selection{}, &sanitize.ValidationError{Msg: "nonexistent question"}
	}
	ok, err = store.ChoiceIDsExist(ctx, choiceIDs)
	if err != nil {
		return Selection{}, err
	}
	if !ok {
		return Selection{}, &sanitize.ValidationError{Msg: "nonexistent choice"}
	}

	questions, err := store.QuestionsByID(ctx, questionIDs)
	if err != nil {
		return Selection{}, err
	}
	choices, err := store.ChoicesByID(ctx, choiceIDs)
	if err != nil {
		return Selection{}, err
	}

	sel := Selection{Questions: questions, Answers: map[int64][]int64{}}
	for _, c := range choices {
		sel.Answers[c.QuestionID] = append(sel.Answers[c.QuestionID], c.ID)
	}
	return sel, nil
}
