// Package policy decides, per (acting user, record, action), whether an
// operation on examinations and scores is permitted, and scopes list views
// to what the acting user may see.
//
// A denial is a distinct error kind from "record not found". Boundaries
// usually answer both with a not-found response so a foreign record's
// existence never leaks, but logs must keep the two apart.
package policy

import (
	"errors"

	"github.com/quizforge/quizforge/internal/exam"
	"github.com/quizforge/quizforge/internal/identity"
)

type Action string

const (
	ActionIndex   Action = "index"
	ActionShow    Action = "show"
	ActionCreate  Action = "create"
	ActionNew     Action = "new"
	ActionUpdate  Action = "update"
	ActionEdit    Action = "edit"
	ActionDestroy Action = "destroy"
)

var ErrNotAuthorized = errors.New("not authorized")

// ExaminationAllowed: owners may show and destroy their attempts; any
// authenticated user may list and create; exam results are immutable, so
// update/edit are always forbidden.
func ExaminationAllowed(actor identity.User, rec exam.Examination, action Action) bool {
	switch action {
	case ActionIndex, ActionCreate, ActionNew:
		return actor.ID != 0
	case ActionShow, ActionDestroy:
		return rec.UserID == actor.ID
	default:
		return false
	}
}

// ScoreAllowed: a score is visible only to the owner of its examination.
// Scores are system-derived, so create/update/destroy are never permitted.
func ScoreAllowed(actor identity.User, owner exam.Examination, action Action) bool {
	switch action {
	case ActionShow:
		return owner.UserID == actor.ID
	default:
		return false
	}
}

// AuthorizeExamination is ExaminationAllowed as an error.
func AuthorizeExamination(actor identity.User, rec exam.Examination, action Action) error {
	if !ExaminationAllowed(actor, rec, action) {
		return ErrNotAuthorized
	}
	return nil
}

// AuthorizeScore is ScoreAllowed as an error.
func AuthorizeScore(actor identity.User, owner exam.Examination, action Action) error {
	if !ScoreAllowed(actor, owner, action) {
		return ErrNotAuthorized
	}
	return nil
}

// ScopeExaminations filters a collection down to the actor's own records.
func ScopeExaminations(actor identity.User, recs []exam.Examination) []exam.Examination {
	out := make([]exam.Examination, 0, len(recs))
	for _, r := range recs {
		if r.UserID == actor.ID {
			out = append(out, r)
		}
	}
	return out
}

// ScopeScores filters scores via their owning examinations.
func ScopeScores(actor identity.User, scores []exam.Score, owners map[int64]exam.Examination) []exam.Score {
	out := make([]exam.Score, 0, len(scores))
	for _, sc := range scores {
		owner, ok := owners[sc.ExaminationID]
		if !ok {
			continue
		}
		if owner.UserID == actor.ID {
			out = append(out, sc)
		}
	}
	return out
}
