// Package minitest assembles ad-hoc practice question sets filtered by tag
// and test. Nothing here persists state; searches are read-only and safe to
// repeat.
package minitest

import (
	"context"
	"math/rand"
	"sort"
	"strconv"
	"strings"

	"github.com/quizforge/quizforge/internal/exam"
	"github.com/quizforge/quizforge/internal/sanitize"
)

const (
	MaxQuestionCount     = 50
	MaxTagIDs            = 26
	MaxTestIDs           = 10
	DefaultQuestionCount = 10
)

// Store is the slice of the exam store the assembler needs.
type Store interface {
	TagIDsExist(ctx context.Context, ids []int64) (bool, error)
	TestIDsExist(ctx context.Context, ids []int64) (bool, error)
	QuestionIDsExist(ctx context.Context, ids []int64) (bool, error)
	ChoiceIDsExist(ctx context.Context, ids []int64) (bool, error)
	QuestionIDsByTags(ctx context.Context, tagIDs, testIDs []int64) ([]int64, error)
	QuestionsByID(ctx context.Context, ids []int64) ([]exam.Question, error)
	ChoicesByID(ctx context.Context, ids []int64) ([]exam.Choice, error)
}

// ValidationErrors keys field names to their messages. It is a structured
// validation result, not an exception: expected bad input never panics or
// crosses the boundary as an opaque error.
type ValidationErrors map[string][]string

func (v ValidationErrors) Error() string {
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var msgs []string
	for _, k := range keys {
		for _, m := range v[k] {
			msgs = append(msgs, k+": "+m)
		}
	}
	return strings.Join(msgs, ", ")
}

func (v ValidationErrors) add(field, msg string) {
	v[field] = append(v[field], msg)
}

// SearchForm carries the sanitized mini-test search input. Build it with
// NewSearchForm; raw request values never touch Search directly.
type SearchForm struct {
	TagIDs        []int64
	TestIDs       []int64
	QuestionCount int
}

// NewSearchForm sanitizes raw request values: ID lists are filtered to
// digits-only tokens and silently deduplicated, the count defaults when
// absent.
func NewSearchForm(tagIDs, testIDs []string, questionCount string) SearchForm {
	f := SearchForm{
		TagIDs:        sanitize.UniqueIDs(tagIDs),
		TestIDs:       sanitize.UniqueIDs(testIDs),
		QuestionCount: DefaultQuestionCount,
	}
	if questionCount != "" {
		n, err := strconv.Atoi(questionCount)
		if err != nil {
			n = 0 // non-integer input fails the range validation below
		}
		f.QuestionCount = n
	}
	return f
}

// Validate checks the form's bounds and that every referenced tag and test
// exists. All violations are collected; nil means valid.
func (f SearchForm) Validate(ctx context.Context, store Store) (ValidationErrors, error) {
	errs := ValidationErrors{}

	if len(f.TagIDs) == 0 {
		errs.add("tag_ids", "select at least one tag")
	}
	if len(f.TagIDs) > MaxTagIDs {
		errs.add("tag_ids", "too many tags selected")
	}
	if len(f.TestIDs) > MaxTestIDs {
		errs.add("test_ids", "too many tests selected")
	}
	if f.QuestionCount < 1 || f.QuestionCount > MaxQuestionCount {
		errs.add("question_count", "question count must be an integer between 1 and 50")
	}

	if len(f.TagIDs) > 0 && len(f.TagIDs) <= MaxTagIDs {
		ok, err := store.TagIDsExist(ctx, f.TagIDs)
		if err != nil {
			return nil, err
		}
		if !ok {
			errs.add("tag_ids", "contains a nonexistent tag")
		}
	}
	if len(f.TestIDs) > 0 && len(f.TestIDs) <= MaxTestIDs {
		ok, err := store.TestIDsExist(ctx, f.TestIDs)
		if err != nil {
			return nil, err
		}
		if !ok {
			errs.add("test_ids", "contains a nonexistent test")
		}
	}

	if len(errs) == 0 {
		return nil, nil
	}
	return errs, nil
}

// Search selects a random subset of QuestionCount questions tagged with any
// of the form's tags, optionally restricted to the form's tests. Fewer
// matches than requested returns them all.
func (f SearchForm) Search(ctx context.Context, store Store) ([]exam.Question, error) {
	ids, err := store.QuestionIDsByTags(ctx, f.TagIDs, f.TestIDs)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	picked := make([]int64, len(ids))
	copy(picked, ids)
	rand.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	if len(picked) > f.QuestionCount {
		picked = picked[:f.QuestionCount]
	}

	return store.QuestionsByID(ctx, picked)
}
