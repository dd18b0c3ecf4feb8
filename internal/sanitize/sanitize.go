// Package sanitize normalizes identifier lists arriving from untrusted
// request input. Every boundary that accepts ID lists re-sanitizes on its
// own; a previous sanitization is never trusted.
package sanitize

import (
	"regexp"
	"strconv"
)

const (
	// MaxQuestionIDs bounds a bulk question-ID list.
	MaxQuestionIDs = 50
	// MaxChoiceIDs bounds a bulk choice-ID list.
	MaxChoiceIDs = 250
)

// ValidationError reports malformed or out-of-bound input. It is recovered
// at the boundary and surfaced to the user; nothing is mutated.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func newError(msg string) *ValidationError { return &ValidationError{Msg: msg} }

var digitsOnly = regexp.MustCompile(`^\d+$`)

// Normalize keeps only digits-only tokens, converts them to int64 and
// preserves order. Duplicates survive; detecting them is the caller's
// concern.
func Normalize(values []string) []int64 {
	out := make([]int64, 0, len(values))
	for _, v := range values {
		if !digitsOnly.MatchString(v) {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			continue
		}
		out = append(out, n)
	}
	return out
}

// UniqueQuestionIDs normalizes a question-ID list and enforces the bulk
// constraints: non-empty, at most MaxQuestionIDs, no duplicates.
func UniqueQuestionIDs(values []string) ([]int64, error) {
	ids := Normalize(values)
	if len(ids) == 0 {
		return nil, newError("no questions selected")
	}
	if len(ids) > MaxQuestionIDs {
		return nil, newError("too many question ids")
	}
	if hasDuplicates(ids) {
		return nil, newError("duplicate question ids")
	}
	return ids, nil
}

// UniqueChoiceIDs normalizes a choice-ID list and enforces the bulk
// constraints: at most MaxChoiceIDs, no duplicates. An empty list is valid
// here; call sites that require answers check for emptiness themselves.
func UniqueChoiceIDs(values []string) ([]int64, error) {
	ids := Normalize(values)
	if len(ids) > MaxChoiceIDs {
		return nil, newError("too many choice ids")
	}
	if hasDuplicates(ids) {
		return nil, newError("duplicate choice ids")
	}
	return ids, nil
}

// UniqueIDs normalizes and silently deduplicates, preserving first
// occurrence order. Search-form inputs use this looser variant.
func UniqueIDs(values []string) []int64 {
	ids := Normalize(values)
	seen := make(map[int64]struct{}, len(ids))
	out := ids[:0]
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

func hasDuplicates(ids []int64) bool {
	seen := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
