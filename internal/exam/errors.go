package exam

import "errors"

var (
	ErrNotFound = errors.New("record not found")

	// ErrInvalidChoice means the submitted answer set failed bulk-insert
	// validation: empty after sanitization, over the limit, duplicated, or
	// referencing a nonexistent choice. The whole submission rolls back.
	ErrInvalidChoice = errors.New("invalid choice ids provided")
)
