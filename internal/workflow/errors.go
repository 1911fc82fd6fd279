package workflow

import "errors"

var (
	// ErrValidation is returned for missing or malformed required input,
	// comment-length violations and empty stage selections
	ErrValidation = errors.New("validation error")

	// ErrForbidden is returned for role mismatches, exceeded approval
	// ceilings and actions on draft or terminal subjects
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when the referenced series, occurrence,
	// proposal or expense does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a concurrent decision changed the
	// subject's status first; the caller should reload and retry
	ErrConflict = errors.New("subject status changed, reload and retry")
)
