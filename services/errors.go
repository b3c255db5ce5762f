package services

import "errors"

// Engine error taxonomy. Services raise these (usually wrapped with %w and
// context); the HTTP layer maps them to status codes. Services never log and
// never format user-facing strings.
var (
	// ErrNotFound covers a missing resource, parent, department or ACL entry.
	ErrNotFound = errors.New("resource not found")

	// ErrInvalidMove means the target parent is the resource itself or one
	// of its own descendants.
	ErrInvalidMove = errors.New("invalid move target")

	// ErrParentStillDeleted means a restore was attempted while an ancestor
	// remains soft-deleted.
	ErrParentStillDeleted = errors.New("parent is still deleted")

	// ErrPermissionDenied means the evaluator denied the requested action.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrValidation covers malformed identifiers, duplicate sibling names
	// and documents offered as parents.
	ErrValidation = errors.New("validation failed")

	// ErrConfirmationRequired means a permanent delete was requested without
	// the explicit confirmation flag.
	ErrConfirmationRequired = errors.New("confirmation required")

	// ErrCascadeFailed means the store could not complete a structural
	// cascade atomically.
	ErrCascadeFailed = errors.New("cascade failed")
)
