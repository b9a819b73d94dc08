package workflow

import "errors"

// Workflow errors. Persistence-level errors (db.ErrRequestNotFound,
// db.ErrConflict) pass through unwrapped so callers can match them directly.
var (
	// ErrInvalidState means the request's current status does not allow the
	// attempted transition.
	ErrInvalidState = errors.New("operation not allowed in current state")

	// ErrForbidden means the session's role does not permit the operation.
	ErrForbidden = errors.New("role not permitted for this operation")

	// ErrIncompletePhotoSet means one or more required photo categories are
	// missing. Optional photos never satisfy a required slot.
	ErrIncompletePhotoSet = errors.New("required photo categories missing")
)
