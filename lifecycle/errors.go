package lifecycle

import (
	"errors"
	"fmt"

	"github.com/eco-alert/api-go/models"
)

var (
	// ErrNotFound is returned when the referenced report or assignment
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a conditional status update loses the
	// race against a concurrent transition. Callers should re-read and retry.
	ErrConflict = errors.New("status changed concurrently")
)

// InvalidTransitionError reports an illegal status edge together with the
// edges that would have been legal, so clients can offer the user a valid
// next step.
type InvalidTransitionError struct {
	From    models.ReportStatus
	To      models.ReportStatus
	Allowed []models.ReportStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition %s -> %s (allowed: %v)", e.From, e.To, e.Allowed)
}

// InvalidAssignmentTransitionError is the assignment-side counterpart.
type InvalidAssignmentTransitionError struct {
	From    models.AssignmentStatus
	To      models.AssignmentStatus
	Allowed []models.AssignmentStatus
}

func (e *InvalidAssignmentTransitionError) Error() string {
	return fmt.Sprintf("invalid assignment transition %s -> %s (allowed: %v)", e.From, e.To, e.Allowed)
}

// PermissionError reports an authorization failure. Never retried.
type PermissionError struct {
	Reason string
}

func (e *PermissionError) Error() string {
	return e.Reason
}
