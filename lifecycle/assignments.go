package lifecycle

import (
	"context"
	"time"

	"github.com/eco-alert/api-go/models"
	"github.com/eco-alert/api-go/utils"
)

// AssignmentPayload is the creation input for a new assignment.
type AssignmentPayload struct {
	ReportID       uint
	AssignedTo     uint
	OrganizationID *uint
	DueDate        *time.Time
}

// CreateAssignment creates a pending assignment on a report. Only operators
// may assign, and only within their territory. A report still in pending or
// verified is moved to assigned as a side effect.
func (e *Engine) CreateAssignment(ctx context.Context, principal *utils.UserClaims, payload AssignmentPayload) (*models.Assignment, error) {
	if principal == nil || !principal.IsOperator() {
		return nil, &PermissionError{Reason: "only operators may create assignments"}
	}

	report, err := e.store.GetReport(ctx, payload.ReportID)
	if err != nil {
		return nil, err
	}
	if !principal.InTerritory(report.CityID) {
		return nil, &PermissionError{Reason: "report is outside your territory"}
	}

	assignment := &models.Assignment{
		ReportID:       report.ID,
		AssignedTo:     payload.AssignedTo,
		AssignedBy:     principal.UserID,
		OrganizationID: payload.OrganizationID,
		Status:         models.AssignmentPending,
		DueDate:        payload.DueDate,
	}
	if err := e.store.CreateAssignment(ctx, assignment); err != nil {
		return nil, err
	}

	// Best effort: losing the CAS here only means someone else already
	// moved the report, which is fine.
	if report.Status == models.StatusPending || report.Status == models.StatusVerified {
		if updated, err := e.store.UpdateReportStatus(ctx, report.ID, report.Status,
			map[string]interface{}{"status": models.StatusAssigned}); err == nil && e.notifier != nil {
			e.notifier.StatusChanged(updated, report.Status, models.StatusAssigned)
		}
	}

	return assignment, nil
}

// UpdateAssignmentStatus validates and applies one assignment transition.
// accept and decline belong to the assignee; complete is open to the
// assignee, the assigner, and admins.
func (e *Engine) UpdateAssignmentStatus(ctx context.Context, principal *utils.UserClaims, assignmentID uint, target models.AssignmentStatus) (*models.Assignment, error) {
	assignment, err := e.store.GetAssignment(ctx, assignmentID)
	if err != nil {
		return nil, err
	}

	if err := e.authorizeAssignment(principal, assignment, target); err != nil {
		return nil, err
	}

	if !CanTransitionAssignment(assignment.Status, target) {
		allowed := AssignmentTransitions[assignment.Status]
		return nil, &InvalidAssignmentTransitionError{
			From:    assignment.Status,
			To:      target,
			Allowed: allowed,
		}
	}

	updates := map[string]interface{}{"status": target}
	now := e.now()
	if target == models.AssignmentCompleted {
		updates["completed_at"] = now
	}

	updated, err := e.store.UpdateAssignmentStatus(ctx, assignment.ID, assignment.Status, updates)
	if err != nil {
		return nil, err
	}

	switch target {
	case models.AssignmentAccepted:
		e.driveReportInProgress(ctx, updated.ReportID)
	case models.AssignmentCompleted:
		if _, err := e.CompletionCascade(ctx, updated.ReportID, principal.UserID); err != nil {
			return updated, err
		}
	}

	return updated, nil
}

// CompletionCascade resolves the report once its last non-terminal assignment
// completes. It is deliberately a standalone rule, not inlined into the
// assignment transition, so it can be exercised on its own. Returns the
// resolved report, or nil when assignments remain open.
func (e *Engine) CompletionCascade(ctx context.Context, reportID uint, completedBy uint) (*models.Report, error) {
	report, err := e.store.ResolveIfQuiescent(ctx, reportID, completedBy, e.now())
	if err != nil {
		return nil, err
	}
	if report != nil && e.notifier != nil {
		e.notifier.StatusChanged(report, models.StatusInProgress, models.StatusResolved)
	}
	return report, nil
}

// driveReportInProgress moves the parent report to in_progress when an
// assignment is accepted. Conflicts are ignored: the report having moved
// already is not an error for the acceptor.
func (e *Engine) driveReportInProgress(ctx context.Context, reportID uint) {
	report, err := e.store.GetReport(ctx, reportID)
	if err != nil {
		return
	}
	switch report.Status {
	case models.StatusPending, models.StatusVerified, models.StatusAssigned:
		if updated, err := e.store.UpdateReportStatus(ctx, report.ID, report.Status,
			map[string]interface{}{"status": models.StatusInProgress}); err == nil && e.notifier != nil {
			e.notifier.StatusChanged(updated, report.Status, models.StatusInProgress)
		}
	}
}

func (e *Engine) authorizeAssignment(principal *utils.UserClaims, assignment *models.Assignment, target models.AssignmentStatus) error {
	if principal == nil {
		return &PermissionError{Reason: "authentication required"}
	}
	if principal.IsAdmin() {
		return nil
	}
	switch target {
	case models.AssignmentAccepted, models.AssignmentDeclined:
		if assignment.AssignedTo != principal.UserID {
			return &PermissionError{Reason: "only the assignee may accept or decline"}
		}
	case models.AssignmentCompleted:
		if assignment.AssignedTo != principal.UserID && assignment.AssignedBy != principal.UserID {
			return &PermissionError{Reason: "only the assignee or the assigner may complete"}
		}
	}
	return nil
}
