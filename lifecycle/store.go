package lifecycle

import (
	"context"
	"time"

	"github.com/eco-alert/api-go/models"
)

// ReportFilters narrows ListReports. Zero values mean "no filter".
type ReportFilters struct {
	Statuses      []models.ReportStatus
	Category      string
	CityID        *uint
	UserID        *uint
	ResolvedAfter *time.Time
	Limit         int
	Offset        int
}

// Store is the engine's port onto the report store. The gorm adapter is the
// production implementation; tests substitute an in-memory fake.
type Store interface {
	// CreateReport inserts the report, or returns the existing row when a
	// report with the same client ref was already delivered (idempotent
	// replay). The second return is false on replay.
	CreateReport(ctx context.Context, report *models.Report) (bool, error)

	GetReport(ctx context.Context, id uint) (*models.Report, error)
	ListReports(ctx context.Context, f ReportFilters) ([]models.Report, error)

	// UpdateReportStatus applies the updates only while the report still has
	// the expected status (conditional update). Returns ErrConflict when the
	// status moved underneath the caller, ErrNotFound when the report is gone.
	UpdateReportStatus(ctx context.Context, id uint, expected models.ReportStatus, updates map[string]interface{}) (*models.Report, error)

	// ResolveReport transitions the report to resolved and marks every
	// non-terminal assignment completed, atomically.
	ResolveReport(ctx context.Context, id uint, expected models.ReportStatus, resolvedBy uint, at time.Time) (*models.Report, error)

	// ResolveIfQuiescent resolves the report only if it has no non-terminal
	// assignments left. The count and the update happen in one transaction.
	// Returns (nil, nil) when a non-terminal assignment remains.
	ResolveIfQuiescent(ctx context.Context, reportID uint, resolvedBy uint, at time.Time) (*models.Report, error)

	UpdateReportPriority(ctx context.Context, id uint, priority models.Priority, dueDate *time.Time) (*models.Report, error)

	CreateAssignment(ctx context.Context, a *models.Assignment) error
	GetAssignment(ctx context.Context, id uint) (*models.Assignment, error)
	ListAssignments(ctx context.Context, reportID uint) ([]models.Assignment, error)

	// UpdateAssignmentStatus is the assignment-side conditional update.
	UpdateAssignmentStatus(ctx context.Context, id uint, expected models.AssignmentStatus, updates map[string]interface{}) (*models.Assignment, error)
}
