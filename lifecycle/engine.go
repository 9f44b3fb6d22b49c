package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/eco-alert/api-go/models"
	"github.com/eco-alert/api-go/sla"
	"github.com/eco-alert/api-go/utils"
)

// Notifier receives fire-and-forget status change events. Implementations
// must not block; failures never roll back the underlying transition.
type Notifier interface {
	StatusChanged(report *models.Report, from, to models.ReportStatus)
}

// Engine is the sole authority for report and assignment state transitions.
// It performs no I/O beyond the report store.
type Engine struct {
	store    Store
	notifier Notifier
	now      func() time.Time
}

func NewEngine(store Store, notifier Notifier) *Engine {
	return &Engine{
		store:    store,
		notifier: notifier,
		now:      time.Now,
	}
}

// CreatePayload is the normalized creation input shared by the HTTP surface
// and the offline sync path.
type CreatePayload struct {
	Category    string
	Description string
	Latitude    float64
	Longitude   float64
	CityID      *uint
	Photos      []string
	Priority    *models.Priority
}

// CreateReport inserts a report in state pending. idempotencyKey, when
// non-empty, makes redelivery of the same logical submission a no-op that
// returns the original row. Returns the report and whether it was newly created.
func (e *Engine) CreateReport(ctx context.Context, principal *utils.UserClaims, payload CreatePayload, idempotencyKey string) (*models.Report, bool, error) {
	report := &models.Report{
		Category:    payload.Category,
		Description: payload.Description,
		Latitude:    payload.Latitude,
		Longitude:   payload.Longitude,
		CityID:      payload.CityID,
		Photos:      payload.Photos,
		Status:      models.StatusPending,
	}
	if principal != nil {
		userID := principal.UserID
		report.UserID = &userID
	}
	if idempotencyKey != "" {
		key := idempotencyKey
		report.ClientRef = &key
	}
	if payload.Priority != nil {
		report.Priority = payload.Priority
		due := sla.DueDate(*payload.Priority, e.now())
		report.SLADueDate = &due
	}

	created, err := e.store.CreateReport(ctx, report)
	if err != nil {
		return nil, false, fmt.Errorf("create report: %w", err)
	}
	return report, created, nil
}

// UpdateOpts carries optional side inputs of a status transition.
type UpdateOpts struct {
	// Priority re-scores the report; the SLA due date is recomputed from it
	// unless DueDate supplies an explicit override.
	Priority *models.Priority
	DueDate  *time.Time
}

// UpdateStatus validates and applies a single report transition.
// The write is conditional on the status the validation saw, so two
// operators racing on a stale read cannot both win.
func (e *Engine) UpdateStatus(ctx context.Context, principal *utils.UserClaims, reportID uint, target models.ReportStatus, opts UpdateOpts) (*models.Report, error) {
	report, err := e.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}

	if err := e.authorize(principal, report, target); err != nil {
		return nil, err
	}

	if !CanTransition(report.Status, target) {
		return nil, &InvalidTransitionError{
			From:    report.Status,
			To:      target,
			Allowed: AllowedTransitions(report.Status),
		}
	}

	from := report.Status
	now := e.now()

	var updated *models.Report
	if target == models.StatusResolved {
		// A re-score riding along with the resolution lands before the
		// resolve, so compliance accounting sees the final due date.
		if opts.Priority != nil {
			due := opts.DueDate
			if due == nil {
				d := sla.DueDate(*opts.Priority, report.CreatedAt)
				due = &d
			}
			if _, err := e.store.UpdateReportPriority(ctx, report.ID, *opts.Priority, due); err != nil {
				return nil, err
			}
		}
		updated, err = e.store.ResolveReport(ctx, report.ID, from, principal.UserID, now)
	} else {
		updates := map[string]interface{}{"status": target}
		if target == models.StatusVerified {
			updates["verified_at"] = now
			updates["verified_by"] = principal.UserID
		}
		if opts.Priority != nil {
			updates["priority"] = *opts.Priority
			if opts.DueDate != nil {
				updates["sla_due_date"] = *opts.DueDate
			} else {
				updates["sla_due_date"] = sla.DueDate(*opts.Priority, report.CreatedAt)
			}
		}
		updated, err = e.store.UpdateReportStatus(ctx, report.ID, from, updates)
	}
	if err != nil {
		return nil, err
	}

	if e.notifier != nil {
		e.notifier.StatusChanged(updated, from, target)
	}
	return updated, nil
}

// SetPriority re-scores a report. The SLA due date is recomputed from the
// report's creation time unless an explicit due date is supplied.
func (e *Engine) SetPriority(ctx context.Context, principal *utils.UserClaims, reportID uint, priority models.Priority, explicitDue *time.Time) (*models.Report, error) {
	report, err := e.store.GetReport(ctx, reportID)
	if err != nil {
		return nil, err
	}
	if !principal.IsOperator() {
		return nil, &PermissionError{Reason: "only operators may set report priority"}
	}
	if !principal.InTerritory(report.CityID) {
		return nil, &PermissionError{Reason: "report is outside your territory"}
	}

	due := explicitDue
	if due == nil {
		d := sla.DueDate(priority, report.CreatedAt)
		due = &d
	}
	return e.store.UpdateReportPriority(ctx, report.ID, priority, due)
}

// BulkResult is the outcome of one report in a bulk transition.
type BulkResult struct {
	ReportID uint   `json:"report_id"`
	OK       bool   `json:"ok"`
	Error    string `json:"error,omitempty"`
}

// BulkUpdateStatus applies the same transition independently per report.
// One invalid report never blocks the others.
func (e *Engine) BulkUpdateStatus(ctx context.Context, principal *utils.UserClaims, reportIDs []uint, target models.ReportStatus, opts UpdateOpts) (int, []BulkResult) {
	results := make([]BulkResult, 0, len(reportIDs))
	succeeded := 0
	for _, id := range reportIDs {
		_, err := e.UpdateStatus(ctx, principal, id, target, opts)
		if err != nil {
			results = append(results, BulkResult{ReportID: id, Error: err.Error()})
			continue
		}
		succeeded++
		results = append(results, BulkResult{ReportID: id, OK: true})
	}
	return succeeded, results
}

// authorize enforces the ownership/territory rules. Owners without an
// operator role may only reopen their own reports; operators act within
// their territory; admins bypass territory checks.
func (e *Engine) authorize(principal *utils.UserClaims, report *models.Report, target models.ReportStatus) error {
	if principal == nil {
		return &PermissionError{Reason: "authentication required"}
	}
	if principal.IsOperator() {
		if !principal.InTerritory(report.CityID) {
			return &PermissionError{Reason: "report is outside your territory"}
		}
		return nil
	}

	if report.UserID == nil || *report.UserID != principal.UserID {
		return &PermissionError{Reason: "you may only update your own reports"}
	}
	// Owner-driven transitions are limited to reopening.
	if target != models.StatusPending ||
		(report.Status != models.StatusResolved && report.Status != models.StatusRejected) {
		return &PermissionError{Reason: "report owners may only reopen resolved or rejected reports"}
	}
	return nil
}
