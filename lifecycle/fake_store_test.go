package lifecycle

import (
	"context"
	"time"

	"github.com/eco-alert/api-go/models"
)

// fakeStore is an in-memory Store with the same conditional-update semantics
// as the gorm adapter.
type fakeStore struct {
	reports      map[uint]*models.Report
	assignments  map[uint]*models.Assignment
	nextReportID uint
	nextAssignID uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		reports:     map[uint]*models.Report{},
		assignments: map[uint]*models.Assignment{},
	}
}

func (s *fakeStore) addReport(r models.Report) *models.Report {
	s.nextReportID++
	r.ID = s.nextReportID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	s.reports[r.ID] = &r
	return &r
}

func (s *fakeStore) addAssignment(a models.Assignment) *models.Assignment {
	s.nextAssignID++
	a.ID = s.nextAssignID
	if a.Status == "" {
		a.Status = models.AssignmentPending
	}
	s.assignments[a.ID] = &a
	return &a
}

func (s *fakeStore) CreateReport(ctx context.Context, report *models.Report) (bool, error) {
	if report.ClientRef != nil {
		for _, existing := range s.reports {
			if existing.ClientRef != nil && *existing.ClientRef == *report.ClientRef {
				*report = *existing
				return false, nil
			}
		}
	}
	s.nextReportID++
	report.ID = s.nextReportID
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}
	stored := *report
	s.reports[report.ID] = &stored
	return true, nil
}

func (s *fakeStore) GetReport(ctx context.Context, id uint) (*models.Report, error) {
	report, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *report
	return &cp, nil
}

func (s *fakeStore) ListReports(ctx context.Context, f ReportFilters) ([]models.Report, error) {
	var out []models.Report
	for _, r := range s.reports {
		if len(f.Statuses) > 0 && !containsStatus(f.Statuses, r.Status) {
			continue
		}
		if f.ResolvedAfter != nil && (r.ResolvedAt == nil || r.ResolvedAt.Before(*f.ResolvedAfter)) {
			continue
		}
		out = append(out, *r)
	}
	return out, nil
}

func (s *fakeStore) UpdateReportStatus(ctx context.Context, id uint, expected models.ReportStatus, updates map[string]interface{}) (*models.Report, error) {
	report, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	if report.Status != expected {
		return nil, ErrConflict
	}
	applyReportUpdates(report, updates)
	cp := *report
	return &cp, nil
}

func (s *fakeStore) ResolveReport(ctx context.Context, id uint, expected models.ReportStatus, resolvedBy uint, at time.Time) (*models.Report, error) {
	report, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	if report.Status != expected {
		return nil, ErrConflict
	}
	s.resolve(report, resolvedBy, at)
	for _, a := range s.assignments {
		if a.ReportID == id && !a.Status.Terminal() {
			a.Status = models.AssignmentCompleted
			completed := at
			a.CompletedAt = &completed
		}
	}
	cp := *report
	return &cp, nil
}

func (s *fakeStore) ResolveIfQuiescent(ctx context.Context, reportID uint, resolvedBy uint, at time.Time) (*models.Report, error) {
	for _, a := range s.assignments {
		if a.ReportID == reportID && !a.Status.Terminal() {
			return nil, nil
		}
	}
	report, ok := s.reports[reportID]
	if !ok {
		return nil, ErrNotFound
	}
	if !CanTransition(report.Status, models.StatusResolved) {
		return nil, nil
	}
	s.resolve(report, resolvedBy, at)
	cp := *report
	return &cp, nil
}

func (s *fakeStore) UpdateReportPriority(ctx context.Context, id uint, priority models.Priority, dueDate *time.Time) (*models.Report, error) {
	report, ok := s.reports[id]
	if !ok {
		return nil, ErrNotFound
	}
	report.Priority = &priority
	report.SLADueDate = dueDate
	cp := *report
	return &cp, nil
}

func (s *fakeStore) CreateAssignment(ctx context.Context, a *models.Assignment) error {
	s.nextAssignID++
	a.ID = s.nextAssignID
	stored := *a
	s.assignments[a.ID] = &stored
	return nil
}

func (s *fakeStore) GetAssignment(ctx context.Context, id uint) (*models.Assignment, error) {
	a, ok := s.assignments[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (s *fakeStore) ListAssignments(ctx context.Context, reportID uint) ([]models.Assignment, error) {
	var out []models.Assignment
	for _, a := range s.assignments {
		if a.ReportID == reportID {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (s *fakeStore) UpdateAssignmentStatus(ctx context.Context, id uint, expected models.AssignmentStatus, updates map[string]interface{}) (*models.Assignment, error) {
	a, ok := s.assignments[id]
	if !ok {
		return nil, ErrNotFound
	}
	if a.Status != expected {
		return nil, ErrConflict
	}
	for key, value := range updates {
		switch key {
		case "status":
			a.Status = value.(models.AssignmentStatus)
		case "completed_at":
			t := value.(time.Time)
			a.CompletedAt = &t
		}
	}
	cp := *a
	return &cp, nil
}

func (s *fakeStore) resolve(report *models.Report, resolvedBy uint, at time.Time) {
	report.Status = models.StatusResolved
	resolvedAt := at
	report.ResolvedAt = &resolvedAt
	by := resolvedBy
	report.ResolvedBy = &by
}

func applyReportUpdates(report *models.Report, updates map[string]interface{}) {
	for key, value := range updates {
		switch key {
		case "status":
			report.Status = value.(models.ReportStatus)
		case "verified_at":
			t := value.(time.Time)
			report.VerifiedAt = &t
		case "verified_by":
			id := value.(uint)
			report.VerifiedBy = &id
		case "priority":
			p := value.(models.Priority)
			report.Priority = &p
		case "sla_due_date":
			t := value.(time.Time)
			report.SLADueDate = &t
		}
	}
}

func containsStatus(statuses []models.ReportStatus, status models.ReportStatus) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}
