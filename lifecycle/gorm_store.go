package lifecycle

import (
	"context"
	"errors"
	"time"

	"github.com/eco-alert/api-go/models"
	"gorm.io/gorm"
)

// GormStore implements Store on top of the relational report store.
type GormStore struct {
	DB *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

func (s *GormStore) CreateReport(ctx context.Context, report *models.Report) (bool, error) {
	// Replay check first: the unique index on client_ref is the backstop for
	// the race between the lookup and the insert.
	if report.ClientRef != nil {
		var existing models.Report
		err := s.DB.WithContext(ctx).Where("client_ref = ?", *report.ClientRef).First(&existing).Error
		if err == nil {
			*report = existing
			return false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return false, err
		}
	}

	if err := s.DB.WithContext(ctx).Create(report).Error; err != nil {
		if report.ClientRef != nil && errors.Is(err, gorm.ErrDuplicatedKey) {
			var existing models.Report
			if lookupErr := s.DB.WithContext(ctx).Where("client_ref = ?", *report.ClientRef).First(&existing).Error; lookupErr == nil {
				*report = existing
				return false, nil
			}
		}
		return false, err
	}
	return true, nil
}

func (s *GormStore) GetReport(ctx context.Context, id uint) (*models.Report, error) {
	var report models.Report
	if err := s.DB.WithContext(ctx).First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &report, nil
}

func (s *GormStore) ListReports(ctx context.Context, f ReportFilters) ([]models.Report, error) {
	q := s.DB.WithContext(ctx).Model(&models.Report{})
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.CityID != nil {
		q = q.Where("city_id = ?", *f.CityID)
	}
	if f.UserID != nil {
		q = q.Where("user_id = ?", *f.UserID)
	}
	if f.ResolvedAfter != nil {
		q = q.Where("resolved_at >= ?", *f.ResolvedAfter)
	}
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if f.Offset > 0 {
		q = q.Offset(f.Offset)
	}

	var reports []models.Report
	if err := q.Order("created_at DESC").Find(&reports).Error; err != nil {
		return nil, err
	}
	return reports, nil
}

func (s *GormStore) UpdateReportStatus(ctx context.Context, id uint, expected models.ReportStatus, updates map[string]interface{}) (*models.Report, error) {
	res := s.DB.WithContext(ctx).Model(&models.Report{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, s.conflictOrMissing(ctx, id)
	}
	return s.GetReport(ctx, id)
}

func (s *GormStore) ResolveReport(ctx context.Context, id uint, expected models.ReportStatus, resolvedBy uint, at time.Time) (*models.Report, error) {
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Report{}).
			Where("id = ? AND status = ?", id, expected).
			Updates(map[string]interface{}{
				"status":      models.StatusResolved,
				"resolved_at": at,
				"resolved_by": resolvedBy,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return s.conflictOrMissing(ctx, id)
		}

		// Close the report's open assignments in the same transaction.
		return tx.Model(&models.Assignment{}).
			Where("report_id = ? AND status IN ?", id,
				[]models.AssignmentStatus{models.AssignmentPending, models.AssignmentAccepted}).
			Updates(map[string]interface{}{
				"status":       models.AssignmentCompleted,
				"completed_at": at,
			}).Error
	})
	if err != nil {
		return nil, err
	}
	return s.GetReport(ctx, id)
}

func (s *GormStore) ResolveIfQuiescent(ctx context.Context, reportID uint, resolvedBy uint, at time.Time) (*models.Report, error) {
	var resolved bool
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&models.Assignment{}).
			Where("report_id = ? AND status IN ?", reportID,
				[]models.AssignmentStatus{models.AssignmentPending, models.AssignmentAccepted}).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		var report models.Report
		if err := tx.First(&report, reportID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNotFound
			}
			return err
		}
		if !CanTransition(report.Status, models.StatusResolved) {
			return nil
		}

		res := tx.Model(&models.Report{}).
			Where("id = ? AND status = ?", reportID, report.Status).
			Updates(map[string]interface{}{
				"status":      models.StatusResolved,
				"resolved_at": at,
				"resolved_by": resolvedBy,
			})
		if res.Error != nil {
			return res.Error
		}
		resolved = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !resolved {
		return nil, nil
	}
	return s.GetReport(ctx, reportID)
}

func (s *GormStore) UpdateReportPriority(ctx context.Context, id uint, priority models.Priority, dueDate *time.Time) (*models.Report, error) {
	res := s.DB.WithContext(ctx).Model(&models.Report{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"priority":     priority,
			"sla_due_date": dueDate,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return s.GetReport(ctx, id)
}

func (s *GormStore) CreateAssignment(ctx context.Context, a *models.Assignment) error {
	return s.DB.WithContext(ctx).Create(a).Error
}

func (s *GormStore) GetAssignment(ctx context.Context, id uint) (*models.Assignment, error) {
	var a models.Assignment
	if err := s.DB.WithContext(ctx).First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *GormStore) ListAssignments(ctx context.Context, reportID uint) ([]models.Assignment, error) {
	var assignments []models.Assignment
	err := s.DB.WithContext(ctx).
		Where("report_id = ?", reportID).
		Order("created_at ASC").
		Find(&assignments).Error
	if err != nil {
		return nil, err
	}
	return assignments, nil
}

func (s *GormStore) UpdateAssignmentStatus(ctx context.Context, id uint, expected models.AssignmentStatus, updates map[string]interface{}) (*models.Assignment, error) {
	res := s.DB.WithContext(ctx).Model(&models.Assignment{}).
		Where("id = ? AND status = ?", id, expected).
		Updates(updates)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var a models.Assignment
		if err := s.DB.WithContext(ctx).First(&a, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNotFound
			}
			return nil, err
		}
		return nil, ErrConflict
	}
	return s.GetAssignment(ctx, id)
}

// ActiveReports returns the reports still moving through the lifecycle.
// Used by the SLA aggregator.
func (s *GormStore) ActiveReports(ctx context.Context) ([]models.Report, error) {
	return s.ListReports(ctx, ReportFilters{
		Statuses: []models.ReportStatus{
			models.StatusPending, models.StatusVerified,
			models.StatusAssigned, models.StatusInProgress,
		},
	})
}

// ResolvedSince returns reports resolved after the cutoff. Used by the SLA
// aggregator's compliance window.
func (s *GormStore) ResolvedSince(ctx context.Context, cutoff time.Time) ([]models.Report, error) {
	return s.ListReports(ctx, ReportFilters{
		Statuses:      []models.ReportStatus{models.StatusResolved},
		ResolvedAfter: &cutoff,
	})
}

func (s *GormStore) conflictOrMissing(ctx context.Context, id uint) error {
	var report models.Report
	if err := s.DB.WithContext(ctx).First(&report, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	return ErrConflict
}
