package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
)

type ReportStatus string

const (
	StatusPending    ReportStatus = "pending"
	StatusVerified   ReportStatus = "verified"
	StatusAssigned   ReportStatus = "assigned"
	StatusInProgress ReportStatus = "in_progress"
	StatusResolved   ReportStatus = "resolved"
	StatusRejected   ReportStatus = "rejected"
)

type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Report is an environmental incident report submitted by a citizen.
// ClientRef carries the submitting client's local id and doubles as the
// idempotency key for offline-queued deliveries.
type Report struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	ClientRef   *string        `gorm:"uniqueIndex;type:varchar(64)" json:"client_ref,omitempty"`
	Category    string         `gorm:"not null;type:varchar(50)" json:"category"`
	Description string         `gorm:"type:text" json:"description"`
	Latitude    float64        `gorm:"not null;type:decimal(10,8)" json:"latitude"`
	Longitude   float64        `gorm:"not null;type:decimal(11,8)" json:"longitude"`
	CityID      *uint          `gorm:"index" json:"city_id,omitempty"`
	UserID      *uint          `gorm:"index" json:"user_id,omitempty"`
	Photos      pq.StringArray `gorm:"type:text[]" json:"photos"`

	Status     ReportStatus `gorm:"not null;default:'pending';type:varchar(20);index" json:"status"`
	Priority   *Priority    `gorm:"type:varchar(10)" json:"priority,omitempty"`
	SLADueDate *time.Time   `gorm:"column:sla_due_date" json:"sla_due_date,omitempty"`

	VerifiedAt *time.Time `json:"verified_at,omitempty"`
	VerifiedBy *uint      `json:"verified_by,omitempty"`
	ResolvedAt *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy *uint      `json:"resolved_by,omitempty"`

	Assignments []Assignment `json:"assignments,omitempty" gorm:"foreignKey:ReportID"`
}
