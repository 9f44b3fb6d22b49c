package models

import (
	"time"

	"gorm.io/gorm"
)

type AssignmentStatus string

const (
	AssignmentPending   AssignmentStatus = "pending"
	AssignmentAccepted  AssignmentStatus = "accepted"
	AssignmentDeclined  AssignmentStatus = "declined"
	AssignmentCompleted AssignmentStatus = "completed"
)

// Terminal reports whether the assignment can no longer change.
func (s AssignmentStatus) Terminal() bool {
	return s == AssignmentCompleted || s == AssignmentDeclined
}

type Assignment struct {
	ID        uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`

	ReportID       uint             `gorm:"not null;index" json:"report_id"`
	AssignedTo     uint             `gorm:"not null;index" json:"assigned_to"`
	AssignedBy     uint             `gorm:"not null" json:"assigned_by"`
	OrganizationID *uint            `json:"organization_id,omitempty"`
	Status         AssignmentStatus `gorm:"not null;default:'pending';type:varchar(20)" json:"status"`
	DueDate        *time.Time       `json:"due_date,omitempty"`
	CompletedAt    *time.Time       `json:"completed_at,omitempty"`
}
