// Package sla computes response-time deadlines for reports and the
// dashboard statistics derived from them.
package sla

import (
	"time"

	"github.com/eco-alert/api-go/models"
)

// Hours maps a priority to its response-time window.
var Hours = map[models.Priority]time.Duration{
	models.PriorityCritical: 24 * time.Hour,
	models.PriorityHigh:     72 * time.Hour,
	models.PriorityMedium:   168 * time.Hour,
	models.PriorityLow:      336 * time.Hour,
}

// DueDate returns createdAt plus the priority's window. Unknown priorities
// fall back to the low window.
func DueDate(priority models.Priority, createdAt time.Time) time.Time {
	window, ok := Hours[priority]
	if !ok {
		window = Hours[models.PriorityLow]
	}
	return createdAt.Add(window)
}

type Bucket string

const (
	BucketOverdue     Bucket = "overdue"
	BucketDueToday    Bucket = "due_today"
	BucketDueThisWeek Bucket = "due_this_week"
	BucketOnTrack     Bucket = "on_track"
)

// Classify places a due date into a dashboard bucket relative to now.
// Reports without a due date are on track by definition.
func Classify(due *time.Time, now time.Time) Bucket {
	if due == nil {
		return BucketOnTrack
	}
	switch {
	case due.Before(now):
		return BucketOverdue
	case !due.After(endOfDay(now)):
		return BucketDueToday
	case !due.After(now.Add(7 * 24 * time.Hour)):
		return BucketDueThisWeek
	default:
		return BucketOnTrack
	}
}

// ResolvedOnTime reports whether a resolved report met its deadline.
// The second return is false when the report carries no due date and must
// be excluded from compliance accounting.
func ResolvedOnTime(r *models.Report) (onTime, countable bool) {
	if r.SLADueDate == nil || r.ResolvedAt == nil {
		return false, false
	}
	return !r.ResolvedAt.After(*r.SLADueDate), true
}

func endOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 23, 59, 59, int(time.Second-time.Nanosecond), t.Location())
}
