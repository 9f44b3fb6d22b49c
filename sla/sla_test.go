package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/eco-alert/api-go/models"
)

func TestDueDateWindows(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		priority models.Priority
		want     time.Duration
	}{
		{models.PriorityCritical, 24 * time.Hour},
		{models.PriorityHigh, 72 * time.Hour},
		{models.PriorityMedium, 168 * time.Hour},
		{models.PriorityLow, 336 * time.Hour},
	}
	for _, tt := range tests {
		assert.Equal(t, createdAt.Add(tt.want), DueDate(tt.priority, createdAt), "priority %s", tt.priority)
	}
}

func TestDueDateUnknownPriorityFallsBackToLow(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	assert.Equal(t, createdAt.Add(336*time.Hour), DueDate(models.Priority("urgent"), createdAt))
}

func TestClassify(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	timePtr := func(t time.Time) *time.Time { return &t }

	tests := []struct {
		name string
		due  *time.Time
		want Bucket
	}{
		{"no due date", nil, BucketOnTrack},
		{"past due", timePtr(now.Add(-time.Hour)), BucketOverdue},
		{"due later today", timePtr(now.Add(10 * time.Hour)), BucketDueToday},
		{"due at end of day", timePtr(time.Date(2026, 3, 1, 23, 59, 59, 0, time.UTC)), BucketDueToday},
		{"due tomorrow", timePtr(now.Add(24 * time.Hour)), BucketDueThisWeek},
		{"due in six days", timePtr(now.Add(6 * 24 * time.Hour)), BucketDueThisWeek},
		{"due in eight days", timePtr(now.Add(8 * 24 * time.Hour)), BucketOnTrack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.due, now))
		})
	}
}

func TestCriticalReportOverdueAfterWindow(t *testing.T) {
	createdAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	due := DueDate(models.PriorityCritical, createdAt)

	assert.Equal(t, BucketDueToday, Classify(&due, createdAt.Add(23*time.Hour)))
	assert.Equal(t, BucketOverdue, Classify(&due, createdAt.Add(25*time.Hour)))
}

func TestResolvedOnTime(t *testing.T) {
	due := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)
	before := due.Add(-time.Hour)
	after := due.Add(time.Hour)

	onTime, countable := ResolvedOnTime(&models.Report{SLADueDate: &due, ResolvedAt: &before})
	assert.True(t, onTime)
	assert.True(t, countable)

	onTime, countable = ResolvedOnTime(&models.Report{SLADueDate: &due, ResolvedAt: &due})
	assert.True(t, onTime)
	assert.True(t, countable)

	onTime, countable = ResolvedOnTime(&models.Report{SLADueDate: &due, ResolvedAt: &after})
	assert.False(t, onTime)
	assert.True(t, countable)

	_, countable = ResolvedOnTime(&models.Report{ResolvedAt: &before})
	assert.False(t, countable)
}
