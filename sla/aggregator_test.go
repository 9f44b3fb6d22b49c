package sla

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eco-alert/api-go/models"
)

type fakeSource struct {
	active   []models.Report
	resolved []models.Report
	cutoff   time.Time
}

func (f *fakeSource) ActiveReports(ctx context.Context) ([]models.Report, error) {
	return f.active, nil
}

func (f *fakeSource) ResolvedSince(ctx context.Context, cutoff time.Time) ([]models.Report, error) {
	f.cutoff = cutoff
	return f.resolved, nil
}

func TestSnapshotBucketsActiveReports(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	timePtr := func(t time.Time) *time.Time { return &t }

	source := &fakeSource{
		active: []models.Report{
			{SLADueDate: timePtr(now.Add(-time.Hour))},
			{SLADueDate: timePtr(now.Add(-48 * time.Hour))},
			{SLADueDate: timePtr(now.Add(2 * time.Hour))},
			{SLADueDate: timePtr(now.Add(3 * 24 * time.Hour))},
			{SLADueDate: nil},
		},
	}
	agg := NewAggregator(source)
	agg.now = func() time.Time { return now }

	dash, err := agg.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, dash.Overdue)
	assert.Equal(t, 1, dash.DueToday)
	assert.Equal(t, 1, dash.DueThisWeek)
	assert.Equal(t, 1, dash.OnTrack)
}

func TestSnapshotComplianceExcludesReportsWithoutDueDate(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	timePtr := func(t time.Time) *time.Time { return &t }
	due := now.Add(-24 * time.Hour)

	source := &fakeSource{
		resolved: []models.Report{
			{SLADueDate: &due, ResolvedAt: timePtr(due.Add(-time.Hour))},
			{SLADueDate: &due, ResolvedAt: timePtr(due.Add(-2 * time.Hour))},
			{SLADueDate: &due, ResolvedAt: timePtr(due.Add(time.Hour))},
			{SLADueDate: nil, ResolvedAt: timePtr(now.Add(-time.Hour))},
		},
	}
	agg := NewAggregator(source)
	agg.now = func() time.Time { return now }

	dash, err := agg.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, dash.TotalResolved)
	assert.Equal(t, 2, dash.ResolvedOnTime)
	assert.InDelta(t, 2.0/3.0, dash.ComplianceRate, 1e-9)

	assert.Equal(t, now.Add(-30*24*time.Hour), source.cutoff)
}

func TestSnapshotEmptyStore(t *testing.T) {
	agg := NewAggregator(&fakeSource{})
	dash, err := agg.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &Dashboard{}, dash)
}
