package sla

import (
	"context"
	"time"

	"github.com/eco-alert/api-go/models"
)

// complianceWindow is the trailing period considered for the compliance rate.
const complianceWindow = 30 * 24 * time.Hour

// Source is the read surface the aggregator needs from the report store.
// *lifecycle.GormStore satisfies it.
type Source interface {
	ActiveReports(ctx context.Context) ([]models.Report, error)
	ResolvedSince(ctx context.Context, cutoff time.Time) ([]models.Report, error)
}

// Dashboard is the SLA snapshot served to dashboards. Eventually consistent
// with the report store; a few seconds of staleness is acceptable.
type Dashboard struct {
	Overdue     int `json:"overdue"`
	DueToday    int `json:"due_today"`
	DueThisWeek int `json:"due_this_week"`
	OnTrack     int `json:"on_track"`

	TotalResolved  int     `json:"total_resolved"`
	ResolvedOnTime int     `json:"resolved_on_time"`
	ComplianceRate float64 `json:"compliance_rate"`
}

type Aggregator struct {
	source Source
	now    func() time.Time
}

func NewAggregator(source Source) *Aggregator {
	return &Aggregator{source: source, now: time.Now}
}

// Snapshot buckets the active reports and computes the trailing-30-day
// compliance rate. Reports without a due date are excluded from the
// compliance denominator, not counted against it.
func (a *Aggregator) Snapshot(ctx context.Context) (*Dashboard, error) {
	now := a.now()

	active, err := a.source.ActiveReports(ctx)
	if err != nil {
		return nil, err
	}

	dash := &Dashboard{}
	for i := range active {
		switch Classify(active[i].SLADueDate, now) {
		case BucketOverdue:
			dash.Overdue++
		case BucketDueToday:
			dash.DueToday++
		case BucketDueThisWeek:
			dash.DueThisWeek++
		default:
			dash.OnTrack++
		}
	}

	resolved, err := a.source.ResolvedSince(ctx, now.Add(-complianceWindow))
	if err != nil {
		return nil, err
	}
	for i := range resolved {
		onTime, countable := ResolvedOnTime(&resolved[i])
		if !countable {
			continue
		}
		dash.TotalResolved++
		if onTime {
			dash.ResolvedOnTime++
		}
	}
	if dash.TotalResolved > 0 {
		dash.ComplianceRate = float64(dash.ResolvedOnTime) / float64(dash.TotalResolved)
	}

	return dash, nil
}
