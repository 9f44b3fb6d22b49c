package lifecycle

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eco-alert/api-go/models"
)

func TestCreateAssignmentMovesReportToAssigned(t *testing.T) {
	store := newFakeStore()
	notifier := &recordingNotifier{}
	engine := NewEngine(store, notifier)
	report := store.addReport(models.Report{Category: "sewage", Status: models.StatusVerified})

	assignment, err := engine.CreateAssignment(context.Background(), operatorClaims(7), AssignmentPayload{
		ReportID:   report.ID,
		AssignedTo: 9,
	})
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentPending, assignment.Status)
	assert.Equal(t, uint(7), assignment.AssignedBy)

	updated, _ := store.GetReport(context.Background(), report.ID)
	assert.Equal(t, models.StatusAssigned, updated.Status)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, statusEvent{reportID: report.ID, from: models.StatusVerified, to: models.StatusAssigned}, notifier.events[0])
}

func TestCreateAssignmentLeavesInProgressReportAlone(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil)
	report := store.addReport(models.Report{Category: "sewage", Status: models.StatusInProgress})

	_, err := engine.CreateAssignment(context.Background(), operatorClaims(7), AssignmentPayload{
		ReportID:   report.ID,
		AssignedTo: 9,
	})
	require.NoError(t, err)

	updated, _ := store.GetReport(context.Background(), report.ID)
	assert.Equal(t, models.StatusInProgress, updated.Status)
}

func TestCreateAssignmentRequiresOperator(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil)
	report := store.addReport(models.Report{Category: "sewage", Status: models.StatusPending})

	_, err := engine.CreateAssignment(context.Background(), citizenClaims(42), AssignmentPayload{
		ReportID:   report.ID,
		AssignedTo: 9,
	})
	var perm *PermissionError
	assert.ErrorAs(t, err, &perm)

	_, err = engine.CreateAssignment(context.Background(), operatorClaims(7, 6), AssignmentPayload{
		ReportID:   report.ID,
		AssignedTo: 9,
	})
	assert.NoError(t, err)
}

func TestAcceptDrivesReportInProgress(t *testing.T) {
	store := newFakeStore()
	notifier := &recordingNotifier{}
	engine := NewEngine(store, notifier)
	report := store.addReport(models.Report{Category: "sewage", Status: models.StatusAssigned})
	assignment := store.addAssignment(models.Assignment{ReportID: report.ID, AssignedTo: 9, AssignedBy: 7, Status: models.AssignmentPending})

	updated, err := engine.UpdateAssignmentStatus(context.Background(), citizenClaims(9), assignment.ID, models.AssignmentAccepted)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentAccepted, updated.Status)

	stored, _ := store.GetReport(context.Background(), report.ID)
	assert.Equal(t, models.StatusInProgress, stored.Status)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, models.StatusInProgress, notifier.events[0].to)
}

func TestDeclineDoesNotTouchReport(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil)
	report := store.addReport(models.Report{Category: "sewage", Status: models.StatusAssigned})
	assignment := store.addAssignment(models.Assignment{ReportID: report.ID, AssignedTo: 9, AssignedBy: 7, Status: models.AssignmentPending})

	updated, err := engine.UpdateAssignmentStatus(context.Background(), citizenClaims(9), assignment.ID, models.AssignmentDeclined)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentDeclined, updated.Status)

	stored, _ := store.GetReport(context.Background(), report.ID)
	assert.Equal(t, models.StatusAssigned, stored.Status)
}

func TestCompleteFromPendingIsInvalid(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil)
	report := store.addReport(models.Report{Category: "sewage", Status: models.StatusAssigned})
	assignment := store.addAssignment(models.Assignment{ReportID: report.ID, AssignedTo: 9, AssignedBy: 7, Status: models.AssignmentPending})

	_, err := engine.UpdateAssignmentStatus(context.Background(), citizenClaims(9), assignment.ID, models.AssignmentCompleted)
	var invalid *InvalidAssignmentTransitionError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, models.AssignmentPending, invalid.From)
	assert.Equal(t, models.AssignmentCompleted, invalid.To)
}

func TestAssignmentAuthorization(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil)
	ctx := context.Background()
	report := store.addReport(models.Report{Category: "sewage", Status: models.StatusAssigned})

	var perm *PermissionError

	// Only the assignee may accept.
	a1 := store.addAssignment(models.Assignment{ReportID: report.ID, AssignedTo: 9, AssignedBy: 7, Status: models.AssignmentPending})
	_, err := engine.UpdateAssignmentStatus(ctx, operatorClaims(7), a1.ID, models.AssignmentAccepted)
	assert.ErrorAs(t, err, &perm)

	// The assigner may complete, a bystander may not.
	a2 := store.addAssignment(models.Assignment{ReportID: report.ID, AssignedTo: 9, AssignedBy: 7, Status: models.AssignmentAccepted})
	_, err = engine.UpdateAssignmentStatus(ctx, citizenClaims(55), a2.ID, models.AssignmentCompleted)
	assert.ErrorAs(t, err, &perm)
	_, err = engine.UpdateAssignmentStatus(ctx, operatorClaims(7), a2.ID, models.AssignmentCompleted)
	assert.NoError(t, err)

	// Admins may drive any assignment.
	a3 := store.addAssignment(models.Assignment{ReportID: report.ID, AssignedTo: 9, AssignedBy: 7, Status: models.AssignmentPending})
	_, err = engine.UpdateAssignmentStatus(ctx, adminClaims(1), a3.ID, models.AssignmentAccepted)
	assert.NoError(t, err)
}

func TestCompletionCascadeWaitsForLastAssignment(t *testing.T) {
	store := newFakeStore()
	notifier := &recordingNotifier{}
	now := time.Date(2026, 3, 4, 10, 0, 0, 0, time.UTC)
	engine := newTestEngine(store, notifier, now)
	ctx := context.Background()

	report := store.addReport(models.Report{Category: "sewage", Status: models.StatusInProgress})
	first := store.addAssignment(models.Assignment{ReportID: report.ID, AssignedTo: 9, AssignedBy: 7, Status: models.AssignmentAccepted})
	second := store.addAssignment(models.Assignment{ReportID: report.ID, AssignedTo: 11, AssignedBy: 7, Status: models.AssignmentAccepted})

	// First completion leaves the report alone: a sibling is still open.
	updated, err := engine.UpdateAssignmentStatus(ctx, citizenClaims(9), first.ID, models.AssignmentCompleted)
	require.NoError(t, err)
	require.NotNil(t, updated.CompletedAt)
	assert.Equal(t, now, *updated.CompletedAt)

	stored, _ := store.GetReport(ctx, report.ID)
	assert.Equal(t, models.StatusInProgress, stored.Status)
	assert.Empty(t, notifier.events)

	// Last completion resolves the report.
	_, err = engine.UpdateAssignmentStatus(ctx, citizenClaims(11), second.ID, models.AssignmentCompleted)
	require.NoError(t, err)

	stored, _ = store.GetReport(ctx, report.ID)
	assert.Equal(t, models.StatusResolved, stored.Status)
	require.NotNil(t, stored.ResolvedAt)
	assert.Equal(t, now, *stored.ResolvedAt)
	require.NotNil(t, stored.ResolvedBy)
	assert.Equal(t, uint(11), *stored.ResolvedBy)

	require.Len(t, notifier.events, 1)
	assert.Equal(t, statusEvent{reportID: report.ID, from: models.StatusInProgress, to: models.StatusResolved}, notifier.events[0])
}

func TestCompletionCascadeIgnoresDeclinedSiblings(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil)
	ctx := context.Background()

	report := store.addReport(models.Report{Category: "sewage", Status: models.StatusInProgress})
	store.addAssignment(models.Assignment{ReportID: report.ID, AssignedTo: 9, AssignedBy: 7, Status: models.AssignmentDeclined})
	active := store.addAssignment(models.Assignment{ReportID: report.ID, AssignedTo: 11, AssignedBy: 7, Status: models.AssignmentAccepted})

	_, err := engine.UpdateAssignmentStatus(ctx, citizenClaims(11), active.ID, models.AssignmentCompleted)
	require.NoError(t, err)

	stored, _ := store.GetReport(ctx, report.ID)
	assert.Equal(t, models.StatusResolved, stored.Status)
}

func TestCompletionCascadeSkipsTerminalReport(t *testing.T) {
	store := newFakeStore()
	engine := NewEngine(store, nil)
	report := store.addReport(models.Report{Category: "sewage", Status: models.StatusRejected})

	resolved, err := engine.CompletionCascade(context.Background(), report.ID, 9)
	require.NoError(t, err)
	assert.Nil(t, resolved)

	stored, _ := store.GetReport(context.Background(), report.ID)
	assert.Equal(t, models.StatusRejected, stored.Status)
}
