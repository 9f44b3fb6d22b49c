package lifecycle

import "github.com/eco-alert/api-go/models"

// ReportTransitions is the full set of legal report status edges. Keeping it
// as data lets tests enumerate every edge and every non-edge.
var ReportTransitions = map[models.ReportStatus][]models.ReportStatus{
	models.StatusPending:    {models.StatusVerified, models.StatusInProgress, models.StatusAssigned, models.StatusRejected},
	models.StatusVerified:   {models.StatusInProgress, models.StatusAssigned, models.StatusRejected},
	models.StatusAssigned:   {models.StatusInProgress, models.StatusResolved, models.StatusRejected},
	models.StatusInProgress: {models.StatusResolved, models.StatusRejected, models.StatusPending},
	models.StatusResolved:   {models.StatusPending, models.StatusInProgress},
	models.StatusRejected:   {models.StatusPending},
}

// AssignmentTransitions is the legal edge set for assignments.
var AssignmentTransitions = map[models.AssignmentStatus][]models.AssignmentStatus{
	models.AssignmentPending:  {models.AssignmentAccepted, models.AssignmentDeclined},
	models.AssignmentAccepted: {models.AssignmentCompleted},
}

// CanTransition reports whether from -> to is a legal report edge.
func CanTransition(from, to models.ReportStatus) bool {
	for _, allowed := range ReportTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// AllowedTransitions returns the targets reachable from the given status.
// The returned slice is a copy; callers may hold on to it.
func AllowedTransitions(from models.ReportStatus) []models.ReportStatus {
	edges := ReportTransitions[from]
	out := make([]models.ReportStatus, len(edges))
	copy(out, edges)
	return out
}

// CanTransitionAssignment reports whether from -> to is a legal assignment edge.
func CanTransitionAssignment(from, to models.AssignmentStatus) bool {
	for _, allowed := range AssignmentTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}
