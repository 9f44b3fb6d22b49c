// Package notify delivers fire-and-forget event summaries to users.
// Failures here never affect the state changes that triggered them; the
// transport behind the sink (push, email) is an external collaborator.
package notify

import (
	"github.com/eco-alert/api-go/models"
	"github.com/sirupsen/logrus"
)

// LogNotifier writes events to the structured log. It stands in for a real
// delivery transport and is the default sink in both the server and the
// field client.
type LogNotifier struct {
	log *logrus.Entry
}

func NewLogNotifier(logger *logrus.Logger) *LogNotifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &LogNotifier{log: logger.WithField("component", "notify")}
}

// StatusChanged records a report transition. Implements lifecycle.Notifier.
func (n *LogNotifier) StatusChanged(report *models.Report, from, to models.ReportStatus) {
	n.log.WithFields(logrus.Fields{
		"report_id": report.ID,
		"from":      from,
		"to":        to,
	}).Info("report status changed")
}

// SyncCompleted records a drain summary. Implements syncer.Notifier.
func (n *LogNotifier) SyncCompleted(succeeded, failed int) {
	n.log.WithFields(logrus.Fields{
		"succeeded": succeeded,
		"failed":    failed,
	}).Info("sync completed")
}
