// Package syncer drains the local durable queue against the remote report
// store whenever connectivity returns, a timer fires, or a caller asks.
package syncer

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/eco-alert/api-go/localstore"
	"github.com/eco-alert/api-go/models"
	"github.com/sirupsen/logrus"
)

// MaxRetries is the flat retry cap. A report that fails this many drains is
// left in failed until someone resubmits it manually.
const MaxRetries = 3

// DefaultInterval is the advisory periodic re-drain trigger.
const DefaultInterval = 30 * time.Second

// ReportCreator delivers one fully uploaded report to the report store.
// The report's LocalID travels as the idempotency key, so redelivery after
// a crash creates at most one remote report.
type ReportCreator interface {
	CreateReport(ctx context.Context, report *models.QueuedReport) (uint, error)
}

// BlobUploader pushes photo bytes to the blob store and returns their URL.
type BlobUploader interface {
	Upload(ctx context.Context, data []byte, contentType string) (string, error)
}

// ConnectivitySource is the slice of netmon.Monitor the worker needs.
type ConnectivitySource interface {
	Online() bool
	Events() <-chan struct{}
}

// Notifier receives the user-facing drain summary. Fire and forget.
type Notifier interface {
	SyncCompleted(succeeded, failed int)
}

// Config wires the worker's collaborators. Store, Blobs and Reports are
// required; the rest defaults sensibly.
type Config struct {
	Store    *localstore.Store
	Blobs    BlobUploader
	Reports  ReportCreator
	Monitor  ConnectivitySource
	Notifier Notifier

	// InvalidateCache refreshes any cached report views after a drain.
	InvalidateCache func()

	// Interval for the advisory periodic trigger. Defaults to DefaultInterval.
	Interval time.Duration
	Logger   *logrus.Logger
}

// Summary is the outcome of one drain.
type Summary struct {
	Succeeded int
	Failed    int
	Skipped   int
}

type Worker struct {
	store      *localstore.Store
	blobs      BlobUploader
	reports    ReportCreator
	monitor    ConnectivitySource
	notifier   Notifier
	invalidate func()
	interval   time.Duration
	log        *logrus.Entry

	draining atomic.Bool
	stopping atomic.Bool
	stopCh   chan struct{}
	doneCh   chan struct{}
}

func New(cfg Config) (*Worker, error) {
	if cfg.Store == nil {
		return nil, errors.New("store is required")
	}
	if cfg.Blobs == nil {
		return nil, errors.New("blob uploader is required")
	}
	if cfg.Reports == nil {
		return nil, errors.New("report creator is required")
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultInterval
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Worker{
		store:      cfg.Store,
		blobs:      cfg.Blobs,
		reports:    cfg.Reports,
		monitor:    cfg.Monitor,
		notifier:   cfg.Notifier,
		invalidate: cfg.InvalidateCache,
		interval:   cfg.Interval,
		log:        logger.WithField("component", "syncer"),
	}, nil
}

// Start runs the trigger loop in the background: an online edge drains
// immediately, the ticker drains while online and the queue is non-empty.
// Requires a Monitor in the config.
func (w *Worker) Start() {
	w.stopCh = make(chan struct{})
	w.doneCh = make(chan struct{})
	go w.run()
}

// Stop halts the trigger loop. A drain that already has an item's network
// call in flight finishes that item, then stops before the next one.
func (w *Worker) Stop() {
	w.stopping.Store(true)
	if w.stopCh != nil {
		close(w.stopCh)
		<-w.doneCh
	}
}

func (w *Worker) run() {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	var events <-chan struct{}
	if w.monitor != nil {
		events = w.monitor.Events()
	}

	for {
		select {
		case <-w.stopCh:
			return
		case <-events:
			w.drainQuietly("connectivity restored")
		case <-ticker.C:
			if w.monitor != nil && !w.monitor.Online() {
				continue
			}
			pending, err := w.store.PendingCount(MaxRetries)
			if err != nil || pending == 0 {
				continue
			}
			w.drainQuietly("periodic")
		}
	}
}

func (w *Worker) drainQuietly(trigger string) {
	summary, err := w.Drain(context.Background())
	if errors.Is(err, ErrDrainInProgress) {
		return
	}
	if err != nil {
		w.log.WithError(err).WithField("trigger", trigger).Error("drain failed")
		return
	}
	w.log.WithFields(logrus.Fields{
		"trigger":   trigger,
		"succeeded": summary.Succeeded,
		"failed":    summary.Failed,
		"skipped":   summary.Skipped,
	}).Info("drain finished")
}

// Drain processes every eligible queued report in order. Only one drain runs
// at a time; concurrent calls return ErrDrainInProgress. Failures are
// per-item and never abort the drain.
func (w *Worker) Drain(ctx context.Context) (Summary, error) {
	if !w.draining.CompareAndSwap(false, true) {
		return Summary{}, ErrDrainInProgress
	}
	defer w.draining.Store(false)

	reports, err := w.store.List()
	if err != nil {
		return Summary{}, err
	}

	var summary Summary
	for i := range reports {
		if w.stopping.Load() || ctx.Err() != nil {
			break
		}
		report := &reports[i]
		if report.RetryCount >= MaxRetries {
			summary.Skipped++
			continue
		}

		if err := w.syncItem(ctx, report); err != nil {
			report.RetryCount++
			report.LastError = err.Error()
			report.SyncStatus = models.SyncFailed
			if updateErr := w.store.Update(report); updateErr != nil {
				w.log.WithError(updateErr).WithField("local_id", report.LocalID).
					Error("could not persist failure state")
			}
			summary.Failed++
			w.log.WithError(err).WithFields(logrus.Fields{
				"local_id": report.LocalID,
				"retries":  report.RetryCount,
			}).Warn("report delivery failed")
			continue
		}
		summary.Succeeded++
	}

	if w.invalidate != nil {
		w.invalidate()
	}
	if w.notifier != nil {
		w.notifier.SyncCompleted(summary.Succeeded, summary.Failed)
	}
	if err := w.store.SetLastDrain(time.Now()); err != nil {
		w.log.WithError(err).Warn("could not record drain timestamp")
	}
	return summary, nil
}

// syncItem delivers one queued report: remaining blob photos first, each URL
// persisted in place so a later retry resumes where this one stopped, then
// the report itself. State is persisted before every network call so a crash
// leaves a record that will be retried, never one assumed delivered.
func (w *Worker) syncItem(ctx context.Context, report *models.QueuedReport) error {
	report.SyncStatus = models.SyncSyncing
	if err := w.store.Update(report); err != nil {
		return err
	}

	for i := range report.Photos {
		if report.Photos[i].Uploaded() {
			continue
		}
		data, err := w.store.ReadBlob(report.Photos[i].BlobKey)
		if err != nil {
			return &UploadError{Index: i, Err: err}
		}
		url, err := w.blobs.Upload(ctx, data, report.Photos[i].ContentType)
		if err != nil {
			return &UploadError{Index: i, Err: err}
		}
		report.Photos[i].URL = url
		if err := w.store.Update(report); err != nil {
			return err
		}
	}

	if _, err := w.reports.CreateReport(ctx, report); err != nil {
		return err
	}

	report.SyncStatus = models.SyncSynced
	if err := w.store.Update(report); err != nil {
		return err
	}
	return w.store.Delete(report.LocalID)
}
