// Package localstore persists queued reports and their photo blobs on the
// client, surviving process restarts. It is the only writer of queue state;
// the sync worker owns the single Store instance.
package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/eco-alert/api-go/models"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	queuePrefix   = "queue/"
	blobPrefix    = "blob/"
	metaLastDrain = "meta/last_drain"
)

// ErrNotFound is returned when no queued report exists for the local id.
var ErrNotFound = errors.New("queued report not found")

// ValidationError marks a payload rejected before it entered the queue.
// Never retried; the report was never stored.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid report payload: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

type Config struct {
	// Dir is the badger directory. Ignored when InMemory is set.
	Dir      string
	InMemory bool
	Logger   *logrus.Logger
}

// PhotoInput is one photo handed over at enqueue time.
type PhotoInput struct {
	Data        []byte
	ContentType string
}

type Store struct {
	db       *badger.DB
	validate *validator.Validate
	log      *logrus.Entry
}

// Open opens the durable queue. Any record left in syncing by a crashed
// drain is reset to pending so it is retried rather than assumed delivered.
func Open(cfg Config) (*Store, error) {
	var opts badger.Options
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if cfg.Dir == "" {
			return nil, errors.New("queue directory is required")
		}
		opts = badger.DefaultOptions(cfg.Dir).WithSyncWrites(true)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open queue store: %w", err)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}

	s := &Store{
		db:       db,
		validate: validator.New(),
		log:      logger.WithField("component", "localstore"),
	}

	if err := s.recoverInterrupted(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Enqueue validates the report, stores its photo bytes as blobs, and saves
// the record in state pending. Assigns a local id when the caller didn't.
func (s *Store) Enqueue(report *models.QueuedReport, photos []PhotoInput) error {
	if err := s.validate.Struct(report); err != nil {
		return &ValidationError{Err: err}
	}

	if report.LocalID == "" {
		report.LocalID = uuid.New().String()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now()
	}
	report.SyncStatus = models.SyncPending
	report.RetryCount = 0

	for i, photo := range photos {
		report.Photos = append(report.Photos, models.QueuedPhoto{
			BlobKey:     blobKey(report.LocalID, i),
			ContentType: photo.ContentType,
		})
	}

	data, err := json.Marshal(report)
	if err != nil {
		return err
	}

	err = s.db.Update(func(txn *badger.Txn) error {
		for i, photo := range photos {
			if err := txn.Set([]byte(blobKey(report.LocalID, i)), photo.Data); err != nil {
				return err
			}
		}
		return txn.Set([]byte(queuePrefix+report.LocalID), data)
	})
	if err != nil {
		return fmt.Errorf("enqueue report: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"local_id": report.LocalID,
		"photos":   len(photos),
	}).Info("report queued for sync")
	return nil
}

func (s *Store) Get(localID string) (*models.QueuedReport, error) {
	var report models.QueuedReport
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(queuePrefix + localID))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &report)
		})
	})
	if err != nil {
		return nil, err
	}
	return &report, nil
}

// List returns every queued report in enqueue order.
func (s *Store) List() ([]models.QueuedReport, error) {
	var reports []models.QueuedReport
	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()
		prefix := []byte(queuePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var report models.QueuedReport
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &report)
			})
			if err != nil {
				return err
			}
			reports = append(reports, report)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Badger iterates in key order; queue order is enqueue time.
	sort.SliceStable(reports, func(i, j int) bool {
		return reports[i].CreatedAt.Before(reports[j].CreatedAt)
	})
	return reports, nil
}

// Update persists the current state of a queued report.
func (s *Store) Update(report *models.QueuedReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(queuePrefix+report.LocalID), data)
	})
}

// Delete removes the record and all of its blobs.
func (s *Store) Delete(localID string) error {
	keys, err := s.blobKeys(localID)
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		for _, key := range keys {
			if err := txn.Delete(key); err != nil {
				return err
			}
		}
		return txn.Delete([]byte(queuePrefix + localID))
	})
}

func (s *Store) ReadBlob(key string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

// Retry resubmits a failed report: retry count back to zero, status back to
// pending. This is the manual intervention path for exhausted items.
func (s *Store) Retry(localID string) error {
	report, err := s.Get(localID)
	if err != nil {
		return err
	}
	if report.SyncStatus != models.SyncFailed {
		return fmt.Errorf("report %s is %s, only failed reports can be retried", localID, report.SyncStatus)
	}
	report.SyncStatus = models.SyncPending
	report.RetryCount = 0
	report.LastError = ""
	return s.Update(report)
}

// PendingCount counts reports eligible for the next drain.
func (s *Store) PendingCount(maxRetries int) (int, error) {
	reports, err := s.List()
	if err != nil {
		return 0, err
	}
	count := 0
	for _, r := range reports {
		if r.RetryCount < maxRetries {
			count++
		}
	}
	return count, nil
}

func (s *Store) SetLastDrain(t time.Time) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(metaLastDrain), []byte(t.UTC().Format(time.RFC3339Nano)))
	})
}

// LastDrain returns the zero time when no drain has completed yet.
func (s *Store) LastDrain() (time.Time, error) {
	var t time.Time
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(metaLastDrain))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			parsed, err := time.Parse(time.RFC3339Nano, string(val))
			if err != nil {
				return err
			}
			t = parsed
			return nil
		})
	})
	return t, err
}

// recoverInterrupted flips records stuck in syncing back to pending. A crash
// mid-drain must not leave items assumed delivered; redelivery is safe
// because the server dedupes on the local id.
func (s *Store) recoverInterrupted() error {
	reports, err := s.List()
	if err != nil {
		return err
	}
	for i := range reports {
		if reports[i].SyncStatus != models.SyncSyncing {
			continue
		}
		reports[i].SyncStatus = models.SyncPending
		if err := s.Update(&reports[i]); err != nil {
			return err
		}
		s.log.WithField("local_id", reports[i].LocalID).Warn("recovered report interrupted mid-sync")
	}
	return nil
}

func (s *Store) blobKeys(localID string) ([][]byte, error) {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		prefix := []byte(blobPrefix + localID + "/")
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			keys = append(keys, it.Item().KeyCopy(nil))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return keys, nil
}

func blobKey(localID string, index int) string {
	return fmt.Sprintf("%s%s/%d", blobPrefix, localID, index)
}
