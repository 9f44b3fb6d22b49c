package models

import "time"

type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSyncing SyncStatus = "syncing"
	SyncSynced  SyncStatus = "synced"
	SyncFailed  SyncStatus = "failed"
)

// QueuedPhoto is one photo attached to a queued report. Before upload it
// references blob bytes in the local store; after upload only the URL remains
// meaningful. The list is mixed on purpose so a partially uploaded report
// resumes with the photos that are still blobs.
type QueuedPhoto struct {
	URL         string `json:"url,omitempty"`
	BlobKey     string `json:"blob_key,omitempty"`
	ContentType string `json:"content_type,omitempty"`
}

// Uploaded reports whether the photo already has a remote URL.
func (p QueuedPhoto) Uploaded() bool {
	return p.URL != ""
}

// QueuedReport is a client-side report awaiting delivery to the server.
// It lives exclusively in the local durable store and is deleted on the
// first successful delivery. LocalID is stable across retries and is sent
// as the idempotency key.
type QueuedReport struct {
	LocalID     string        `json:"local_id"`
	Category    string        `json:"category" validate:"required"`
	Description string        `json:"description"`
	Latitude    float64       `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude   float64       `json:"longitude" validate:"gte=-180,lte=180"`
	CityID      *uint         `json:"city_id,omitempty"`
	Photos      []QueuedPhoto `json:"photos"`

	SyncStatus SyncStatus `json:"sync_status"`
	RetryCount int        `json:"retry_count"`
	LastError  string     `json:"last_error,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
