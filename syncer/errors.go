package syncer

import (
	"errors"
	"fmt"
)

// ErrDrainInProgress is returned when Drain is called while another drain is
// running. Triggers racing a live drain are expected; callers treat this as
// a no-op.
var ErrDrainInProgress = errors.New("a drain is already running")

// NetworkError marks a transient delivery failure. Retried up to the cap.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// UploadError marks a failed photo upload. The photos uploaded before it
// keep their URLs, so a retry resumes with the remaining blobs only.
type UploadError struct {
	Index int
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("upload photo %d: %v", e.Index, e.Err)
}

func (e *UploadError) Unwrap() error {
	return e.Err
}

// RemoteError is a non-2xx response from the report store. Counted against
// the retry cap like any other delivery failure.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("report store rejected request (%d): %s", e.StatusCode, e.Message)
}
