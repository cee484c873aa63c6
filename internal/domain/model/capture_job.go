package model

import "time"

type CaptureJobStatus string

const (
	CaptureJobStatusPending         CaptureJobStatus = "pending"
	CaptureJobStatusProcessing      CaptureJobStatus = "processing"
	CaptureJobStatusSucceeded       CaptureJobStatus = "succeeded"
	CaptureJobStatusFailedPermanent CaptureJobStatus = "failed_permanent"
	CaptureJobStatusFailedExhausted CaptureJobStatus = "failed_exhausted"
)

// Terminal reports whether a job in this status will never run again
// without external intervention (manual retry re-arms failed_exhausted).
func (s CaptureJobStatus) Terminal() bool {
	switch s {
	case CaptureJobStatusSucceeded, CaptureJobStatusFailedPermanent, CaptureJobStatusFailedExhausted:
		return true
	}
	return false
}

// CaptureJob is one meal photo awaiting analysis and persistence.
// The photo artifact referenced by PhotoKey exists on storage exactly as
// long as the job has not reached a cleaned-up terminal state; a
// failed_exhausted job keeps its artifact for manual retry until the
// retention sweep removes it.
type CaptureJob struct {
	ID            string
	Status        CaptureJobStatus
	PhotoKey      string
	PhotoMIME     string
	CapturedAt    time.Time
	Attempts      int
	NextAttemptAt time.Time
	LastErrorKind string
	LastError     string
	RecordID      string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
