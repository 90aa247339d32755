package engine

import (
	"errors"
	"fmt"
)

// SyncError represents a failure detected during a tick.
//
// Sync errors are never fatal: the engine logs them and keeps ticking.
// The most recent one is available through Engine.LastError.
type SyncError struct {
	// Code identifies the error category.
	Code SyncErrorCode

	// Version is the snapshot version the tick was handling.
	Version uint64

	// Err is the underlying error.
	Err error
}

// SyncErrorCode categorizes sync errors.
type SyncErrorCode string

const (
	// ErrCodeSubmitFailed indicates the presence client rejected or could
	// not deliver the presence.
	ErrCodeSubmitFailed SyncErrorCode = "SUBMIT_FAILED"

	// ErrCodeJournalFailed indicates the submission could not be journaled.
	ErrCodeJournalFailed SyncErrorCode = "JOURNAL_FAILED"
)

// Error implements the error interface.
func (e *SyncError) Error() string {
	return fmt.Sprintf("%s: version %d: %v", e.Code, e.Version, e.Err)
}

// Unwrap returns the underlying error.
func (e *SyncError) Unwrap() error {
	return e.Err
}

// IsSubmitError returns true if the error is a submission failure.
// Uses errors.As to handle wrapped errors.
func IsSubmitError(err error) bool {
	var se *SyncError
	if errors.As(err, &se) {
		return se.Code == ErrCodeSubmitFailed
	}
	return false
}

// NewSubmitError creates a SyncError for a failed submission.
func NewSubmitError(version uint64, err error) *SyncError {
	return &SyncError{Code: ErrCodeSubmitFailed, Version: version, Err: err}
}

// NewJournalError creates a SyncError for a failed journal write.
func NewJournalError(version uint64, err error) *SyncError {
	return &SyncError{Code: ErrCodeJournalFailed, Version: version, Err: err}
}
