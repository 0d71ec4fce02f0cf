package download

import (
	"errors"
	"fmt"
)

var (
	// ErrFormatUnavailable indicates the selected quality cannot be obtained for a record.
	ErrFormatUnavailable = errors.New("format unavailable")
	// ErrDownload indicates the external tool reported an error for a record.
	ErrDownload = errors.New("download error")
	// ErrStopped indicates the run was stopped by the caller.
	ErrStopped = errors.New("download stopped")
	// ErrAlreadyStarted indicates Start was called on a used orchestrator.
	ErrAlreadyStarted = errors.New("orchestrator already started")
	// ErrNotRunning indicates no active run matches the given record.
	ErrNotRunning = errors.New("no active download")
)

// FormatUnavailableError reports a quality label that no format of the record satisfies.
type FormatUnavailableError struct {
	RecordID string
	Quality  string
	Reason   string
}

func (e *FormatUnavailableError) Error() string {
	msg := fmt.Sprintf("%v: %s for %s", ErrFormatUnavailable, e.Quality, e.RecordID)
	if e.Reason != "" {
		msg += " (" + e.Reason + ")"
	}
	return msg
}

func (e *FormatUnavailableError) Is(target error) bool {
	return target == ErrFormatUnavailable
}

// DownloadError carries the classified message and the output line that caused it.
type DownloadError struct {
	RecordID string
	Line     string
	Message  string
	Err      error
}

func (e *DownloadError) Error() string {
	msg := fmt.Sprintf("%v: %s: %s", ErrDownload, e.RecordID, e.Message)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DownloadError) Is(target error) bool {
	return target == ErrDownload
}

func (e *DownloadError) Unwrap() error {
	return e.Err
}
