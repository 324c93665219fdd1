package enums

import "fmt"

// UploadState tracks one file moving through the proof upload pipeline.
type UploadState string

const (
	UploadStateQueued     UploadState = "queued"
	UploadStateUploading  UploadState = "uploading"
	UploadStatePersisting UploadState = "persisting"
	UploadStateSucceeded  UploadState = "succeeded"
	UploadStateRejected   UploadState = "rejected"
	UploadStateFailed     UploadState = "failed"
	UploadStateCancelled  UploadState = "cancelled"
)

var validUploadStates = []UploadState{
	UploadStateQueued,
	UploadStateUploading,
	UploadStatePersisting,
	UploadStateSucceeded,
	UploadStateRejected,
	UploadStateFailed,
	UploadStateCancelled,
}

// String returns the literal string for the state.
func (u UploadState) String() string {
	return string(u)
}

// IsValid reports whether the state is known.
func (u UploadState) IsValid() bool {
	for _, candidate := range validUploadStates {
		if candidate == u {
			return true
		}
	}
	return false
}

// IsTerminal reports whether the pipeline is done with the file.
func (u UploadState) IsTerminal() bool {
	switch u {
	case UploadStateSucceeded, UploadStateRejected, UploadStateFailed, UploadStateCancelled:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether the caller may resubmit the file.
// Cancelled uploads may always be retried; failed uploads exhausted their attempts.
func (u UploadState) IsRetryable() bool {
	return u == UploadStateCancelled
}

// ParseUploadState converts raw input into an UploadState.
func ParseUploadState(value string) (UploadState, error) {
	for _, candidate := range validUploadStates {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid upload state %q", value)
}
