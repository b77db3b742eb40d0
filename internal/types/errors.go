package types

import "fmt"

// TransportError indicates a failure at the HTTP level: the request could
// not be sent, the response had a non-success status code, or the payload
// could not be decoded. Transport errors are considered transient and are
// retried by the polling scheduler.
type TransportError struct {
	// StatusCode is the HTTP status code, or 0 when the request never
	// produced a response.
	StatusCode int
	Message    string
}

// Error implements the error interface
func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("transport error: %s", e.Message)
	}
	return fmt.Sprintf("transport error: status %d: %s", e.StatusCode, e.Message)
}

// BackendError indicates the backend responded but reported failure
// in-band (success=false). The payload content is surfaced verbatim
// rather than treated as a protocol failure.
type BackendError struct {
	Message string
}

// Error implements the error interface
func (e *BackendError) Error() string {
	return fmt.Sprintf("backend error: %s", e.Message)
}

// SubmissionError indicates a job could not be created. No Job exists and
// nothing is polled for it.
type SubmissionError struct {
	JobType string
	Err     error
}

// Error implements the error interface
func (e *SubmissionError) Error() string {
	return fmt.Sprintf("failed to submit %q job: %v", e.JobType, e.Err)
}

// Unwrap returns the underlying cause
func (e *SubmissionError) Unwrap() error {
	return e.Err
}
