package types

import (
	"encoding/json"
	"fmt"
	"time"
)

// JobStatus represents the current state of a backend job
type JobStatus string

// Job status constants
const (
	// JobStatusPending indicates the job is queued and waiting to be picked up
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing indicates the backend is working on the job
	JobStatusProcessing JobStatus = "processing"
	// JobStatusCompleted indicates the job finished successfully
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates the job finished with an error
	JobStatusFailed JobStatus = "failed"
	// JobStatusCancelled indicates the job was aborted by an explicit cancel request
	JobStatusCancelled JobStatus = "cancelled"
)

// Known job types. The set is extensible; the backend accepts any
// non-empty string.
const (
	JobTypeScreenshot      = "screenshot"
	JobTypeBatchScreenshot = "batch_screenshot"
)

// String returns the string representation of the job status
func (s JobStatus) String() string {
	return string(s)
}

// IsTerminal reports whether no further status transition is possible
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// ParseJobStatus converts a string to a JobStatus type
func ParseJobStatus(str string) (JobStatus, error) {
	switch str {
	case string(JobStatusPending):
		return JobStatusPending, nil
	case string(JobStatusProcessing):
		return JobStatusProcessing, nil
	case string(JobStatusCompleted):
		return JobStatusCompleted, nil
	case string(JobStatusFailed):
		return JobStatusFailed, nil
	case string(JobStatusCancelled):
		return JobStatusCancelled, nil
	default:
		return "", fmt.Errorf("invalid job status: %s", str)
	}
}

// UnmarshalJSON implements json.Unmarshaler for JobStatus
func (s *JobStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return err
	}

	status, err := ParseJobStatus(str)
	if err != nil {
		return err
	}

	*s = status
	return nil
}

// Job represents one backend-tracked asynchronous operation.
//
// JobID is assigned by the backend on submission and never changes.
// Metadata captures the original submission parameters and is never
// mutated after creation. Result and Error are mutually exclusive and
// only populated on entering the matching terminal state. Progress is
// only meaningful while the job is processing.
type Job struct {
	JobID     string         `json:"job_id"`
	JobType   string         `json:"job_type"`
	SessionID string         `json:"session_id,omitempty"`
	Status    JobStatus      `json:"status"`
	Progress  *int           `json:"progress,omitempty"`
	Result    *JobResult     `json:"result,omitempty"`
	Error     string         `json:"error,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// IsTerminal reports whether the job has reached a terminal state
func (j *Job) IsTerminal() bool {
	return j.Status.IsTerminal()
}
