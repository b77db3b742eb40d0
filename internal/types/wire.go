package types

import "fmt"

// StartJobRequest is the body of a job submission
type StartJobRequest struct {
	JobType    string         `json:"job_type"`
	SessionID  string         `json:"session_id,omitempty"`
	Parameters map[string]any `json:"parameters,omitempty"`
}

// Validate checks that the request is submittable
func (r *StartJobRequest) Validate() error {
	if r == nil || r.JobType == "" {
		return fmt.Errorf("job_type is required")
	}
	return nil
}

// StartJobResponse is the backend's reply to a job submission
type StartJobResponse struct {
	Success bool   `json:"success"`
	JobID   string `json:"job_id,omitempty"`
	Error   string `json:"error,omitempty"`
}

// JobStatusResponse is the backend's reply to a status check
type JobStatusResponse struct {
	Success bool   `json:"success"`
	Job     *Job   `json:"job,omitempty"`
	Error   string `json:"error,omitempty"`
}

// CancelJobResponse is the backend's reply to a cancel request
type CancelJobResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
