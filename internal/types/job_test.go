package types

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestParseJobStatus(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    JobStatus
		wantErr bool
	}{
		{name: "pending", input: "pending", want: JobStatusPending},
		{name: "processing", input: "processing", want: JobStatusProcessing},
		{name: "completed", input: "completed", want: JobStatusCompleted},
		{name: "failed", input: "failed", want: JobStatusFailed},
		{name: "cancelled", input: "cancelled", want: JobStatusCancelled},
		{name: "unknown value", input: "exploded", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJobStatus(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseJobStatus(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("ParseJobStatus(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestJobStatus_IsTerminal(t *testing.T) {
	terminal := []JobStatus{JobStatusCompleted, JobStatusFailed, JobStatusCancelled}
	for _, s := range terminal {
		if !s.IsTerminal() {
			t.Errorf("expected %s to be terminal", s)
		}
	}

	active := []JobStatus{JobStatusPending, JobStatusProcessing, JobStatus("")}
	for _, s := range active {
		if s.IsTerminal() {
			t.Errorf("expected %s to not be terminal", s)
		}
	}
}

func TestJobStatus_UnmarshalJSON(t *testing.T) {
	var job Job
	payload := `{"job_id":"abc","job_type":"screenshot","status":"processing","progress":40}`
	if err := json.Unmarshal([]byte(payload), &job); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if job.Status != JobStatusProcessing {
		t.Errorf("status = %v, want %v", job.Status, JobStatusProcessing)
	}
	if job.Progress == nil || *job.Progress != 40 {
		t.Errorf("progress = %v, want 40", job.Progress)
	}

	if err := json.Unmarshal([]byte(`{"status":"sideways"}`), &job); err == nil {
		t.Error("expected error for invalid status, got nil")
	}
}

func TestStartJobRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		request *StartJobRequest
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid request",
			request: &StartJobRequest{JobType: JobTypeScreenshot},
			wantErr: false,
		},
		{
			name:    "empty job type",
			request: &StartJobRequest{},
			wantErr: true,
			errMsg:  "job_type is required",
		},
		{
			name:    "nil request",
			request: nil,
			wantErr: true,
			errMsg:  "job_type is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr && err != nil && !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("Validate() error message = %v, want to contain %v", err, tt.errMsg)
			}
		})
	}
}

func TestSubmissionError_Unwrap(t *testing.T) {
	cause := &TransportError{StatusCode: 502, Message: "bad gateway"}
	err := &SubmissionError{JobType: JobTypeScreenshot, Err: cause}

	var transport *TransportError
	if !errors.As(err, &transport) {
		t.Fatal("expected errors.As to find the TransportError cause")
	}
	if transport.StatusCode != 502 {
		t.Errorf("status code = %d, want 502", transport.StatusCode)
	}
	if !strings.Contains(err.Error(), "screenshot") {
		t.Errorf("error message should name the job type, got %q", err.Error())
	}
}
