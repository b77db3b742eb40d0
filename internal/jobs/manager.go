// Package jobs provides the orchestration facade over job submission,
// status polling, cancellation and result retrieval.
package jobs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/tomlim2/unreal-mcp-jobs/internal/logger"
	"github.com/tomlim2/unreal-mcp-jobs/internal/poller"
	"github.com/tomlim2/unreal-mcp-jobs/internal/types"
	"github.com/tomlim2/unreal-mcp-jobs/pkg/api/v1/client"
)

// Callbacks are the lifecycle hooks a caller registers with the manager.
// OnJobCreated fires once per successful submission. OnJobUpdated fires
// on every status fetch while the job is in flight. OnJobCompleted and
// OnJobFailed split the terminal notification by outcome. OnError fires
// for submission failures and for jobs the poller gave up on. Nil hooks
// are skipped.
type Callbacks struct {
	OnJobCreated   func(job *types.Job)
	OnJobUpdated   func(job *types.Job)
	OnJobCompleted func(job *types.Job)
	OnJobFailed    func(job *types.Job)
	OnError        func(err error)
}

// Manager composes the backend client and the polling scheduler. It
// holds no job table of its own; the caller-held Job plus the
// scheduler's transient registrations are the only state.
type Manager struct {
	client    client.Client
	scheduler *poller.Scheduler

	mu sync.RWMutex
	cb Callbacks
}

// NewManager creates a manager polling with the given options
func NewManager(c client.Client, opts poller.Options) *Manager {
	return &Manager{
		client:    c,
		scheduler: poller.New(c, opts),
	}
}

// SetCallbacks replaces the non-nil hooks of cb, keeping the prior value
// for any nil field. Safe to call while jobs are being polled.
func (m *Manager) SetCallbacks(cb Callbacks) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if cb.OnJobCreated != nil {
		m.cb.OnJobCreated = cb.OnJobCreated
	}
	if cb.OnJobUpdated != nil {
		m.cb.OnJobUpdated = cb.OnJobUpdated
	}
	if cb.OnJobCompleted != nil {
		m.cb.OnJobCompleted = cb.OnJobCompleted
	}
	if cb.OnJobFailed != nil {
		m.cb.OnJobFailed = cb.OnJobFailed
	}
	if cb.OnError != nil {
		m.cb.OnError = cb.OnError
	}
}

func (m *Manager) callbacks() Callbacks {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.cb
}

// StartJob submits a new job to the backend. On success it constructs
// the initial pending Job, fires OnJobCreated, registers the job with
// the polling scheduler and returns the Job. On submission failure it
// fires OnError and returns the error; nothing is ever polled for a job
// that failed to submit.
func (m *Manager) StartJob(ctx context.Context, jobType, sessionID string, params map[string]any) (*types.Job, error) {
	jobID, err := m.client.StartJob(ctx, types.StartJobRequest{
		JobType:    jobType,
		SessionID:  sessionID,
		Parameters: params,
	})
	if err != nil {
		subErr := &types.SubmissionError{JobType: jobType, Err: err}
		logger.Errorf("job submission failed: %v", subErr)
		if onError := m.callbacks().OnError; onError != nil {
			onError(subErr)
		}
		return nil, subErr
	}

	now := time.Now()
	job := &types.Job{
		JobID:     jobID,
		JobType:   jobType,
		SessionID: sessionID,
		Status:    types.JobStatusPending,
		Metadata:  params,
		CreatedAt: now,
		UpdatedAt: now,
	}

	logger.InfoWithFields("job created", map[string]interface{}{
		"job_id":   job.JobID,
		"job_type": job.JobType,
	})

	cb := m.callbacks()
	if cb.OnJobCreated != nil {
		cb.OnJobCreated(job)
	}

	m.scheduler.StartPolling(job.JobID, poller.Callbacks{
		OnUpdate: func(j *types.Job) {
			if onUpdated := m.callbacks().OnJobUpdated; onUpdated != nil {
				onUpdated(j)
			}
		},
		OnComplete: func(j *types.Job) {
			cb := m.callbacks()
			if j.Status == types.JobStatusFailed {
				if cb.OnJobFailed != nil {
					cb.OnJobFailed(j)
				}
				return
			}
			if cb.OnJobCompleted != nil {
				cb.OnJobCompleted(j)
			}
		},
		OnError: func(err error) {
			if onError := m.callbacks().OnError; onError != nil {
				onError(err)
			}
		},
	})

	return job, nil
}

// CancelJob issues a cancel request to the backend and stops local
// polling for the id regardless of the backend's answer, so a rejected
// or unreachable cancel can never leave an orphaned polling loop. The
// return value reports whether the backend confirmed the cancellation.
func (m *Manager) CancelJob(ctx context.Context, jobID string) bool {
	confirmed, err := m.client.CancelJob(ctx, jobID)
	if err != nil {
		logger.Warnf("cancel request for job %s failed: %v", jobID, err)
		confirmed = false
	}

	m.scheduler.StopPolling(jobID)
	return confirmed
}

// GetJobStatus performs a manual one-shot status check. Any active
// polling registration for the same id is unaffected.
func (m *Manager) GetJobStatus(ctx context.Context, jobID string) (*types.Job, error) {
	return m.scheduler.CheckJobStatus(ctx, jobID)
}

// IsPolling reports whether jobID has an active polling registration
func (m *Manager) IsPolling(jobID string) bool {
	return m.scheduler.IsPolling(jobID)
}

// ActivePollCount returns the number of jobs currently being polled
func (m *Manager) ActivePollCount() int {
	return m.scheduler.ActivePollCount()
}

// ResultURL returns the download URL of a completed job, or the empty
// string when the job has no download reference
func (m *Manager) ResultURL(job *types.Job) string {
	if job == nil || job.Status != types.JobStatusCompleted || job.Result == nil {
		return ""
	}
	return job.Result.DownloadURL
}

// ThumbnailURL returns the thumbnail URL of a completed job, or the
// empty string when the job has none
func (m *Manager) ThumbnailURL(job *types.Job) string {
	if job == nil || job.Status != types.JobStatusCompleted || job.Result == nil {
		return ""
	}
	return job.Result.ThumbnailURL
}

// DownloadResult fetches the raw file payload of a completed job
func (m *Manager) DownloadResult(ctx context.Context, job *types.Job) ([]byte, error) {
	url := m.ResultURL(job)
	if url == "" {
		return nil, fmt.Errorf("job has no downloadable result")
	}
	return m.client.DownloadResult(ctx, url)
}

// Close stops all polling and waits for the loops to exit
func (m *Manager) Close() {
	m.scheduler.Shutdown()
}
