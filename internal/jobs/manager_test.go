package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tomlim2/unreal-mcp-jobs/internal/poller"
	"github.com/tomlim2/unreal-mcp-jobs/internal/types"
)

// fakeClient is an in-memory stand-in for the backend API. Status
// fetches replay the scripted job states in order, repeating the last.
type fakeClient struct {
	mu sync.Mutex

	startErr   error
	startedIDs []string

	script      []*types.Job
	statusCalls int

	cancelOK   bool
	cancelErr  error
	cancelled  []string
	downloaded []string
	payload    []byte
}

func (f *fakeClient) HealthCheck(_ context.Context) (map[string]string, error) {
	return map[string]string{"status": "healthy"}, nil
}

func (f *fakeClient) StartJob(_ context.Context, req types.StartJobRequest) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return "", f.startErr
	}
	id := "job-1"
	f.startedIDs = append(f.startedIDs, req.JobType)
	return id, nil
}

func (f *fakeClient) FetchStatus(_ context.Context, jobID string) (*types.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.script) == 0 {
		return nil, &types.TransportError{Message: "no script"}
	}
	idx := f.statusCalls
	if idx >= len(f.script) {
		idx = len(f.script) - 1
	}
	f.statusCalls++
	job := *f.script[idx]
	job.JobID = jobID
	return &job, nil
}

func (f *fakeClient) CancelJob(_ context.Context, jobID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, jobID)
	return f.cancelOK, f.cancelErr
}

func (f *fakeClient) DownloadResult(_ context.Context, url string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloaded = append(f.downloaded, url)
	return f.payload, nil
}

func fastPollerOptions() poller.Options {
	opts := poller.DefaultOptions()
	opts.BaseDelay = time.Millisecond
	opts.MaxDelay = 5 * time.Millisecond
	return opts
}

func progressJob(status types.JobStatus, progress int) *types.Job {
	j := &types.Job{JobType: types.JobTypeScreenshot, Status: status}
	if status == types.JobStatusProcessing {
		j.Progress = &progress
	}
	if status == types.JobStatusCompleted {
		j.Result = &types.JobResult{
			Filename:    "a.png",
			DownloadURL: "/files/a.png",
		}
	}
	return j
}

func TestStartJobDrivesLifecycle(t *testing.T) {
	fc := &fakeClient{script: []*types.Job{
		progressJob(types.JobStatusProcessing, 40),
		progressJob(types.JobStatusCompleted, 0),
	}}

	m := NewManager(fc, fastPollerOptions())
	defer m.Close()

	var mu sync.Mutex
	var created, updated []*types.Job
	completed := make(chan *types.Job, 1)

	m.SetCallbacks(Callbacks{
		OnJobCreated: func(j *types.Job) {
			mu.Lock()
			created = append(created, j)
			mu.Unlock()
		},
		OnJobUpdated: func(j *types.Job) {
			mu.Lock()
			updated = append(updated, j)
			mu.Unlock()
		},
		OnJobCompleted: func(j *types.Job) { completed <- j },
		OnJobFailed:    func(*types.Job) { t.Error("unexpected OnJobFailed") },
		OnError:        func(err error) { t.Errorf("unexpected OnError: %v", err) },
	})

	job, err := m.StartJob(context.Background(), types.JobTypeScreenshot, "sess-1", map[string]any{"camera": "front"})
	require.NoError(t, err)
	require.NotNil(t, job)

	assert.Equal(t, "job-1", job.JobID)
	assert.Equal(t, types.JobStatusPending, job.Status)
	assert.Equal(t, "sess-1", job.SessionID)
	assert.Equal(t, map[string]any{"camera": "front"}, job.Metadata)

	var final *types.Job
	select {
	case final = <-completed:
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for completion")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, created, 1)
	assert.Equal(t, types.JobStatusPending, created[0].Status)

	require.Len(t, updated, 2)
	assert.Equal(t, types.JobStatusProcessing, updated[0].Status)
	require.NotNil(t, updated[0].Progress)
	assert.Equal(t, 40, *updated[0].Progress)
	assert.Equal(t, types.JobStatusCompleted, updated[1].Status)

	require.NotNil(t, final.Result)
	assert.Equal(t, "a.png", final.Result.Filename)
	assert.Equal(t, 0, m.ActivePollCount())
}

func TestStartJobSubmissionFailure(t *testing.T) {
	fc := &fakeClient{startErr: &types.TransportError{StatusCode: 503, Message: "unavailable"}}

	m := NewManager(fc, fastPollerOptions())
	defer m.Close()

	errs := make(chan error, 1)
	m.SetCallbacks(Callbacks{
		OnJobCreated: func(*types.Job) { t.Error("unexpected OnJobCreated") },
		OnError:      func(err error) { errs <- err },
	})

	job, err := m.StartJob(context.Background(), types.JobTypeScreenshot, "", nil)
	assert.Nil(t, job)
	require.Error(t, err)

	var subErr *types.SubmissionError
	require.True(t, errors.As(err, &subErr))
	assert.Equal(t, types.JobTypeScreenshot, subErr.JobType)

	select {
	case cbErr := <-errs:
		assert.True(t, errors.As(cbErr, &subErr))
	case <-time.After(time.Second):
		t.Fatal("OnError was not invoked")
	}

	// No polling is ever started for a job that failed to submit.
	assert.Equal(t, 0, m.ActivePollCount())
}

func TestFailedJobRoutesToOnJobFailed(t *testing.T) {
	fc := &fakeClient{script: []*types.Job{
		{JobType: types.JobTypeScreenshot, Status: types.JobStatusFailed, Error: "render crashed"},
	}}

	m := NewManager(fc, fastPollerOptions())
	defer m.Close()

	failed := make(chan *types.Job, 1)
	m.SetCallbacks(Callbacks{
		OnJobCompleted: func(*types.Job) { t.Error("unexpected OnJobCompleted") },
		OnJobFailed:    func(j *types.Job) { failed <- j },
	})

	_, err := m.StartJob(context.Background(), types.JobTypeScreenshot, "", nil)
	require.NoError(t, err)

	select {
	case j := <-failed:
		assert.Equal(t, "render crashed", j.Error)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for OnJobFailed")
	}
}

func TestCancelJobStopsPollingRegardlessOfBackend(t *testing.T) {
	fc := &fakeClient{
		script:    []*types.Job{progressJob(types.JobStatusProcessing, 10)},
		cancelOK:  false,
		cancelErr: &types.TransportError{Message: "connection refused"},
	}

	opts := fastPollerOptions()
	opts.BaseDelay = 50 * time.Millisecond
	m := NewManager(fc, opts)
	defer m.Close()

	job, err := m.StartJob(context.Background(), types.JobTypeScreenshot, "", nil)
	require.NoError(t, err)
	require.True(t, m.IsPolling(job.JobID))

	confirmed := m.CancelJob(context.Background(), job.JobID)
	assert.False(t, confirmed)
	assert.False(t, m.IsPolling(job.JobID))
	assert.Equal(t, 0, m.ActivePollCount())
}

func TestCancelJobBackendConfirmed(t *testing.T) {
	fc := &fakeClient{cancelOK: true}
	m := NewManager(fc, fastPollerOptions())
	defer m.Close()

	assert.True(t, m.CancelJob(context.Background(), "job-9"))
	assert.Equal(t, []string{"job-9"}, fc.cancelled)
}

func TestGetJobStatusDoesNotAffectPolling(t *testing.T) {
	fc := &fakeClient{script: []*types.Job{progressJob(types.JobStatusProcessing, 10)}}
	m := NewManager(fc, fastPollerOptions())
	defer m.Close()

	job, err := m.GetJobStatus(context.Background(), "job-7")
	require.NoError(t, err)
	assert.Equal(t, types.JobStatusProcessing, job.Status)
	assert.Equal(t, 0, m.ActivePollCount())
}

func TestResultAccessorsAreNilSafe(t *testing.T) {
	fc := &fakeClient{payload: []byte("png-bytes")}
	m := NewManager(fc, fastPollerOptions())
	defer m.Close()

	assert.Empty(t, m.ResultURL(nil))
	assert.Empty(t, m.ThumbnailURL(nil))

	pending := &types.Job{Status: types.JobStatusPending}
	assert.Empty(t, m.ResultURL(pending))

	// Completed without a result payload still yields no URL.
	bare := &types.Job{Status: types.JobStatusCompleted}
	assert.Empty(t, m.ResultURL(bare))

	_, err := m.DownloadResult(context.Background(), pending)
	assert.Error(t, err)
	assert.Empty(t, fc.downloaded)

	done := &types.Job{
		Status: types.JobStatusCompleted,
		Result: &types.JobResult{DownloadURL: "/files/a.png", ThumbnailURL: "/thumbs/a.png"},
	}
	assert.Equal(t, "/files/a.png", m.ResultURL(done))
	assert.Equal(t, "/thumbs/a.png", m.ThumbnailURL(done))

	data, err := m.DownloadResult(context.Background(), done)
	require.NoError(t, err)
	assert.Equal(t, []byte("png-bytes"), data)
	assert.Equal(t, []string{"/files/a.png"}, fc.downloaded)
}

func TestSetCallbacksPartialReplace(t *testing.T) {
	fc := &fakeClient{script: []*types.Job{progressJob(types.JobStatusCompleted, 0)}}
	m := NewManager(fc, fastPollerOptions())
	defer m.Close()

	var mu sync.Mutex
	var createdBy string
	completed := make(chan struct{}, 1)

	m.SetCallbacks(Callbacks{
		OnJobCreated: func(*types.Job) {
			mu.Lock()
			createdBy = "first"
			mu.Unlock()
		},
		OnJobCompleted: func(*types.Job) { completed <- struct{}{} },
	})

	// Replacing only OnJobCreated keeps the completion hook.
	m.SetCallbacks(Callbacks{
		OnJobCreated: func(*types.Job) {
			mu.Lock()
			createdBy = "second"
			mu.Unlock()
		},
	})

	_, err := m.StartJob(context.Background(), types.JobTypeScreenshot, "", nil)
	require.NoError(t, err)

	select {
	case <-completed:
	case <-time.After(time.Second):
		t.Fatal("completion hook was lost by partial SetCallbacks")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, "second", createdBy)
}
