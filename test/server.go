package test

import (
	"fmt"
	"sync"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/tomlim2/unreal-mcp-jobs/internal/logger"
	"github.com/tomlim2/unreal-mcp-jobs/internal/types"
	"github.com/tomlim2/unreal-mcp-jobs/pkg/api/v1/routes"
)

// Canned per-job progression: one pending check, one processing check
// at 40%, then completed with a result payload.
const (
	pollsUntilProcessing = 1
	pollsUntilCompleted  = 2
	processingProgress   = 40
)

// Backend simulates the bridge backend's job API in memory. Jobs advance
// one lifecycle step per status fetch, which makes polling behavior
// observable without a real engine.
type Backend struct {
	mu   sync.Mutex
	jobs map[string]*backendJob

	// statusFailures makes the next n status checks answer 502, to
	// exercise the scheduler's retry path.
	statusFailures int

	// rejectStarts makes submissions answer success=false.
	rejectStarts bool

	// holdJobs freezes lifecycle progression so jobs stay pending
	// until cancelled.
	holdJobs bool
}

type backendJob struct {
	job   types.Job
	polls int
}

// NewBackend creates an empty fake backend
func NewBackend() *Backend {
	return &Backend{jobs: make(map[string]*backendJob)}
}

// FailNextStatusChecks makes the next n status checks fail at the HTTP
// level
func (b *Backend) FailNextStatusChecks(n int) {
	b.mu.Lock()
	b.statusFailures = n
	b.mu.Unlock()
}

// RejectSubmissions toggles in-band rejection of new jobs
func (b *Backend) RejectSubmissions(reject bool) {
	b.mu.Lock()
	b.rejectStarts = reject
	b.mu.Unlock()
}

// HoldJobs freezes lifecycle progression so jobs stay pending until
// cancelled
func (b *Backend) HoldJobs(hold bool) {
	b.mu.Lock()
	b.holdJobs = hold
	b.mu.Unlock()
}

// App builds a fiber application serving the backend's job endpoints
func (b *Backend) App() *fiber.App {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})
	app.Use(logger.RequestLogger())

	app.Get(routes.HealthCheckPath, func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	app.Post(routes.StartJobPath, b.handleStart)
	app.Get(routes.JobStatusPath+"/:id", b.handleStatus)
	app.Post(routes.CancelJobPath+"/:id", b.handleCancel)

	app.Get("/files/:name", func(c *fiber.Ctx) error {
		c.Set("Content-Type", "application/octet-stream")
		return c.SendString("file-bytes:" + c.Params("name"))
	})

	return app
}

func (b *Backend) handleStart(c *fiber.Ctx) error {
	var req types.StartJobRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(types.StartJobResponse{
			Success: false,
			Error:   "invalid request body",
		})
	}
	if err := req.Validate(); err != nil {
		return c.JSON(types.StartJobResponse{Success: false, Error: err.Error()})
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.rejectStarts {
		return c.JSON(types.StartJobResponse{Success: false, Error: "engine unavailable"})
	}

	jobID := uuid.NewString()
	b.jobs[jobID] = &backendJob{
		job: types.Job{
			JobID:     jobID,
			JobType:   req.JobType,
			SessionID: req.SessionID,
			Status:    types.JobStatusPending,
			Metadata:  req.Parameters,
		},
	}

	return c.JSON(types.StartJobResponse{Success: true, JobID: jobID})
}

func (b *Backend) handleStatus(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.statusFailures > 0 {
		b.statusFailures--
		return c.Status(fiber.StatusBadGateway).SendString("bridge unreachable")
	}

	entry, ok := b.jobs[c.Params("id")]
	if !ok {
		return c.JSON(types.JobStatusResponse{Success: false, Error: "unknown job"})
	}

	if !entry.job.Status.IsTerminal() && !b.holdJobs {
		entry.advance()
	}

	job := entry.job
	return c.JSON(types.JobStatusResponse{Success: true, Job: &job})
}

func (b *Backend) handleCancel(c *fiber.Ctx) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	entry, ok := b.jobs[c.Params("id")]
	if !ok || entry.job.Status.IsTerminal() {
		return c.JSON(types.CancelJobResponse{Success: false, Error: "job is not cancellable"})
	}

	entry.job.Status = types.JobStatusCancelled
	entry.job.Progress = nil
	return c.JSON(types.CancelJobResponse{Success: true})
}

// advance moves the job one lifecycle step forward
func (e *backendJob) advance() {
	switch {
	case e.polls < pollsUntilProcessing:
		e.job.Status = types.JobStatusPending
	case e.polls < pollsUntilCompleted:
		progress := processingProgress
		e.job.Status = types.JobStatusProcessing
		e.job.Progress = &progress
	default:
		filename := fmt.Sprintf("%s.png", e.job.JobID)
		e.job.Status = types.JobStatusCompleted
		e.job.Progress = nil
		e.job.Result = &types.JobResult{
			Filename:    filename,
			DownloadURL: "/files/" + filename,
			FileSize:    int64(len("file-bytes:" + filename)),
			Resolution:  &types.Resolution{Width: 1920, Height: 1080},
		}
	}
	e.polls++
}
