// Package poller tracks in-flight backend jobs and drives their status
// polling loops.
//
// Each tracked job id owns one registration and one goroutine. The
// goroutine performs an immediate first status check, then re-checks on
// an exponential backoff schedule until the job reaches a terminal
// state, the retry budget is exhausted, or the registration is stopped.
// Loops for different job ids are fully independent.
package poller

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/tomlim2/unreal-mcp-jobs/internal/logger"
	"github.com/tomlim2/unreal-mcp-jobs/internal/types"
)

// StatusFetcher performs one status round-trip for a job id
type StatusFetcher interface {
	FetchStatus(ctx context.Context, jobID string) (*types.Job, error)
}

// Default polling options
const (
	DefaultBaseDelay         = time.Second
	DefaultBackoffMultiplier = 1.2
	DefaultMaxDelay          = 10 * time.Second
	DefaultMaxRetries        = 30
	DefaultRequestTimeout    = 30 * time.Second
)

// Options tunes the polling schedule
type Options struct {
	// BaseDelay is the delay before the second check; the first check
	// runs immediately.
	BaseDelay time.Duration

	// BackoffMultiplier grows the delay on every subsequent check.
	BackoffMultiplier float64

	// MaxDelay caps the delay between checks.
	MaxDelay time.Duration

	// MaxRetries caps the number of checks before the scheduler gives up
	// on a job that never reaches a terminal state.
	MaxRetries int

	// RequestTimeout bounds one status round-trip.
	RequestTimeout time.Duration
}

// DefaultOptions returns the default polling options
func DefaultOptions() Options {
	return Options{
		BaseDelay:         DefaultBaseDelay,
		BackoffMultiplier: DefaultBackoffMultiplier,
		MaxDelay:          DefaultMaxDelay,
		MaxRetries:        DefaultMaxRetries,
		RequestTimeout:    DefaultRequestTimeout,
	}
}

// Callbacks are invoked from a job's polling loop. OnUpdate fires on
// every successful status fetch. OnComplete fires exactly once, when the
// job reaches a terminal state; the receiver distinguishes success from
// failure by inspecting the job's status. OnError fires exactly once,
// when the scheduler gives up after exhausting retries. Nil callbacks
// are skipped.
type Callbacks struct {
	OnUpdate   func(job *types.Job)
	OnComplete func(job *types.Job)
	OnError    func(err error)
}

// registration is the scheduler's bookkeeping record for one actively
// tracked job. It is owned exclusively by the scheduler; loops compare
// registration identity against the table before acting on a fetch
// result, so a loop that was stopped or replaced mid-flight discards its
// result instead of reinstating itself.
type registration struct {
	jobID string
	cb    Callbacks
	stop  chan struct{}
}

// Scheduler runs zero or more independent polling loops, one per job id
type Scheduler struct {
	client StatusFetcher
	opts   Options

	mu   sync.Mutex
	regs map[string]*registration
	wg   sync.WaitGroup
}

// New creates a scheduler polling through the given fetcher. Zero-value
// option fields fall back to the defaults.
func New(client StatusFetcher, opts Options) *Scheduler {
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.BackoffMultiplier <= 1 {
		opts.BackoffMultiplier = DefaultBackoffMultiplier
	}
	if opts.MaxDelay <= 0 {
		opts.MaxDelay = DefaultMaxDelay
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = DefaultMaxRetries
	}
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}

	return &Scheduler{
		client: client,
		opts:   opts,
		regs:   make(map[string]*registration),
	}
}

// StartPolling begins tracking jobID. If the id is already tracked, the
// prior registration is torn down first; two loops never coexist for the
// same id. The first status check runs immediately.
func (s *Scheduler) StartPolling(jobID string, cb Callbacks) {
	reg := &registration{
		jobID: jobID,
		cb:    cb,
		stop:  make(chan struct{}),
	}

	s.mu.Lock()
	if prev, ok := s.regs[jobID]; ok {
		close(prev.stop)
	}
	s.regs[jobID] = reg
	s.mu.Unlock()

	logger.Debugf("polling started for job %s", jobID)

	s.wg.Add(1)
	go s.loop(reg)
}

// StopPolling cancels the scheduled next check for jobID and removes its
// registration. Calling it on an untracked id is a no-op.
func (s *Scheduler) StopPolling(jobID string) {
	s.mu.Lock()
	reg, ok := s.regs[jobID]
	if ok {
		close(reg.stop)
		delete(s.regs, jobID)
	}
	s.mu.Unlock()

	if ok {
		logger.Debugf("polling stopped for job %s", jobID)
	}
}

// StopAllPolling cancels every active registration
func (s *Scheduler) StopAllPolling() {
	s.mu.Lock()
	for jobID, reg := range s.regs {
		close(reg.stop)
		delete(s.regs, jobID)
	}
	s.mu.Unlock()
}

// Shutdown stops all polling and waits for the loops to exit
func (s *Scheduler) Shutdown() {
	s.StopAllPolling()
	s.wg.Wait()
}

// IsPolling reports whether jobID is actively tracked
func (s *Scheduler) IsPolling(jobID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.regs[jobID]
	return ok
}

// ActivePollCount returns the number of active registrations
func (s *Scheduler) ActivePollCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.regs)
}

// CheckJobStatus performs a single status fetch without registering a
// loop. Any active registration for the same id is unaffected.
func (s *Scheduler) CheckJobStatus(ctx context.Context, jobID string) (*types.Job, error) {
	return s.client.FetchStatus(ctx, jobID)
}

// delayFor returns the wait before check number attempt (0-based). The
// first check has zero delay; later checks follow
// min(base * multiplier^(attempt-1), max).
func (s *Scheduler) delayFor(attempt int) time.Duration {
	if attempt <= 0 {
		return 0
	}

	delay := time.Duration(math.Round(float64(s.opts.BaseDelay) * math.Pow(s.opts.BackoffMultiplier, float64(attempt-1))))
	if delay > s.opts.MaxDelay {
		return s.opts.MaxDelay
	}
	return delay
}

// current reports whether reg is still the live registration for its job
// id. A loop whose registration was removed or replaced must discard its
// in-flight result.
func (s *Scheduler) current(reg *registration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.regs[reg.jobID] == reg
}

// remove deletes reg from the table when it is still the live
// registration for its job id
func (s *Scheduler) remove(reg *registration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.regs[reg.jobID] == reg {
		delete(s.regs, reg.jobID)
	}
}

// loop drives one registration until a terminal state, retry exhaustion,
// or teardown. Transport errors and non-terminal successes share one
// retry counter and one backoff schedule.
func (s *Scheduler) loop(reg *registration) {
	defer s.wg.Done()

	for attempt := 0; ; attempt++ {
		if !s.wait(reg, s.delayFor(attempt)) {
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.opts.RequestTimeout)
		job, err := s.client.FetchStatus(ctx, reg.jobID)
		cancel()

		// The registration may have been stopped or replaced while the
		// fetch was in flight. Its result must be discarded; a finished
		// loop never reinstates itself.
		if !s.current(reg) {
			return
		}

		if err != nil {
			if attempt+1 >= s.opts.MaxRetries {
				s.remove(reg)
				giveUp := fmt.Errorf("job %s: exceeded maximum retries (%d), last error: %w", reg.jobID, s.opts.MaxRetries, err)
				logger.Errorf("polling gave up: %v", giveUp)
				if reg.cb.OnError != nil {
					reg.cb.OnError(giveUp)
				}
				return
			}

			logger.Debugf("status check %d for job %s failed, will retry: %v", attempt+1, reg.jobID, err)
			continue
		}

		if reg.cb.OnUpdate != nil {
			reg.cb.OnUpdate(job)
		}

		if job.IsTerminal() {
			s.remove(reg)
			logger.Debugf("job %s reached terminal status %s", reg.jobID, job.Status)
			if reg.cb.OnComplete != nil {
				reg.cb.OnComplete(job)
			}
			return
		}

		if attempt+1 >= s.opts.MaxRetries {
			s.remove(reg)
			giveUp := fmt.Errorf("job %s: exceeded maximum retries (%d) without reaching a terminal state", reg.jobID, s.opts.MaxRetries)
			logger.Errorf("polling gave up: %v", giveUp)
			if reg.cb.OnError != nil {
				reg.cb.OnError(giveUp)
			}
			return
		}
	}
}

// wait blocks for the given delay. It returns false when the
// registration is stopped before the delay elapses.
func (s *Scheduler) wait(reg *registration, delay time.Duration) bool {
	if delay <= 0 {
		select {
		case <-reg.stop:
			return false
		default:
			return true
		}
	}

	timer := time.NewTimer(delay)
	select {
	case <-reg.stop:
		timer.Stop()
		return false
	case <-timer.C:
		return true
	}
}
