// Package scheduler runs the engine's periodic maintenance jobs: the
// subscription expiry sweep and the expired-session purge.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// JobStatus represents the outcome of a job's last run
type JobStatus string

const (
	JobStatusPending JobStatus = "PENDING"
	JobStatusRunning JobStatus = "RUNNING"
	JobStatusSuccess JobStatus = "SUCCESS"
	JobStatusFailed  JobStatus = "FAILED"
)

// Job is one periodic task. Runs of the same job never overlap.
type Job struct {
	Name       string
	Interval   time.Duration
	Timeout    time.Duration
	RunOnStart bool // run once immediately instead of waiting a full interval
	Run        func(ctx context.Context) error
}

func (j Job) validate() error {
	if j.Name == "" || j.Run == nil || j.Interval <= 0 {
		return ErrInvalidJob
	}
	return nil
}

// JobState is a snapshot of a job's run history
type JobState struct {
	Name        string        `json:"name"`
	Status      JobStatus     `json:"status"`
	Runs        int           `json:"runs"`
	Failures    int           `json:"failures"`
	LastError   string        `json:"last_error,omitempty"`
	LastStarted *time.Time    `json:"last_started,omitempty"`
	LastRunTime time.Duration `json:"last_run_time"`
}

// Scheduler runs registered jobs on their own tickers
type Scheduler struct {
	logger *zap.Logger

	jobs      []Job
	states    map[string]*JobState
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// New creates a scheduler with no jobs
func New(logger *zap.Logger) *Scheduler {
	return &Scheduler{
		logger: logger,
		states: make(map[string]*JobState),
	}
}

// Register adds a job; it must be called before Start
func (s *Scheduler) Register(job Job) error {
	if err := job.validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.isRunning {
		return ErrSchedulerRunning
	}
	if _, dup := s.states[job.Name]; dup {
		return ErrDuplicateJob
	}
	s.jobs = append(s.jobs, job)
	s.states[job.Name] = &JobState{Name: job.Name, Status: JobStatusPending}
	return nil
}

// Start starts one goroutine per job
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	jobs := append([]Job(nil), s.jobs...)
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	for _, job := range jobs {
		s.wg.Add(1)
		go s.loop(ctx, job)
	}

	s.logger.Info("Scheduler started", zap.Int("jobs", len(jobs)))
	return nil
}

// Stop cancels running jobs and waits for them until ctx is done
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Scheduler stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Scheduler stop timed out")
		return ctx.Err()
	}
}

// States returns a snapshot of every job's state, in registration order
func (s *Scheduler) States() []JobState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]JobState, 0, len(s.jobs))
	for _, j := range s.jobs {
		out = append(out, *s.states[j.Name])
	}
	return out
}

func (s *Scheduler) loop(ctx context.Context, job Job) {
	defer s.wg.Done()

	if job.RunOnStart {
		s.runOnce(ctx, job)
	}

	ticker := time.NewTicker(job.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.runOnce(ctx, job)
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, job Job) {
	if ctx.Err() != nil {
		return
	}
	started := time.Now()
	s.update(job.Name, func(st *JobState) {
		st.Status = JobStatusRunning
		st.LastStarted = &started
	})

	runCtx := logger.WithContext(logger.WithRequestID(ctx, "job:"+job.Name), s.logger)
	if job.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(runCtx, job.Timeout)
		defer cancel()
	}

	err := s.safeRun(runCtx, job)
	elapsed := time.Since(started)

	s.update(job.Name, func(st *JobState) {
		st.Runs++
		st.LastRunTime = elapsed
		if err != nil {
			st.Status = JobStatusFailed
			st.Failures++
			st.LastError = err.Error()
			return
		}
		st.Status = JobStatusSuccess
		st.LastError = ""
	})

	if err != nil {
		s.logger.Error("Job failed", zap.String("job", job.Name), zap.Duration("elapsed", elapsed), zap.Error(err))
		return
	}
	s.logger.Debug("Job completed", zap.String("job", job.Name), zap.Duration("elapsed", elapsed))
}

// safeRun turns a panicking job into a failed run
func (s *Scheduler) safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Job: job.Name, Value: r}
		}
	}()
	return job.Run(ctx)
}

func (s *Scheduler) update(name string, fn func(st *JobState)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.states[name])
}
