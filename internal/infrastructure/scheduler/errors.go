package scheduler

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidJob is returned for a job without a name, function or positive interval
	ErrInvalidJob = errors.New("invalid scheduler job")

	// ErrDuplicateJob is returned when a job name is registered twice
	ErrDuplicateJob = errors.New("job already registered")

	// ErrSchedulerRunning is returned when registering after Start
	ErrSchedulerRunning = errors.New("scheduler is already running")
)

// PanicError reports a job that panicked
type PanicError struct {
	Job   string
	Value any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("job %s panicked: %v", e.Job, e.Value)
}
