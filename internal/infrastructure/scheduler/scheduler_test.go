package scheduler

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ZeeshanZk09/finance-mangement-system-sub000/internal/application/subscription"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeSweeper struct {
	calls atomic.Int32
	batch atomic.Int32
}

func (f *fakeSweeper) Sweep(_ context.Context, batchSize int) (subscription.SweepResult, error) {
	f.calls.Add(1)
	f.batch.Store(int32(batchSize))
	return subscription.SweepResult{Scanned: 2, Expired: 1, Renewed: 1}, nil
}

type fakePurger struct {
	calls atomic.Int32
}

func (f *fakePurger) PurgeExpiredSessions(context.Context) (int64, error) {
	f.calls.Add(1)
	return 0, errors.New("db down")
}

func stop(t *testing.T, s *Scheduler) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
}

func TestRegister(t *testing.T) {
	s := New(zap.NewNop())
	noop := func(context.Context) error { return nil }

	assert.ErrorIs(t, s.Register(Job{Name: "x", Run: noop}), ErrInvalidJob)
	assert.ErrorIs(t, s.Register(Job{Interval: time.Second, Run: noop}), ErrInvalidJob)
	require.NoError(t, s.Register(Job{Name: "x", Interval: time.Hour, Run: noop}))
	assert.ErrorIs(t, s.Register(Job{Name: "x", Interval: time.Hour, Run: noop}), ErrDuplicateJob)

	require.NoError(t, s.Start(context.Background()))
	defer stop(t, s)
	assert.ErrorIs(t, s.Register(Job{Name: "y", Interval: time.Hour, Run: noop}), ErrSchedulerRunning)
}

func TestScheduler_RunsJobsAndTracksState(t *testing.T) {
	sweeper := &fakeSweeper{}
	purger := &fakePurger{}

	s := New(zap.NewNop())
	require.NoError(t, s.Register(ExpirySweepJob(sweeper, 10*time.Millisecond, 50)))
	require.NoError(t, s.Register(SessionPurgeJob(purger, 10*time.Millisecond)))
	require.NoError(t, s.Start(context.Background()))

	assert.Eventually(t, func() bool {
		return sweeper.calls.Load() >= 2 && purger.calls.Load() >= 1
	}, time.Second, 5*time.Millisecond)
	stop(t, s)

	assert.Equal(t, int32(50), sweeper.batch.Load())

	states := s.States()
	require.Len(t, states, 2)
	assert.Equal(t, JobExpirySweep, states[0].Name)
	assert.Equal(t, JobStatusSuccess, states[0].Status)
	assert.Zero(t, states[0].Failures)
	assert.Equal(t, JobSessionPurge, states[1].Name)
	assert.Equal(t, JobStatusFailed, states[1].Status)
	assert.Equal(t, states[1].Runs, states[1].Failures)
	assert.Equal(t, "db down", states[1].LastError)
}

func TestScheduler_RunOnStart(t *testing.T) {
	sweeper := &fakeSweeper{}
	s := New(zap.NewNop())
	require.NoError(t, s.Register(ExpirySweepJob(sweeper, time.Hour, 10)))
	require.NoError(t, s.Start(context.Background()))
	defer stop(t, s)

	assert.Eventually(t, func() bool { return sweeper.calls.Load() == 1 }, time.Second, 5*time.Millisecond)
}

func TestScheduler_PanicIsAFailedRun(t *testing.T) {
	s := New(zap.NewNop())
	require.NoError(t, s.Register(Job{
		Name:       "boom",
		Interval:   time.Hour,
		RunOnStart: true,
		Run:        func(context.Context) error { panic("bad state") },
	}))
	require.NoError(t, s.Start(context.Background()))
	defer stop(t, s)

	assert.Eventually(t, func() bool { return s.States()[0].Status == JobStatusFailed }, time.Second, 5*time.Millisecond)
	assert.Contains(t, s.States()[0].LastError, "bad state")
}

func TestScheduler_StopIsIdempotent(t *testing.T) {
	s := New(zap.NewNop())
	require.NoError(t, s.Stop(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	require.NoError(t, s.Start(context.Background()))
	stop(t, s)
	stop(t, s)
}

type prunerFunc func() int

func (f prunerFunc) Prune() int { return f() }

func TestLimiterPruneJob(t *testing.T) {
	var calls atomic.Int32
	job := LimiterPruneJob(prunerFunc(func() int {
		calls.Add(1)
		return 3
	}), time.Minute)

	assert.Equal(t, JobLimiterPrune, job.Name)
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, int32(1), calls.Load())
}
