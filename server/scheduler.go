package server

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"

	"github.com/chazu/rebound/vm"
)

// Scheduler runs awaited tasks off the worker goroutine, at most maxTasks
// at a time. Completions are reported through a callback, which re-queues
// the chain onto the worker.
type Scheduler struct {
	sem      *semaphore.Weighted
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
	inFlight atomic.Int64
}

// NewScheduler creates a scheduler running up to maxTasks tasks at once.
func NewScheduler(maxTasks int64) *Scheduler {
	if maxTasks < 1 {
		maxTasks = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		sem:    semaphore.NewWeighted(maxTasks),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Go runs task on its own goroutine and calls done with its outcome. A
// task that cannot start because the scheduler stopped reports the
// cancellation error.
func (s *Scheduler) Go(task vm.Task, done func(values []vm.Value, err error)) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		if err := s.sem.Acquire(s.ctx, 1); err != nil {
			done(nil, err)
			return
		}
		s.inFlight.Add(1)
		values, err := vm.RunTask(s.ctx, task)
		s.inFlight.Add(-1)
		s.sem.Release(1)
		done(values, err)
	}()
}

// InFlight returns the number of tasks currently running.
func (s *Scheduler) InFlight() int64 {
	return s.inFlight.Load()
}

// Stop cancels running tasks and waits for every completion callback.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
}
