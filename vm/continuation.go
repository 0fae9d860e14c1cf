package vm

import (
	"sync/atomic"
)

// Continuation is a suspended call chain as handed to the driver: the
// recorded frames, the return buffer they share and why they stopped.
//
// A continuation is immutable once built and is consumed exactly once,
// either by resuming it or by discarding it. It is safe to pass between
// goroutines; the chain it holds runs on whichever goroutine resumes it.
type Continuation struct {
	consumed atomic.Bool

	reason SuspendReason
	frames []frame // innermost first
	buffer ReturnBuffer
	task   Task
}

func newContinuation(s *Suspension, buf ReturnBuffer) *Continuation {
	return &Continuation{
		reason: s.reason,
		frames: s.frames,
		buffer: buf,
		task:   s.task,
	}
}

// Reason returns why the chain suspended.
func (c *Continuation) Reason() SuspendReason { return c.reason }

// Task returns the task the chain awaits, or nil.
func (c *Continuation) Task() Task { return c.task }

// Depth returns the number of recorded frames.
func (c *Continuation) Depth() int { return len(c.frames) }

// Consumed reports whether the continuation was resumed or discarded.
func (c *Continuation) Consumed() bool { return c.consumed.Load() }

// Discard consumes the continuation without running it. It returns
// ErrContinuationConsumed if it was already consumed.
func (c *Continuation) Discard() error {
	return c.take()
}

func (c *Continuation) take() error {
	if !c.consumed.CompareAndSwap(false, true) {
		return ErrContinuationConsumed
	}
	return nil
}
