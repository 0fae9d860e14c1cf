package vm

import "context"

// SuspendReason says why a call chain stopped before completing.
type SuspendReason int

const (
	// PauseRequested is an explicit pause by a callable.
	PauseRequested SuspendReason = iota

	// BudgetExhausted means the chain ran out of CPU budget.
	BudgetExhausted

	// AwaitTask means the chain is waiting for a Task the driver must run.
	AwaitTask

	// Yield is a coroutine yield; it never leaves the coroutine.
	Yield
)

func (r SuspendReason) String() string {
	switch r {
	case PauseRequested:
		return "pause"
	case BudgetExhausted:
		return "budget"
	case AwaitTask:
		return "await"
	case Yield:
		return "yield"
	}
	return "unknown"
}

// Task is work a suspended chain hands to its driver. Its results become
// the contents of the return buffer when the chain resumes.
type Task func(ctx context.Context) ([]Value, error)

// frame is one recorded level of a suspended chain.
type frame struct {
	callable   Callable
	descriptor any
}

// Suspension travels outward from the point where a chain paused. Every
// frame between that point and the driver pushes itself, with the state it
// needs to continue, before returning the suspension to its own caller.
type Suspension struct {
	reason  SuspendReason
	frames  []frame // innermost first
	task    Task
	yielded []Value
}

func newSuspension(reason SuspendReason) *Suspension {
	return &Suspension{reason: reason, frames: make([]frame, 0, 8)}
}

// Push records the frame of c with its resume descriptor and returns s.
func (s *Suspension) Push(c Callable, descriptor any) *Suspension {
	s.frames = append(s.frames, frame{callable: c, descriptor: descriptor})
	return s
}

// Reason returns why the chain suspended.
func (s *Suspension) Reason() SuspendReason { return s.reason }

// Depth returns the number of frames recorded so far.
func (s *Suspension) Depth() int { return len(s.frames) }

// Task returns the task an AwaitTask suspension waits for.
func (s *Suspension) Task() Task { return s.task }
