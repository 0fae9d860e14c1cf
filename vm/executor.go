package vm

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/tliron/commonlog"
)

var execLog = commonlog.GetLogger("rebound.vm.executor")

// ErrBudgetTooSmall is returned by Run and Drive when a slice with a fresh budget
// paused without doing any work, so resuming again could never finish.
var ErrBudgetTooSmall = errors.New("cpu budget too small to make progress")

// ExecutorConfig configures an Executor.
type ExecutorConfig struct {
	// CPUBudget limits the work units of each slice. Nil means unlimited.
	CPUBudget *int64

	// AcceptPauses lets Run resume budget and explicit pauses itself.
	// Without it a pause is reported as ErrPauseNotAccepted.
	AcceptPauses bool

	// BufferFactory creates the return buffer of each new chain.
	BufferFactory ReturnBufferFactory

	// NoisePrefixes are file or function prefixes left out of formatted
	// tracebacks.
	NoisePrefixes []string

	// Profile enables the dispatch profiler.
	Profile bool
}

// Executor is the driver of call chains. It starts chains, turns their
// suspensions into continuations and resumes those continuations.
//
// An Executor holds no per-chain state; it may drive many chains, but each
// chain runs on the goroutine that called Call, Resume or Complete.
type Executor struct {
	rt       *Runtime
	cfg      ExecutorConfig
	profiler *Profiler
}

// NewExecutor creates an executor over rt.
func NewExecutor(rt *Runtime, cfg ExecutorConfig) *Executor {
	if cfg.BufferFactory == nil {
		cfg.BufferFactory = DefaultReturnBufferFactory
	}
	x := &Executor{rt: rt, cfg: cfg}
	if cfg.Profile {
		x.profiler = NewProfiler()
	}
	return x
}

// Runtime returns the runtime chains run in.
func (x *Executor) Runtime() *Runtime { return x.rt }

// Config returns the executor's configuration.
func (x *Executor) Config() ExecutorConfig { return x.cfg }

// Profiler returns the dispatch profiler, or nil when profiling is off.
func (x *Executor) Profiler() *Profiler { return x.profiler }

// FormatError renders err with its traceback, leaving out the configured
// noise prefixes.
func (x *Executor) FormatError(err error) string {
	var re *RuntimeError
	if !errors.As(err, &re) || len(re.Traceback) == 0 {
		return err.Error()
	}
	return err.Error() + "\n" + re.Traceback.Format(x.cfg.NoisePrefixes)
}

// ---------------------------------------------------------------------------
// Starting and resuming chains
// ---------------------------------------------------------------------------

// Call starts a new chain calling target with args and runs it until it
// returns, fails or suspends.
func (x *Executor) Call(ctx context.Context, target Value, args ...Value) *CallHandle {
	if err := ctx.Err(); err != nil {
		return failed(err, 0)
	}
	c := newContext(ctx, x.rt, x.cfg.BufferFactory(), NewBudget(x.cfg.CPUBudget), x.profiler)
	s, err := protect(func() (*Suspension, error) {
		return CallN(c, target, args)
	})
	return x.settle(c, s, err)
}

// Resume continues a suspended chain with a fresh budget. For a chain
// awaiting a task, the task runs first on the calling goroutine.
func (x *Executor) Resume(ctx context.Context, cont *Continuation) *CallHandle {
	return x.ResumeWithBudget(ctx, cont, x.cfg.CPUBudget)
}

// ResumeWithBudget is Resume with an explicit budget for this slice.
func (x *Executor) ResumeWithBudget(ctx context.Context, cont *Continuation, budget *int64) *CallHandle {
	if cont == nil {
		return failed(ErrNotPaused, 0)
	}
	if err := ctx.Err(); err != nil {
		return failed(err, 0)
	}
	if err := cont.take(); err != nil {
		return failed(err, 0)
	}
	if cont.reason != AwaitTask {
		return x.replay(ctx, cont, budget, nil, nil)
	}

	values, taskErr := runTask(ctx, cont.task)
	return x.replay(ctx, cont, budget, values, taskErr)
}

// Complete resumes a chain awaiting a task with the task's outcome, for
// drivers that run tasks elsewhere.
func (x *Executor) Complete(ctx context.Context, cont *Continuation, values []Value, taskErr error) *CallHandle {
	if cont == nil {
		return failed(ErrNotPaused, 0)
	}
	if cont.reason != AwaitTask {
		return failed(fmt.Errorf("%w: continuation is not awaiting a task", ErrResumeMismatch), 0)
	}
	if err := ctx.Err(); err != nil {
		return failed(err, 0)
	}
	if err := cont.take(); err != nil {
		return failed(err, 0)
	}
	return x.replay(ctx, cont, x.cfg.CPUBudget, values, taskErr)
}

func (x *Executor) replay(ctx context.Context, cont *Continuation, budget *int64, values []Value, taskErr error) *CallHandle {
	c := newContext(ctx, x.rt, cont.buffer, NewBudget(budget), x.profiler)
	c.resuming = cont.frames
	if cont.reason == AwaitTask {
		c.buf.SetTo(values...)
		c.taskErr = taskErr
	}
	execLog.Debugf("resuming %d frames (%s)", len(cont.frames), cont.reason)
	s, err := protect(c.ResumeNext)
	return x.settle(c, s, err)
}

// Run calls target and drives the chain to completion: awaited tasks run
// on the calling goroutine and, when AcceptPauses is set, pauses resume
// immediately with a fresh budget.
func (x *Executor) Run(ctx context.Context, target Value, args ...Value) ([]Value, error) {
	h, err := x.Drive(ctx, x.Call(ctx, target, args...), nil)
	if err != nil {
		return nil, err
	}
	if h.state == Failed {
		return nil, h.err
	}
	return h.values, nil
}

// Drive resumes the chain of h until it returns or fails and returns the
// final handle. observe, when not nil, sees every slice after the first.
// A pause without AcceptPauses fails with ErrPauseNotAccepted, and a budget
// slice that did no work fails with ErrBudgetTooSmall; the chain is
// discarded in both cases.
func (x *Executor) Drive(ctx context.Context, h *CallHandle, observe func(*CallHandle)) (*CallHandle, error) {
	for {
		switch h.state {
		case Returned, Failed:
			return h, nil
		case AwaitingTask:
			h = x.Resume(ctx, h.cont)
		case Paused:
			if !x.cfg.AcceptPauses {
				x.abandon(h.cont)
				return nil, asRuntimeError(ErrPauseNotAccepted)
			}
			if h.cont.reason == BudgetExhausted && h.work == 0 {
				x.abandon(h.cont)
				return nil, asRuntimeError(ErrBudgetTooSmall)
			}
			h = x.Resume(ctx, h.cont)
		default:
			return nil, fmt.Errorf("vm: unexpected call state %s", h.state)
		}
		if observe != nil {
			observe(h)
		}
	}
}

func (x *Executor) abandon(cont *Continuation) {
	if err := cont.Discard(); err != nil {
		execLog.Errorf("discarding continuation: %s", err)
	}
}

// ---------------------------------------------------------------------------
// Settling a slice
// ---------------------------------------------------------------------------

func (x *Executor) settle(c *Context, s *Suspension, err error) *CallHandle {
	work := c.budget.Used()
	if err == nil && c.Resuming() {
		err = ErrResumeMismatch
	}
	if err == nil && s != nil && s.reason == Yield {
		err = errYieldOutside
	}
	if err != nil {
		re := asRuntimeError(err)
		execLog.Debugf("chain failed after %d units: %s", work, re.Err)
		return failed(re, work)
	}
	if s != nil {
		if x.profiler != nil && len(s.frames) > 0 {
			x.profiler.recordSuspend(s.frames[0].callable)
		}
		execLog.Debugf("chain suspended (%s) with %d frames after %d units", s.reason, len(s.frames), work)
		return suspended(newContinuation(s, c.buf), work)
	}
	return returned(c.buf.Values(), work)
}

// protect runs fn, turning a Go panic into a *HostPanic error.
func protect(fn func() (*Suspension, error)) (s *Suspension, err error) {
	defer func() {
		if r := recover(); r != nil {
			s = nil
			err = &HostPanic{Value: r, Stack: debug.Stack()}
		}
	}()
	return fn()
}

func runTask(ctx context.Context, task Task) (values []Value, err error) {
	if task == nil {
		return nil, nil
	}
	defer func() {
		if r := recover(); r != nil {
			values = nil
			err = &HostPanic{Value: r, Stack: debug.Stack()}
		}
	}()
	return task(ctx)
}

// RunTask runs task, recovering a panic as a *HostPanic error. Drivers that
// run tasks on their own goroutines use it before calling Complete.
func RunTask(ctx context.Context, task Task) ([]Value, error) {
	return runTask(ctx, task)
}
