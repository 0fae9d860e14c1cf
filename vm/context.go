package vm

import "context"

// Context is the execution context of one call chain. It is passed to every
// callable and carries the chain's return buffer, its CPU budget and, while
// a continuation is being replayed, the frames still waiting to resume.
//
// A Context is used by one goroutine at a time.
type Context struct {
	rt       *Runtime
	host     context.Context
	buf      ReturnBuffer
	budget   *Budget
	profiler *Profiler

	// Frames still to be replayed, outermost last.
	resuming []frame
	taskErr  error

	// The coroutine this context runs, nil on a main chain.
	co *Coroutine
}

func newContext(host context.Context, rt *Runtime, buf ReturnBuffer, budget *Budget, p *Profiler) *Context {
	if host == nil {
		host = context.Background()
	}
	return &Context{rt: rt, host: host, buf: buf, budget: budget, profiler: p}
}

// NewContext creates a standalone context with an unlimited budget. Hosts
// normally go through an Executor; this is for calling into the dispatcher
// directly.
func NewContext(rt *Runtime, buf ReturnBuffer) *Context {
	if buf == nil {
		buf = DefaultReturnBufferFactory()
	}
	return newContext(context.Background(), rt, buf, NewBudget(nil), nil)
}

// child creates the context a coroutine body runs in: its own buffer, the
// parent's budget and runtime.
func (c *Context) child(co *Coroutine, buf ReturnBuffer) *Context {
	return &Context{
		rt:       c.rt,
		host:     c.host,
		buf:      buf,
		budget:   c.budget,
		profiler: c.profiler,
		co:       co,
	}
}

// Runtime returns the runtime the chain runs in.
func (c *Context) Runtime() *Runtime { return c.rt }

// Return returns the chain's return buffer.
func (c *Context) Return() ReturnBuffer { return c.buf }

// Host returns the Go context of the driver running the chain.
func (c *Context) Host() context.Context { return c.host }

// Budget returns the CPU budget the chain draws from.
func (c *Context) Budget() *Budget { return c.budget }

// Coroutine returns the running coroutine, or nil on a main chain.
func (c *Context) Coroutine() *Coroutine { return c.co }

// ---------------------------------------------------------------------------
// Suspending
// ---------------------------------------------------------------------------

// Work accounts units of work against the budget. It reports true when the
// budget cannot cover them; nothing is withdrawn then and the caller must
// suspend with Exhausted before doing the work.
func (c *Context) Work(units int64) bool {
	return !c.budget.Withdraw(units)
}

// Exhausted starts a budget suspension at self.
func (c *Context) Exhausted(self Callable, descriptor any) *Suspension {
	return newSuspension(BudgetExhausted).Push(self, descriptor)
}

// Pause starts an explicit pause at self.
func (c *Context) Pause(self Callable, descriptor any) *Suspension {
	return newSuspension(PauseRequested).Push(self, descriptor)
}

// Await suspends at self until the driver has run task. On resume the
// task's results are in the return buffer and its error in TaskErr.
func (c *Context) Await(self Callable, descriptor any, task Task) *Suspension {
	s := newSuspension(AwaitTask)
	s.task = task
	return s.Push(self, descriptor)
}

// ---------------------------------------------------------------------------
// Resuming
// ---------------------------------------------------------------------------

// Resuming reports whether recorded frames are still waiting to be replayed.
func (c *Context) Resuming() bool { return len(c.resuming) > 0 }

// ResumeNext resumes the next inner frame of the continuation being
// replayed. A resumed frame calls it in place of the nested call it had
// paused in; the result arrives in the return buffer as the call's would.
func (c *Context) ResumeNext() (*Suspension, error) {
	n := len(c.resuming)
	if n == 0 {
		return nil, ErrResumeMismatch
	}
	f := c.resuming[n-1]
	c.resuming = c.resuming[:n-1]
	if c.profiler != nil {
		c.profiler.recordResume(f.callable)
	}
	return f.callable.Resume(c, f.descriptor)
}

// TaskErr returns the error of the task the chain awaited, if any.
func (c *Context) TaskErr() error { return c.taskErr }
