package vm

import (
	"errors"
	"fmt"
)

var (
	errDeadCoroutine         = errors.New("cannot resume dead coroutine")
	errNonSuspendedCoroutine = errors.New("cannot resume non-suspended coroutine")
	errYieldOutside          = errors.New("attempt to yield from outside a coroutine")
)

// CoroutineStatus is the lifecycle state of a coroutine.
type CoroutineStatus int

const (
	CoroutineSuspended CoroutineStatus = iota
	CoroutineRunning
	CoroutineNormal
	CoroutineDead
)

func (s CoroutineStatus) String() string {
	switch s {
	case CoroutineSuspended:
		return "suspended"
	case CoroutineRunning:
		return "running"
	case CoroutineNormal:
		return "normal"
	case CoroutineDead:
		return "dead"
	}
	return "unknown"
}

// Coroutine runs a body function as a separate chain that can yield back
// to whoever resumed it.
//
// The body runs in its own Context with its own return buffer and shares
// the budget of the resuming chain. A yield stops at the coroutine. Every
// other suspension (budget, pause, await) travels on to the driver with a
// coroutine frame recorded, so resuming the outer chain resumes the body.
type Coroutine struct {
	body    Value
	status  CoroutineStatus
	started bool
	buf     ReturnBuffer

	// The body's suspended chain while not running.
	inner *Continuation
}

// NewCoroutine creates a suspended coroutine that will call body.
func NewCoroutine(body Value) *Coroutine {
	return &Coroutine{body: body, buf: DefaultReturnBufferFactory()}
}

// Status returns the coroutine's state.
func (co *Coroutine) Status() CoroutineStatus { return co.status }

// Resume runs the coroutine until it yields, returns or fails. Yielded or
// returned values are left in ctx's return buffer.
func (co *Coroutine) Resume(ctx *Context, args ...Value) (*Suspension, error) {
	switch co.status {
	case CoroutineDead:
		return nil, errDeadCoroutine
	case CoroutineRunning, CoroutineNormal:
		return nil, errNonSuspendedCoroutine
	}

	inner := ctx.child(co, co.buf)
	co.enter(ctx)
	if !co.started {
		co.started = true
		s, err := CallN(inner, co.body, args)
		return co.settle(ctx, inner, s, err)
	}

	cont := co.inner
	co.inner = nil
	if err := cont.take(); err != nil {
		return co.settle(ctx, inner, nil, err)
	}
	inner.resuming = cont.frames
	inner.buf.SetTo(args...)
	s, err := inner.ResumeNext()
	return co.settle(ctx, inner, s, err)
}

// continueInner resumes the body after the outer chain it suspended with
// was resumed by the driver.
func (co *Coroutine) continueInner(ctx *Context) (*Suspension, error) {
	cont := co.inner
	co.inner = nil
	if cont == nil {
		return nil, ErrResumeMismatch
	}
	inner := ctx.child(co, co.buf)
	co.enter(ctx)
	if err := cont.take(); err != nil {
		return co.settle(ctx, inner, nil, err)
	}
	inner.resuming = cont.frames
	if cont.reason == AwaitTask {
		inner.buf.SetTo(ctx.buf.Values()...)
		inner.taskErr = ctx.taskErr
	}
	s, err := inner.ResumeNext()
	return co.settle(ctx, inner, s, err)
}

func (co *Coroutine) enter(ctx *Context) {
	if ctx.co != nil {
		ctx.co.status = CoroutineNormal
	}
	co.status = CoroutineRunning
}

func (co *Coroutine) settle(ctx *Context, inner *Context, s *Suspension, err error) (*Suspension, error) {
	if ctx.co != nil {
		ctx.co.status = CoroutineRunning
	}
	if err == nil && inner.Resuming() {
		err = ErrResumeMismatch
	}
	if err != nil {
		co.status = CoroutineDead
		return nil, err
	}
	if s == nil {
		co.status = CoroutineDead
		ctx.buf.SetTo(inner.buf.Values()...)
		return nil, nil
	}

	co.inner = newContinuation(s, inner.buf)
	if s.reason == Yield {
		co.status = CoroutineSuspended
		ctx.buf.SetTo(s.yielded...)
		return nil, nil
	}

	out := newSuspension(s.reason)
	out.task = s.task
	return out.Push(coroutineFrame{co: co}, nil), nil
}

// coroutineFrame resumes a coroutine body on the outer chain's behalf.
type coroutineFrame struct {
	resumeOnly
	co *Coroutine
}

func (coroutineFrame) Name() string { return "(coroutine)" }

func (f coroutineFrame) Resume(ctx *Context, _ any) (*Suspension, error) {
	return f.co.continueInner(ctx)
}

// ---------------------------------------------------------------------------
// Coroutine library
// ---------------------------------------------------------------------------

// CoroutineCreate is coroutine.create(f).
var CoroutineCreate = NewFunction1("coroutine.create", func(ctx *Context, f Value) (*Suspension, error) {
	if _, _, err := ctx.ResolveCallable(f); err != nil {
		return nil, badArgument(1, "create", "function expected")
	}
	ctx.buf.SetTo1(NewCoroutine(f))
	return nil, nil
})

// CoroutineStatusOf is coroutine.status(co).
var CoroutineStatusOf = NewFunction1("coroutine.status", func(ctx *Context, v Value) (*Suspension, error) {
	co, ok := v.(*Coroutine)
	if !ok {
		return nil, badArgument(1, "status", "coroutine expected")
	}
	ctx.buf.SetTo1(co.status.String())
	return nil, nil
})

// CoroutineWrap is coroutine.wrap(f).
var CoroutineWrap = NewFunction1("coroutine.wrap", func(ctx *Context, f Value) (*Suspension, error) {
	if _, _, err := ctx.ResolveCallable(f); err != nil {
		return nil, badArgument(1, "wrap", "function expected")
	}
	ctx.buf.SetTo1(&wrapped{co: NewCoroutine(f)})
	return nil, nil
})

// CoroutineYield is coroutine.yield(...).
var CoroutineYield Callable = yieldFunc{}

// CoroutineResume is coroutine.resume(co, ...). It returns true followed by
// the yielded or returned values, or false and the error message.
var CoroutineResume Callable = resumeFunc{}

// OpenCoroutineLib installs the coroutine table in rt's globals.
func OpenCoroutineLib(rt *Runtime) {
	lib := NewTable()
	lib.RawSetString("create", CoroutineCreate)
	lib.RawSetString("resume", CoroutineResume)
	lib.RawSetString("yield", CoroutineYield)
	lib.RawSetString("status", CoroutineStatusOf)
	lib.RawSetString("wrap", CoroutineWrap)
	rt.SetGlobal("coroutine", lib)
}

func badArgument(n int, fn, msg string) error {
	return fmt.Errorf("bad argument #%d to '%s' (%s)", n, fn, msg)
}

// yieldFunc suspends the running coroutine. On resume the resume arguments
// are already in the return buffer, which makes them yield's results.
type yieldFunc struct{}

func (yieldFunc) Name() string { return "coroutine.yield" }

func (y yieldFunc) Invoke0(ctx *Context) (*Suspension, error) { return y.InvokeN(ctx, nil) }
func (y yieldFunc) Invoke1(ctx *Context, a Value) (*Suspension, error) {
	return y.InvokeN(ctx, []Value{a})
}
func (y yieldFunc) Invoke2(ctx *Context, a, b Value) (*Suspension, error) {
	return y.InvokeN(ctx, []Value{a, b})
}
func (y yieldFunc) Invoke3(ctx *Context, a, b, c Value) (*Suspension, error) {
	return y.InvokeN(ctx, []Value{a, b, c})
}
func (y yieldFunc) Invoke4(ctx *Context, a, b, c, d Value) (*Suspension, error) {
	return y.InvokeN(ctx, []Value{a, b, c, d})
}
func (y yieldFunc) Invoke5(ctx *Context, a, b, c, d, e Value) (*Suspension, error) {
	return y.InvokeN(ctx, []Value{a, b, c, d, e})
}

func (y yieldFunc) InvokeN(ctx *Context, args []Value) (*Suspension, error) {
	if ctx.co == nil {
		return nil, At(errYieldOutside, CallSite{File: GoSource, Function: y.Name()})
	}
	s := newSuspension(Yield)
	s.yielded = append([]Value(nil), args...)
	return s.Push(y, nil), nil
}

func (yieldFunc) Resume(*Context, any) (*Suspension, error) {
	return nil, nil
}

// resumeFunc implements coroutine.resume.
type resumeFunc struct{}

func (resumeFunc) Name() string { return "coroutine.resume" }

func (r resumeFunc) Invoke0(ctx *Context) (*Suspension, error) { return r.InvokeN(ctx, nil) }
func (r resumeFunc) Invoke1(ctx *Context, a Value) (*Suspension, error) {
	return r.start(ctx, a, nil)
}
func (r resumeFunc) Invoke2(ctx *Context, a, b Value) (*Suspension, error) {
	return r.start(ctx, a, []Value{b})
}
func (r resumeFunc) Invoke3(ctx *Context, a, b, c Value) (*Suspension, error) {
	return r.start(ctx, a, []Value{b, c})
}
func (r resumeFunc) Invoke4(ctx *Context, a, b, c, d Value) (*Suspension, error) {
	return r.start(ctx, a, []Value{b, c, d})
}
func (r resumeFunc) Invoke5(ctx *Context, a, b, c, d, e Value) (*Suspension, error) {
	return r.start(ctx, a, []Value{b, c, d, e})
}

func (r resumeFunc) InvokeN(ctx *Context, args []Value) (*Suspension, error) {
	if len(args) == 0 {
		return r.start(ctx, nil, nil)
	}
	return r.start(ctx, args[0], args[1:])
}

func (r resumeFunc) start(ctx *Context, v Value, args []Value) (*Suspension, error) {
	co, ok := v.(*Coroutine)
	if !ok {
		return nil, At(badArgument(1, "resume", "coroutine expected"), CallSite{File: GoSource, Function: r.Name()})
	}
	s, err := co.Resume(ctx, args...)
	return r.finish(ctx, s, err)
}

func (r resumeFunc) Resume(ctx *Context, _ any) (*Suspension, error) {
	s, err := ctx.ResumeNext()
	return r.finish(ctx, s, err)
}

func (r resumeFunc) finish(ctx *Context, s *Suspension, err error) (*Suspension, error) {
	if s != nil {
		return s.Push(r, nil), nil
	}
	if err != nil {
		var hp *HostPanic
		if errors.As(err, &hp) {
			return nil, err
		}
		ctx.buf.SetTo2(false, Message(err))
		return nil, nil
	}
	values := ctx.buf.Values()
	ctx.buf.Reset()
	ctx.buf.Push(true)
	for _, v := range values {
		ctx.buf.Push(v)
	}
	return nil, nil
}

// wrapped is the function returned by coroutine.wrap: calling it resumes
// the coroutine and errors propagate to the caller.
type wrapped struct {
	co *Coroutine
}

func (w *wrapped) Name() string { return "coroutine.wrap" }

func (w *wrapped) Invoke0(ctx *Context) (*Suspension, error) { return w.finish(w.co.Resume(ctx)) }
func (w *wrapped) Invoke1(ctx *Context, a Value) (*Suspension, error) {
	return w.finish(w.co.Resume(ctx, a))
}
func (w *wrapped) Invoke2(ctx *Context, a, b Value) (*Suspension, error) {
	return w.finish(w.co.Resume(ctx, a, b))
}
func (w *wrapped) Invoke3(ctx *Context, a, b, c Value) (*Suspension, error) {
	return w.finish(w.co.Resume(ctx, a, b, c))
}
func (w *wrapped) Invoke4(ctx *Context, a, b, c, d Value) (*Suspension, error) {
	return w.finish(w.co.Resume(ctx, a, b, c, d))
}
func (w *wrapped) Invoke5(ctx *Context, a, b, c, d, e Value) (*Suspension, error) {
	return w.finish(w.co.Resume(ctx, a, b, c, d, e))
}
func (w *wrapped) InvokeN(ctx *Context, args []Value) (*Suspension, error) {
	return w.finish(w.co.Resume(ctx, args...))
}

func (w *wrapped) Resume(ctx *Context, _ any) (*Suspension, error) {
	return w.finish(ctx.ResumeNext())
}

func (w *wrapped) finish(s *Suspension, err error) (*Suspension, error) {
	if err != nil {
		return nil, err
	}
	if s != nil {
		return s.Push(w, nil), nil
	}
	return nil, nil
}
