package vm

import (
	"context"
	"errors"
	"testing"
)

// ---------------------------------------------------------------------------
// script: a compiled-style callable assembled from closures
// ---------------------------------------------------------------------------

type script struct {
	name   string
	body   func(ctx *Context, args []Value) (*Suspension, error)
	resume func(ctx *Context, descriptor any) (*Suspension, error)
}

func (s *script) Name() string { return s.name }

func (s *script) Invoke0(ctx *Context) (*Suspension, error) { return s.body(ctx, nil) }
func (s *script) Invoke1(ctx *Context, a Value) (*Suspension, error) {
	return s.body(ctx, []Value{a})
}
func (s *script) Invoke2(ctx *Context, a, b Value) (*Suspension, error) {
	return s.body(ctx, []Value{a, b})
}
func (s *script) Invoke3(ctx *Context, a, b, c Value) (*Suspension, error) {
	return s.body(ctx, []Value{a, b, c})
}
func (s *script) Invoke4(ctx *Context, a, b, c, d Value) (*Suspension, error) {
	return s.body(ctx, []Value{a, b, c, d})
}
func (s *script) Invoke5(ctx *Context, a, b, c, d, e Value) (*Suspension, error) {
	return s.body(ctx, []Value{a, b, c, d, e})
}
func (s *script) InvokeN(ctx *Context, args []Value) (*Suspension, error) {
	return s.body(ctx, args)
}
func (s *script) Resume(ctx *Context, descriptor any) (*Suspension, error) {
	if s.resume == nil {
		return nil, ErrNotResumable
	}
	return s.resume(ctx, descriptor)
}

// ---------------------------------------------------------------------------
// Sample programs
// ---------------------------------------------------------------------------

// newAccumulator builds f(acc, n) = n > 0 ? f(acc+1, n-1) : acc as a self
// tail call, accounting one unit of work per invocation.
func newAccumulator() *script {
	f := &script{name: "accumulate"}
	f.body = func(ctx *Context, args []Value) (*Suspension, error) {
		acc, _ := arg(args, 0).(int64)
		n, _ := arg(args, 1).(int64)
		if ctx.Work(1) {
			return ctx.Exhausted(f, [2]int64{acc, n}), nil
		}
		if n <= 0 {
			ctx.Return().SetTo1(acc)
			return nil, nil
		}
		ctx.Return().TailCall2(f, acc+1, n-1)
		return nil, nil
	}
	f.resume = func(ctx *Context, descriptor any) (*Suspension, error) {
		st := descriptor.([2]int64)
		return f.Invoke2(ctx, st[0], st[1])
	}
	return f
}

// fibState is the resume descriptor of newFib's frames.
type fibState struct {
	n     int64
	stage int
	a     int64 // fib(n-1) once known
}

const (
	fibEnter    = iota // before any call
	fibInFirst         // paused inside fib(n-1)
	fibInSecond        // paused inside fib(n-2)
	fibSecond          // fib(n-1) known, fib(n-2) not yet called
)

// newFib builds a doubly recursive fib with one unit of work per call,
// resumable from inside either nested call.
func newFib() *script {
	f := &script{name: "fib"}
	var run func(ctx *Context, st fibState) (*Suspension, error)
	run = func(ctx *Context, st fibState) (*Suspension, error) {
		switch st.stage {
		case fibEnter:
			if ctx.Work(1) {
				return ctx.Exhausted(f, st), nil
			}
			if st.n < 2 {
				ctx.Return().SetTo1(st.n)
				return nil, nil
			}
			s, err := Call1(ctx, f, st.n-1)
			if err != nil {
				return nil, err
			}
			if s != nil {
				return s.Push(f, fibState{n: st.n, stage: fibInFirst}), nil
			}
			return run(ctx, fibState{n: st.n, stage: fibSecond, a: ctx.Return().Get(0).(int64)})
		case fibInFirst:
			s, err := ctx.ResumeNext()
			if err != nil {
				return nil, err
			}
			if s != nil {
				return s.Push(f, st), nil
			}
			return run(ctx, fibState{n: st.n, stage: fibSecond, a: ctx.Return().Get(0).(int64)})
		case fibInSecond:
			s, err := ctx.ResumeNext()
			if err != nil {
				return nil, err
			}
			if s != nil {
				return s.Push(f, st), nil
			}
			ctx.Return().SetTo1(st.a + ctx.Return().Get(0).(int64))
			return nil, nil
		default:
			s, err := Call1(ctx, f, st.n-2)
			if err != nil {
				return nil, err
			}
			if s != nil {
				return s.Push(f, fibState{n: st.n, stage: fibInSecond, a: st.a}), nil
			}
			ctx.Return().SetTo1(st.a + ctx.Return().Get(0).(int64))
			return nil, nil
		}
	}
	f.body = func(ctx *Context, args []Value) (*Suspension, error) {
		n, _ := arg(args, 0).(int64)
		return run(ctx, fibState{n: n})
	}
	f.resume = func(ctx *Context, descriptor any) (*Suspension, error) {
		return run(ctx, descriptor.(fibState))
	}
	return f
}

func fibCalls(n int64) int64 {
	if n < 2 {
		return 1
	}
	return 1 + fibCalls(n-1) + fibCalls(n-2)
}

// newPauser pauses once and then returns "resumed" plus its argument.
func newPauser(resumes *int) *script {
	p := &script{name: "pauser"}
	p.body = func(ctx *Context, args []Value) (*Suspension, error) {
		return ctx.Pause(p, arg(args, 0)), nil
	}
	p.resume = func(ctx *Context, descriptor any) (*Suspension, error) {
		*resumes++
		ctx.Return().SetTo2("resumed", descriptor)
		return nil, nil
	}
	return p
}

// newAwaiter awaits a task and returns its first result doubled, or the
// task's error.
func newAwaiter(task Task) *script {
	w := &script{name: "awaiter"}
	w.body = func(ctx *Context, _ []Value) (*Suspension, error) {
		return ctx.Await(w, nil, task), nil
	}
	w.resume = func(ctx *Context, _ any) (*Suspension, error) {
		if err := ctx.TaskErr(); err != nil {
			return nil, err
		}
		n, _ := ctx.Return().Get(0).(int64)
		ctx.Return().SetTo1(n * 2)
		return nil, nil
	}
	return w
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func budget(n int64) *int64 { return &n }

func newTestExecutor(cfg ExecutorConfig) *Executor {
	rt := NewRuntime()
	OpenCoroutineLib(rt)
	return NewExecutor(rt, cfg)
}

// drive runs a call to completion with Call/Resume, returning the results,
// the number of slices and the total work.
func drive(t *testing.T, x *Executor, target Value, args ...Value) ([]Value, int, int64) {
	t.Helper()
	ctx := context.Background()
	h := x.Call(ctx, target, args...)
	slices, work := 1, h.Work()
	for !h.Done() {
		if h.State() != Paused && h.State() != AwaitingTask {
			t.Fatalf("unexpected state %s", h.State())
		}
		h = x.Resume(ctx, h.Continuation())
		slices++
		work += h.Work()
		if slices > 1_000_000 {
			t.Fatal("call did not finish")
		}
	}
	if h.State() == Failed {
		t.Fatalf("call failed: %v", h.Err())
	}
	return h.Values(), slices, work
}

func wantErrIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("error = %v, want %v", err, target)
	}
}
