package vm

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// genState is the resume descriptor of newGenerator's frames.
type genState struct {
	i       int64
	yielded bool // paused in yield rather than on the budget
}

// newGenerator yields 1..n, one unit of work per value, and returns "done".
// Values passed to the resumes that continue a yield are appended to sent.
func newGenerator(n int64, sent *[]Value) *script {
	g := &script{name: "gen"}
	var loop func(ctx *Context, i int64) (*Suspension, error)
	loop = func(ctx *Context, i int64) (*Suspension, error) {
		for ; i <= n; i++ {
			if ctx.Work(1) {
				return ctx.Exhausted(g, genState{i: i}), nil
			}
			s, err := Call1(ctx, CoroutineYield, i)
			if err != nil {
				return nil, err
			}
			if s != nil {
				return s.Push(g, genState{i: i, yielded: true}), nil
			}
		}
		ctx.Return().SetTo1("done")
		return nil, nil
	}
	g.body = func(ctx *Context, _ []Value) (*Suspension, error) {
		return loop(ctx, 1)
	}
	g.resume = func(ctx *Context, descriptor any) (*Suspension, error) {
		st := descriptor.(genState)
		if !st.yielded {
			return loop(ctx, st.i)
		}
		s, err := ctx.ResumeNext()
		if err != nil {
			return nil, err
		}
		if s != nil {
			return s.Push(g, st), nil
		}
		if sent != nil {
			*sent = append(*sent, ctx.Return().Values()...)
		}
		return loop(ctx, st.i+1)
	}
	return g
}

// collectState is the resume descriptor of newCollector's frame.
type collectState struct {
	co  *Coroutine
	acc []Value
}

// newCollector runs body as a coroutine through coroutine.resume and
// returns everything it yielded followed by what it returned.
func newCollector(body Value) *script {
	c := &script{name: "collect"}
	absorb := func(ctx *Context, st *collectState) (bool, error) {
		b := ctx.Return()
		if b.Get(0) != true {
			return true, fmt.Errorf("collect: %v", b.Get(1))
		}
		for i := 1; i < b.Size(); i++ {
			st.acc = append(st.acc, b.Get(i))
		}
		if st.co.Status() == CoroutineDead {
			ctx.Return().SetTo(st.acc...)
			return true, nil
		}
		return false, nil
	}
	run := func(ctx *Context, st *collectState) (*Suspension, error) {
		for {
			s, err := Call1(ctx, CoroutineResume, st.co)
			if err != nil {
				return nil, err
			}
			if s != nil {
				return s.Push(c, st), nil
			}
			if done, err := absorb(ctx, st); done || err != nil {
				return nil, err
			}
		}
	}
	c.body = func(ctx *Context, _ []Value) (*Suspension, error) {
		return run(ctx, &collectState{co: NewCoroutine(body)})
	}
	c.resume = func(ctx *Context, descriptor any) (*Suspension, error) {
		st := descriptor.(*collectState)
		s, err := ctx.ResumeNext()
		if err != nil {
			return nil, err
		}
		if s != nil {
			return s.Push(c, st), nil
		}
		if done, err := absorb(ctx, st); done || err != nil {
			return nil, err
		}
		return run(ctx, st)
	}
	return c
}

// ---------------------------------------------------------------------------
// Direct use
// ---------------------------------------------------------------------------

func TestCoroutine_YieldAndResume(t *testing.T) {
	ctx := NewContext(NewRuntime(), nil)
	var sent []Value
	co := NewCoroutine(newGenerator(3, &sent))
	if co.Status() != CoroutineSuspended {
		t.Fatalf("new coroutine status = %s", co.Status())
	}

	for i, arg := range []Value{nil, "a", "b"} {
		var err error
		if arg == nil {
			_, err = co.Resume(ctx)
		} else {
			_, err = co.Resume(ctx, arg)
		}
		if err != nil {
			t.Fatal(err)
		}
		if got := ctx.Return().Get(0); got != int64(i+1) {
			t.Errorf("yield %d = %v", i, got)
		}
		if co.Status() != CoroutineSuspended {
			t.Errorf("status after yield = %s", co.Status())
		}
	}

	if _, err := co.Resume(ctx, "c"); err != nil {
		t.Fatal(err)
	}
	if ctx.Return().Get(0) != "done" {
		t.Errorf("return value = %v", ctx.Return().Get(0))
	}
	if co.Status() != CoroutineDead {
		t.Errorf("status after return = %s", co.Status())
	}
	if diff := cmp.Diff([]Value{"a", "b", "c"}, sent); diff != "" {
		t.Errorf("values sent in (-want +got):\n%s", diff)
	}

	_, err := co.Resume(ctx)
	wantErrIs(t, err, errDeadCoroutine)
}

// ---------------------------------------------------------------------------
// Library functions
// ---------------------------------------------------------------------------

func TestCoroutineLib_Resume(t *testing.T) {
	ctx := NewContext(NewRuntime(), nil)
	co := NewCoroutine(newGenerator(1, nil))

	want := [][]Value{
		{true, int64(1)},
		{true, "done"},
		{false, "cannot resume dead coroutine"},
	}
	for i, w := range want {
		if _, err := Call2(ctx, CoroutineResume, co, "x"); err != nil {
			t.Fatal(err)
		}
		if diff := cmp.Diff(w, ctx.Return().Values()); diff != "" {
			t.Errorf("resume %d (-want +got):\n%s", i, diff)
		}
	}

	_, err := Call1(ctx, CoroutineResume, "not a coroutine")
	if err == nil || Message(err) != "bad argument #1 to 'resume' (coroutine expected)" {
		t.Errorf("error = %v", err)
	}
}

func TestCoroutineLib_Wrap(t *testing.T) {
	ctx := NewContext(NewRuntime(), nil)
	if _, err := Call1(ctx, CoroutineWrap, newGenerator(2, nil)); err != nil {
		t.Fatal(err)
	}
	w := ctx.Return().Get(0)
	if TypeName(w) != "function" {
		t.Fatalf("wrap returned a %s", TypeName(w))
	}

	for _, want := range []Value{int64(1), int64(2), "done"} {
		if _, err := Call0(ctx, w); err != nil {
			t.Fatal(err)
		}
		if got := ctx.Return().Get(0); got != want {
			t.Errorf("wrapped call = %v, want %v", got, want)
		}
	}
	_, err := Call0(ctx, w)
	wantErrIs(t, err, errDeadCoroutine)
}

func TestCoroutineLib_BodyError(t *testing.T) {
	ctx := NewContext(NewRuntime(), nil)
	co := NewCoroutine(NewFunction0("bad", func(*Context) (*Suspension, error) {
		return nil, errors.New("oops")
	}))
	if _, err := Call1(ctx, CoroutineResume, co); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Value{false, "oops"}, ctx.Return().Values()); diff != "" {
		t.Errorf("resume (-want +got):\n%s", diff)
	}
	if co.Status() != CoroutineDead {
		t.Errorf("status = %s", co.Status())
	}
}

func TestCoroutineLib_Status(t *testing.T) {
	ctx := NewContext(NewRuntime(), nil)

	var outer *Coroutine
	inner := NewCoroutine(NewFunction0("inner", func(ctx *Context) (*Suspension, error) {
		return Call1(ctx, CoroutineStatusOf, outer)
	}))
	outer = NewCoroutine(NewFunction0("outer", func(ctx *Context) (*Suspension, error) {
		if _, err := Call1(ctx, CoroutineStatusOf, ctx.Coroutine()); err != nil {
			return nil, err
		}
		self := ctx.Return().Get(0)
		if _, err := Call1(ctx, CoroutineResume, inner); err != nil {
			return nil, err
		}
		ctx.Return().SetTo2(self, ctx.Return().Get(1))
		return nil, nil
	}))

	if _, err := Call1(ctx, CoroutineResume, outer); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Value{true, "running", "normal"}, ctx.Return().Values()); diff != "" {
		t.Errorf("statuses (-want +got):\n%s", diff)
	}
	if _, err := Call1(ctx, CoroutineStatusOf, outer); err != nil {
		t.Fatal(err)
	}
	if ctx.Return().Get(0) != "dead" {
		t.Errorf("finished coroutine status = %v", ctx.Return().Get(0))
	}
}

func TestCoroutineLib_ResumeRunning(t *testing.T) {
	ctx := NewContext(NewRuntime(), nil)
	co := NewCoroutine(NewFunction0("self", func(ctx *Context) (*Suspension, error) {
		return Call1(ctx, CoroutineResume, ctx.Coroutine())
	}))
	if _, err := Call1(ctx, CoroutineResume, co); err != nil {
		t.Fatal(err)
	}
	want := []Value{true, false, "cannot resume non-suspended coroutine"}
	if diff := cmp.Diff(want, ctx.Return().Values()); diff != "" {
		t.Errorf("resume (-want +got):\n%s", diff)
	}
}

func TestCoroutineLib_CreateRequiresFunction(t *testing.T) {
	ctx := NewContext(NewRuntime(), nil)
	_, err := Call1(ctx, CoroutineCreate, int64(1))
	if err == nil || Message(err) != "bad argument #1 to 'create' (function expected)" {
		t.Errorf("error = %v", err)
	}
	if _, err := Call1(ctx, CoroutineCreate, newGenerator(1, nil)); err != nil {
		t.Fatal(err)
	}
	if TypeName(ctx.Return().Get(0)) != "thread" {
		t.Errorf("create returned a %s", TypeName(ctx.Return().Get(0)))
	}
}

func TestOpenCoroutineLib(t *testing.T) {
	rt := NewRuntime()
	OpenCoroutineLib(rt)
	lib, ok := rt.Global("coroutine").(*Table)
	if !ok {
		t.Fatal("coroutine table not installed")
	}
	for _, name := range []string{"create", "resume", "yield", "status", "wrap"} {
		if _, ok := lib.RawGetString(name).(Callable); !ok {
			t.Errorf("coroutine.%s is not callable", name)
		}
	}
}

// ---------------------------------------------------------------------------
// Suspensions crossing a coroutine
// ---------------------------------------------------------------------------

func TestCoroutine_BudgetSuspensionCrossesCoroutine(t *testing.T) {
	want := []Value{int64(1), int64(2), int64(3), int64(4), int64(5), "done"}
	for _, b := range []*int64{nil, budget(1), budget(2), budget(4)} {
		name := "unlimited"
		if b != nil {
			name = fmt.Sprint(*b)
		}
		t.Run(name, func(t *testing.T) {
			x := newTestExecutor(ExecutorConfig{CPUBudget: b})
			values, slices, work := drive(t, x, newCollector(newGenerator(5, nil)))
			if diff := cmp.Diff(want, values); diff != "" {
				t.Errorf("values (-want +got):\n%s", diff)
			}
			if work != 5 {
				t.Errorf("work = %d, want 5", work)
			}
			if b == nil && slices != 1 {
				t.Errorf("unlimited run took %d slices", slices)
			}
			if b != nil && slices < 2 {
				t.Errorf("budget %d finished in one slice", *b)
			}
		})
	}
}

func TestCoroutine_AwaitCrossesCoroutine(t *testing.T) {
	x := newTestExecutor(ExecutorConfig{})
	task := func(context.Context) ([]Value, error) { return []Value{int64(21)}, nil }
	values, err := x.Run(context.Background(), newCollector(newAwaiter(task)))
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]Value{int64(42)}, values); diff != "" {
		t.Errorf("values (-want +got):\n%s", diff)
	}
}

func TestCoroutineStatus_String(t *testing.T) {
	for status, want := range map[CoroutineStatus]string{
		CoroutineSuspended: "suspended",
		CoroutineRunning:   "running",
		CoroutineNormal:    "normal",
		CoroutineDead:      "dead",
	} {
		if status.String() != want {
			t.Errorf("String() = %q, want %q", status.String(), want)
		}
	}
}
