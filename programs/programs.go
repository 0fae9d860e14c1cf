// Package programs holds hand-compiled functions in the form the code
// generator emits: resumable callables with private resume descriptors and
// call-site tables. The CLI, the server and tests run them by name.
package programs

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/chazu/rebound/vm"
)

// Source is the file name the programs' call sites report.
const Source = "programs.rb"

const (
	siteCount = iota
	siteSum
	siteFib
	siteFibFirst
	siteFibSecond
	siteDelay
	siteRangeYield
	siteCollect
	siteCollectResume
	siteDivide
)

var sites = vm.SiteTable{
	siteCount:         {File: Source, Line: 2, Function: "count"},
	siteSum:           {File: Source, Line: 8, Function: "sum"},
	siteFib:           {File: Source, Line: 16, Function: "fib"},
	siteFibFirst:      {File: Source, Line: 18, Function: "fib"},
	siteFibSecond:     {File: Source, Line: 18, Function: "fib"},
	siteDelay:         {File: Source, Line: 22, Function: "delay"},
	siteRangeYield:    {File: Source, Line: 31, Function: "range"},
	siteCollect:       {File: Source, Line: 36, Function: "collect"},
	siteCollectResume: {File: Source, Line: 39, Function: "collect"},
	siteDivide:        {File: Source, Line: 46, Function: "checked_div"},
}

// ---------------------------------------------------------------------------
// Registry
// ---------------------------------------------------------------------------

// Program is a named entry point.
type Program struct {
	Name     string
	Usage    string
	Callable vm.Callable
}

// All returns the programs sorted by name. Every call builds fresh
// callables.
func All() []Program {
	rangeFn := Range()
	progs := []Program{
		{"count", "count(n [, acc]): tail-recursive countdown, returns acc+n", Count()},
		{"sum", "sum(n): loop summing 1..n", Sum()},
		{"fib", "fib(n): doubly recursive Fibonacci", Fib()},
		{"delay", "delay(ms, v): awaits a timer task, returns v", Delay()},
		{"pause", "pause(v): pauses once, returns v", Pause()},
		{"range", "range(n): coroutine body yielding 1..n", rangeFn},
		{"collect", "collect(n): drains range(n) through a coroutine, returns count and sum", Collect(rangeFn)},
		{"checked_div", "checked_div(a, b): floor division honoring __idiv", CheckedDiv()},
		{"add", "add(a, b): Go adapter over the + operator", Add},
		{"echo", "echo(...): returns its arguments", Echo},
	}
	sort.Slice(progs, func(i, j int) bool { return progs[i].Name < progs[j].Name })
	return progs
}

// Install binds every program as a global of rt and opens the coroutine
// library.
func Install(rt *vm.Runtime) {
	vm.OpenCoroutineLib(rt)
	for _, p := range All() {
		rt.SetGlobal(p.Name, p.Callable)
	}
}

// Lookup returns the global function called name.
func Lookup(rt *vm.Runtime, name string) (vm.Callable, error) {
	fn, ok := rt.Global(name).(vm.Callable)
	if !ok {
		return nil, fmt.Errorf("no function named %q", name)
	}
	return fn, nil
}

// ---------------------------------------------------------------------------
// count: self tail call, one unit of work per step
// ---------------------------------------------------------------------------

type countState struct {
	n, acc int64
}

// Count builds count(n, acc), which tail-calls itself n times.
func Count() vm.Callable {
	f := &compiled{name: "count"}
	f.body = func(ctx *vm.Context, a, b vm.Value) (*vm.Suspension, error) {
		n, err := intArg(a, 0, "count")
		if err != nil {
			return nil, sites.At(err, siteCount)
		}
		acc, err := optIntArg(b, 1, "count", 0)
		if err != nil {
			return nil, sites.At(err, siteCount)
		}
		return countStep(ctx, f, countState{n, acc})
	}
	f.resume = func(ctx *vm.Context, descriptor any) (*vm.Suspension, error) {
		return countStep(ctx, f, descriptor.(countState))
	}
	return f
}

func countStep(ctx *vm.Context, f vm.Callable, st countState) (*vm.Suspension, error) {
	if ctx.Work(1) {
		return ctx.Exhausted(f, st), nil
	}
	if st.n <= 0 {
		ctx.Return().SetTo1(st.acc)
		return nil, nil
	}
	ctx.Return().TailCall2(f, st.n-1, st.acc+1)
	return nil, nil
}

// ---------------------------------------------------------------------------
// sum: a loop that suspends between iterations
// ---------------------------------------------------------------------------

type sumState struct {
	i, n, acc int64
}

// Sum builds sum(n), adding 1..n one unit of work per iteration.
func Sum() vm.Callable {
	f := &compiled{name: "sum"}
	run := func(ctx *vm.Context, st sumState) (*vm.Suspension, error) {
		for ; st.i <= st.n; st.i++ {
			if ctx.Work(1) {
				return ctx.Exhausted(f, st), nil
			}
			st.acc += st.i
		}
		ctx.Return().SetTo1(st.acc)
		return nil, nil
	}
	f.body = func(ctx *vm.Context, a, b vm.Value) (*vm.Suspension, error) {
		n, err := intArg(a, 0, "sum")
		if err != nil {
			return nil, sites.At(err, siteSum)
		}
		return run(ctx, sumState{i: 1, n: n})
	}
	f.resume = func(ctx *vm.Context, descriptor any) (*vm.Suspension, error) {
		return run(ctx, descriptor.(sumState))
	}
	return f
}

// ---------------------------------------------------------------------------
// fib: non-tail recursion, resumable inside either nested call
// ---------------------------------------------------------------------------

type fibStage int

const (
	fibEnter    fibStage = iota
	fibInFirst           // suspended inside fib(n-1)
	fibSecond            // fib(n-1) known
	fibInSecond          // suspended inside fib(n-2)
)

type fibState struct {
	n     int64
	stage fibStage
	first int64
}

// Fib builds fib(n), one unit of work per invocation.
func Fib() vm.Callable {
	f := &compiled{name: "fib"}
	var run func(ctx *vm.Context, st fibState) (*vm.Suspension, error)
	run = func(ctx *vm.Context, st fibState) (*vm.Suspension, error) {
		var (
			s   *vm.Suspension
			err error
		)
		switch st.stage {
		case fibEnter:
			if ctx.Work(1) {
				return ctx.Exhausted(f, st), nil
			}
			if st.n < 2 {
				ctx.Return().SetTo1(st.n)
				return nil, nil
			}
			s, err = vm.Call1(ctx, f, st.n-1)
			if err != nil {
				return nil, sites.At(err, siteFibFirst)
			}
			if s != nil {
				return s.Push(f, fibState{n: st.n, stage: fibInFirst}), nil
			}
			return run(ctx, fibState{n: st.n, stage: fibSecond, first: ctx.Return().Get(0).(int64)})

		case fibInFirst:
			s, err = ctx.ResumeNext()
			if err != nil {
				return nil, sites.At(err, siteFibFirst)
			}
			if s != nil {
				return s.Push(f, st), nil
			}
			return run(ctx, fibState{n: st.n, stage: fibSecond, first: ctx.Return().Get(0).(int64)})

		case fibSecond:
			s, err = vm.Call1(ctx, f, st.n-2)
			if err != nil {
				return nil, sites.At(err, siteFibSecond)
			}
			if s != nil {
				return s.Push(f, fibState{n: st.n, stage: fibInSecond, first: st.first}), nil
			}

		case fibInSecond:
			s, err = ctx.ResumeNext()
			if err != nil {
				return nil, sites.At(err, siteFibSecond)
			}
			if s != nil {
				return s.Push(f, st), nil
			}
		}
		ctx.Return().SetTo1(st.first + ctx.Return().Get(0).(int64))
		return nil, nil
	}
	f.body = func(ctx *vm.Context, a, b vm.Value) (*vm.Suspension, error) {
		n, err := intArg(a, 0, "fib")
		if err != nil {
			return nil, sites.At(err, siteFib)
		}
		return run(ctx, fibState{n: n})
	}
	f.resume = func(ctx *vm.Context, descriptor any) (*vm.Suspension, error) {
		return run(ctx, descriptor.(fibState))
	}
	return f
}

// ---------------------------------------------------------------------------
// delay and pause: suspensions the driver resolves
// ---------------------------------------------------------------------------

// Sleep returns a task that waits for d or until its context is done.
func Sleep(d time.Duration) vm.Task {
	return func(ctx context.Context) ([]vm.Value, error) {
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return nil, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Delay builds delay(ms, v), which awaits a timer task and returns v.
func Delay() vm.Callable {
	f := &compiled{name: "delay"}
	f.body = func(ctx *vm.Context, a, b vm.Value) (*vm.Suspension, error) {
		ms, err := intArg(a, 0, "delay")
		if err != nil {
			return nil, sites.At(err, siteDelay)
		}
		if ms < 0 {
			return nil, sites.At(fmt.Errorf("bad argument #1 to 'delay' (negative duration)"), siteDelay)
		}
		return ctx.Await(f, b, Sleep(time.Duration(ms)*time.Millisecond)), nil
	}
	f.resume = func(ctx *vm.Context, descriptor any) (*vm.Suspension, error) {
		if err := ctx.TaskErr(); err != nil {
			return nil, sites.At(err, siteDelay)
		}
		ctx.Return().SetTo1(descriptor)
		return nil, nil
	}
	return f
}

// Pause builds pause(v), which pauses once and then returns v.
func Pause() vm.Callable {
	f := &compiled{name: "pause"}
	f.body = func(ctx *vm.Context, a, b vm.Value) (*vm.Suspension, error) {
		return ctx.Pause(f, a), nil
	}
	f.resume = func(ctx *vm.Context, descriptor any) (*vm.Suspension, error) {
		ctx.Return().SetTo1(descriptor)
		return nil, nil
	}
	return f
}

// ---------------------------------------------------------------------------
// range and collect: a generator drained through the coroutine library
// ---------------------------------------------------------------------------

type rangeState struct {
	i, n    int64
	inYield bool
}

// Range builds range(n), a coroutine body that yields 1..n, one unit of
// work per value.
func Range() vm.Callable {
	f := &compiled{name: "range"}
	run := func(ctx *vm.Context, st rangeState) (*vm.Suspension, error) {
		for ; st.i <= st.n; st.i++ {
			if ctx.Work(1) {
				return ctx.Exhausted(f, st), nil
			}
			s, err := vm.Call1(ctx, vm.CoroutineYield, st.i)
			if err != nil {
				return nil, sites.At(err, siteRangeYield)
			}
			if s != nil {
				return s.Push(f, rangeState{i: st.i, n: st.n, inYield: true}), nil
			}
		}
		ctx.Return().Reset()
		return nil, nil
	}
	f.body = func(ctx *vm.Context, a, b vm.Value) (*vm.Suspension, error) {
		n, err := intArg(a, 0, "range")
		if err != nil {
			return nil, sites.At(err, siteRangeYield)
		}
		return run(ctx, rangeState{i: 1, n: n})
	}
	f.resume = func(ctx *vm.Context, descriptor any) (*vm.Suspension, error) {
		st := descriptor.(rangeState)
		if st.inYield {
			s, err := ctx.ResumeNext()
			if err != nil {
				return nil, sites.At(err, siteRangeYield)
			}
			if s != nil {
				return s.Push(f, st), nil
			}
			st.inYield = false
			st.i++
		}
		return run(ctx, st)
	}
	return f
}

type collectState struct {
	co         *vm.Coroutine
	n          int64
	count, sum int64
}

// Collect builds collect(n), which resumes a coroutine over gen(n) until it
// dies and returns how many values it yielded and their sum.
func Collect(gen vm.Callable) vm.Callable {
	f := &compiled{name: "collect"}
	run := func(ctx *vm.Context, st collectState) (*vm.Suspension, error) {
		for {
			s, err := vm.Call2(ctx, vm.CoroutineResume, st.co, st.n)
			if err != nil {
				return nil, sites.At(err, siteCollectResume)
			}
			if s != nil {
				return s.Push(f, st), nil
			}
			if done, err := absorb(ctx, &st); done || err != nil {
				return nil, err
			}
		}
	}
	f.body = func(ctx *vm.Context, a, b vm.Value) (*vm.Suspension, error) {
		n, err := intArg(a, 0, "collect")
		if err != nil {
			return nil, sites.At(err, siteCollect)
		}
		return run(ctx, collectState{co: vm.NewCoroutine(gen), n: n})
	}
	f.resume = func(ctx *vm.Context, descriptor any) (*vm.Suspension, error) {
		st := descriptor.(collectState)
		s, err := ctx.ResumeNext()
		if err != nil {
			return nil, sites.At(err, siteCollectResume)
		}
		if s != nil {
			return s.Push(f, st), nil
		}
		if done, err := absorb(ctx, &st); done || err != nil {
			return nil, err
		}
		return run(ctx, st)
	}
	return f
}

// absorb takes the results of one coroutine.resume call. It reports done
// once the coroutine has died, leaving count and sum in the buffer.
func absorb(ctx *vm.Context, st *collectState) (bool, error) {
	ret := ctx.Return()
	if ok, _ := ret.Get(0).(bool); !ok {
		msg, _ := ret.Get(1).(string)
		return true, sites.At(errors.New(msg), siteCollectResume)
	}
	if st.co.Status() == vm.CoroutineDead {
		ret.SetTo2(st.count, st.sum)
		return true, nil
	}
	v, _ := vm.ToInteger(ret.Get(1))
	st.count++
	st.sum += v
	return false, nil
}

// ---------------------------------------------------------------------------
// checked_div: an operator whose metamethod may suspend
// ---------------------------------------------------------------------------

// CheckedDiv builds checked_div(a, b) = a // b.
func CheckedDiv() vm.Callable {
	f := &compiled{name: "checked_div"}
	f.body = func(ctx *vm.Context, a, b vm.Value) (*vm.Suspension, error) {
		v, s, err := vm.IDiv(ctx, a, b)
		if err != nil {
			return nil, sites.At(err, siteDivide)
		}
		if s != nil {
			return s.Push(f, nil), nil
		}
		ctx.Return().SetTo1(v)
		return nil, nil
	}
	f.resume = func(ctx *vm.Context, _ any) (*vm.Suspension, error) {
		s, err := ctx.ResumeNext()
		if err != nil {
			return nil, sites.At(err, siteDivide)
		}
		if s != nil {
			return s.Push(f, nil), nil
		}
		// The operator frame left the single result in the buffer.
		return nil, nil
	}
	return f
}

// ---------------------------------------------------------------------------
// Go adapters
// ---------------------------------------------------------------------------

// Add is add(a, b), a plain Go function over the full + operator. A
// metamethod that suspends under it cannot be resumed.
var Add = vm.NewFunction2("add", func(ctx *vm.Context, a, b vm.Value) (*vm.Suspension, error) {
	v, s, err := vm.Add(ctx, a, b)
	if err != nil || s != nil {
		return s, err
	}
	ctx.Return().SetTo1(v)
	return nil, nil
})

// Echo is echo(...), returning its arguments unchanged.
var Echo = vm.NewFunctionN("echo", func(ctx *vm.Context, args []vm.Value) (*vm.Suspension, error) {
	ctx.Return().SetTo(args...)
	return nil, nil
})
