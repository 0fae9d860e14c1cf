package vm

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestTraceback_Format(t *testing.T) {
	tb := Traceback{
		{CallSite: CallSite{File: "main.lua", Line: 3, Function: "f"}},
		{TailCalls: 2},
		{CallSite: CallSite{File: GoSource, Function: "pcall"}},
		{CallSite: CallSite{File: "lib/std.lua", Line: 10, Function: "x"}},
		{CallSite: CallSite{File: "lib/std.lua", Line: 11, Function: "y"}},
		{CallSite: CallSite{File: "main.lua", Line: 20}},
	}

	want := "stack traceback:" +
		"\n\tmain.lua:3: in function 'f'" +
		"\n\t(...tail calls...)" +
		"\n\t[Go]: in function 'pcall'" +
		"\n\t(...2 hidden frames...)" +
		"\n\tmain.lua:20: in main chunk"
	if got := tb.Format([]string{"lib/"}); got != want {
		t.Errorf("Format(lib/) =\n%s\nwant\n%s", got, want)
	}

	full := tb.Format(nil)
	want = "stack traceback:" +
		"\n\tmain.lua:3: in function 'f'" +
		"\n\t(...tail calls...)" +
		"\n\t[Go]: in function 'pcall'" +
		"\n\tlib/std.lua:10: in function 'x'" +
		"\n\tlib/std.lua:11: in function 'y'" +
		"\n\tmain.lua:20: in main chunk"
	if full != want {
		t.Errorf("Format(nil) =\n%s\nwant\n%s", full, want)
	}
}

func TestTraceback_FormatSingleHiddenFrame(t *testing.T) {
	tb := Traceback{
		{CallSite: CallSite{File: "internal.lua", Line: 1, Function: "helper"}},
		{CallSite: CallSite{Function: "main"}},
	}
	want := "stack traceback:\n\t(...1 hidden frame...)\n\t?: in function 'main'"
	if got := tb.Format([]string{"internal"}); got != want {
		t.Errorf("Format =\n%s\nwant\n%s", got, want)
	}
}

func TestAt(t *testing.T) {
	if At(nil, CallSite{}) != nil {
		t.Error("At(nil) is not nil")
	}

	base := errors.New("base")
	err := At(base, CallSite{File: "a.lua", Line: 1})
	err = At(err, CallSite{File: "b.lua", Line: 2})

	var re *RuntimeError
	if !errors.As(err, &re) {
		t.Fatalf("At returned %T", err)
	}
	if len(re.Traceback) != 2 || re.Traceback[1].File != "b.lua" {
		t.Errorf("traceback = %v", re.Traceback)
	}
	if !errors.Is(err, base) {
		t.Error("annotated error does not wrap its cause")
	}
	if err.Error() != "base" {
		t.Errorf("Error() = %q", err.Error())
	}
}

func TestAt_WrappedRuntimeError(t *testing.T) {
	inner := At(errors.New("boom"), CallSite{File: "a.lua", Line: 1})
	err := At(fmt.Errorf("loading config: %w", inner), CallSite{File: "b.lua", Line: 2})

	if err.Error() != "loading config: boom" {
		t.Errorf("Error() = %q", err.Error())
	}
	re, ok := err.(*RuntimeError)
	if !ok {
		t.Fatalf("At returned %T", err)
	}
	if len(re.Traceback) != 2 || re.Traceback[0].File != "a.lua" || re.Traceback[1].File != "b.lua" {
		t.Errorf("traceback = %v", re.Traceback)
	}
	if n := len(inner.(*RuntimeError).Traceback); n != 1 {
		t.Errorf("inner traceback has %d entries, want it left alone", n)
	}
}

func TestWithTailCalls_Merges(t *testing.T) {
	err := withTailCalls(withTailCalls(errors.New("x"), 1), 2)
	re := asRuntimeError(err)
	if len(re.Traceback) != 1 || re.Traceback[0].TailCalls != 3 {
		t.Errorf("traceback = %v, want one marker of 3", re.Traceback)
	}
}

func TestSiteTable_At(t *testing.T) {
	sites := SiteTable{{File: "prog.lua", Line: 4, Function: "divide"}}
	re := asRuntimeError(sites.At(errors.New("x"), 0))
	if re.Traceback[0].Line != 4 {
		t.Errorf("site = %v", re.Traceback[0])
	}
	re = asRuntimeError(sites.At(errors.New("x"), 7))
	if re.Traceback[0].Function != "?" {
		t.Errorf("unknown site = %v", re.Traceback[0])
	}
}

func TestTraceback_CompiledFrames(t *testing.T) {
	sites := SiteTable{
		{File: "prog.lua", Line: 4, Function: "divide"},
		{File: "prog.lua", Line: 9},
	}
	divide := &script{name: "divide"}
	divide.body = func(ctx *Context, args []Value) (*Suspension, error) {
		v, _, err := IDiv(ctx, arg(args, 0), arg(args, 1))
		if err != nil {
			return nil, sites.At(err, 0)
		}
		ctx.Return().SetTo1(v)
		return nil, nil
	}
	main := &script{name: "main"}
	main.body = func(ctx *Context, _ []Value) (*Suspension, error) {
		if _, err := Call2(ctx, divide, int64(1), int64(0)); err != nil {
			return nil, sites.At(err, 1)
		}
		return nil, nil
	}

	x := newTestExecutor(ExecutorConfig{})
	_, err := x.Run(context.Background(), main)
	wantErrIs(t, err, ErrIntegerDivideByZero)

	want := "attempt to perform 'n//0'\nstack traceback:" +
		"\n\tprog.lua:4: in function 'divide'" +
		"\n\tprog.lua:9: in main chunk"
	if got := x.FormatError(err); got != want {
		t.Errorf("FormatError =\n%s\nwant\n%s", got, want)
	}
}
