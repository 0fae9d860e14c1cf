package vm

import (
	"context"
	"errors"
	"testing"
)

// withMeta returns a table whose metatable maps event to handler.
func withMeta(events map[string]Value) *Table {
	mt := NewTable()
	for e, h := range events {
		mt.RawSetString(e, h)
	}
	t := NewTable()
	t.SetMetatable(mt)
	return t
}

// recorder is a two-argument handler that records its operands and returns
// result.
func recorder(result Value, got *[]Value) *Function2 {
	return NewFunction2("handler", func(ctx *Context, a, b Value) (*Suspension, error) {
		*got = []Value{a, b}
		ctx.Return().SetTo2(result, "ignored")
		return nil, nil
	})
}

func wantMessage(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("no error, want %q", want)
	}
	if got := Message(err); got != want {
		t.Errorf("error = %q, want %q", got, want)
	}
}

// ---------------------------------------------------------------------------
// Arithmetic
// ---------------------------------------------------------------------------

func TestArith_Raw(t *testing.T) {
	ctx := NewContext(NewRuntime(), nil)
	v, s, err := Add(ctx, int64(1), int64(2))
	if err != nil || s != nil || v != int64(3) {
		t.Errorf("1+2 = (%v, %v, %v)", v, s, err)
	}
	v, _, _ = Unm(ctx, 2.5)
	if v != -2.5 {
		t.Errorf("-2.5 = %v", v)
	}
}

func TestArith_Metamethod(t *testing.T) {
	ctx := NewContext(NewRuntime(), nil)
	var got []Value
	tbl := withMeta(map[string]Value{EventAdd: recorder("sum", &got)})

	v, s, err := Add(ctx, int64(1), tbl)
	if err != nil || s != nil {
		t.Fatalf("Add: %v %v", s, err)
	}
	if v != "sum" {
		t.Errorf("result = %v, want sum", v)
	}
	if got[0] != int64(1) || got[1] != tbl {
		t.Errorf("handler saw %v, want operands in order", got)
	}
	if ctx.Return().Size() != 1 {
		t.Errorf("buffer holds %d values, want 1", ctx.Return().Size())
	}
}

func TestArith_UnaryMetamethod(t *testing.T) {
	ctx := NewContext(NewRuntime(), nil)
	var got []Value
	tbl := withMeta(map[string]Value{EventUnm: recorder("neg", &got)})
	v, _, err := Unm(ctx, tbl)
	if err != nil || v != "neg" {
		t.Fatalf("-t = (%v, %v)", v, err)
	}
	if got[0] != tbl || got[1] != tbl {
		t.Errorf("__unm saw %v, want the operand twice", got)
	}
}

func TestArith_Errors(t *testing.T) {
	ctx := NewContext(NewRuntime(), nil)
	tests := []struct {
		name string
		op   Op
		a, b Value
		want string
	}{
		{"table right", OpAdd, int64(1), NewTable(), "attempt to perform arithmetic on a table value"},
		{"nil left", OpMul, nil, int64(1), "attempt to perform arithmetic on a nil value"},
		{"bad string", OpSub, "abc", int64(1), "attempt to perform arithmetic on a string value"},
		{"numeric string left", OpSub, "10", true, "attempt to perform arithmetic on a boolean value"},
		{"bitwise", OpBand, NewTable(), int64(1), "attempt to perform bitwise operation on a table value"},
		{"bitwise float", OpBor, 1.5, int64(1), "number has no integer representation"},
		{"integer division", OpIDiv, int64(1), int64(0), "attempt to perform 'n//0'"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := Arith(ctx, tt.op, tt.a, tt.b)
			wantMessage(t, err, tt.want)
		})
	}
}

func TestArith_NonCallableHandler(t *testing.T) {
	ctx := NewContext(NewRuntime(), nil)
	tbl := withMeta(map[string]Value{EventAdd: "not a function"})
	_, _, err := Add(ctx, tbl, int64(1))
	wantMessage(t, err, "attempt to call a string value")
}

// ---------------------------------------------------------------------------
// Concat and length
// ---------------------------------------------------------------------------

func TestConcat(t *testing.T) {
	ctx := NewContext(NewRuntime(), nil)
	v, _, err := Concat(ctx, int64(1), 2.0)
	if err != nil || v != "12.0" {
		t.Errorf("1 .. 2.0 = (%v, %v), want 12.0", v, err)
	}
	v, _, _ = Concat(ctx, "a", "b")
	if v != "ab" {
		t.Errorf("a .. b = %v", v)
	}

	_, _, err = Concat(ctx, "a", NewTable())
	wantMessage(t, err, "attempt to concatenate a table value")
	_, _, err = Concat(ctx, nil, "a")
	wantMessage(t, err, "attempt to concatenate a nil value")

	var got []Value
	tbl := withMeta(map[string]Value{EventConcat: recorder("joined", &got)})
	v, _, err = Concat(ctx, "x", tbl)
	if err != nil || v != "joined" {
		t.Errorf("x .. t = (%v, %v)", v, err)
	}
}

func TestLen(t *testing.T) {
	ctx := NewContext(NewRuntime(), nil)
	v, _, _ := Len(ctx, "héllo")
	if v != int64(6) {
		t.Errorf("#héllo = %v, want byte length 6", v)
	}
	v, _, _ = Len(ctx, NewTableFrom(int64(1), int64(2), int64(3)))
	if v != int64(3) {
		t.Errorf("#{1,2,3} = %v", v)
	}

	var got []Value
	tbl := withMeta(map[string]Value{EventLen: recorder(int64(42), &got)})
	v, _, _ = Len(ctx, tbl)
	if v != int64(42) {
		t.Errorf("__len result = %v", v)
	}

	_, _, err := Len(ctx, int64(5))
	wantMessage(t, err, "attempt to get length of a number value")
}

// ---------------------------------------------------------------------------
// Comparison
// ---------------------------------------------------------------------------

func TestEqual(t *testing.T) {
	ctx := NewContext(NewRuntime(), nil)
	var calls []Value
	eq := recorder(int64(1), &calls)
	a := withMeta(map[string]Value{EventEq: eq})
	b := withMeta(map[string]Value{EventEq: eq})

	r, _, err := Equal(ctx, a, b)
	if err != nil || !r {
		t.Errorf("a == b = (%v, %v), want true via __eq", r, err)
	}
	if v := ctx.Return().Get(0); v != true {
		t.Errorf("buffer holds %v, want the converted boolean", v)
	}

	calls = nil
	r, _, _ = Equal(ctx, a, NewUserdata(1, a.Metatable()))
	if r || calls != nil {
		t.Error("__eq consulted for a table and a userdata")
	}
	r, _, _ = Equal(ctx, a, "a")
	if r || calls != nil {
		t.Error("__eq consulted for a table and a string")
	}
	r, _, _ = Equal(ctx, int64(3), 3.0)
	if !r {
		t.Error("3 == 3.0 is false")
	}
	r, _, _ = Equal(ctx, NewTable(), NewTable())
	if r {
		t.Error("distinct tables without __eq are equal")
	}
}

func TestLessThan(t *testing.T) {
	ctx := NewContext(NewRuntime(), nil)
	r, _, err := LessThan(ctx, "a", "b")
	if err != nil || !r {
		t.Errorf("a < b = (%v, %v)", r, err)
	}

	_, _, err = LessThan(ctx, int64(1), "2")
	wantMessage(t, err, "attempt to compare number with string")
	_, _, err = LessThan(ctx, NewTable(), NewTable())
	wantMessage(t, err, "attempt to compare two table values")

	var got []Value
	tbl := withMeta(map[string]Value{EventLt: recorder("truthy", &got)})
	r, _, err = LessThan(ctx, int64(1), tbl)
	if err != nil || !r {
		t.Errorf("1 < t = (%v, %v), want true", r, err)
	}
}

func TestLessEqual_FallsBackToLessThan(t *testing.T) {
	ctx := NewContext(NewRuntime(), nil)
	var got []Value
	tbl := withMeta(map[string]Value{EventLt: recorder(false, &got)})

	r, _, err := LessEqual(ctx, tbl, int64(5))
	if err != nil {
		t.Fatal(err)
	}
	if !r {
		t.Error("t <= 5 = false, want not (5 < t)")
	}
	if got[0] != int64(5) || got[1] != tbl {
		t.Errorf("__lt saw %v, want swapped operands", got)
	}

	le := withMeta(map[string]Value{
		EventLe: recorder(nil, &got),
		EventLt: recorder(false, &got),
	})
	r, _, _ = LessEqual(ctx, le, int64(5))
	if r {
		t.Error("__le result nil converted to true")
	}

	_, _, err = LessEqual(ctx, true, false)
	wantMessage(t, err, "attempt to compare two boolean values")
}

// ---------------------------------------------------------------------------
// Suspending metamethods
// ---------------------------------------------------------------------------

// opCaller runs op and returns its result, resuming through the operator
// frame when the metamethod suspends.
func opCaller(op func(ctx *Context) (Value, *Suspension, error)) *script {
	s := &script{name: "opCaller"}
	s.body = func(ctx *Context, _ []Value) (*Suspension, error) {
		v, susp, err := op(ctx)
		if err != nil {
			return nil, err
		}
		if susp != nil {
			return susp.Push(s, nil), nil
		}
		ctx.Return().SetTo1(v)
		return nil, nil
	}
	s.resume = func(ctx *Context, _ any) (*Suspension, error) {
		susp, err := ctx.ResumeNext()
		if err != nil || susp != nil {
			return susp, err
		}
		ctx.Return().SetTo1(ctx.Return().Get(0))
		return nil, nil
	}
	return s
}

// pausingHandler pauses, then returns result.
func pausingHandler(result Value) *script {
	h := &script{name: "pausingHandler"}
	h.body = func(ctx *Context, _ []Value) (*Suspension, error) {
		return ctx.Pause(h, nil), nil
	}
	h.resume = func(ctx *Context, _ any) (*Suspension, error) {
		ctx.Return().SetTo2(result, "extra")
		return nil, nil
	}
	return h
}

func TestOperators_SuspendingMetamethod(t *testing.T) {
	tests := []struct {
		name string
		meta map[string]Value
		op   func(tbl *Table) func(ctx *Context) (Value, *Suspension, error)
		want Value
	}{
		{
			name: "add",
			meta: map[string]Value{EventAdd: pausingHandler(int64(99))},
			op: func(tbl *Table) func(ctx *Context) (Value, *Suspension, error) {
				return func(ctx *Context) (Value, *Suspension, error) { return Add(ctx, tbl, int64(1)) }
			},
			want: int64(99),
		},
		{
			name: "le via lt",
			meta: map[string]Value{EventLt: pausingHandler(false)},
			op: func(tbl *Table) func(ctx *Context) (Value, *Suspension, error) {
				return func(ctx *Context) (Value, *Suspension, error) {
					r, s, err := LessEqual(ctx, tbl, int64(1))
					return r, s, err
				}
			},
			want: true,
		},
		{
			name: "eq",
			meta: map[string]Value{EventEq: pausingHandler("yes")},
			op: func(tbl *Table) func(ctx *Context) (Value, *Suspension, error) {
				return func(ctx *Context) (Value, *Suspension, error) {
					r, s, err := Equal(ctx, tbl, NewTable())
					return r, s, err
				}
			},
			want: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x := newTestExecutor(ExecutorConfig{})
			tbl := withMeta(tt.meta)
			h := x.Call(context.Background(), opCaller(tt.op(tbl)))
			if h.State() != Paused {
				t.Fatalf("state = %s, want paused", h.State())
			}
			h = x.Resume(context.Background(), h.Continuation())
			if h.State() != Returned {
				t.Fatalf("state = %s (%v), want returned", h.State(), h.Err())
			}
			if vs := h.Values(); len(vs) != 1 || vs[0] != tt.want {
				t.Errorf("values = %v, want [%v]", vs, tt.want)
			}
		})
	}
}

func TestIllegalOperationAttempt_As(t *testing.T) {
	ctx := NewContext(NewRuntime(), nil)
	_, _, err := Add(ctx, NewTable(), int64(1))
	var ia *IllegalOperationAttempt
	if !errors.As(err, &ia) {
		t.Fatalf("error %T is not an IllegalOperationAttempt", err)
	}
	if ia.TypeName != "table" {
		t.Errorf("TypeName = %q", ia.TypeName)
	}
}
