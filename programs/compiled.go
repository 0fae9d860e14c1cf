package programs

import (
	"fmt"

	"github.com/chazu/rebound/vm"
)

// compiled is the shape a code generator emits for one function: a body
// entered with the call's declared parameters and a resume hook that
// continues from a descriptor the body recorded when it suspended. Every
// program here declares at most two parameters; missing arguments arrive as
// nil and extra ones are dropped, so the fixed-arity entry points never
// build an argument slice.
type compiled struct {
	name   string
	body   func(ctx *vm.Context, a, b vm.Value) (*vm.Suspension, error)
	resume func(ctx *vm.Context, descriptor any) (*vm.Suspension, error)
}

func (f *compiled) Name() string { return f.name }

func (f *compiled) Invoke0(ctx *vm.Context) (*vm.Suspension, error) { return f.body(ctx, nil, nil) }

func (f *compiled) Invoke1(ctx *vm.Context, a vm.Value) (*vm.Suspension, error) {
	return f.body(ctx, a, nil)
}

func (f *compiled) Invoke2(ctx *vm.Context, a, b vm.Value) (*vm.Suspension, error) {
	return f.body(ctx, a, b)
}

func (f *compiled) Invoke3(ctx *vm.Context, a, b, _ vm.Value) (*vm.Suspension, error) {
	return f.body(ctx, a, b)
}

func (f *compiled) Invoke4(ctx *vm.Context, a, b, _, _ vm.Value) (*vm.Suspension, error) {
	return f.body(ctx, a, b)
}

func (f *compiled) Invoke5(ctx *vm.Context, a, b, _, _, _ vm.Value) (*vm.Suspension, error) {
	return f.body(ctx, a, b)
}

func (f *compiled) InvokeN(ctx *vm.Context, args []vm.Value) (*vm.Suspension, error) {
	return f.body(ctx, argAt(args, 0), argAt(args, 1))
}

func (f *compiled) Resume(ctx *vm.Context, descriptor any) (*vm.Suspension, error) {
	if f.resume == nil {
		return nil, vm.ErrNotResumable
	}
	return f.resume(ctx, descriptor)
}

// ---------------------------------------------------------------------------
// Argument checking
// ---------------------------------------------------------------------------

func argAt(args []vm.Value, i int) vm.Value {
	if i < len(args) {
		return args[i]
	}
	return nil
}

// intArg converts v, argument i of fn, to an integer, accepting floats and
// numeric strings with an exact integer value.
func intArg(v vm.Value, i int, fn string) (int64, error) {
	n, ok := vm.ToInteger(v)
	if !ok {
		if vm.IsNumber(v) {
			return 0, fmt.Errorf("bad argument #%d to '%s' (%w)", i+1, fn, vm.ErrNoIntegerRepresentation)
		}
		return 0, fmt.Errorf("bad argument #%d to '%s' (number expected, got %s)", i+1, fn, vm.TypeName(v))
	}
	return n, nil
}

// optIntArg is intArg with a default for a missing or nil argument.
func optIntArg(v vm.Value, i int, fn string, def int64) (int64, error) {
	if v == nil {
		return def, nil
	}
	return intArg(v, i, fn)
}
