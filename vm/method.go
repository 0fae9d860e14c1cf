package vm

// Go functions exposed to scripts.
//
// Each adapter wraps a Go function of one canonical arity and implements
// every entry point of Callable by padding missing trailing arguments with
// nil, truncating extra arguments, or (for FunctionN) packing them into a
// slice. Plain Go functions have no resume point: if one returns a
// suspension from a nested call, resuming that frame fails with
// ErrNotResumable.

// Func0 is a Go function taking no arguments.
type Func0 func(ctx *Context) (*Suspension, error)

// Func1 is a Go function taking one argument.
type Func1 func(ctx *Context, a Value) (*Suspension, error)

// Func2 is a Go function taking two arguments.
type Func2 func(ctx *Context, a, b Value) (*Suspension, error)

// Func3 is a Go function taking three arguments.
type Func3 func(ctx *Context, a, b, c Value) (*Suspension, error)

// Func4 is a Go function taking four arguments.
type Func4 func(ctx *Context, a, b, c, d Value) (*Suspension, error)

// Func5 is a Go function taking five arguments.
type Func5 func(ctx *Context, a, b, c, d, e Value) (*Suspension, error)

// FuncN is a Go function taking any number of arguments.
type FuncN func(ctx *Context, args []Value) (*Suspension, error)

// goFrame is the part shared by every adapter: naming, error annotation and
// suspension handling.
type goFrame struct {
	name string
}

func (f *goFrame) Name() string { return f.name }

func (f *goFrame) Resume(*Context, any) (*Suspension, error) {
	return nil, At(ErrNotResumable, CallSite{File: GoSource, Function: f.name})
}

func (f *goFrame) settle(self Callable, s *Suspension, err error) (*Suspension, error) {
	if err != nil {
		return nil, At(err, CallSite{File: GoSource, Function: f.name})
	}
	if s != nil {
		return s.Push(self, nil), nil
	}
	return nil, nil
}

// ---------------------------------------------------------------------------
// Function0
// ---------------------------------------------------------------------------

// Function0 adapts a Func0.
type Function0 struct {
	goFrame
	fn Func0
}

// NewFunction0 wraps fn under name.
func NewFunction0(name string, fn Func0) *Function0 {
	return &Function0{goFrame{name}, fn}
}

func (f *Function0) Arity() int { return 0 }

func (f *Function0) Invoke0(ctx *Context) (*Suspension, error) {
	s, err := f.fn(ctx)
	return f.settle(f, s, err)
}

func (f *Function0) Invoke1(ctx *Context, _ Value) (*Suspension, error) {
	return f.Invoke0(ctx)
}

func (f *Function0) Invoke2(ctx *Context, _, _ Value) (*Suspension, error) {
	return f.Invoke0(ctx)
}

func (f *Function0) Invoke3(ctx *Context, _, _, _ Value) (*Suspension, error) {
	return f.Invoke0(ctx)
}

func (f *Function0) Invoke4(ctx *Context, _, _, _, _ Value) (*Suspension, error) {
	return f.Invoke0(ctx)
}

func (f *Function0) Invoke5(ctx *Context, _, _, _, _, _ Value) (*Suspension, error) {
	return f.Invoke0(ctx)
}

func (f *Function0) InvokeN(ctx *Context, _ []Value) (*Suspension, error) {
	return f.Invoke0(ctx)
}

// ---------------------------------------------------------------------------
// Function1
// ---------------------------------------------------------------------------

// Function1 adapts a Func1.
type Function1 struct {
	goFrame
	fn Func1
}

// NewFunction1 wraps fn under name.
func NewFunction1(name string, fn Func1) *Function1 {
	return &Function1{goFrame{name}, fn}
}

func (f *Function1) Arity() int { return 1 }

func (f *Function1) Invoke0(ctx *Context) (*Suspension, error) {
	return f.Invoke1(ctx, nil)
}

func (f *Function1) Invoke1(ctx *Context, a Value) (*Suspension, error) {
	s, err := f.fn(ctx, a)
	return f.settle(f, s, err)
}

func (f *Function1) Invoke2(ctx *Context, a, _ Value) (*Suspension, error) {
	return f.Invoke1(ctx, a)
}

func (f *Function1) Invoke3(ctx *Context, a, _, _ Value) (*Suspension, error) {
	return f.Invoke1(ctx, a)
}

func (f *Function1) Invoke4(ctx *Context, a, _, _, _ Value) (*Suspension, error) {
	return f.Invoke1(ctx, a)
}

func (f *Function1) Invoke5(ctx *Context, a, _, _, _, _ Value) (*Suspension, error) {
	return f.Invoke1(ctx, a)
}

func (f *Function1) InvokeN(ctx *Context, args []Value) (*Suspension, error) {
	return f.Invoke1(ctx, arg(args, 0))
}

// ---------------------------------------------------------------------------
// Function2
// ---------------------------------------------------------------------------

// Function2 adapts a Func2.
type Function2 struct {
	goFrame
	fn Func2
}

// NewFunction2 wraps fn under name.
func NewFunction2(name string, fn Func2) *Function2 {
	return &Function2{goFrame{name}, fn}
}

func (f *Function2) Arity() int { return 2 }

func (f *Function2) Invoke0(ctx *Context) (*Suspension, error) {
	return f.Invoke2(ctx, nil, nil)
}

func (f *Function2) Invoke1(ctx *Context, a Value) (*Suspension, error) {
	return f.Invoke2(ctx, a, nil)
}

func (f *Function2) Invoke2(ctx *Context, a, b Value) (*Suspension, error) {
	s, err := f.fn(ctx, a, b)
	return f.settle(f, s, err)
}

func (f *Function2) Invoke3(ctx *Context, a, b, _ Value) (*Suspension, error) {
	return f.Invoke2(ctx, a, b)
}

func (f *Function2) Invoke4(ctx *Context, a, b, _, _ Value) (*Suspension, error) {
	return f.Invoke2(ctx, a, b)
}

func (f *Function2) Invoke5(ctx *Context, a, b, _, _, _ Value) (*Suspension, error) {
	return f.Invoke2(ctx, a, b)
}

func (f *Function2) InvokeN(ctx *Context, args []Value) (*Suspension, error) {
	return f.Invoke2(ctx, arg(args, 0), arg(args, 1))
}

// ---------------------------------------------------------------------------
// Function3
// ---------------------------------------------------------------------------

// Function3 adapts a Func3.
type Function3 struct {
	goFrame
	fn Func3
}

// NewFunction3 wraps fn under name.
func NewFunction3(name string, fn Func3) *Function3 {
	return &Function3{goFrame{name}, fn}
}

func (f *Function3) Arity() int { return 3 }

func (f *Function3) Invoke0(ctx *Context) (*Suspension, error) {
	return f.Invoke3(ctx, nil, nil, nil)
}

func (f *Function3) Invoke1(ctx *Context, a Value) (*Suspension, error) {
	return f.Invoke3(ctx, a, nil, nil)
}

func (f *Function3) Invoke2(ctx *Context, a, b Value) (*Suspension, error) {
	return f.Invoke3(ctx, a, b, nil)
}

func (f *Function3) Invoke3(ctx *Context, a, b, c Value) (*Suspension, error) {
	s, err := f.fn(ctx, a, b, c)
	return f.settle(f, s, err)
}

func (f *Function3) Invoke4(ctx *Context, a, b, c, _ Value) (*Suspension, error) {
	return f.Invoke3(ctx, a, b, c)
}

func (f *Function3) Invoke5(ctx *Context, a, b, c, _, _ Value) (*Suspension, error) {
	return f.Invoke3(ctx, a, b, c)
}

func (f *Function3) InvokeN(ctx *Context, args []Value) (*Suspension, error) {
	return f.Invoke3(ctx, arg(args, 0), arg(args, 1), arg(args, 2))
}

// ---------------------------------------------------------------------------
// Function4
// ---------------------------------------------------------------------------

// Function4 adapts a Func4.
type Function4 struct {
	goFrame
	fn Func4
}

// NewFunction4 wraps fn under name.
func NewFunction4(name string, fn Func4) *Function4 {
	return &Function4{goFrame{name}, fn}
}

func (f *Function4) Arity() int { return 4 }

func (f *Function4) Invoke0(ctx *Context) (*Suspension, error) {
	return f.Invoke4(ctx, nil, nil, nil, nil)
}

func (f *Function4) Invoke1(ctx *Context, a Value) (*Suspension, error) {
	return f.Invoke4(ctx, a, nil, nil, nil)
}

func (f *Function4) Invoke2(ctx *Context, a, b Value) (*Suspension, error) {
	return f.Invoke4(ctx, a, b, nil, nil)
}

func (f *Function4) Invoke3(ctx *Context, a, b, c Value) (*Suspension, error) {
	return f.Invoke4(ctx, a, b, c, nil)
}

func (f *Function4) Invoke4(ctx *Context, a, b, c, d Value) (*Suspension, error) {
	s, err := f.fn(ctx, a, b, c, d)
	return f.settle(f, s, err)
}

func (f *Function4) Invoke5(ctx *Context, a, b, c, d, _ Value) (*Suspension, error) {
	return f.Invoke4(ctx, a, b, c, d)
}

func (f *Function4) InvokeN(ctx *Context, args []Value) (*Suspension, error) {
	return f.Invoke4(ctx, arg(args, 0), arg(args, 1), arg(args, 2), arg(args, 3))
}

// ---------------------------------------------------------------------------
// Function5
// ---------------------------------------------------------------------------

// Function5 adapts a Func5.
type Function5 struct {
	goFrame
	fn Func5
}

// NewFunction5 wraps fn under name.
func NewFunction5(name string, fn Func5) *Function5 {
	return &Function5{goFrame{name}, fn}
}

func (f *Function5) Arity() int { return 5 }

func (f *Function5) Invoke0(ctx *Context) (*Suspension, error) {
	return f.Invoke5(ctx, nil, nil, nil, nil, nil)
}

func (f *Function5) Invoke1(ctx *Context, a Value) (*Suspension, error) {
	return f.Invoke5(ctx, a, nil, nil, nil, nil)
}

func (f *Function5) Invoke2(ctx *Context, a, b Value) (*Suspension, error) {
	return f.Invoke5(ctx, a, b, nil, nil, nil)
}

func (f *Function5) Invoke3(ctx *Context, a, b, c Value) (*Suspension, error) {
	return f.Invoke5(ctx, a, b, c, nil, nil)
}

func (f *Function5) Invoke4(ctx *Context, a, b, c, d Value) (*Suspension, error) {
	return f.Invoke5(ctx, a, b, c, d, nil)
}

func (f *Function5) Invoke5(ctx *Context, a, b, c, d, e Value) (*Suspension, error) {
	s, err := f.fn(ctx, a, b, c, d, e)
	return f.settle(f, s, err)
}

func (f *Function5) InvokeN(ctx *Context, args []Value) (*Suspension, error) {
	return f.Invoke5(ctx, arg(args, 0), arg(args, 1), arg(args, 2), arg(args, 3), arg(args, 4))
}

// ---------------------------------------------------------------------------
// FunctionN
// ---------------------------------------------------------------------------

// FunctionN adapts a FuncN. Fixed-arity entries pack their arguments.
type FunctionN struct {
	goFrame
	fn FuncN
}

// NewFunctionN wraps fn under name.
func NewFunctionN(name string, fn FuncN) *FunctionN {
	return &FunctionN{goFrame{name}, fn}
}

func (f *FunctionN) Arity() int { return -1 }

func (f *FunctionN) Invoke0(ctx *Context) (*Suspension, error) {
	return f.InvokeN(ctx, nil)
}

func (f *FunctionN) Invoke1(ctx *Context, a Value) (*Suspension, error) {
	return f.InvokeN(ctx, []Value{a})
}

func (f *FunctionN) Invoke2(ctx *Context, a, b Value) (*Suspension, error) {
	return f.InvokeN(ctx, []Value{a, b})
}

func (f *FunctionN) Invoke3(ctx *Context, a, b, c Value) (*Suspension, error) {
	return f.InvokeN(ctx, []Value{a, b, c})
}

func (f *FunctionN) Invoke4(ctx *Context, a, b, c, d Value) (*Suspension, error) {
	return f.InvokeN(ctx, []Value{a, b, c, d})
}

func (f *FunctionN) Invoke5(ctx *Context, a, b, c, d, e Value) (*Suspension, error) {
	return f.InvokeN(ctx, []Value{a, b, c, d, e})
}

func (f *FunctionN) InvokeN(ctx *Context, args []Value) (*Suspension, error) {
	s, err := f.fn(ctx, args)
	return f.settle(f, s, err)
}
