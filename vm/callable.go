package vm

// Callable is the contract every invocable unit implements: compiled
// functions, Go library functions and the dispatcher's own internal frames.
//
// Results are written into ctx.Return(); nothing is returned directly. A
// non-nil *Suspension means the call paused and the callable has pushed its
// own frame onto it. Invoke0..Invoke5 are the fixed-arity entry points and
// InvokeN takes any other argument count; the dispatcher always picks the
// entry matching the actual argument count.
//
// Resume continues a paused invocation from the descriptor the callable
// recorded in its frame. A frame that paused inside a nested call calls
// ctx.ResumeNext() in place of that call.
type Callable interface {
	Invoke0(ctx *Context) (*Suspension, error)
	Invoke1(ctx *Context, a Value) (*Suspension, error)
	Invoke2(ctx *Context, a, b Value) (*Suspension, error)
	Invoke3(ctx *Context, a, b, c Value) (*Suspension, error)
	Invoke4(ctx *Context, a, b, c, d Value) (*Suspension, error)
	Invoke5(ctx *Context, a, b, c, d, e Value) (*Suspension, error)
	InvokeN(ctx *Context, args []Value) (*Suspension, error)
	Resume(ctx *Context, descriptor any) (*Suspension, error)
}

// MaxFixedArity is the largest argument count with its own entry point.
const MaxFixedArity = 5

// NamedCallable is implemented by callables that know their own name.
type NamedCallable interface {
	Callable
	Name() string
}

// CallableName returns the name used for c in tracebacks and profiles.
func CallableName(c Callable) string {
	if n, ok := c.(NamedCallable); ok {
		return n.Name()
	}
	return "?"
}

// named attaches a name to a callable that does not carry one.
type named struct {
	Callable
	name string
}

func (n *named) Name() string { return n.name }

// Named returns c under the given name.
func Named(name string, c Callable) NamedCallable {
	if n, ok := c.(*named); ok {
		c = n.Callable
	}
	return &named{Callable: c, name: name}
}

// arg returns args[i], or nil when args is too short.
func arg(args []Value, i int) Value {
	if i < len(args) {
		return args[i]
	}
	return nil
}

// ---------------------------------------------------------------------------
// Resume-only frames
// ---------------------------------------------------------------------------

// resumeOnly supplies Invoke entry points for frames that only exist on a
// suspension, such as the trampoline and operator frames.
type resumeOnly struct{}

func (resumeOnly) Invoke0(*Context) (*Suspension, error) { return nil, ErrNotInvocable }
func (resumeOnly) Invoke1(*Context, Value) (*Suspension, error) {
	return nil, ErrNotInvocable
}
func (resumeOnly) Invoke2(*Context, Value, Value) (*Suspension, error) {
	return nil, ErrNotInvocable
}
func (resumeOnly) Invoke3(*Context, Value, Value, Value) (*Suspension, error) {
	return nil, ErrNotInvocable
}
func (resumeOnly) Invoke4(*Context, Value, Value, Value, Value) (*Suspension, error) {
	return nil, ErrNotInvocable
}
func (resumeOnly) Invoke5(*Context, Value, Value, Value, Value, Value) (*Suspension, error) {
	return nil, ErrNotInvocable
}
func (resumeOnly) InvokeN(*Context, []Value) (*Suspension, error) { return nil, ErrNotInvocable }
