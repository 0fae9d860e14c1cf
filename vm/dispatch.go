package vm

// ---------------------------------------------------------------------------
// Dispatcher
//
// Calls resolve their target, invoke the entry point matching the argument
// count, then run the trampoline: while the callee left a tail call in the
// return buffer, the pending call is taken and invoked from the same Go
// frame. Tail-call chains therefore run in constant host stack.
// ---------------------------------------------------------------------------

// fixedArgs holds the arguments of a call of up to MaxFixedArity arguments
// plus one slot for a prepended __call receiver.
type fixedArgs [MaxFixedArity + 1]Value

// ResolveCallable returns the callable that a call of v runs. Callables
// resolve to themselves. Other values resolve to their __call metamethod,
// in which case prepend is true and v must be passed as the first argument.
func (c *Context) ResolveCallable(v Value) (fn Callable, prepend bool, err error) {
	if fn, ok := v.(Callable); ok {
		return fn, false, nil
	}
	if h, ok := c.rt.GetMetamethod(EventCall, v).(Callable); ok {
		return h, true, nil
	}
	return nil, false, illegal("call", v)
}

// Call calls target with args and runs it to completion, suspension or
// failure. Results are left in the return buffer.
func Call(c *Context, target Value, args ...Value) (*Suspension, error) {
	return CallN(c, target, args)
}

// Call0 calls target with no arguments.
func Call0(c *Context, target Value) (*Suspension, error) {
	return c.call(target, 0, fixedArgs{})
}

// Call1 calls target with one argument.
func Call1(c *Context, target, a Value) (*Suspension, error) {
	return c.call(target, 1, fixedArgs{a})
}

// Call2 calls target with two arguments.
func Call2(c *Context, target, a, b Value) (*Suspension, error) {
	return c.call(target, 2, fixedArgs{a, b})
}

// Call3 calls target with three arguments.
func Call3(c *Context, target, a, b, d Value) (*Suspension, error) {
	return c.call(target, 3, fixedArgs{a, b, d})
}

// Call4 calls target with four arguments.
func Call4(c *Context, target, a, b, d, e Value) (*Suspension, error) {
	return c.call(target, 4, fixedArgs{a, b, d, e})
}

// Call5 calls target with five arguments.
func Call5(c *Context, target, a, b, d, e, f Value) (*Suspension, error) {
	return c.call(target, 5, fixedArgs{a, b, d, e, f})
}

// CallN calls target with an argument slice. Short slices go through the
// fixed-arity entry points.
func CallN(c *Context, target Value, args []Value) (*Suspension, error) {
	if len(args) <= MaxFixedArity {
		var fa fixedArgs
		for i, a := range args {
			fa[i] = a
		}
		return c.call(target, len(args), fa)
	}
	s, err := c.invokeN(target, args, false)
	return c.trampoline(s, err)
}

func (c *Context) call(target Value, n int, args fixedArgs) (*Suspension, error) {
	s, err := c.invoke(target, n, args, false)
	return c.trampoline(s, err)
}

// invoke resolves target and calls the entry point for n arguments.
func (c *Context) invoke(target Value, n int, args fixedArgs, tail bool) (*Suspension, error) {
	fn, prepend, err := c.ResolveCallable(target)
	if err != nil {
		return nil, err
	}
	if prepend {
		if n == MaxFixedArity {
			// Slicing args would move the array to the heap on every call.
			return c.invokeN(target, []Value{args[0], args[1], args[2], args[3], args[4]}, tail)
		}
		for i := n; i > 0; i-- {
			args[i] = args[i-1]
		}
		args[0] = target
		n++
	}
	c.buf.Reset()
	if c.profiler != nil {
		c.profiler.recordCall(fn, tail)
	}
	switch n {
	case 0:
		return fn.Invoke0(c)
	case 1:
		return fn.Invoke1(c, args[0])
	case 2:
		return fn.Invoke2(c, args[0], args[1])
	case 3:
		return fn.Invoke3(c, args[0], args[1], args[2])
	case 4:
		return fn.Invoke4(c, args[0], args[1], args[2], args[3])
	default:
		return fn.Invoke5(c, args[0], args[1], args[2], args[3], args[4])
	}
}

// invokeN is invoke for argument lists longer than the fixed arities.
func (c *Context) invokeN(target Value, args []Value, tail bool) (*Suspension, error) {
	fn, prepend, err := c.ResolveCallable(target)
	if err != nil {
		return nil, err
	}
	if prepend {
		full := make([]Value, 0, len(args)+1)
		full = append(full, target)
		args = append(full, args...)
	}
	c.buf.Reset()
	if c.profiler != nil {
		c.profiler.recordCall(fn, tail)
	}
	return fn.InvokeN(c, args)
}

// invokePending performs the tail call waiting in the return buffer.
func (c *Context) invokePending() (*Suspension, error) {
	b := c.buf
	target := b.TailTarget()
	n := b.TailArgCount()
	if n > MaxFixedArity {
		_, args := b.TakeTailCall()
		return c.invokeN(target, args, true)
	}
	var args fixedArgs
	for i := 0; i < n; i++ {
		args[i] = b.TailArg(i)
	}
	b.Reset()
	return c.invoke(target, n, args, true)
}

// trampoline runs pending tail calls until the chain completes, fails or
// suspends. A suspension gets a trampoline frame so the loop carries on
// after resumption.
func (c *Context) trampoline(s *Suspension, err error) (*Suspension, error) {
	tails := 0
	for s == nil && err == nil && c.buf.IsTailCall() {
		tails++
		s, err = c.invokePending()
	}
	if err != nil {
		if tails > 0 {
			err = withTailCalls(err, tails)
		}
		return nil, err
	}
	if s != nil {
		return s.Push(trampolineFrame{}, nil), nil
	}
	return nil, nil
}

// trampolineFrame continues a trampoline loop after its chain resumes.
type trampolineFrame struct{ resumeOnly }

func (trampolineFrame) Name() string { return "(trampoline)" }

func (trampolineFrame) Resume(c *Context, _ any) (*Suspension, error) {
	s, err := c.ResumeNext()
	return c.trampoline(s, err)
}
