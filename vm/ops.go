package vm

// ---------------------------------------------------------------------------
// Full operators
//
// Each operator tries the raw computation first and falls back to the
// metamethod of its event. Metamethods run through the dispatcher and may
// suspend; the operator then pushes an operator frame that finishes the
// post-processing once the handler's chain is resumed, leaving the single
// result in the return buffer.
// ---------------------------------------------------------------------------

// opPost is the post-processing applied to a metamethod result.
type opPost int

const (
	postFirst  opPost = iota // keep the first value
	postTruthy               // convert to boolean
	postNegate               // convert to boolean and negate
)

func (p opPost) apply(v Value) Value {
	switch p {
	case postTruthy:
		return Truthy(v)
	case postNegate:
		return !Truthy(v)
	}
	return v
}

// opFrame finishes an operator whose metamethod suspended.
type opFrame struct {
	resumeOnly
	post opPost
}

func (opFrame) Name() string { return "(operator)" }

func (f opFrame) Resume(c *Context, _ any) (*Suspension, error) {
	s, err := c.ResumeNext()
	if err != nil {
		return nil, err
	}
	if s != nil {
		return s.Push(f, nil), nil
	}
	c.buf.SetTo1(f.post.apply(c.buf.Get(0)))
	return nil, nil
}

// callHandler runs a metamethod with two operands and post-processes its
// first result.
func (c *Context) callHandler(h, a, b Value, post opPost) (Value, *Suspension, error) {
	s, err := Call2(c, h, a, b)
	if err != nil {
		return nil, nil, err
	}
	if s != nil {
		return nil, s.Push(opFrame{post: post}, nil), nil
	}
	v := post.apply(c.buf.Get(0))
	c.buf.SetTo1(v)
	return v, nil, nil
}

// ---------------------------------------------------------------------------
// Arithmetic and bitwise
// ---------------------------------------------------------------------------

// Arith applies op to a and b. Unary operators ignore b.
func Arith(c *Context, op Op, a, b Value) (Value, *Suspension, error) {
	if op.IsUnary() {
		b = a
	}
	r, ok, err := RawArith(op, a, b)
	if ok || err != nil {
		return r, nil, err
	}
	h := c.rt.BinaryHandlerFor(op.Event(), a, b)
	if h == nil {
		return nil, nil, arithError(op, a, b)
	}
	return c.callHandler(h, a, b, postFirst)
}

func arithError(op Op, a, b Value) error {
	offender := a
	if isNumberLike(a) {
		offender = b
	}
	if op.IsBitwise() {
		return illegal("perform bitwise operation on", offender)
	}
	return illegal("perform arithmetic on", offender)
}

// Add is Arith(c, OpAdd, a, b).
func Add(c *Context, a, b Value) (Value, *Suspension, error) { return Arith(c, OpAdd, a, b) }

// Sub is Arith(c, OpSub, a, b).
func Sub(c *Context, a, b Value) (Value, *Suspension, error) { return Arith(c, OpSub, a, b) }

// Mul is Arith(c, OpMul, a, b).
func Mul(c *Context, a, b Value) (Value, *Suspension, error) { return Arith(c, OpMul, a, b) }

// Div is Arith(c, OpDiv, a, b).
func Div(c *Context, a, b Value) (Value, *Suspension, error) { return Arith(c, OpDiv, a, b) }

// IDiv is Arith(c, OpIDiv, a, b).
func IDiv(c *Context, a, b Value) (Value, *Suspension, error) { return Arith(c, OpIDiv, a, b) }

// Mod is Arith(c, OpMod, a, b).
func Mod(c *Context, a, b Value) (Value, *Suspension, error) { return Arith(c, OpMod, a, b) }

// Pow is Arith(c, OpPow, a, b).
func Pow(c *Context, a, b Value) (Value, *Suspension, error) { return Arith(c, OpPow, a, b) }

// Unm is Arith(c, OpUnm, a, a).
func Unm(c *Context, a Value) (Value, *Suspension, error) { return Arith(c, OpUnm, a, a) }

// ---------------------------------------------------------------------------
// Concatenation and length
// ---------------------------------------------------------------------------

// Concat concatenates two strings or numbers, or calls __concat.
func Concat(c *Context, a, b Value) (Value, *Suspension, error) {
	if x, ok := ToStringCoerce(a); ok {
		if y, ok := ToStringCoerce(b); ok {
			return x + y, nil, nil
		}
	}
	h := c.rt.BinaryHandlerFor(EventConcat, a, b)
	if h == nil {
		offender := a
		if _, ok := ToStringCoerce(a); ok {
			offender = b
		}
		return nil, nil, illegal("concatenate", offender)
	}
	return c.callHandler(h, a, b, postFirst)
}

// Len returns the length of v: the byte length of a string, __len if v has
// one, and the border of a table otherwise.
func Len(c *Context, v Value) (Value, *Suspension, error) {
	if s, ok := v.(string); ok {
		return int64(len(s)), nil, nil
	}
	if h := c.rt.GetMetamethod(EventLen, v); h != nil {
		return c.callHandler(h, v, v, postFirst)
	}
	if t, ok := v.(*Table); ok {
		return t.Length(), nil, nil
	}
	return nil, nil, illegal("get length of", v)
}

// ---------------------------------------------------------------------------
// Comparison
// ---------------------------------------------------------------------------

func compareError(a, b Value) error {
	return &IllegalOperationAttempt{Verb: "compare", TypeName: TypeName(a), Other: TypeName(b)}
}

// boolResult unpacks a callHandler result for comparison operators.
func boolResult(v Value, s *Suspension, err error) (bool, *Suspension, error) {
	if err != nil || s != nil {
		return false, s, err
	}
	b, _ := v.(bool)
	return b, nil, nil
}

// Equal compares a and b, consulting __eq only for two tables or two
// userdata that are not raw-equal.
func Equal(c *Context, a, b Value) (bool, *Suspension, error) {
	if RawEqual(a, b) {
		return true, nil, nil
	}
	switch a.(type) {
	case *Table:
		if _, ok := b.(*Table); !ok {
			return false, nil, nil
		}
	case *Userdata:
		if _, ok := b.(*Userdata); !ok {
			return false, nil, nil
		}
	default:
		return false, nil, nil
	}
	h := c.rt.BinaryHandlerFor(EventEq, a, b)
	if h == nil {
		return false, nil, nil
	}
	return boolResult(c.callHandler(h, a, b, postTruthy))
}

// LessThan computes a < b.
func LessThan(c *Context, a, b Value) (bool, *Suspension, error) {
	if r, ok := RawLessThan(a, b); ok {
		return r, nil, nil
	}
	h := c.rt.BinaryHandlerFor(EventLt, a, b)
	if h == nil {
		return false, nil, compareError(a, b)
	}
	return boolResult(c.callHandler(h, a, b, postTruthy))
}

// LessEqual computes a <= b. Without an __le handler it falls back to
// not (b < a) through __lt.
func LessEqual(c *Context, a, b Value) (bool, *Suspension, error) {
	if r, ok := RawLessEqual(a, b); ok {
		return r, nil, nil
	}
	if h := c.rt.BinaryHandlerFor(EventLe, a, b); h != nil {
		return boolResult(c.callHandler(h, a, b, postTruthy))
	}
	if h := c.rt.BinaryHandlerFor(EventLt, b, a); h != nil {
		return boolResult(c.callHandler(h, b, a, postNegate))
	}
	return false, nil, compareError(a, b)
}
