package vm

import "math"

// Op identifies an arithmetic or bitwise operator.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpDiv
	OpIDiv
	OpMod
	OpPow
	OpUnm

	OpBand
	OpBor
	OpBxor
	OpShl
	OpShr
	OpBnot
)

var opEvents = [...]string{
	OpAdd:  EventAdd,
	OpSub:  EventSub,
	OpMul:  EventMul,
	OpDiv:  EventDiv,
	OpIDiv: EventIDiv,
	OpMod:  EventMod,
	OpPow:  EventPow,
	OpUnm:  EventUnm,
	OpBand: EventBand,
	OpBor:  EventBor,
	OpBxor: EventBxor,
	OpShl:  EventShl,
	OpShr:  EventShr,
	OpBnot: EventBnot,
}

// Event returns the metamethod event consulted when the raw operation fails.
func (op Op) Event() string { return opEvents[op] }

// IsBitwise reports whether op works on integers only.
func (op Op) IsBitwise() bool { return op >= OpBand }

// IsUnary reports whether op takes a single operand.
func (op Op) IsUnary() bool { return op == OpUnm || op == OpBnot }

// ---------------------------------------------------------------------------
// Integer primitives
// ---------------------------------------------------------------------------

// IntIDiv is floor division. Division by zero fails; MinInt64 // -1 wraps.
func IntIDiv(a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrIntegerDivideByZero
	}
	if b == -1 {
		return -a, nil
	}
	q := a / b
	if a%b != 0 && (a^b) < 0 {
		q--
	}
	return q, nil
}

// IntMod is the floored modulo: the result has the sign of b.
func IntMod(a, b int64) (int64, error) {
	if b == 0 {
		return 0, ErrIntegerModuloByZero
	}
	if b == -1 {
		return 0, nil
	}
	r := a % b
	if r != 0 && (r^b) < 0 {
		r += b
	}
	return r, nil
}

// ShiftLeft shifts x by n bits; negative n shifts right. Distances of 64 or
// more clear every bit. Right shifts are logical.
func ShiftLeft(x, n int64) int64 {
	switch {
	case n <= -64 || n >= 64:
		return 0
	case n >= 0:
		return int64(uint64(x) << uint(n))
	default:
		return int64(uint64(x) >> uint(-n))
	}
}

// ---------------------------------------------------------------------------
// Float primitives
// ---------------------------------------------------------------------------

// FloatIDiv is floor division on floats.
func FloatIDiv(a, b float64) float64 {
	return math.Floor(a / b)
}

// FloatMod is the floored modulo on floats.
func FloatMod(a, b float64) float64 {
	if math.IsInf(b, 0) && !math.IsNaN(a) && !math.IsInf(a, 0) {
		if a == 0 || (a > 0) == (b > 0) {
			return a
		}
		return b
	}
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}

// ---------------------------------------------------------------------------
// Raw arithmetic
// ---------------------------------------------------------------------------

// RawArith applies op to numeric operands without consulting metamethods.
// ok is false when an operand is not a number (or numeric string), in which
// case the caller falls back to the operator's metamethod. For unary
// operators b is ignored.
func RawArith(op Op, a, b Value) (result Value, ok bool, err error) {
	if op.IsBitwise() {
		return rawBitwise(op, a, b)
	}
	if op == OpUnm {
		b = a
	}

	ai, aInt := a.(int64)
	bi, bInt := b.(int64)
	if aInt && bInt {
		switch op {
		case OpAdd:
			return ai + bi, true, nil
		case OpSub:
			return ai - bi, true, nil
		case OpMul:
			return ai * bi, true, nil
		case OpIDiv:
			q, err := IntIDiv(ai, bi)
			if err != nil {
				return nil, true, err
			}
			return q, true, nil
		case OpMod:
			r, err := IntMod(ai, bi)
			if err != nil {
				return nil, true, err
			}
			return r, true, nil
		case OpUnm:
			return -ai, true, nil
		}
	}

	af, ok1 := ToFloat(a)
	bf, ok2 := ToFloat(b)
	if !ok1 || !ok2 {
		return nil, false, nil
	}
	return floatArith(op, af, bf), true, nil
}

func floatArith(op Op, a, b float64) float64 {
	switch op {
	case OpAdd:
		return a + b
	case OpSub:
		return a - b
	case OpMul:
		return a * b
	case OpDiv:
		return a / b
	case OpIDiv:
		return FloatIDiv(a, b)
	case OpMod:
		return FloatMod(a, b)
	case OpPow:
		return math.Pow(a, b)
	case OpUnm:
		return -a
	}
	panic("vm: not a float operator")
}

func rawBitwise(op Op, a, b Value) (Value, bool, error) {
	if op == OpBnot {
		b = a
	}
	if !isNumberLike(a) || !isNumberLike(b) {
		return nil, false, nil
	}
	x, ok1 := ToInteger(a)
	y, ok2 := ToInteger(b)
	if !ok1 || !ok2 {
		return nil, true, ErrNoIntegerRepresentation
	}
	switch op {
	case OpBand:
		return x & y, true, nil
	case OpBor:
		return x | y, true, nil
	case OpBxor:
		return x ^ y, true, nil
	case OpShl:
		return ShiftLeft(x, y), true, nil
	case OpShr:
		return ShiftLeft(x, -y), true, nil
	case OpBnot:
		return ^x, true, nil
	}
	panic("vm: not a bitwise operator")
}

// isNumberLike reports whether v is a number or a string that parses as one.
func isNumberLike(v Value) bool {
	_, ok := ToNumber(v)
	return ok
}
