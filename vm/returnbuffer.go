package vm

// ReturnBuffer carries the results of a call back to its caller, or a
// pending tail call for the dispatcher to perform.
//
// A buffer is owned by one call chain. Callees write into it in place; the
// dispatcher resets it before every invocation. While the tail-call flag is
// set the buffer holds a target and its arguments instead of results.
//
// The interface is sealed: variants are created with the constructors in
// this file, selected per executor through a ReturnBufferFactory.
type ReturnBuffer interface {
	// Reset empties the buffer and clears any pending tail call.
	Reset()

	// Size returns the number of values held.
	Size() int

	// Get returns the i-th value (0-based), or nil past the end.
	Get(i int) Value

	// Values returns a copy of the held values.
	Values() []Value

	// Push appends one value.
	Push(v Value)

	// SetTo replaces the contents with values. The slice is not retained.
	SetTo(values ...Value)
	SetTo1(a Value)
	SetTo2(a, b Value)
	SetTo3(a, b, c Value)

	// TailCall replaces the contents with a pending call of target.
	TailCall(target Value, args ...Value)
	TailCall1(target, a Value)
	TailCall2(target, a, b Value)
	TailCall3(target, a, b, c Value)

	// IsTailCall reports whether a tail call is pending.
	IsTailCall() bool

	// TailTarget, TailArgCount and TailArg read the pending call without
	// copying its arguments.
	TailTarget() Value
	TailArgCount() int
	TailArg(i int) Value

	// TakeTailCall returns the pending call and empties the buffer.
	TakeTailCall() (target Value, args []Value)

	sealed()
}

// ReturnBufferFactory creates the buffer a new call chain writes into.
type ReturnBufferFactory func() ReturnBuffer

// DefaultReturnBufferFactory returns the cached variant with three inline
// slots, which covers the result counts of nearly every call.
func DefaultReturnBufferFactory() ReturnBuffer {
	return NewReturnBuffer3()
}

// ReturnBufferFactoryFor maps a configuration name to a factory:
// "cached" (or "") and "slice". ok is false for unknown names.
func ReturnBufferFactoryFor(name string) (ReturnBufferFactory, bool) {
	switch name {
	case "", "cached":
		return DefaultReturnBufferFactory, true
	case "slice":
		return func() ReturnBuffer { return NewSliceReturnBuffer() }, true
	}
	return nil, false
}

// ---------------------------------------------------------------------------
// Cached variants
//
// Values live in a fixed inline array while they fit, and in a spill slice
// once they do not. The spill slice keeps its capacity across resets, so a
// chain that once returned many values stops allocating for them too.
// ---------------------------------------------------------------------------

type inlineBuffer struct {
	inline []Value // view of the owning variant's array
	spill  []Value
	size   int
	tail   bool
	target Value
}

type returnBuffer0 struct{ inlineBuffer }

type returnBuffer2 struct {
	inlineBuffer
	slots [2]Value
}

type returnBuffer3 struct {
	inlineBuffer
	slots [3]Value
}

type returnBuffer5 struct {
	inlineBuffer
	slots [5]Value
}

// NewReturnBuffer0 creates a cached buffer without inline slots.
func NewReturnBuffer0() ReturnBuffer {
	return &returnBuffer0{}
}

// NewReturnBuffer2 creates a cached buffer with two inline slots.
func NewReturnBuffer2() ReturnBuffer {
	b := &returnBuffer2{}
	b.inline = b.slots[:]
	return b
}

// NewReturnBuffer3 creates a cached buffer with three inline slots.
func NewReturnBuffer3() ReturnBuffer {
	b := &returnBuffer3{}
	b.inline = b.slots[:]
	return b
}

// NewReturnBuffer5 creates a cached buffer with five inline slots.
func NewReturnBuffer5() ReturnBuffer {
	b := &returnBuffer5{}
	b.inline = b.slots[:]
	return b
}

func (b *inlineBuffer) sealed() {}

func (b *inlineBuffer) spilled() bool { return b.size > len(b.inline) }

func (b *inlineBuffer) Reset() {
	if b.spilled() {
		clear(b.spill)
		b.spill = b.spill[:0]
	} else {
		clear(b.inline[:b.size])
	}
	b.size = 0
	b.tail = false
	b.target = nil
}

func (b *inlineBuffer) Size() int {
	if b.tail {
		return 0
	}
	return b.size
}

func (b *inlineBuffer) Get(i int) Value {
	if b.tail || i < 0 || i >= b.size {
		return nil
	}
	return b.at(i)
}

func (b *inlineBuffer) at(i int) Value {
	if b.spilled() {
		return b.spill[i]
	}
	return b.inline[i]
}

func (b *inlineBuffer) Values() []Value {
	n := b.Size()
	if n == 0 {
		return nil
	}
	out := make([]Value, n)
	for i := range out {
		out[i] = b.at(i)
	}
	return out
}

func (b *inlineBuffer) Push(v Value) {
	if b.tail {
		b.Reset()
	}
	switch {
	case b.size < len(b.inline):
		b.inline[b.size] = v
	case b.size == len(b.inline):
		b.spill = append(b.spill[:0], b.inline...)
		clear(b.inline)
		b.spill = append(b.spill, v)
	default:
		b.spill = append(b.spill, v)
	}
	b.size++
}

// store overwrites the contents with values, leaving the tail flag alone.
func (b *inlineBuffer) store(values []Value) {
	b.Reset()
	if len(values) <= len(b.inline) {
		copy(b.inline, values)
	} else {
		b.spill = append(b.spill[:0], values...)
	}
	b.size = len(values)
}

func (b *inlineBuffer) SetTo(values ...Value) {
	b.store(values)
}

func (b *inlineBuffer) SetTo1(a Value) {
	b.Reset()
	b.Push(a)
}

func (b *inlineBuffer) SetTo2(x, y Value) {
	b.Reset()
	b.Push(x)
	b.Push(y)
}

func (b *inlineBuffer) SetTo3(x, y, z Value) {
	b.Reset()
	b.Push(x)
	b.Push(y)
	b.Push(z)
}

func (b *inlineBuffer) TailCall(target Value, args ...Value) {
	b.store(args)
	b.tail = true
	b.target = target
}

func (b *inlineBuffer) TailCall1(target, a Value) {
	b.SetTo1(a)
	b.tail = true
	b.target = target
}

func (b *inlineBuffer) TailCall2(target, x, y Value) {
	b.SetTo2(x, y)
	b.tail = true
	b.target = target
}

func (b *inlineBuffer) TailCall3(target, x, y, z Value) {
	b.SetTo3(x, y, z)
	b.tail = true
	b.target = target
}

func (b *inlineBuffer) IsTailCall() bool { return b.tail }

func (b *inlineBuffer) TailTarget() Value { return b.target }

func (b *inlineBuffer) TailArgCount() int {
	if !b.tail {
		return 0
	}
	return b.size
}

func (b *inlineBuffer) TailArg(i int) Value {
	if !b.tail || i < 0 || i >= b.size {
		return nil
	}
	return b.at(i)
}

func (b *inlineBuffer) TakeTailCall() (Value, []Value) {
	if !b.tail {
		return nil, nil
	}
	target := b.target
	var args []Value
	if b.size > 0 {
		args = make([]Value, b.size)
		for i := range args {
			args[i] = b.at(i)
		}
	}
	b.Reset()
	return target, args
}

// ---------------------------------------------------------------------------
// Slice-backed variant
// ---------------------------------------------------------------------------

type sliceReturnBuffer struct {
	values []Value
	tail   bool
	target Value
}

// NewSliceReturnBuffer creates a general buffer backed by a growable slice.
func NewSliceReturnBuffer() ReturnBuffer {
	return &sliceReturnBuffer{}
}

func (b *sliceReturnBuffer) sealed() {}

func (b *sliceReturnBuffer) Reset() {
	clear(b.values)
	b.values = b.values[:0]
	b.tail = false
	b.target = nil
}

func (b *sliceReturnBuffer) Size() int {
	if b.tail {
		return 0
	}
	return len(b.values)
}

func (b *sliceReturnBuffer) Get(i int) Value {
	if b.tail || i < 0 || i >= len(b.values) {
		return nil
	}
	return b.values[i]
}

func (b *sliceReturnBuffer) Values() []Value {
	if b.tail || len(b.values) == 0 {
		return nil
	}
	return append([]Value(nil), b.values...)
}

func (b *sliceReturnBuffer) Push(v Value) {
	if b.tail {
		b.Reset()
	}
	b.values = append(b.values, v)
}

func (b *sliceReturnBuffer) SetTo(values ...Value) {
	b.Reset()
	b.values = append(b.values, values...)
}

func (b *sliceReturnBuffer) SetTo1(x Value) {
	b.Reset()
	b.values = append(b.values, x)
}

func (b *sliceReturnBuffer) SetTo2(x, y Value) {
	b.Reset()
	b.values = append(b.values, x, y)
}

func (b *sliceReturnBuffer) SetTo3(x, y, z Value) {
	b.Reset()
	b.values = append(b.values, x, y, z)
}

func (b *sliceReturnBuffer) TailCall(target Value, args ...Value) {
	b.SetTo(args...)
	b.tail = true
	b.target = target
}

func (b *sliceReturnBuffer) TailCall1(target, x Value) {
	b.SetTo1(x)
	b.tail = true
	b.target = target
}

func (b *sliceReturnBuffer) TailCall2(target, x, y Value) {
	b.SetTo2(x, y)
	b.tail = true
	b.target = target
}

func (b *sliceReturnBuffer) TailCall3(target, x, y, z Value) {
	b.SetTo3(x, y, z)
	b.tail = true
	b.target = target
}

func (b *sliceReturnBuffer) IsTailCall() bool { return b.tail }

func (b *sliceReturnBuffer) TailTarget() Value { return b.target }

func (b *sliceReturnBuffer) TailArgCount() int {
	if !b.tail {
		return 0
	}
	return len(b.values)
}

func (b *sliceReturnBuffer) TailArg(i int) Value {
	if !b.tail || i < 0 || i >= len(b.values) {
		return nil
	}
	return b.values[i]
}

func (b *sliceReturnBuffer) TakeTailCall() (Value, []Value) {
	if !b.tail {
		return nil, nil
	}
	target := b.target
	var args []Value
	if len(b.values) > 0 {
		args = append([]Value(nil), b.values...)
	}
	b.Reset()
	return target, args
}
