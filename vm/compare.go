package vm

import (
	"math"
	"strings"
)

// ---------------------------------------------------------------------------
// Mixed integer/float comparison
//
// An integer that survives an int -> float -> int round trip is compared as
// a float. Otherwise the float is clamped into the int64 range and the
// comparison happens on integers, so the integer is never rounded.
// ---------------------------------------------------------------------------

func ltIntFloat(i int64, f float64) bool {
	if HasExactFloat(i) {
		return float64(i) < f
	}
	if math.IsNaN(f) {
		return false
	}
	return i < clampToInteger(math.Ceil(f))
}

func leIntFloat(i int64, f float64) bool {
	if HasExactFloat(i) {
		return float64(i) <= f
	}
	if math.IsNaN(f) {
		return false
	}
	return i <= clampToInteger(math.Floor(f))
}

func ltFloatInt(f float64, i int64) bool {
	if HasExactFloat(i) {
		return f < float64(i)
	}
	if math.IsNaN(f) {
		return false
	}
	return clampToInteger(math.Floor(f)) < i
}

func leFloatInt(f float64, i int64) bool {
	if HasExactFloat(i) {
		return f <= float64(i)
	}
	if math.IsNaN(f) {
		return false
	}
	return clampToInteger(math.Ceil(f)) <= i
}

func eqIntFloat(i int64, f float64) bool {
	fi, ok := FloatToInteger(f)
	return ok && fi == i
}

// ---------------------------------------------------------------------------
// Raw comparisons
// ---------------------------------------------------------------------------

// RawLessThan compares two numbers or two strings. ok is false for any
// other combination of operands.
func RawLessThan(a, b Value) (result bool, ok bool) {
	switch x := a.(type) {
	case int64:
		switch y := b.(type) {
		case int64:
			return x < y, true
		case float64:
			return ltIntFloat(x, y), true
		}
	case float64:
		switch y := b.(type) {
		case float64:
			return x < y, true
		case int64:
			return ltFloatInt(x, y), true
		}
	case string:
		if y, isStr := b.(string); isStr {
			return strings.Compare(x, y) < 0, true
		}
	}
	return false, false
}

// RawLessEqual is the non-strict counterpart of RawLessThan.
func RawLessEqual(a, b Value) (result bool, ok bool) {
	switch x := a.(type) {
	case int64:
		switch y := b.(type) {
		case int64:
			return x <= y, true
		case float64:
			return leIntFloat(x, y), true
		}
	case float64:
		switch y := b.(type) {
		case float64:
			return x <= y, true
		case int64:
			return leFloatInt(x, y), true
		}
	case string:
		if y, isStr := b.(string); isStr {
			return strings.Compare(x, y) <= 0, true
		}
	}
	return false, false
}

// RawEqual compares without metamethods. Numbers compare by mathematical
// value across representations; everything else by identity or, for
// strings and booleans, by content.
func RawEqual(a, b Value) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case int64:
		switch y := b.(type) {
		case int64:
			return x == y
		case float64:
			return eqIntFloat(x, y)
		}
		return false
	case float64:
		switch y := b.(type) {
		case float64:
			return x == y
		case int64:
			return eqIntFloat(y, x)
		}
		return false
	case bool:
		y, ok := b.(bool)
		return ok && x == y
	case string:
		y, ok := b.(string)
		return ok && x == y
	}
	return sameReference(a, b)
}

// sameReference compares reference values. Callables that are not
// comparable Go values (func types) are never equal to anything.
func sameReference(a, b Value) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}
