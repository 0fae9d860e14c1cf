package vm

import (
	"math"
	"testing"
)

const twoTo53 = 1 << 53

func TestRawLessThan(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"int int", int64(1), int64(2), true},
		{"int float", int64(1), 1.5, true},
		{"float int", 1.5, int64(1), false},
		{"equal mixed", int64(1), 1.0, false},
		{"MaxInt64 vs its float", int64(math.MaxInt64), float64(math.MaxInt64), false},
		{"MinInt64 vs its float", int64(math.MinInt64), float64(math.MinInt64), false},
		{"inexact int above float", int64(twoTo53 + 1), float64(twoTo53), false},
		{"float below inexact int", float64(twoTo53), int64(twoTo53 + 1), true},
		{"inexact int vs +inf", int64(twoTo53 + 1), math.Inf(1), true},
		{"inexact int vs -inf", int64(twoTo53 + 1), math.Inf(-1), false},
		{"NaN left", math.NaN(), int64(1), false},
		{"NaN right", int64(twoTo53 + 1), math.NaN(), false},
		{"strings", "a", "b", true},
		{"string prefix", "ab", "abc", true},
		{"strings bytewise", "B", "a", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RawLessThan(tt.a, tt.b)
			if !ok {
				t.Fatal("operands rejected")
			}
			if got != tt.want {
				t.Errorf("RawLessThan(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRawLessEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"equal ints", int64(2), int64(2), true},
		{"equal mixed", int64(2), 2.0, true},
		{"float above int", 2.5, int64(2), false},
		{"MaxInt64 vs its float", int64(math.MaxInt64), float64(math.MaxInt64), true},
		{"float below inexact int", float64(twoTo53), int64(twoTo53 + 1), true},
		{"inexact int above float", int64(twoTo53 + 1), float64(twoTo53), false},
		{"NaN", math.NaN(), math.NaN(), false},
		{"strings", "b", "b", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := RawLessEqual(tt.a, tt.b)
			if !ok {
				t.Fatal("operands rejected")
			}
			if got != tt.want {
				t.Errorf("RawLessEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestRawLessThan_Rejects(t *testing.T) {
	for _, operands := range [][2]Value{
		{int64(1), "2"},
		{"1", int64(2)},
		{nil, nil},
		{NewTable(), NewTable()},
		{true, false},
	} {
		if _, ok := RawLessThan(operands[0], operands[1]); ok {
			t.Errorf("RawLessThan(%v, %v) accepted", operands[0], operands[1])
		}
	}
}

func TestRawEqual(t *testing.T) {
	tbl := NewTable()
	fn := NewFunction0("f", func(*Context) (*Suspension, error) { return nil, nil })
	tests := []struct {
		name string
		a, b Value
		want bool
	}{
		{"int float", int64(1), 1.0, true},
		{"float int", 1.0, int64(1), true},
		{"fractional", int64(1), 1.5, false},
		{"MaxInt64 vs 2^63", int64(math.MaxInt64), float64(math.MaxInt64), false},
		{"NaN", math.NaN(), math.NaN(), false},
		{"nil nil", nil, nil, true},
		{"nil false", nil, false, false},
		{"bools", true, true, true},
		{"strings", "x", "x", true},
		{"string number", "1", int64(1), false},
		{"same table", tbl, tbl, true},
		{"different tables", tbl, NewTable(), false},
		{"same function", fn, fn, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := RawEqual(tt.a, tt.b); got != tt.want {
				t.Errorf("RawEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}
