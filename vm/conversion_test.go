package vm

import (
	"math"
	"testing"
)

func TestParseNumber(t *testing.T) {
	tests := []struct {
		in   string
		want Value
		ok   bool
	}{
		{"42", int64(42), true},
		{"  -42  ", int64(-42), true},
		{"+7", int64(7), true},
		{"3.25", 3.25, true},
		{".5", 0.5, true},
		{"1e3", 1000.0, true},
		{"0x10", int64(16), true},
		{"0XfF", int64(255), true},
		{"0xffffffffffffffff", int64(-1), true},
		{"-0x1", int64(-1), true},
		{"0x1p4", 16.0, true},
		{"0x.8", 0.5, true},
		{"9223372036854775808", 9223372036854775808.0, true},
		{"", nil, false},
		{"abc", nil, false},
		{"inf", nil, false},
		{"nan", nil, false},
		{"1_000", nil, false},
		{"0x", nil, false},
		{"1e", nil, false},
		{"--1", nil, false},
	}
	for _, tt := range tests {
		got, ok := ParseNumber(tt.in)
		if ok != tt.ok {
			t.Errorf("ParseNumber(%q) ok = %v, want %v", tt.in, ok, tt.ok)
			continue
		}
		if ok && got != tt.want {
			t.Errorf("ParseNumber(%q) = %v (%T), want %v (%T)", tt.in, got, got, tt.want, tt.want)
		}
	}
}

func TestFormatNumber(t *testing.T) {
	tests := []struct {
		in   Value
		want string
	}{
		{int64(0), "0"},
		{int64(-12), "-12"},
		{1.0, "1.0"},
		{-2.0, "-2.0"},
		{0.1, "0.1"},
		{1.5, "1.5"},
		{1e15, "1e+15"},
		{1e100, "1e+100"},
		{math.Pi, "3.1415926535898"},
		{math.Inf(1), "inf"},
		{math.Inf(-1), "-inf"},
	}
	for _, tt := range tests {
		if got := FormatNumber(tt.in); got != tt.want {
			t.Errorf("FormatNumber(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestFloatToInteger(t *testing.T) {
	tests := []struct {
		in   float64
		want int64
		ok   bool
	}{
		{3.0, 3, true},
		{-0.0, 0, true},
		{3.5, 0, false},
		{float64(math.MinInt64), math.MinInt64, true},
		{float64(math.MaxInt64), 0, false},
		{math.Inf(1), 0, false},
		{math.NaN(), 0, false},
	}
	for _, tt := range tests {
		got, ok := FloatToInteger(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("FloatToInteger(%v) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestHasExactFloat(t *testing.T) {
	for _, tt := range []struct {
		in   int64
		want bool
	}{
		{0, true},
		{1 << 53, true},
		{1<<53 + 1, false},
		{1 << 62, true},
		{math.MaxInt64, false},
		{math.MinInt64, true},
	} {
		if got := HasExactFloat(tt.in); got != tt.want {
			t.Errorf("HasExactFloat(%d) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
