package vm

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ---------------------------------------------------------------------------
// Number conversions
// ---------------------------------------------------------------------------

// Bounds of the int64 range expressed as floats. Both are exact powers of two.
const (
	minIntAsFloat = -9223372036854775808.0 // -2^63
	maxIntAsFloat = 9223372036854775808.0  // 2^63, one past math.MaxInt64
)

// FloatToInteger converts f to an integer when f has an exact integer
// representation inside the int64 range.
func FloatToInteger(f float64) (int64, bool) {
	if f != math.Trunc(f) {
		return 0, false // fractional, NaN or Inf
	}
	if f < minIntAsFloat || f >= maxIntAsFloat {
		return 0, false
	}
	return int64(f), true
}

// HasExactFloat reports whether i survives an int -> float -> int round trip.
func HasExactFloat(i int64) bool {
	f := float64(i)
	if f >= maxIntAsFloat {
		return false
	}
	return int64(f) == i
}

// clampToInteger truncates f toward zero, saturating at the int64 bounds.
// NaN must be handled by the caller.
func clampToInteger(f float64) int64 {
	switch {
	case f >= maxIntAsFloat:
		return math.MaxInt64
	case f <= minIntAsFloat:
		return math.MinInt64
	default:
		return int64(f)
	}
}

// ToNumber converts v to an integer or float Value. Strings are parsed with
// the language's numeral syntax.
func ToNumber(v Value) (Value, bool) {
	switch v := v.(type) {
	case int64, float64:
		return v, true
	case string:
		return ParseNumber(v)
	}
	return nil, false
}

// ToFloat converts v to a float, coercing integers and numeric strings.
func ToFloat(v Value) (float64, bool) {
	switch v := v.(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	case string:
		n, ok := ParseNumber(v)
		if !ok {
			return 0, false
		}
		return ToFloat(n)
	}
	return 0, false
}

// ToInteger converts v to an integer without loss: floats must be integral
// and strings must denote such a number.
func ToInteger(v Value) (int64, bool) {
	switch v := v.(type) {
	case int64:
		return v, true
	case float64:
		return FloatToInteger(v)
	case string:
		n, ok := ParseNumber(v)
		if !ok {
			return 0, false
		}
		return ToInteger(n)
	}
	return 0, false
}

// ParseNumber parses a numeral: decimal or hexadecimal integers, decimal
// floats with optional exponent and hexadecimal floats with optional binary
// exponent. Surrounding whitespace is ignored. Decimal integers that
// overflow int64 become floats; hexadecimal integers wrap around.
func ParseNumber(s string) (Value, bool) {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsRune(s, '_') {
		return nil, false
	}

	body := s
	neg := false
	switch body[0] {
	case '-':
		neg = true
		body = body[1:]
	case '+':
		body = body[1:]
	}
	if body == "" {
		return nil, false
	}

	if len(body) > 2 && body[0] == '0' && (body[1] == 'x' || body[1] == 'X') {
		return parseHex(body[2:], neg)
	}

	// Reject the spellings strconv accepts but numerals do not (inf, nan).
	if c := body[0]; c != '.' && (c < '0' || c > '9') {
		return nil, false
	}

	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return nil, false
	}
	return f, true
}

func parseHex(digits string, neg bool) (Value, bool) {
	if digits == "" {
		return nil, false
	}
	if strings.ContainsAny(digits, ".pP") {
		lit := "0x" + digits
		if !strings.ContainsAny(digits, "pP") {
			lit += "p0"
		}
		f, err := strconv.ParseFloat(lit, 64)
		if err != nil {
			return nil, false
		}
		if neg {
			f = -f
		}
		return f, true
	}

	var n uint64
	for i := 0; i < len(digits); i++ {
		d, ok := hexDigit(digits[i])
		if !ok {
			return nil, false
		}
		n = n<<4 | uint64(d)
	}
	v := int64(n)
	if neg {
		v = -v
	}
	return v, true
}

func hexDigit(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// ---------------------------------------------------------------------------
// String conversions
// ---------------------------------------------------------------------------

// FormatNumber renders a number the way the language prints it: integers
// in decimal, floats with 14 significant digits and a trailing ".0" when
// the result would otherwise read as an integer.
func FormatNumber(v Value) string {
	switch v := v.(type) {
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return formatFloat(v)
	}
	return ""
}

func formatFloat(f float64) string {
	switch {
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	case math.IsNaN(f):
		if math.Signbit(f) {
			return "-nan"
		}
		return "nan"
	}
	s := strconv.FormatFloat(f, 'g', 14, 64)
	if looksLikeInteger(s) {
		s += ".0"
	}
	return s
}

func looksLikeInteger(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '-' && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// ToStringCoerce converts strings and numbers to strings, as concatenation
// does. Other values are rejected.
func ToStringCoerce(v Value) (string, bool) {
	switch v := v.(type) {
	case string:
		return v, true
	case int64, float64:
		return FormatNumber(v), true
	}
	return "", false
}
