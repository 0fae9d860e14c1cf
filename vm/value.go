package vm

// Value is a dynamically-typed language value.
//
// The concrete Go type of a Value selects its variant:
//   - nil:        nil
//   - boolean:    bool
//   - integer:    int64
//   - float:      float64
//   - string:     string
//   - table:      *Table
//   - function:   any Callable
//   - userdata:   *Userdata (opaque host handle)
//   - thread:     *Coroutine
//
// Integers and floats are distinct representations of the language's
// number type. No other Go types are valid values.
type Value interface{}

// Type enumerates the language-level types of values.
type Type int

const (
	TypeNil Type = iota
	TypeBoolean
	TypeNumber
	TypeString
	TypeTable
	TypeFunction
	TypeUserdata
	TypeThread

	typeCount
)

var typeNames = [typeCount]string{
	TypeNil:      "nil",
	TypeBoolean:  "boolean",
	TypeNumber:   "number",
	TypeString:   "string",
	TypeTable:    "table",
	TypeFunction: "function",
	TypeUserdata: "userdata",
	TypeThread:   "thread",
}

func (t Type) String() string {
	if t < 0 || t >= typeCount {
		return "unknown"
	}
	return typeNames[t]
}

// TypeOf returns the language type of v.
func TypeOf(v Value) Type {
	switch v.(type) {
	case nil:
		return TypeNil
	case bool:
		return TypeBoolean
	case int64, float64:
		return TypeNumber
	case string:
		return TypeString
	case *Table:
		return TypeTable
	case *Coroutine:
		return TypeThread
	case *Userdata:
		return TypeUserdata
	case Callable:
		return TypeFunction
	default:
		return TypeUserdata
	}
}

// TypeName returns the language name of v's type, as used in error messages.
func TypeName(v Value) string {
	return TypeOf(v).String()
}

// Truthy reports whether v counts as true in a condition.
// Only nil and false are falsy.
func Truthy(v Value) bool {
	switch v := v.(type) {
	case nil:
		return false
	case bool:
		return v
	default:
		return true
	}
}

// IsNumber reports whether v is an integer or a float.
func IsNumber(v Value) bool {
	switch v.(type) {
	case int64, float64:
		return true
	}
	return false
}
