package vm

import (
	"errors"
	"math"
)

var (
	errNilIndex = errors.New("index is nil")
	errNaNIndex = errors.New("index is NaN")
)

// Table is the language's associative array.
//
// Keys 1..len(array) live in the array part; everything else lives in the
// hash part. Float keys with an exact integer value are normalized to
// integers so that t[1] and t[1.0] name the same slot.
type Table struct {
	array []Value
	hash  map[Value]Value
	meta  *Table
}

// NewTable creates an empty table.
func NewTable() *Table {
	return &Table{}
}

// NewTableFrom creates a table whose array part holds values at keys 1..n.
func NewTableFrom(values ...Value) *Table {
	t := &Table{array: make([]Value, len(values))}
	copy(t.array, values)
	t.trimArray()
	return t
}

// Metatable returns the table's metatable, or nil.
func (t *Table) Metatable() *Table { return t.meta }

// SetMetatable replaces the table's metatable. A nil mt removes it.
func (t *Table) SetMetatable(mt *Table) { t.meta = mt }

func normalizeKey(k Value) Value {
	if f, ok := k.(float64); ok {
		if i, exact := FloatToInteger(f); exact {
			return i
		}
	}
	return k
}

// RawGet reads t[k] without consulting metamethods.
func (t *Table) RawGet(k Value) Value {
	k = normalizeKey(k)
	if i, ok := k.(int64); ok && i >= 1 && i <= int64(len(t.array)) {
		return t.array[i-1]
	}
	if t.hash == nil || k == nil {
		return nil
	}
	return t.hash[k]
}

// RawGetString reads t[k] for a string key.
func (t *Table) RawGetString(k string) Value {
	if t.hash == nil {
		return nil
	}
	return t.hash[k]
}

// RawSet writes t[k] = v without consulting metamethods. Assigning nil
// removes the key.
func (t *Table) RawSet(k, v Value) error {
	switch kk := k.(type) {
	case nil:
		return errNilIndex
	case float64:
		if math.IsNaN(kk) {
			return errNaNIndex
		}
	}
	k = normalizeKey(k)

	if i, ok := k.(int64); ok && i >= 1 {
		n := int64(len(t.array))
		switch {
		case i <= n:
			t.array[i-1] = v
			if i == n && v == nil {
				t.trimArray()
			}
			return nil
		case i == n+1 && v != nil:
			t.array = append(t.array, v)
			delete(t.hash, k)
			t.migrate()
			return nil
		}
	}

	if v == nil {
		delete(t.hash, k)
		return nil
	}
	if t.hash == nil {
		t.hash = make(map[Value]Value)
	}
	t.hash[k] = v
	return nil
}

// RawSetString writes t[k] = v for a string key.
func (t *Table) RawSetString(k string, v Value) {
	_ = t.RawSet(k, v)
}

// migrate moves keys that now continue the array part out of the hash part.
func (t *Table) migrate() {
	for len(t.hash) > 0 {
		next := int64(len(t.array) + 1)
		v, ok := t.hash[next]
		if !ok {
			return
		}
		t.array = append(t.array, v)
		delete(t.hash, next)
	}
}

func (t *Table) trimArray() {
	n := len(t.array)
	for n > 0 && t.array[n-1] == nil {
		n--
	}
	clear(t.array[n:])
	t.array = t.array[:n]
}

// Length returns a border of the table: an index n such that t[n] is
// non-nil and t[n+1] is nil (or zero when t[1] is nil).
func (t *Table) Length() int64 {
	n := int64(len(t.array))
	if t.hash == nil {
		return n
	}
	for {
		if _, ok := t.hash[n+1]; !ok {
			return n
		}
		n++
	}
}

// ForEach calls fn for every non-nil entry: the array part in order, then
// the hash part in unspecified order. Iteration stops when fn returns false.
func (t *Table) ForEach(fn func(k, v Value) bool) {
	for i, v := range t.array {
		if v != nil && !fn(int64(i+1), v) {
			return
		}
	}
	for k, v := range t.hash {
		if !fn(k, v) {
			return
		}
	}
}
