package server

import (
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/rebound/vm"
)

// CodecName is the Connect codec name; requests use "application/cbor".
const CodecName = "cbor"

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("server: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// cborCodec is a connect.Codec for the plain Go message types in
// messages.go.
type cborCodec struct{}

func (cborCodec) Name() string { return CodecName }

func (cborCodec) Marshal(msg any) ([]byte, error) {
	return cborEncMode.Marshal(msg)
}

func (cborCodec) Unmarshal(data []byte, msg any) error {
	if err := cbor.Unmarshal(data, msg); err != nil {
		return fmt.Errorf("server: unmarshal %T: %w", msg, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Wire form of values
// ---------------------------------------------------------------------------

// Value kinds on the wire. Functions, userdata and threads travel as
// display-only kinds and cannot be decoded back into values.
const (
	KindNil      = "nil"
	KindBoolean  = "boolean"
	KindInteger  = "integer"
	KindFloat    = "float"
	KindString   = "string"
	KindTable    = "table"
	KindFunction = "function"
	KindUserdata = "userdata"
	KindThread   = "thread"
)

// maxWireDepth bounds table nesting on the wire.
const maxWireDepth = 32

var (
	errCyclicTable  = errors.New("cannot encode cyclic table")
	errTooDeep      = errors.New("table nesting too deep")
	errNotDecodable = errors.New("value kind cannot be decoded")
)

// WireValue is the CBOR form of a value. Float is always encoded so that
// -0.0 keeps its sign.
type WireValue struct {
	Kind  string      `cbor:"1,keyasint"`
	Int   int64       `cbor:"2,keyasint,omitempty"`
	Float float64     `cbor:"3,keyasint"`
	Str   string      `cbor:"4,keyasint,omitempty"`
	Bool  bool        `cbor:"5,keyasint,omitempty"`
	Table []WireEntry `cbor:"6,keyasint,omitempty"`
}

// WireEntry is one key/value pair of a table.
type WireEntry struct {
	Key   WireValue `cbor:"1,keyasint"`
	Value WireValue `cbor:"2,keyasint"`
}

// String renders w the way the CLI prints results.
func (w WireValue) String() string {
	switch w.Kind {
	case KindNil:
		return "nil"
	case KindBoolean:
		return fmt.Sprintf("%t", w.Bool)
	case KindInteger:
		return vm.FormatNumber(w.Int)
	case KindFloat:
		return vm.FormatNumber(w.Float)
	case KindString:
		return fmt.Sprintf("%q", w.Str)
	case KindTable:
		return fmt.Sprintf("table(%d entries)", len(w.Table))
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Str)
}

// EncodeValue converts v to its wire form.
func EncodeValue(v vm.Value) (WireValue, error) {
	return encodeValue(v, make(map[*vm.Table]bool), 0)
}

func encodeValue(v vm.Value, seen map[*vm.Table]bool, depth int) (WireValue, error) {
	switch v := v.(type) {
	case nil:
		return WireValue{Kind: KindNil}, nil
	case bool:
		return WireValue{Kind: KindBoolean, Bool: v}, nil
	case int64:
		return WireValue{Kind: KindInteger, Int: v}, nil
	case float64:
		return WireValue{Kind: KindFloat, Float: v}, nil
	case string:
		return WireValue{Kind: KindString, Str: v}, nil
	case *vm.Table:
		if depth >= maxWireDepth {
			return WireValue{}, errTooDeep
		}
		if seen[v] {
			return WireValue{}, errCyclicTable
		}
		seen[v] = true
		defer delete(seen, v)

		w := WireValue{Kind: KindTable}
		var err error
		v.ForEach(func(k, val vm.Value) bool {
			var e WireEntry
			if e.Key, err = encodeValue(k, seen, depth+1); err != nil {
				return false
			}
			if e.Value, err = encodeValue(val, seen, depth+1); err != nil {
				return false
			}
			w.Table = append(w.Table, e)
			return true
		})
		if err != nil {
			return WireValue{}, err
		}
		return w, nil
	case *vm.Coroutine:
		return WireValue{Kind: KindThread, Str: v.Status().String()}, nil
	case vm.Callable:
		return WireValue{Kind: KindFunction, Str: vm.CallableName(v)}, nil
	}
	return WireValue{Kind: KindUserdata, Str: fmt.Sprintf("%T", v)}, nil
}

// DecodeValue converts w back into a value.
func DecodeValue(w WireValue) (vm.Value, error) {
	return decodeValue(w, 0)
}

func decodeValue(w WireValue, depth int) (vm.Value, error) {
	switch w.Kind {
	case KindNil, "":
		return nil, nil
	case KindBoolean:
		return w.Bool, nil
	case KindInteger:
		return w.Int, nil
	case KindFloat:
		return w.Float, nil
	case KindString:
		return w.Str, nil
	case KindTable:
		if depth >= maxWireDepth {
			return nil, errTooDeep
		}
		t := vm.NewTable()
		for _, e := range w.Table {
			k, err := decodeValue(e.Key, depth+1)
			if err != nil {
				return nil, err
			}
			v, err := decodeValue(e.Value, depth+1)
			if err != nil {
				return nil, err
			}
			if err := t.RawSet(k, v); err != nil {
				return nil, fmt.Errorf("table key: %w", err)
			}
		}
		return t, nil
	}
	return nil, fmt.Errorf("%w: %s", errNotDecodable, w.Kind)
}

// EncodeValues converts a value list.
func EncodeValues(values []vm.Value) ([]WireValue, error) {
	out := make([]WireValue, len(values))
	for i, v := range values {
		w, err := EncodeValue(v)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i+1, err)
		}
		out[i] = w
	}
	return out, nil
}

// DecodeValues converts a wire value list.
func DecodeValues(ws []WireValue) ([]vm.Value, error) {
	out := make([]vm.Value, len(ws))
	for i, w := range ws {
		v, err := DecodeValue(w)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i+1, err)
		}
		out[i] = v
	}
	return out, nil
}
