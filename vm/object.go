package vm

// Userdata is an opaque host value exposed to scripts. Scripts can only
// observe it through its metatable.
type Userdata struct {
	Value any
	meta  *Table
}

// NewUserdata wraps a host value.
func NewUserdata(v any, mt *Table) *Userdata {
	return &Userdata{Value: v, meta: mt}
}

// Metatable returns the userdata's metatable, or nil.
func (u *Userdata) Metatable() *Table { return u.meta }

// SetMetatable replaces the userdata's metatable.
func (u *Userdata) SetMetatable(mt *Table) { u.meta = mt }

// ---------------------------------------------------------------------------
// Runtime: per-type metatables and globals
// ---------------------------------------------------------------------------

// Runtime holds the state shared by every call chain of one interpreter:
// the global table and the metatables of types that do not carry their own
// (strings, numbers, booleans, functions, threads, nil).
type Runtime struct {
	Globals *Table

	typeMeta [typeCount]*Table
}

// NewRuntime creates a runtime with an empty global table.
func NewRuntime() *Runtime {
	return &Runtime{Globals: NewTable()}
}

// SetTypeMetatable installs the shared metatable for every value of type t.
// Tables and userdata carry their own metatables and ignore this setting.
func (rt *Runtime) SetTypeMetatable(t Type, mt *Table) {
	rt.typeMeta[t] = mt
}

// Metatable returns the metatable governing v, or nil.
func (rt *Runtime) Metatable(v Value) *Table {
	switch v := v.(type) {
	case *Table:
		return v.meta
	case *Userdata:
		return v.meta
	}
	return rt.typeMeta[TypeOf(v)]
}

// GetMetamethod returns the handler registered for event on v, or nil.
func (rt *Runtime) GetMetamethod(event string, v Value) Value {
	mt := rt.Metatable(v)
	if mt == nil {
		return nil
	}
	return mt.RawGetString(event)
}

// BinaryHandlerFor returns the handler for a binary event, trying the first
// operand before the second.
func (rt *Runtime) BinaryHandlerFor(event string, a, b Value) Value {
	if h := rt.GetMetamethod(event, a); h != nil {
		return h
	}
	return rt.GetMetamethod(event, b)
}

// SetGlobal binds name in the global table.
func (rt *Runtime) SetGlobal(name string, v Value) {
	rt.Globals.RawSetString(name, v)
}

// Global looks up name in the global table.
func (rt *Runtime) Global(name string) Value {
	return rt.Globals.RawGetString(name)
}
