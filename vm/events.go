package vm

// Metamethod event names.
const (
	EventAdd    = "__add"
	EventSub    = "__sub"
	EventMul    = "__mul"
	EventDiv    = "__div"
	EventIDiv   = "__idiv"
	EventMod    = "__mod"
	EventPow    = "__pow"
	EventUnm    = "__unm"
	EventBand   = "__band"
	EventBor    = "__bor"
	EventBxor   = "__bxor"
	EventShl    = "__shl"
	EventShr    = "__shr"
	EventBnot   = "__bnot"
	EventConcat = "__concat"
	EventLen    = "__len"
	EventEq     = "__eq"
	EventLt     = "__lt"
	EventLe     = "__le"
	EventCall   = "__call"
	EventIndex  = "__index"
	EventName   = "__name"
)
