// Package vm implements the call/return protocol of the rebound runtime.
//
// This package contains:
//   - the value model and the raw and metamethod-aware operators
//   - return buffers that carry results and pending tail calls
//   - the Callable contract and adapters for Go functions
//   - the dispatcher with its tail-call trampoline
//   - cooperative suspension: budgets, pauses, awaited tasks and
//     single-use continuations
//   - the Executor that drives call chains, plus coroutines and tracebacks
package vm
