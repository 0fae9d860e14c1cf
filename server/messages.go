package server

import (
	"github.com/chazu/rebound/vm"
)

// CallRequest starts a chain calling the global function Function.
type CallRequest struct {
	Function string      `cbor:"1,keyasint"`
	Args     []WireValue `cbor:"2,keyasint,omitempty"`
}

// ResumeRequest resumes a paused chain. Budget overrides the executor's
// CPU budget for this slice.
type ResumeRequest struct {
	Continuation string `cbor:"1,keyasint"`
	Budget       *int64 `cbor:"2,keyasint,omitempty"`
}

// DiscardRequest drops a paused chain.
type DiscardRequest struct {
	Continuation string `cbor:"1,keyasint"`
}

// DiscardResponse reports whether a chain was dropped.
type DiscardResponse struct {
	Discarded bool `cbor:"1,keyasint"`
}

// OutcomeRequest asks for the latest state of a chain.
type OutcomeRequest struct {
	Chain string `cbor:"1,keyasint"`
}

// CallResponse is the state of a chain after one slice. State is the
// vm.CallState name. Continuation is set for paused chains; awaiting
// chains are finished by the server and polled through Outcome.
type CallResponse struct {
	Chain        string      `cbor:"1,keyasint"`
	State        string      `cbor:"2,keyasint"`
	Values       []WireValue `cbor:"3,keyasint,omitempty"`
	Error        string      `cbor:"4,keyasint,omitempty"`
	Traceback    string      `cbor:"5,keyasint,omitempty"`
	Continuation string      `cbor:"6,keyasint,omitempty"`
	Reason       string      `cbor:"7,keyasint,omitempty"`
	Work         int64       `cbor:"8,keyasint,omitempty"`
}

// Done reports whether the chain reached a terminal state.
func (r *CallResponse) Done() bool {
	return r.State == vm.Returned.String() || r.State == vm.Failed.String()
}

// Decoded returns the response values as runtime values.
func (r *CallResponse) Decoded() ([]vm.Value, error) {
	return DecodeValues(r.Values)
}
