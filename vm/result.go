package vm

// ---------------------------------------------------------------------------
// CallHandle: the outcome of one executor slice
// ---------------------------------------------------------------------------

// CallState is the state of a CallHandle.
type CallState int

const (
	Running CallState = iota
	Returned
	Failed
	Paused
	AwaitingTask
)

func (s CallState) String() string {
	switch s {
	case Running:
		return "running"
	case Returned:
		return "returned"
	case Failed:
		return "failed"
	case Paused:
		return "paused"
	case AwaitingTask:
		return "awaiting-task"
	}
	return "unknown"
}

// CallHandle reports how a call or resumption ended. Returned and Failed
// are terminal; Paused and AwaitingTask carry the continuation to resume.
type CallHandle struct {
	state  CallState
	values []Value
	err    error
	cont   *Continuation
	work   int64
}

func returned(values []Value, work int64) *CallHandle {
	return &CallHandle{state: Returned, values: values, work: work}
}

func failed(err error, work int64) *CallHandle {
	return &CallHandle{state: Failed, err: err, work: work}
}

func suspended(cont *Continuation, work int64) *CallHandle {
	state := Paused
	if cont.reason == AwaitTask {
		state = AwaitingTask
	}
	return &CallHandle{state: state, cont: cont, work: work}
}

// State returns the handle's state.
func (h *CallHandle) State() CallState { return h.state }

// Done reports whether the call reached a terminal state.
func (h *CallHandle) Done() bool {
	return h.state == Returned || h.state == Failed
}

// Values returns the results of a Returned call.
func (h *CallHandle) Values() []Value { return h.values }

// Err returns the failure of a Failed call. Chain failures are
// *RuntimeError values.
func (h *CallHandle) Err() error { return h.err }

// Continuation returns the suspended chain of a Paused or AwaitingTask call.
func (h *CallHandle) Continuation() *Continuation { return h.cont }

// Task returns the task an AwaitingTask call waits for.
func (h *CallHandle) Task() Task {
	if h.cont == nil {
		return nil
	}
	return h.cont.task
}

// Work returns the budget units used by this slice of the call.
func (h *CallHandle) Work() int64 { return h.work }
