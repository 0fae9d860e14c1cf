package server

import (
	"errors"
	"fmt"
	"sync"

	"github.com/chazu/rebound/vm"
)

// ErrWorkerStopped is returned by Do once the worker has been stopped.
var ErrWorkerStopped = errors.New("worker stopped")

// workRequest is a unit of work to be executed on the worker goroutine.
type workRequest struct {
	fn   func(*vm.Executor) interface{}
	done chan workResult
}

// workResult holds the return value of a worker operation.
type workResult struct {
	value interface{}
	err   error
}

// Worker runs every call chain of the server on one goroutine. Chains and
// the runtime they share are single-threaded; handlers and task
// completions go through Do.
type Worker struct {
	exec     *vm.Executor
	requests chan workRequest
	quit     chan struct{}
	stopOnce sync.Once
}

// NewWorker creates a Worker and starts the processing goroutine.
func NewWorker(x *vm.Executor) *Worker {
	w := &Worker{
		exec:     x,
		requests: make(chan workRequest, 64),
		quit:     make(chan struct{}),
	}
	go w.loop()
	return w
}

// loop processes requests sequentially on a dedicated goroutine.
func (w *Worker) loop() {
	for {
		select {
		case req := <-w.requests:
			req.done <- w.execute(req.fn)
		case <-w.quit:
			return
		}
	}
}

// execute runs fn against the executor, recovering from panics.
func (w *Worker) execute(fn func(*vm.Executor) interface{}) workResult {
	var result workResult
	func() {
		defer func() {
			if r := recover(); r != nil {
				result.err = fmt.Errorf("%v", r)
			}
		}()
		result.value = fn(w.exec)
	}()
	return result
}

// Do submits fn for execution on the worker goroutine and blocks until it
// completes. Returns the result and any error (including panics).
func (w *Worker) Do(fn func(*vm.Executor) interface{}) (interface{}, error) {
	req := workRequest{
		fn:   fn,
		done: make(chan workResult, 1),
	}
	select {
	case <-w.quit:
		return nil, ErrWorkerStopped
	default:
	}
	select {
	case w.requests <- req:
	case <-w.quit:
		return nil, ErrWorkerStopped
	}
	select {
	case result := <-req.done:
		return result.value, result.err
	case <-w.quit:
		return nil, ErrWorkerStopped
	}
}

// Stop shuts down the worker goroutine. Calling it again has no effect.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.quit) })
}

// Executor returns the executor, for configuration and profiler reads
// that do not run chains.
func (w *Worker) Executor() *vm.Executor {
	return w.exec
}
