package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"

	"github.com/chazu/rebound/vm"
)

// ExecutionServiceName is the fully-qualified name of the service.
const ExecutionServiceName = "rebound.v1.ExecutionService"

// Procedure paths of the execution service.
const (
	CallProcedure    = "/" + ExecutionServiceName + "/Call"
	ResumeProcedure  = "/" + ExecutionServiceName + "/Resume"
	DiscardProcedure = "/" + ExecutionServiceName + "/Discard"
	OutcomeProcedure = "/" + ExecutionServiceName + "/Outcome"
)

// ExecutionService runs call chains for remote hosts. Paused chains are
// parked in the continuation store; chains awaiting a task are finished
// in the background and polled through Outcome.
type ExecutionService struct {
	worker   *Worker
	conts    *ContinuationStore
	outcomes *OutcomeStore
	sched    *Scheduler
	journal  *Journal
}

// NewExecutionService creates an ExecutionService. journal may be nil.
func NewExecutionService(worker *Worker, conts *ContinuationStore, outcomes *OutcomeStore, sched *Scheduler, journal *Journal) *ExecutionService {
	return &ExecutionService{
		worker:   worker,
		conts:    conts,
		outcomes: outcomes,
		sched:    sched,
		journal:  journal,
	}
}

// NewExecutionServiceHandler builds an HTTP handler serving every
// procedure of svc. It returns the path prefix to mount it on.
func NewExecutionServiceHandler(svc *ExecutionService, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(cborCodec{})}, opts...)
	mux := http.NewServeMux()
	mux.Handle(CallProcedure, connect.NewUnaryHandler(CallProcedure, svc.Call, opts...))
	mux.Handle(ResumeProcedure, connect.NewUnaryHandler(ResumeProcedure, svc.Resume, opts...))
	mux.Handle(DiscardProcedure, connect.NewUnaryHandler(DiscardProcedure, svc.Discard, opts...))
	mux.Handle(OutcomeProcedure, connect.NewUnaryHandler(OutcomeProcedure, svc.Outcome, opts...))
	return "/" + ExecutionServiceName + "/", mux
}

// Call starts a chain calling a global function.
func (s *ExecutionService) Call(
	ctx context.Context,
	req *connect.Request[CallRequest],
) (*connect.Response[CallResponse], error) {
	name := req.Msg.Function
	if name == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("function is required"))
	}
	args, err := DecodeValues(req.Msg.Args)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("arguments: %w", err))
	}

	chain := newChainID()
	result, err := s.worker.Do(func(x *vm.Executor) interface{} {
		fn, ok := x.Runtime().Global(name).(vm.Callable)
		if !ok {
			return fmt.Errorf("no function named %q", name)
		}
		return s.settle(x, chain, name, x.Call(ctx, fn, args...))
	})
	if err != nil {
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	if lookupErr, ok := result.(error); ok {
		return nil, connect.NewError(connect.CodeNotFound, lookupErr)
	}

	resp := result.(*CallResponse)
	log.Debugf("call %s(%d args) -> %s [chain %s]", name, len(args), resp.State, chain)
	return connect.NewResponse(resp), nil
}

// Resume continues a paused chain.
func (s *ExecutionService) Resume(
	ctx context.Context,
	req *connect.Request[ResumeRequest],
) (*connect.Response[CallResponse], error) {
	id := req.Msg.Continuation
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("continuation is required"))
	}
	if b := req.Msg.Budget; b != nil && *b < 1 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("budget must be positive"))
	}

	p, ok := s.conts.Take(id)
	if !ok {
		return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("continuation %q not found", id))
	}

	result, err := s.worker.Do(func(x *vm.Executor) interface{} {
		budget := req.Msg.Budget
		if budget == nil {
			budget = x.Config().CPUBudget
		}
		return s.settle(x, p.chain, p.function, x.ResumeWithBudget(ctx, p.cont, budget))
	})
	if err != nil {
		// The id is gone from the store, so the chain cannot be retried.
		_ = p.cont.Discard()
		if errors.Is(err, ErrWorkerStopped) {
			return nil, connect.NewError(connect.CodeUnavailable, err)
		}
		return nil, connect.NewError(connect.CodeInternal, err)
	}

	resp := result.(*CallResponse)
	log.Debugf("resume %s -> %s [chain %s]", p.function, resp.State, p.chain)
	return connect.NewResponse(resp), nil
}

// Discard drops a paused chain without running it.
func (s *ExecutionService) Discard(
	ctx context.Context,
	req *connect.Request[DiscardRequest],
) (*connect.Response[DiscardResponse], error) {
	id := req.Msg.Continuation
	if id == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("continuation is required"))
	}
	return connect.NewResponse(&DiscardResponse{Discarded: s.conts.Discard(id)}), nil
}

// Outcome returns the latest state of a chain.
func (s *ExecutionService) Outcome(
	ctx context.Context,
	req *connect.Request[OutcomeRequest],
) (*connect.Response[CallResponse], error) {
	chain := req.Msg.Chain
	if chain == "" {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("chain is required"))
	}

	resp, pending, ok := s.outcomes.Get(chain)
	switch {
	case ok && pending:
		return connect.NewResponse(&CallResponse{
			Chain:  chain,
			State:  vm.AwaitingTask.String(),
			Reason: vm.AwaitTask.String(),
		}), nil
	case ok:
		return connect.NewResponse(resp), nil
	}

	if s.journal != nil {
		resp, err := s.journal.Last(chain)
		if err == nil {
			return connect.NewResponse(resp), nil
		}
		if !errors.Is(err, ErrOutcomeNotFound) {
			return nil, connect.NewError(connect.CodeInternal, err)
		}
	}
	return nil, connect.NewError(connect.CodeNotFound, fmt.Errorf("chain %q not found", chain))
}

// ---------------------------------------------------------------------------
// Settling slices (worker goroutine)
// ---------------------------------------------------------------------------

// settle turns the handle of one slice into a response. Paused chains are
// parked; chains awaiting a task are handed to the scheduler.
func (s *ExecutionService) settle(x *vm.Executor, chain, function string, h *vm.CallHandle) *CallResponse {
	resp := &CallResponse{
		Chain: chain,
		State: h.State().String(),
		Work:  h.Work(),
	}

	switch h.State() {
	case vm.Returned:
		values, err := EncodeValues(h.Values())
		if err != nil {
			resp.State = vm.Failed.String()
			resp.Error = fmt.Sprintf("encoding results: %v", err)
			break
		}
		resp.Values = values
	case vm.Failed:
		resp.Error = vm.Message(h.Err())
		resp.Traceback = x.FormatError(h.Err())
	case vm.Paused:
		cont := h.Continuation()
		resp.Reason = cont.Reason().String()
		resp.Continuation = s.conts.Put(cont, chain, function)
	case vm.AwaitingTask:
		resp.Reason = vm.AwaitTask.String()
		s.await(chain, function, h.Continuation())
	}

	if h.State() != vm.AwaitingTask {
		s.outcomes.Settle(resp)
	}
	s.record(function, resp)
	return resp
}

// await runs the task of cont on the scheduler and re-queues the chain on
// the worker once it completes.
func (s *ExecutionService) await(chain, function string, cont *vm.Continuation) {
	s.outcomes.Pending(chain)
	s.sched.Go(cont.Task(), func(values []vm.Value, taskErr error) {
		_, err := s.worker.Do(func(x *vm.Executor) interface{} {
			return s.settle(x, chain, function, x.Complete(context.Background(), cont, values, taskErr))
		})
		if err != nil {
			log.Errorf("completing chain %s: %s", chain, err)
			_ = cont.Discard()
			s.outcomes.Settle(&CallResponse{
				Chain: chain,
				State: vm.Failed.String(),
				Error: err.Error(),
			})
		}
	})
}

func (s *ExecutionService) record(function string, resp *CallResponse) {
	if s.journal == nil {
		return
	}
	if err := s.journal.Record(function, resp); err != nil {
		journalLog.Errorf("%s", err)
	}
}
