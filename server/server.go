// Package server exposes call chains to remote hosts over Connect with a
// CBOR codec: calls, resumption of paused chains and polling of chains
// that await tasks.
package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"

	"github.com/chazu/rebound/vm"
)

var log = commonlog.GetLogger("rebound.server")

// Server is the execution server wrapping an executor.
type Server struct {
	worker   *Worker
	conts    *ContinuationStore
	outcomes *OutcomeStore
	sched    *Scheduler
	journal  *Journal
	mux      *http.ServeMux

	stopSweepers []func()
}

// ServerOption configures a Server.
type ServerOption func(*serverConfig)

type serverConfig struct {
	continuationTTL time.Duration
	sweepInterval   time.Duration
	maxTasks        int64
	journal         *Journal
}

// WithContinuationTTL sets how long paused chains and settled outcomes are
// kept.
func WithContinuationTTL(d time.Duration) ServerOption {
	return func(c *serverConfig) { c.continuationTTL = d }
}

// WithSweepInterval sets how often stale entries are swept.
func WithSweepInterval(d time.Duration) ServerOption {
	return func(c *serverConfig) { c.sweepInterval = d }
}

// WithMaxTasks bounds the awaited tasks running at once.
func WithMaxTasks(n int64) ServerOption {
	return func(c *serverConfig) { c.maxTasks = n }
}

// WithJournal records every slice in j. The server does not close it.
func WithJournal(j *Journal) ServerOption {
	return func(c *serverConfig) { c.journal = j }
}

// New creates a Server running chains on x.
func New(x *vm.Executor, opts ...ServerOption) *Server {
	cfg := &serverConfig{
		continuationTTL: 30 * time.Minute,
		sweepInterval:   5 * time.Minute,
		maxTasks:        16,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	worker := NewWorker(x)
	s := &Server{
		worker:   worker,
		conts:    NewContinuationStore(),
		outcomes: NewOutcomeStore(),
		sched:    NewScheduler(cfg.maxTasks),
		journal:  cfg.journal,
		mux:      http.NewServeMux(),
	}

	execSvc := NewExecutionService(worker, s.conts, s.outcomes, s.sched, s.journal)
	execPath, execHandler := NewExecutionServiceHandler(execSvc)
	s.mux.Handle(execPath, execHandler)

	s.stopSweepers = []func(){
		s.conts.StartSweeper(cfg.sweepInterval, cfg.continuationTTL),
		s.outcomes.StartSweeper(cfg.sweepInterval, cfg.continuationTTL),
	}

	return s
}

// Handler returns the server's HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Continuations returns the store of paused chains.
func (s *Server) Continuations() *ContinuationStore {
	return s.conts
}

// ListenAndServe starts the HTTP server on the given address.
// The address should be in the form "host:port" or ":port".
func (s *Server) ListenAndServe(addr string) error {
	fmt.Printf("rebound execution server listening on %s\n", addr)
	fmt.Printf("  Connect (CBOR): http://%s%s\n", addr, CallProcedure)
	log.Infof("listening on %s", addr)
	return http.ListenAndServe(addr, s.mux)
}

// Stop shuts down the server. Tasks in flight are cancelled and their
// chains completed before the worker stops.
func (s *Server) Stop() {
	for _, stop := range s.stopSweepers {
		stop()
	}
	s.sched.Stop()
	s.worker.Stop()
}

func newChainID() string {
	return uuid.NewString()
}
