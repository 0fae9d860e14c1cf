package server

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/chazu/rebound/vm"
)

// pausedChain is a continuation parked on the server until a client
// resumes or discards it.
type pausedChain struct {
	id       string
	chain    string
	function string
	cont     *vm.Continuation
	created  time.Time
}

// ContinuationStore maps opaque ids to paused chains. Every id can be taken
// once; taking it hands the continuation to the caller.
type ContinuationStore struct {
	mu     sync.RWMutex
	paused map[string]*pausedChain
}

// NewContinuationStore creates an empty store.
func NewContinuationStore() *ContinuationStore {
	return &ContinuationStore{paused: make(map[string]*pausedChain)}
}

// Put parks cont and returns its id.
func (s *ContinuationStore) Put(cont *vm.Continuation, chain, function string) string {
	id := uuid.NewString()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.paused[id] = &pausedChain{
		id:       id,
		chain:    chain,
		function: function,
		cont:     cont,
		created:  time.Now(),
	}
	return id
}

// Take removes and returns the paused chain with the given id.
func (s *ContinuationStore) Take(id string) (*pausedChain, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.paused[id]
	if ok {
		delete(s.paused, id)
	}
	return p, ok
}

// Discard drops the paused chain with the given id without running it.
func (s *ContinuationStore) Discard(id string) bool {
	p, ok := s.Take(id)
	if !ok {
		return false
	}
	return p.cont.Discard() == nil
}

// Len returns the number of paused chains.
func (s *ContinuationStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.paused)
}

// Sweep discards paused chains older than the TTL.
func (s *ContinuationStore) Sweep(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	removed := 0
	for id, p := range s.paused {
		if p.created.Before(cutoff) {
			_ = p.cont.Discard()
			delete(s.paused, id)
			removed++
		}
	}
	if removed > 0 {
		log.Debugf("swept %d stale continuations", removed)
	}
	return removed
}

// StartSweeper runs periodic TTL sweeps in the background.
// Returns a stop function.
func (s *ContinuationStore) StartSweeper(interval, ttl time.Duration) func() {
	return startSweeper(interval, ttl, s.Sweep)
}

// startSweeper calls sweep every interval until the returned function is
// called.
func startSweeper(interval, ttl time.Duration, sweep func(time.Duration) int) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				sweep(ttl)
			case <-done:
				ticker.Stop()
				return
			}
		}
	}()
	return func() { close(done) }
}
