package server

import (
	"sync"
	"time"
)

// outcome is the latest known state of one chain.
type outcome struct {
	resp    *CallResponse // nil while a task is in flight
	updated time.Time
}

// OutcomeStore keeps the latest response of every chain the server has
// run, so clients can poll chains whose awaited task finishes later.
type OutcomeStore struct {
	mu       sync.RWMutex
	outcomes map[string]*outcome
}

// NewOutcomeStore creates an empty store.
func NewOutcomeStore() *OutcomeStore {
	return &OutcomeStore{outcomes: make(map[string]*outcome)}
}

// Pending marks chain as waiting for a task.
func (s *OutcomeStore) Pending(chain string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[chain] = &outcome{updated: time.Now()}
}

// Settle records resp as the latest state of its chain.
func (s *OutcomeStore) Settle(resp *CallResponse) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outcomes[resp.Chain] = &outcome{resp: resp, updated: time.Now()}
}

// Get returns the latest response of chain. pending is true while an
// awaited task is still running.
func (s *OutcomeStore) Get(chain string) (resp *CallResponse, pending, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	o, ok := s.outcomes[chain]
	if !ok {
		return nil, false, false
	}
	return o.resp, o.resp == nil, true
}

// Sweep forgets settled outcomes not updated within the TTL. Pending
// chains are kept.
func (s *OutcomeStore) Sweep(ttl time.Duration) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-ttl)
	removed := 0
	for chain, o := range s.outcomes {
		if o.resp != nil && o.updated.Before(cutoff) {
			delete(s.outcomes, chain)
			removed++
		}
	}
	return removed
}

// StartSweeper runs periodic TTL sweeps in the background.
// Returns a stop function.
func (s *OutcomeStore) StartSweeper(interval, ttl time.Duration) func() {
	return startSweeper(interval, ttl, s.Sweep)
}
