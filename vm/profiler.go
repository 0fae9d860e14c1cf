package vm

import (
	"sort"
	"sync"
	"sync/atomic"
)

// Profiler counts dispatcher events per callable name. Counters are atomic
// so that chains on different goroutines can share one profiler.
type Profiler struct {
	profiles sync.Map // string -> *CallProfile
}

// CallProfile holds the counters of one callable.
type CallProfile struct {
	Invocations uint64 // calls, including tail calls
	TailCalls   uint64 // calls made from the trampoline
	Suspensions uint64 // suspensions that started in this callable
	Resumptions uint64 // frames of this callable that were resumed
}

// ProfileEntry is a snapshot of one callable's counters.
type ProfileEntry struct {
	Name string
	CallProfile
}

// NewProfiler creates an empty profiler.
func NewProfiler() *Profiler {
	return &Profiler{}
}

func (p *Profiler) profile(c Callable) *CallProfile {
	name := CallableName(c)
	if v, ok := p.profiles.Load(name); ok {
		return v.(*CallProfile)
	}
	v, _ := p.profiles.LoadOrStore(name, &CallProfile{})
	return v.(*CallProfile)
}

func (p *Profiler) recordCall(c Callable, tail bool) {
	prof := p.profile(c)
	atomic.AddUint64(&prof.Invocations, 1)
	if tail {
		atomic.AddUint64(&prof.TailCalls, 1)
	}
}

func (p *Profiler) recordSuspend(c Callable) {
	atomic.AddUint64(&p.profile(c).Suspensions, 1)
}

func (p *Profiler) recordResume(c Callable) {
	atomic.AddUint64(&p.profile(c).Resumptions, 1)
}

// Lookup returns the counters recorded for name.
func (p *Profiler) Lookup(name string) (ProfileEntry, bool) {
	v, ok := p.profiles.Load(name)
	if !ok {
		return ProfileEntry{}, false
	}
	return snapshotEntry(name, v.(*CallProfile)), true
}

// Snapshot returns all counters, most invoked first.
func (p *Profiler) Snapshot() []ProfileEntry {
	var out []ProfileEntry
	p.profiles.Range(func(k, v any) bool {
		out = append(out, snapshotEntry(k.(string), v.(*CallProfile)))
		return true
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].Invocations != out[j].Invocations {
			return out[i].Invocations > out[j].Invocations
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// Reset clears all counters.
func (p *Profiler) Reset() {
	p.profiles.Range(func(k, _ any) bool {
		p.profiles.Delete(k)
		return true
	})
}

func snapshotEntry(name string, prof *CallProfile) ProfileEntry {
	return ProfileEntry{
		Name: name,
		CallProfile: CallProfile{
			Invocations: atomic.LoadUint64(&prof.Invocations),
			TailCalls:   atomic.LoadUint64(&prof.TailCalls),
			Suspensions: atomic.LoadUint64(&prof.Suspensions),
			Resumptions: atomic.LoadUint64(&prof.Resumptions),
		},
	}
}
