//go:build linux || darwin

package asyncfd

import "sync/atomic"

// reactorStats holds the raw counters. All fields are updated atomically
// from the dispatch goroutine and adapter goroutines.
type reactorStats struct {
	polls           atomic.Int64
	events          atomic.Int64
	wakeups         atomic.Int64
	registrations   atomic.Int64
	deregistrations atomic.Int64
	retries         atomic.Int64
}

// Stats is a point-in-time snapshot of reactor counters. All counters are
// cumulative since reactor creation.
type Stats struct {
	// Polls is the number of completed poll syscalls.
	Polls int64
	// Events is the number of readiness events dispatched.
	Events int64
	// Wakeups is the number of wake-descriptor interruptions.
	Wakeups int64
	// Registrations is the number of descriptors registered.
	Registrations int64
	// Deregistrations is the number of descriptors deregistered.
	Deregistrations int64
	// WouldBlockRetries is the number of would-block syscall results
	// absorbed by adapter retry loops.
	WouldBlockRetries int64
}

// Stats returns a snapshot of the reactor's counters. Returns the zero
// value unless the reactor was created with [WithStats].
func (r *Reactor) Stats() Stats {
	if r.stats == nil {
		return Stats{}
	}
	return Stats{
		Polls:             r.stats.polls.Load(),
		Events:            r.stats.events.Load(),
		Wakeups:           r.stats.wakeups.Load(),
		Registrations:     r.stats.registrations.Load(),
		Deregistrations:   r.stats.deregistrations.Load(),
		WouldBlockRetries: r.stats.retries.Load(),
	}
}
