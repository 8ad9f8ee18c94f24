//go:build linux || darwin

package asyncfd

import (
	"context"
	"sync"
	"sync/atomic"
)

// Per-direction readiness state word: bit 0 is the ready flag, the upper
// bits count notification arrivals. Clearing compares against the word
// observed by the last wait, so a notification that lands between a
// would-block result and the clear bumps the count, fails the compare, and
// is preserved.
const readyBit = 1

// Registration binds one descriptor to a [Reactor] and tracks delivered
// readiness per direction.
//
// Readiness is sticky: once the reactor reports a direction ready it stays
// ready, and every wait in that direction returns immediately, until the
// caller clears it with [Registration.ClearReadReady] or
// [Registration.ClearWriteReady]. Clear only after the descriptor itself
// reported would-block: under edge-triggered delivery the kernel re-fires
// on a not-ready-to-ready transition only, so readiness cleared while the
// descriptor is still ready strands whatever is buffered in the kernel.
//
// One concurrent waiter per direction is supported (one reader plus one
// writer is fine). Two waiters in the same direction race for readiness.
type Registration struct {
	reactor     *Reactor
	readState   atomic.Uint64
	writeState  atomic.Uint64
	readSeen    uint64 // state observed by the last WaitRead; waiter goroutine only
	writeSeen   uint64
	readNotify  chan struct{}
	writeNotify chan struct{}
	closed      chan struct{}
	closeOnce   sync.Once
	fd          int
}

// FD returns the registered descriptor.
func (g *Registration) FD() int { return g.fd }

// WaitRead suspends the calling goroutine until the descriptor is reported
// readable, or returns immediately if read readiness is already set.
// Readiness is not consumed; see [Registration.ClearReadReady]. Returns
// ctx.Err() on cancellation (no descriptor state is affected; the syscall
// has not been attempted) or [ErrClosed] if the registration was
// deregistered or its reactor closed.
func (g *Registration) WaitRead(ctx context.Context) error {
	return g.wait(ctx, &g.readState, &g.readSeen, g.readNotify)
}

// WaitWrite is the write-direction counterpart of [Registration.WaitRead].
func (g *Registration) WaitWrite(ctx context.Context) error {
	return g.wait(ctx, &g.writeState, &g.writeSeen, g.writeNotify)
}

func (g *Registration) wait(ctx context.Context, state *atomic.Uint64, seen *uint64, notify <-chan struct{}) error {
	for {
		// Set readiness wins over concurrent cancellation/teardown.
		if s := state.Load(); s&readyBit != 0 {
			*seen = s
			return nil
		}
		select {
		case <-notify:
			// Re-check the flag: the wakeup may predate a clear.
		case <-g.closed:
			return ErrClosed
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// ClearReadReady discards the read readiness observed by the last
// [Registration.WaitRead]. Call it only after a read attempt reported
// would-block. A notification that arrived after that wait survives the
// clear, so the next wait returns immediately and the race between a
// would-block result and fresh readiness never strands data.
func (g *Registration) ClearReadReady() {
	g.readState.CompareAndSwap(g.readSeen, g.readSeen&^readyBit)
}

// ClearWriteReady is the write-direction counterpart of
// [Registration.ClearReadReady].
func (g *Registration) ClearWriteReady() {
	g.writeState.CompareAndSwap(g.writeSeen, g.writeSeen&^readyBit)
}

// Deregister removes the descriptor from the reactor's watched set and
// wakes suspended waiters with [ErrClosed]. Idempotent; errors during
// removal are swallowed (teardown is best-effort). Invoked automatically
// by [AsyncFD.Close].
func (g *Registration) Deregister() {
	g.closeOnce.Do(func() {
		close(g.closed)
		g.reactor.forget(g)
	})
}

// shutdown is reactor-side teardown: the poller is going away wholesale,
// so only the waiters need waking.
func (g *Registration) shutdown() {
	g.closeOnce.Do(func() {
		close(g.closed)
	})
}

// notifyRead marks the read direction ready and wakes a suspended waiter.
// The arrival count bumps even when the flag is already set so a
// concurrent clear of stale readiness cannot erase this notification.
func (g *Registration) notifyRead() {
	notify(&g.readState, g.readNotify)
}

// notifyWrite marks the write direction ready.
func (g *Registration) notifyWrite() {
	notify(&g.writeState, g.writeNotify)
}

func notify(state *atomic.Uint64, ch chan<- struct{}) {
	for {
		old := state.Load()
		if state.CompareAndSwap(old, (old|readyBit)+2) {
			break
		}
	}
	select {
	case ch <- struct{}{}:
	default:
	}
}
