//go:build linux || darwin

package asyncfd

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/joeycumines/logiface"
	"golang.org/x/sys/unix"
)

// Reactor multiplexes readiness notification for registered descriptors.
//
// A Reactor owns a platform poller and a background dispatch goroutine,
// started by [NewReactor]. The dispatch goroutine blocks in the poll
// syscall and marks readiness on the affected [Registration];
// it never performs I/O on registered descriptors, so a misbehaving
// descriptor cannot stall dispatch.
//
// All methods are safe for concurrent use.
type Reactor struct {
	log       *logiface.Logger[logiface.Event]
	stats     *reactorStats // nil unless WithStats
	regs      []*Registration
	poller    poller
	wakeRead  int
	wakeWrite int
	wakeBuf   [8]byte // only touched by the dispatch goroutine
	done      chan struct{}
	mu        sync.RWMutex // protects regs
	closed    atomic.Bool
	closeOnce sync.Once
}

// NewReactor creates a Reactor and starts its dispatch goroutine.
// The caller must eventually call [Reactor.Close] to release the poller
// and wake descriptors.
func NewReactor(opts ...ReactorOption) (*Reactor, error) {
	cfg, err := resolveReactorOptions(opts)
	if err != nil {
		return nil, err
	}

	r := &Reactor{
		log:  cfg.logger,
		done: make(chan struct{}),
		regs: make([]*Registration, initialFDs),
	}
	if cfg.statsEnabled {
		r.stats = &reactorStats{}
	}

	if err := r.poller.init(cfg.eventBufferSize); err != nil {
		return nil, err
	}
	wakeRead, wakeWrite, err := createWakeFD()
	if err != nil {
		_ = r.poller.close()
		return nil, err
	}
	r.wakeRead, r.wakeWrite = wakeRead, wakeWrite
	if err := r.poller.add(wakeRead); err != nil {
		_ = r.poller.close()
		r.closeWakeFDs()
		return nil, err
	}

	go r.run()

	r.log.Debug().Int("wakefd", wakeRead).Log("reactor started")
	return r, nil
}

// Register adds fd to the reactor's watched set with both read and write
// interest and returns its Registration.
//
// Fails with [ErrFDOutOfRange], [ErrFDAlreadyRegistered], or
// [ErrReactorClosed], or with the raw poller error if the kernel rejects
// the descriptor (e.g. EBADF, EPERM for unpollable files).
func (r *Reactor) Register(fd int) (*Registration, error) {
	if fd < 0 || fd >= maxFDLimit {
		return nil, ErrFDOutOfRange
	}

	reg := &Registration{
		reactor:     r,
		fd:          fd,
		readNotify:  make(chan struct{}, 1),
		writeNotify: make(chan struct{}, 1),
		closed:      make(chan struct{}),
	}

	r.mu.Lock()
	if r.closed.Load() || r.regs == nil {
		r.mu.Unlock()
		return nil, ErrReactorClosed
	}
	if fd >= len(r.regs) {
		// Grow in chunks to minimize allocations.
		newSize := fd*2 + 1
		if newSize > maxFDLimit {
			newSize = maxFDLimit + 1
		}
		newRegs := make([]*Registration, newSize)
		copy(newRegs, r.regs)
		r.regs = newRegs
	}
	if r.regs[fd] != nil {
		r.mu.Unlock()
		return nil, ErrFDAlreadyRegistered
	}
	r.regs[fd] = reg
	r.mu.Unlock()

	if err := r.poller.add(fd); err != nil {
		r.mu.Lock()
		if r.regs != nil && fd < len(r.regs) && r.regs[fd] == reg {
			r.regs[fd] = nil // rollback
		}
		r.mu.Unlock()
		return nil, err
	}

	if r.stats != nil {
		r.stats.registrations.Add(1)
	}
	return reg, nil
}

// Close stops the dispatch goroutine, tears down every live registration
// (waking suspended waiters with [ErrClosed]), and releases the poller and
// wake descriptors. Idempotent; always returns nil. Concurrent callers
// block until the first has finished releasing resources, so the wake
// descriptor is never written after it is closed.
func (r *Reactor) Close() error {
	r.closeOnce.Do(func() {
		r.closed.Store(true)
		_ = r.submitWakeup()
		<-r.done
		r.teardownAll()
		_ = r.poller.close()
		r.closeWakeFDs()
		r.log.Debug().Log("reactor closed")
	})
	return nil
}

// run is the dispatch loop. It exits when Close wakes it, or when the poll
// syscall fails outright (in which case all registrations are torn down so
// suspended waiters do not hang).
func (r *Reactor) run() {
	defer close(r.done)
	for !r.closed.Load() {
		n, err := r.poller.wait(r.dispatch)
		if err != nil {
			if r.closed.Load() {
				return
			}
			r.closed.Store(true)
			r.log.Err().Err(err).Log("poll wait failed; reactor stopping")
			r.teardownAll()
			return
		}
		if r.stats != nil {
			r.stats.polls.Add(1)
			r.stats.events.Add(int64(n))
		}
	}
}

// dispatch routes one readiness event to its registration.
func (r *Reactor) dispatch(fd int, events ioEvents) {
	if fd == r.wakeRead {
		r.drainWakeFD()
		if r.stats != nil {
			r.stats.wakeups.Add(1)
		}
		return
	}

	r.mu.RLock()
	var reg *Registration
	if r.regs != nil && fd < len(r.regs) {
		reg = r.regs[fd]
	}
	r.mu.RUnlock()
	if reg == nil {
		return
	}

	// Error and hangup wake both directions so the pending syscall gets to
	// observe the real errno or end-of-stream.
	if events&(eventError|eventHangup) != 0 {
		events |= eventRead | eventWrite
	}
	if events&eventRead != 0 {
		reg.notifyRead()
	}
	if events&eventWrite != 0 {
		reg.notifyWrite()
	}
}

// forget removes a registration from the table and the poller's interest
// list. Poller errors are swallowed: teardown cannot be retried by the
// caller, so it is best-effort by contract.
func (r *Reactor) forget(reg *Registration) {
	r.mu.Lock()
	if r.regs != nil && reg.fd < len(r.regs) && r.regs[reg.fd] == reg {
		r.regs[reg.fd] = nil
	}
	r.mu.Unlock()

	if !r.closed.Load() {
		if err := r.poller.del(reg.fd); err != nil {
			r.log.Debug().Err(err).Int("fd", reg.fd).Log("deregister failed")
		}
	}
	if r.stats != nil {
		r.stats.deregistrations.Add(1)
	}
}

// teardownAll wakes every suspended waiter with ErrClosed. Idempotent.
func (r *Reactor) teardownAll() {
	r.mu.Lock()
	regs := r.regs
	r.regs = nil
	r.mu.Unlock()
	for _, reg := range regs {
		if reg != nil {
			reg.shutdown()
		}
	}
}

// drainWakeFD empties the wake descriptor. Only the dispatch goroutine
// calls this.
func (r *Reactor) drainWakeFD() {
	for {
		if _, err := unix.Read(r.wakeRead, r.wakeBuf[:]); err != nil {
			return // EAGAIN once drained
		}
	}
}

// submitWakeup interrupts a blocked poll wait by writing to the wake
// descriptor. Native endianness: eventfd expects a host-order uint64.
func (r *Reactor) submitWakeup() error {
	var one uint64 = 1
	buf := (*[8]byte)(unsafe.Pointer(&one))[:]
	_, err := unix.Write(r.wakeWrite, buf)
	return err
}

func (r *Reactor) closeWakeFDs() {
	_ = unix.Close(r.wakeRead)
	if r.wakeWrite != r.wakeRead {
		_ = unix.Close(r.wakeWrite)
	}
}
