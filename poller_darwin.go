//go:build darwin

package asyncfd

import (
	"golang.org/x/sys/unix"
)

// poller is an edge-triggered readiness demultiplexer backed by kqueue.
//
// The poller is a pure demultiplexer: it tracks no per-fd state beyond the
// kernel's interest list. Registration bookkeeping (waiter wakeup, teardown)
// lives in [Reactor], which owns exactly one poller.
type poller struct {
	kq       int
	eventBuf []unix.Kevent_t
}

// init initializes the kqueue instance and the preallocated event buffer.
func (p *poller) init(eventBufferSize int) error {
	kq, err := unix.Kqueue()
	if err != nil {
		return err
	}
	unix.CloseOnExec(kq)
	p.kq = kq
	p.eventBuf = make([]unix.Kevent_t, eventBufferSize)
	return nil
}

// close releases the kqueue file descriptor.
func (p *poller) close() error {
	if p.kq > 0 {
		return unix.Close(p.kq)
	}
	return nil
}

// add registers fd with both read and write filters, EV_CLEAR (edge-like).
//
// Unlike epoll, kqueue rejects filters that do not apply to the descriptor
// type: EVFILT_WRITE on the read end of a pipe fails, for example. EV_RECEIPT
// forces per-filter results into the event list so a filter that genuinely
// cannot apply is tolerated, as long as at least one direction registered.
func (p *poller) add(fd int) error {
	changes := make([]unix.Kevent_t, 2)
	unix.SetKevent(&changes[0], fd, unix.EVFILT_READ, unix.EV_ADD|unix.EV_ENABLE|unix.EV_CLEAR|unix.EV_RECEIPT)
	unix.SetKevent(&changes[1], fd, unix.EVFILT_WRITE, unix.EV_ADD|unix.EV_ENABLE|unix.EV_CLEAR|unix.EV_RECEIPT)

	receipts := make([]unix.Kevent_t, 2)
	n, err := unix.Kevent(p.kq, changes, receipts, nil)
	if err != nil {
		return err
	}

	var registered int
	var firstErr unix.Errno
	for i := 0; i < n; i++ {
		if receipts[i].Flags&unix.EV_ERROR != 0 && receipts[i].Data != 0 {
			if firstErr == 0 {
				firstErr = unix.Errno(receipts[i].Data)
			}
			continue
		}
		registered++
	}
	if registered == 0 {
		if firstErr != 0 {
			return firstErr
		}
		return unix.EINVAL
	}
	return nil
}

// del removes fd from both filters. Per-filter ENOENT is expected for
// descriptors that only ever registered one direction.
func (p *poller) del(fd int) error {
	changes := make([]unix.Kevent_t, 2)
	unix.SetKevent(&changes[0], fd, unix.EVFILT_READ, unix.EV_DELETE|unix.EV_RECEIPT)
	unix.SetKevent(&changes[1], fd, unix.EVFILT_WRITE, unix.EV_DELETE|unix.EV_RECEIPT)

	receipts := make([]unix.Kevent_t, 2)
	_, err := unix.Kevent(p.kq, changes, receipts, nil)
	return err
}

// wait blocks until events are available and delivers each one via fn.
// A signal interruption delivers zero events and is not an error.
func (p *poller) wait(fn func(fd int, events ioEvents)) (int, error) {
	n, err := unix.Kevent(p.kq, nil, p.eventBuf, nil)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	for i := 0; i < n; i++ {
		fd := int(p.eventBuf[i].Ident)
		if fd < 0 {
			continue
		}
		fn(fd, keventToEvents(&p.eventBuf[i]))
	}
	return n, nil
}

// keventToEvents converts a kqueue event to ioEvents.
func keventToEvents(kev *unix.Kevent_t) ioEvents {
	var events ioEvents
	switch kev.Filter {
	case unix.EVFILT_READ:
		events |= eventRead
	case unix.EVFILT_WRITE:
		events |= eventWrite
	}
	if kev.Flags&unix.EV_ERROR != 0 {
		events |= eventError
	}
	if kev.Flags&unix.EV_EOF != 0 {
		events |= eventHangup
	}
	return events
}
