//go:build linux

package asyncfd

import (
	"golang.org/x/sys/unix"
)

// poller is an edge-triggered readiness demultiplexer backed by epoll.
//
// The poller is a pure demultiplexer: it tracks no per-fd state beyond the
// kernel's interest list. Registration bookkeeping (waiter wakeup, teardown)
// lives in [Reactor], which owns exactly one poller.
type poller struct {
	epfd     int
	eventBuf []unix.EpollEvent
}

// init initializes the epoll instance and the preallocated event buffer.
func (p *poller) init(eventBufferSize int) error {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return err
	}
	p.epfd = epfd
	p.eventBuf = make([]unix.EpollEvent, eventBufferSize)
	return nil
}

// close releases the epoll file descriptor.
func (p *poller) close() error {
	if p.epfd > 0 {
		return unix.Close(p.epfd)
	}
	return nil
}

// add registers fd with both read and write interest, edge-triggered.
//
// EPOLLET means an event is delivered only on a not-ready to ready
// transition; combined with epoll's reporting of the current state at
// EPOLL_CTL_ADD time, a descriptor that is already readable or writable
// when registered is reported on the next wait.
func (p *poller) add(fd int) error {
	ev := unix.EpollEvent{
		Events: unix.EPOLLIN | unix.EPOLLOUT | unix.EPOLLRDHUP | unix.EPOLLET,
		Fd:     int32(fd),
	}
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev)
}

// del removes fd from the interest list.
func (p *poller) del(fd int) error {
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

// wait blocks until events are available and delivers each one via fn.
// A signal interruption delivers zero events and is not an error.
func (p *poller) wait(fn func(fd int, events ioEvents)) (int, error) {
	n, err := unix.EpollWait(p.epfd, p.eventBuf, -1)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	for i := 0; i < n; i++ {
		fd := int(p.eventBuf[i].Fd)
		if fd < 0 {
			continue
		}
		fn(fd, epollToEvents(p.eventBuf[i].Events))
	}
	return n, nil
}

// epollToEvents converts epoll event flags to ioEvents.
func epollToEvents(raw uint32) ioEvents {
	var events ioEvents
	if raw&(unix.EPOLLIN|unix.EPOLLPRI) != 0 {
		events |= eventRead
	}
	if raw&unix.EPOLLOUT != 0 {
		events |= eventWrite
	}
	if raw&unix.EPOLLERR != 0 {
		events |= eventError
	}
	if raw&(unix.EPOLLHUP|unix.EPOLLRDHUP) != 0 {
		events |= eventHangup
	}
	return events
}
