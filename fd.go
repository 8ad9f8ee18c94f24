//go:build linux || darwin

package asyncfd

import (
	"context"
	"io"
	"sync/atomic"

	"golang.org/x/sys/unix"
)

// AsyncFD is a readiness-driven byte stream over a registered descriptor.
//
// Each Read or Write suspends on the registration until the OS reports the
// descriptor ready, attempts the raw syscall once, and loops back to the
// readiness wait if the kernel still reports would-block. Genuine errors
// surface immediately with the originating errno preserved.
//
// The descriptor must already be in non-blocking mode; see [SetNonblocking]
// and the package documentation.
type AsyncFD struct {
	reg    *Registration
	fd     int
	owned  bool
	closed atomic.Bool
}

var (
	_ io.ReadWriteCloser = (*AsyncFD)(nil)
)

// Wrap registers fd with r and returns an owning adapter: [AsyncFD.Close]
// closes the descriptor. The descriptor must not be mutated externally
// (closed, re-registered, handed to another adapter) while the adapter is
// live.
func Wrap(r *Reactor, fd int) (*AsyncFD, error) {
	return wrap(r, fd, true)
}

// WrapBorrowed registers fd with r without taking ownership:
// [AsyncFD.Close] deregisters but does not close the descriptor, whose
// lifetime remains the caller's responsibility.
func WrapBorrowed(r *Reactor, fd int) (*AsyncFD, error) {
	return wrap(r, fd, false)
}

func wrap(r *Reactor, fd int, owned bool) (*AsyncFD, error) {
	reg, err := r.Register(fd)
	if err != nil {
		return nil, err
	}
	return &AsyncFD{reg: reg, fd: fd, owned: owned}, nil
}

// FD returns the underlying descriptor.
func (a *AsyncFD) FD() int { return a.fd }

// Read reads up to len(p) bytes into p, suspending until the descriptor is
// readable. It returns (0, io.EOF) at end-of-stream: a 0-byte result from
// the kernel is terminal, never a would-block. A zero-length p returns
// (0, nil) without a syscall.
func (a *AsyncFD) Read(p []byte) (int, error) {
	return a.ReadContext(context.Background(), p)
}

// ReadContext is [AsyncFD.Read] with cancellation. If ctx is cancelled
// while suspended, ctx.Err() is returned and no bytes have been consumed
// from the descriptor.
func (a *AsyncFD) ReadContext(ctx context.Context, p []byte) (int, error) {
	if a.closed.Load() {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if err := a.reg.WaitRead(ctx); err != nil {
			return 0, err
		}
		n, err := unix.Read(a.fd, p)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				// Stale readiness (edge-triggered race, or a competing
				// consumer drained the buffer). Nothing was consumed;
				// clear and wait for the next notification. Readiness
				// survives across successful reads, so data left in the
				// kernel buffer satisfies the next call immediately.
				a.reg.ClearReadReady()
				a.countRetry()
				continue
			}
			return 0, err
		}
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	}
}

// Write writes from p, suspending until the descriptor is writable. It may
// return a short count; the caller resubmits the remainder (this adapter
// does not loop across partial writes within one call). A zero-length p
// returns (0, nil) without a syscall.
func (a *AsyncFD) Write(p []byte) (int, error) {
	return a.WriteContext(context.Background(), p)
}

// WriteContext is [AsyncFD.Write] with cancellation. If ctx is cancelled
// while suspended, ctx.Err() is returned and nothing has been written.
func (a *AsyncFD) WriteContext(ctx context.Context, p []byte) (int, error) {
	if a.closed.Load() {
		return 0, ErrClosed
	}
	if len(p) == 0 {
		return 0, nil
	}
	for {
		if err := a.reg.WaitWrite(ctx); err != nil {
			return 0, err
		}
		n, err := unix.Write(a.fd, p)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
				a.reg.ClearWriteReady()
				a.countRetry()
				continue
			}
			return 0, err
		}
		return n, nil
	}
}

// Flush always succeeds immediately: raw syscalls commit directly to the
// kernel, so there is no user-space buffer to flush.
func (a *AsyncFD) Flush() error {
	return nil
}

// CloseWrite half-closes the stream: the write direction is shut down via
// shutdown(2) with SHUT_WR while the read direction stays open for
// in-flight peer data. One-shot; whether a second call succeeds, and what
// a concurrent read on the same descriptor observes afterwards, is
// OS-defined. Subsequent writes fail with an OS error (EPIPE-class).
func (a *AsyncFD) CloseWrite() error {
	if a.closed.Load() {
		return ErrClosed
	}
	return unix.Shutdown(a.fd, unix.SHUT_WR)
}

// Close deregisters the descriptor, wakes suspended readers and writers
// with [ErrClosed], and closes the descriptor if the adapter owns it.
// Idempotent.
//
// Close must not race an in-flight Read or Write syscall on an owned
// adapter: a call that has passed its closed check but not yet entered the
// kernel could observe EBADF, or worse, a reused descriptor number.
// Callers that cannot arrange quiescence should cancel the operations'
// contexts and wait for them to return first. Waiters suspended in the
// readiness wait are safe and observe [ErrClosed].
func (a *AsyncFD) Close() error {
	if a.closed.Swap(true) {
		return nil
	}
	a.reg.Deregister()
	if a.owned {
		return unix.Close(a.fd)
	}
	return nil
}

func (a *AsyncFD) countRetry() {
	if s := a.reg.reactor.stats; s != nil {
		s.retries.Add(1)
	}
}
