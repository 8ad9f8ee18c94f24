// Package asyncfd adapts arbitrary operating-system file descriptors
// (sockets, pipes, ttys, eventfds, character devices) into non-blocking,
// readiness-driven byte streams, without allocating one OS thread per
// blocked operation.
//
// # Architecture
//
// A [Reactor] owns a platform poller and a background dispatch goroutine.
// [Reactor.Register] binds a descriptor to the reactor with both read and
// write interest and returns a [Registration], whose [Registration.WaitRead]
// and [Registration.WaitWrite] suspend the calling goroutine until the OS
// reports the descriptor ready in that direction.
//
// [Wrap] layers an [AsyncFD] on top of a registration, implementing the
// standard suspend-on-not-ready / retry-on-would-block contract: each
// Read or Write awaits readiness and attempts the raw syscall. Only when
// the kernel reports EAGAIN (stale readiness under edge-triggered delivery,
// or a shared descriptor drained by a competing consumer) does the adapter
// clear readiness and loop back to the wait. Readiness survives successful
// syscalls, so data left buffered in the kernel, or a socket that stays
// writable, satisfies the next call in that direction without waiting for
// an edge that will never re-fire. Would-block outcomes are never visible
// to callers; every call resolves to exactly one of success-with-count or
// error.
//
// # Platform Support
//
// Readiness notification is implemented with platform-native mechanisms:
//   - Linux: epoll, edge-triggered
//   - macOS: kqueue, EV_CLEAR
//
// Other platforms are not supported; the package carries build constraints
// accordingly.
//
// # Preconditions
//
// Descriptors must be in non-blocking mode before they are wrapped. Use
// [SetNonblocking]; [Wrap] does not set the flag implicitly. Wrapping a
// descriptor still in blocking mode is a caller error: syscalls execute on
// the calling goroutine, so a blocking descriptor stalls that goroutine
// (never the reactor's dispatch loop), and readiness-driven suspension is
// defeated.
//
// # Concurrency
//
// One goroutine reading while another writes on the same [AsyncFD] is a
// supported pattern; the directions use independent readiness state and
// independent syscalls. Two concurrent readers, or two concurrent writers,
// on the same adapter yield undefined interleaving of syscalls and
// readiness clears and are not supported. Cancellation while suspended (via
// context) leaves no state on the descriptor: the syscall has not been
// attempted yet.
//
// [AsyncFD.Close] on an owned adapter closes the descriptor; it must not
// race a Read or Write that is already past its closed check and about to
// enter the kernel. Cancel in-flight operations and wait for them to
// return before closing, or use [WrapBorrowed] and manage the descriptor
// lifetime externally.
//
// Timeouts are deliberately not provided at this layer; compose them with
// [context.Context] at the call site.
package asyncfd
