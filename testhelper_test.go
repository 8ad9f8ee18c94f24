//go:build linux || darwin

package asyncfd

import (
	"testing"

	"golang.org/x/sys/unix"
)

// newTestReactor creates a reactor and registers cleanup.
func newTestReactor(t *testing.T, opts ...ReactorOption) *Reactor {
	t.Helper()
	r, err := NewReactor(opts...)
	if err != nil {
		t.Fatalf("NewReactor failed: %v", err)
	}
	t.Cleanup(func() { _ = r.Close() })
	return r
}

// socketpair returns a connected non-blocking AF_UNIX stream pair.
// The caller owns both descriptors.
func socketpair(t *testing.T) (int, int) {
	t.Helper()
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	if err != nil {
		t.Fatalf("socketpair failed: %v", err)
	}
	for _, fd := range fds {
		if err := SetNonblocking(fd); err != nil {
			t.Fatalf("SetNonblocking(%d) failed: %v", fd, err)
		}
	}
	return fds[0], fds[1]
}

// makePipe returns a non-blocking pipe as (read end, write end).
// The caller owns both descriptors.
func makePipe(t *testing.T) (int, int) {
	t.Helper()
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		t.Fatalf("pipe failed: %v", err)
	}
	for _, fd := range fds {
		if err := SetNonblocking(fd); err != nil {
			t.Fatalf("SetNonblocking(%d) failed: %v", fd, err)
		}
	}
	return fds[0], fds[1]
}

// writeAll writes all of p to a raw non-blocking fd, spinning on EAGAIN.
func writeAll(t *testing.T, fd int, p []byte) {
	t.Helper()
	for len(p) > 0 {
		n, err := unix.Write(fd, p)
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			continue
		}
		if err != nil {
			t.Fatalf("raw write failed: %v", err)
		}
		p = p[n:]
	}
}
