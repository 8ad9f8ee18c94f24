//go:build linux || darwin

package asyncfd

import (
	"golang.org/x/sys/unix"
)

// SetNonblocking places fd in non-blocking mode (the O_NONBLOCK flag).
//
// Callers are expected to invoke this before wrapping a descriptor with
// [Wrap] or [WrapBorrowed]; the constructors do not set the flag
// implicitly, since the caller may have configured the descriptor already
// (SOCK_NONBLOCK, O_NONBLOCK at open, etc.).
func SetNonblocking(fd int) error {
	return unix.SetNonblock(fd, true)
}
