package asyncfd

import "errors"

// Standard errors.
//
// Would-block conditions (EAGAIN/EWOULDBLOCK) are intentionally absent:
// they are internal control flow, absorbed by the retry loops in
// [AsyncFD.Read] and [AsyncFD.Write], and never surfaced to callers.
// Every other OS error is returned verbatim, with the originating errno
// preserved for matching via [errors.Is].
var (
	// ErrReactorClosed is returned by registration attempts against a
	// reactor that has been closed.
	ErrReactorClosed = errors.New("asyncfd: reactor closed")

	// ErrFDOutOfRange is returned when a descriptor is negative or exceeds
	// the supported limit.
	ErrFDOutOfRange = errors.New("asyncfd: fd out of range (max 100000000)")

	// ErrFDAlreadyRegistered is returned when a descriptor is already
	// present in the reactor's interest table.
	ErrFDAlreadyRegistered = errors.New("asyncfd: fd already registered")

	// ErrClosed is returned by operations on an adapter or registration
	// that has been torn down, including waits that were suspended when
	// teardown happened.
	ErrClosed = errors.New("asyncfd: use of closed descriptor")
)
