//go:build linux || darwin

package asyncfd

// maxFDLimit is the maximum FD value we support for dynamic growth.
// 100M is enough for production with ulimit -n > 1M.
const maxFDLimit = 100000000

// initialFDs is the initial capacity of the fd-indexed registration table.
const initialFDs = 1024

// ioEvents represents the type of I/O events delivered by the poller.
type ioEvents uint32

const (
	// eventRead indicates the file descriptor is ready for reading.
	eventRead ioEvents = 1 << iota
	// eventWrite indicates the file descriptor is ready for writing.
	eventWrite
	// eventError indicates an error condition on the file descriptor.
	eventError
	// eventHangup indicates the peer closed its end of the connection.
	eventHangup
)

// defaultEventBufferSize is the default capacity of the poller's
// preallocated event buffer. Configurable via [WithEventBufferSize].
const defaultEventBufferSize = 128
