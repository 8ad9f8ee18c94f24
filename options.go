//go:build linux || darwin

package asyncfd

import (
	"fmt"

	"github.com/joeycumines/logiface"
)

// reactorOptions holds configuration options for Reactor creation.
type reactorOptions struct {
	logger          *logiface.Logger[logiface.Event]
	eventBufferSize int
	statsEnabled    bool
}

// ReactorOption configures a Reactor instance.
type ReactorOption interface {
	applyReactor(*reactorOptions) error
}

// reactorOptionImpl implements ReactorOption.
type reactorOptionImpl struct {
	applyReactorFunc func(*reactorOptions) error
}

func (o *reactorOptionImpl) applyReactor(opts *reactorOptions) error {
	return o.applyReactorFunc(opts)
}

// WithLogger attaches a structured logger to the reactor. The reactor logs
// lifecycle events at debug level and poll failures at error level. A nil
// logger (the default) disables logging; logiface loggers are nil-safe, so
// the unconfigured path costs nothing.
func WithLogger(logger *logiface.Logger[logiface.Event]) ReactorOption {
	return &reactorOptionImpl{func(opts *reactorOptions) error {
		opts.logger = logger
		return nil
	}}
}

// WithEventBufferSize sets the capacity of the poller's preallocated event
// buffer, i.e. the maximum number of readiness events consumed per poll
// syscall. Defaults to 128.
func WithEventBufferSize(n int) ReactorOption {
	return &reactorOptionImpl{func(opts *reactorOptions) error {
		if n <= 0 {
			return fmt.Errorf("asyncfd: event buffer size must be positive, got %d", n)
		}
		opts.eventBufferSize = n
		return nil
	}}
}

// WithStats enables runtime counters on the Reactor, accessible via
// [Reactor.Stats]. Disabled by default; the counters are atomic and cheap
// but not free.
func WithStats(enabled bool) ReactorOption {
	return &reactorOptionImpl{func(opts *reactorOptions) error {
		opts.statsEnabled = enabled
		return nil
	}}
}

// resolveReactorOptions applies ReactorOption instances to reactorOptions.
func resolveReactorOptions(opts []ReactorOption) (*reactorOptions, error) {
	cfg := &reactorOptions{
		eventBufferSize: defaultEventBufferSize,
	}
	for _, opt := range opts {
		if opt == nil {
			continue // Skip nil options gracefully
		}
		if err := opt.applyReactor(cfg); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
