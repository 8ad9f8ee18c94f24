//go:build linux || darwin

package asyncfd

import (
	"sync/atomic"
	"testing"

	"github.com/joeycumines/logiface"
	"github.com/stretchr/testify/require"
)

// testEvent is a minimal logiface.Event implementation for testing the
// structured logging paths.
type testEvent struct {
	logiface.UnimplementedEvent
	level logiface.Level
}

func (e *testEvent) Level() logiface.Level        { return e.level }
func (e *testEvent) AddField(key string, val any) {}

// testEventFactory creates testEvent instances.
type testEventFactory struct{}

func (f *testEventFactory) NewEvent(level logiface.Level) *testEvent {
	return &testEvent{level: level}
}

// testEventWriter counts written events.
type testEventWriter struct {
	count atomic.Int64
}

func (w *testEventWriter) Write(event *testEvent) error {
	w.count.Add(1)
	return nil
}

// TestWithLogger verifies lifecycle events reach a configured logger.
func TestWithLogger(t *testing.T) {
	writer := &testEventWriter{}
	typedLogger := logiface.New[*testEvent](
		logiface.WithEventFactory[*testEvent](&testEventFactory{}),
		logiface.WithWriter[*testEvent](writer),
		logiface.WithLevel[*testEvent](logiface.LevelDebug),
	)

	r, err := NewReactor(WithLogger(typedLogger.Logger()))
	require.NoError(t, err)
	require.NoError(t, r.Close())

	// At minimum the start and close events.
	require.GreaterOrEqual(t, writer.count.Load(), int64(2))
}

// TestWithLogger_NilIsSilent verifies the default (no logger) path works;
// logiface loggers are nil-safe so logging sites need no guards.
func TestWithLogger_NilIsSilent(t *testing.T) {
	r, err := NewReactor(WithLogger(nil))
	require.NoError(t, err)
	require.NoError(t, r.Close())
}

func TestWithEventBufferSize_Invalid(t *testing.T) {
	_, err := NewReactor(WithEventBufferSize(0))
	require.Error(t, err)
	_, err = NewReactor(WithEventBufferSize(-5))
	require.Error(t, err)
}

func TestWithEventBufferSize_Valid(t *testing.T) {
	r, err := NewReactor(WithEventBufferSize(8))
	require.NoError(t, err)
	require.NoError(t, r.Close())
}

// TestNilOption verifies nil options are skipped gracefully.
func TestNilOption(t *testing.T) {
	r, err := NewReactor(nil, WithStats(true), nil)
	require.NoError(t, err)
	require.NoError(t, r.Close())
}
