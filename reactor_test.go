//go:build linux || darwin

package asyncfd

import (
	"context"
	"errors"
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestNewReactor_CloseIdempotent(t *testing.T) {
	r, err := NewReactor()
	if err != nil {
		t.Fatalf("NewReactor failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("first Close failed: %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}
}

func TestRegister_AfterClose(t *testing.T) {
	r, err := NewReactor()
	if err != nil {
		t.Fatalf("NewReactor failed: %v", err)
	}
	_ = r.Close()

	rfd, wfd := makePipe(t)
	defer unix.Close(rfd)
	defer unix.Close(wfd)

	if _, err := r.Register(rfd); !errors.Is(err, ErrReactorClosed) {
		t.Fatalf("Register after Close returned %v, want ErrReactorClosed", err)
	}
}

func TestRegister_OutOfRange(t *testing.T) {
	r := newTestReactor(t)

	if _, err := r.Register(-1); !errors.Is(err, ErrFDOutOfRange) {
		t.Fatalf("Register(-1) returned %v, want ErrFDOutOfRange", err)
	}
	if _, err := r.Register(maxFDLimit); !errors.Is(err, ErrFDOutOfRange) {
		t.Fatalf("Register(maxFDLimit) returned %v, want ErrFDOutOfRange", err)
	}
}

func TestRegister_Duplicate(t *testing.T) {
	r := newTestReactor(t)
	rfd, wfd := makePipe(t)
	defer unix.Close(rfd)
	defer unix.Close(wfd)

	reg, err := r.Register(rfd)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	defer reg.Deregister()

	if _, err := r.Register(rfd); !errors.Is(err, ErrFDAlreadyRegistered) {
		t.Fatalf("duplicate Register returned %v, want ErrFDAlreadyRegistered", err)
	}
}

// TestRegister_BadFD verifies a kernel rejection is surfaced and rolled
// back: the slot is reusable afterwards, not stuck "already registered".
func TestRegister_BadFD(t *testing.T) {
	r := newTestReactor(t)

	// Find a descriptor number that is definitely not open.
	rfd, wfd := makePipe(t)
	unix.Close(rfd)
	unix.Close(wfd)

	if _, err := r.Register(rfd); err == nil {
		t.Fatal("Register of a closed fd succeeded, want error")
	} else if errors.Is(err, ErrFDAlreadyRegistered) || errors.Is(err, ErrFDOutOfRange) || errors.Is(err, ErrReactorClosed) {
		t.Fatalf("Register of a closed fd returned %v, want a raw poller error", err)
	}

	// Rollback must have cleared the slot.
	if _, err := r.Register(rfd); errors.Is(err, ErrFDAlreadyRegistered) {
		t.Fatal("slot left occupied after failed registration")
	}
}

// TestRegister_GrowsTable registers a descriptor above the initial table
// capacity.
func TestRegister_GrowsTable(t *testing.T) {
	r := newTestReactor(t)
	rfd, wfd := makePipe(t)
	defer unix.Close(rfd)
	defer unix.Close(wfd)

	highFD, err := unix.FcntlInt(uintptr(rfd), unix.F_DUPFD_CLOEXEC, initialFDs+100)
	if err != nil {
		t.Fatalf("F_DUPFD_CLOEXEC failed: %v", err)
	}
	defer unix.Close(highFD)

	reg, err := r.Register(highFD)
	if err != nil {
		t.Fatalf("Register(%d) failed: %v", highFD, err)
	}
	if reg.FD() != highFD {
		t.Fatalf("FD() = %d, want %d", reg.FD(), highFD)
	}
	reg.Deregister()
}

func TestDeregister_Idempotent(t *testing.T) {
	r := newTestReactor(t)
	rfd, wfd := makePipe(t)
	defer unix.Close(rfd)
	defer unix.Close(wfd)

	reg, err := r.Register(rfd)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	reg.Deregister()
	reg.Deregister() // must not panic or error

	// The fd is registrable again after deregistration.
	reg2, err := r.Register(rfd)
	if err != nil {
		t.Fatalf("re-Register after Deregister failed: %v", err)
	}
	reg2.Deregister()
}

// TestClose_WakesWaiters verifies reactor shutdown releases goroutines
// suspended in readiness waits.
func TestClose_WakesWaiters(t *testing.T) {
	r, err := NewReactor()
	if err != nil {
		t.Fatalf("NewReactor failed: %v", err)
	}
	rfd, wfd := makePipe(t)
	defer unix.Close(rfd)
	defer unix.Close(wfd)

	reg, err := r.Register(rfd)
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}

	errC := make(chan error, 1)
	go func() {
		errC <- reg.WaitRead(context.Background())
	}()

	time.Sleep(50 * time.Millisecond)
	if err := r.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	select {
	case err := <-errC:
		if !errors.Is(err, ErrClosed) {
			t.Fatalf("WaitRead returned %v, want ErrClosed", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("WaitRead was not woken by reactor Close")
	}
}
