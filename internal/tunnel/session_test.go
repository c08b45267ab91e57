package tunnel

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/mullvad/talpid-daemon/internal/procwatch"
)

var errTestIO = errors.New("simulated wait I/O error")

// deliverLater sends v on ch after a short delay, so the race under test
// sees only the other channel ready and that watcher deterministically
// fires first; the late value is then drained.
func deliverLater[T any](ch chan T, v T) {
	go func() {
		time.Sleep(20 * time.Millisecond)
		ch <- v
	}()
}

func bareSession() *Session {
	return &Session{
		cfg:   Config{},
		close: newCloseHandle(func() {}),
	}
}

func TestRaceChildAndIPCChildExitsCleanly(t *testing.T) {
	s := bareSession()

	childDone := make(chan childResult, 1)
	ipcDone := make(chan struct{}, 1)
	childDone <- childResult{status: procwatch.ExitStatus{Success: true}}
	deliverLater(ipcDone, struct{}{})

	err := s.raceChildAndIPC(childDone, ipcDone)
	require.NoError(t, err)
}

func TestRaceChildAndIPCChildDiesUnexpectedly(t *testing.T) {
	s := bareSession()

	childDone := make(chan childResult, 1)
	ipcDone := make(chan struct{}, 1)
	childDone <- childResult{status: procwatch.ExitStatus{Success: false}}
	deliverLater(ipcDone, struct{}{})

	err := s.raceChildAndIPC(childDone, ipcDone)
	require.Error(t, err)
}

func TestRaceChildAndIPCChildExitsNonZeroAfterClose(t *testing.T) {
	s := bareSession()
	s.close.Close() // simulate an external close before the child reports its exit

	childDone := make(chan childResult, 1)
	ipcDone := make(chan struct{}, 1)
	childDone <- childResult{status: procwatch.ExitStatus{Success: false}}
	deliverLater(ipcDone, struct{}{})

	err := s.raceChildAndIPC(childDone, ipcDone)
	require.NoError(t, err)
}

func TestRaceChildAndIPCDispatcherExitsFirst(t *testing.T) {
	s := bareSession()

	childDone := make(chan childResult, 1)
	ipcDone := make(chan struct{}, 1)
	ipcDone <- struct{}{}
	deliverLater(childDone, childResult{status: procwatch.ExitStatus{Success: true}}) // drained, discarded

	err := s.raceChildAndIPC(childDone, ipcDone)
	require.ErrorIs(t, err, errEventDispatcherExited)
}

func TestRaceChildAndIPCChildWaitErrors(t *testing.T) {
	s := bareSession()

	childDone := make(chan childResult, 1)
	ipcDone := make(chan struct{}, 1)
	childDone <- childResult{err: errTestIO}
	deliverLater(ipcDone, struct{}{})

	err := s.raceChildAndIPC(childDone, ipcDone)
	require.Error(t, err)
}
