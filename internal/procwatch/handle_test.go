package procwatch

import (
	"os/exec"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func sleeperCmd(t *testing.T, seconds int) *exec.Cmd {
	t.Helper()
	if runtime.GOOS == "windows" {
		return exec.Command("ping", "-n", "1000", "127.0.0.1")
	}
	return exec.Command("sleep", "100")
}

func TestHandleWaitAfterNaturalExit(t *testing.T) {
	var cmd *exec.Cmd
	if runtime.GOOS == "windows" {
		cmd = exec.Command("cmd", "/c", "exit 0")
	} else {
		cmd = exec.Command("true")
	}
	require.NoError(t, cmd.Start())

	h := New(cmd)
	status, err := h.Wait()
	require.NoError(t, err)
	require.True(t, status.Success)
	require.False(t, status.Killed)
}

func TestHandleKillIsIdempotent(t *testing.T) {
	cmd := sleeperCmd(t, 100)
	require.NoError(t, cmd.Start())

	h := New(cmd)
	done := make(chan struct{})
	go func() {
		h.Wait()
		close(done)
	}()

	require.NoError(t, h.Kill())
	require.NoError(t, h.Kill()) // second call must not error or block

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("wait did not return after kill")
	}
}

func TestHandleNiceKillForcesAfterTimeout(t *testing.T) {
	// A process that ignores the graceful signal entirely: nice_kill
	// must still return once the timeout elapses and the force-kill
	// takes effect.
	cmd := sleeperCmd(t, 100)
	if runtime.GOOS != "windows" {
		cmd = exec.Command("sh", "-c", "trap '' TERM; exec sleep 100")
	}
	require.NoError(t, cmd.Start())

	h := New(cmd)
	go h.Wait()

	start := time.Now()
	require.NoError(t, h.NiceKill(200*time.Millisecond))
	require.Less(t, time.Since(start), 5*time.Second)

	status, err := h.Wait()
	require.NoError(t, err)
	require.True(t, status.Killed)
}
