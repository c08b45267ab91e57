package svchost

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var errTestExit = errors.New("simulated main loop error")

func TestReporterCheckpointMonotonicity(t *testing.T) {
	var reports []Status
	r := NewReporter(func(s Status) { reports = append(reports, s) })

	r.StartPending()
	r.StartPending()
	r.StartPending()
	r.Running()
	r.StopPending(10 * time.Second)
	r.StopPending(10 * time.Second)
	r.Stopped()

	require.Len(t, reports, 7)
	require.Equal(t, []uint32{1, 2, 3, 0, 1, 2, 0}, checkpoints(reports))
}

func checkpoints(reports []Status) []uint32 {
	out := make([]uint32, len(reports))
	for i, r := range reports {
		out[i] = r.Checkpoint
	}
	return out
}

func TestReporterAcceptedControlsOnlyWhileRunning(t *testing.T) {
	var reports []Status
	r := NewReporter(func(s Status) { reports = append(reports, s) })

	r.StartPending()
	r.Running()
	r.StopPending(10 * time.Second)

	require.Equal(t, Controls(0), reports[0].Accepts)
	require.Equal(t, ControlStop|ControlPreshutdown|ControlPowerEvent|ControlSessionChange, reports[1].Accepts)
	require.Equal(t, Controls(0), reports[2].Accepts)
}

func TestExitCodePolicy(t *testing.T) {
	require.Equal(t, 0, ExitCode(nil, true))
	require.NotEqual(t, 0, ExitCode(nil, false))
	require.NotEqual(t, 0, ExitCode(errTestExit, true))
}
