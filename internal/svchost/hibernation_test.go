package svchost

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHibernationDetectorRestartsAfterInteractiveLogoffThenQuickSuspend(t *testing.T) {
	restarted := 0
	d := NewHibernationDetector(func() { restarted++ })

	t0 := time.Unix(1000, 0)
	d.Logoff(true, t0)
	d.Suspend(t0.Add(2 * time.Second))
	d.Resume()

	require.Equal(t, 1, restarted)
}

func TestHibernationDetectorIgnoresNonInteractiveLogoff(t *testing.T) {
	restarted := 0
	d := NewHibernationDetector(func() { restarted++ })

	t0 := time.Unix(1000, 0)
	d.Logoff(false, t0)
	d.Suspend(t0.Add(2 * time.Second))
	d.Resume()

	require.Equal(t, 0, restarted)
}

func TestHibernationDetectorIgnoresSlowSuspend(t *testing.T) {
	restarted := 0
	d := NewHibernationDetector(func() { restarted++ })

	t0 := time.Unix(1000, 0)
	d.Logoff(true, t0)
	d.Suspend(t0.Add(6 * time.Second))
	d.Resume()

	require.Equal(t, 0, restarted)
}

func TestHibernationDetectorDisarmsAfterResume(t *testing.T) {
	restarted := 0
	d := NewHibernationDetector(func() { restarted++ })

	t0 := time.Unix(1000, 0)
	d.Logoff(true, t0)
	d.Suspend(t0.Add(time.Second))
	d.Resume()
	d.Resume()

	require.Equal(t, 1, restarted)
}
