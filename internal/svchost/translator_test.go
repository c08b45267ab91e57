package svchost

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestTranslatorAcksInterrogateWithoutSideEffects(t *testing.T) {
	r := NewReporter(func(Status) {})
	shutdownCalled := false
	tr := NewTranslator(r, func() { shutdownCalled = true })

	require.True(t, tr.Handle(RawControl{Kind: ControlInterrogate}))
	require.False(t, shutdownCalled)
	require.False(t, tr.CleanShutdown())
}

func TestTranslatorStopReportsStopPendingAndInvokesShutdown(t *testing.T) {
	var reports []Status
	r := NewReporter(func(s Status) { reports = append(reports, s) })
	shutdownCalled := false
	tr := NewTranslator(r, func() { shutdownCalled = true })

	require.True(t, tr.Handle(RawControl{Kind: ControlRequestStop}))
	require.True(t, shutdownCalled)
	require.True(t, tr.CleanShutdown())
	require.Len(t, reports, 1)
	require.Equal(t, StateStopPending, reports[0].State)
	require.Equal(t, 10*time.Second, reports[0].WaitHint)

	select {
	case ev := <-tr.Events():
		require.Equal(t, ControlRequestStop, ev.Kind)
	default:
		t.Fatal("expected stop event forwarded")
	}
}

func TestTranslatorForwardsPowerAndSessionEvents(t *testing.T) {
	r := NewReporter(func(Status) {})
	tr := NewTranslator(r, func() {})

	require.True(t, tr.Handle(RawControl{Kind: ControlRequestPowerEvent, EventType: 4}))
	require.True(t, tr.Handle(RawControl{Kind: ControlRequestSessionChange, EventType: 7}))

	first := <-tr.Events()
	second := <-tr.Events()
	require.Equal(t, ControlRequestPowerEvent, first.Kind)
	require.EqualValues(t, 4, first.EventType)
	require.Equal(t, ControlRequestSessionChange, second.Kind)
	require.EqualValues(t, 7, second.EventType)
}

func TestTranslatorRejectsUnknownControl(t *testing.T) {
	r := NewReporter(func(Status) {})
	tr := NewTranslator(r, func() {})

	require.False(t, tr.Handle(RawControl{Kind: ControlUnknown}))
}
