package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/mullvad/talpid-daemon/internal/core"
)

// waitForInterrupt blocks until SIGINT or SIGTERM arrives, then signals
// shutdown. It is the foreground-run counterpart to the SCM-driven shutdown
// path svchost.Run takes when hosted by the service dispatcher.
func waitForInterrupt(shutdown *ShutdownHandle) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	sig := <-ch
	core.Log.Infof("Core", "received %s, shutting down", sig)
	shutdown.Signal()
}
