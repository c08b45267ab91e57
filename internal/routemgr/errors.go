package routemgr

import "github.com/mullvad/talpid-daemon/internal/taperr"

// ErrRouteManagerDown is returned by every public method other than Stop
// once stop() has completed, or if the actor goroutine has already crashed
// (§4.D Failure semantics).
var ErrRouteManagerDown = taperr.ErrRouteManagerDown

func platformError(op string, cause error) error {
	return taperr.New(taperr.KindPlatform, op, cause)
}
