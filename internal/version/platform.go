package version

import "runtime"

// Platform identifies the OS the running binary was built for, sent as a
// query parameter on the version-check request (§6 "Version check
// endpoint"). PlatformAndroid has no corresponding Go build target in this
// daemon — it is kept so the wire enum stays a faithful mirror of the
// mobile client's value, which shares this same endpoint and response
// schema.
type Platform string

const (
	PlatformLinux   Platform = "linux"
	PlatformMacOS   Platform = "macos"
	PlatformWindows Platform = "windows"
	PlatformAndroid Platform = "android"
)

// CurrentPlatform reports the Platform value for the OS this binary was
// built for. Falls back to PlatformLinux for any GOOS this daemon does not
// ship on (there is no build target whose version-check query should ever
// hit the default case).
func CurrentPlatform() Platform {
	switch runtime.GOOS {
	case "windows":
		return PlatformWindows
	case "darwin":
		return PlatformMacOS
	default:
		return PlatformLinux
	}
}
