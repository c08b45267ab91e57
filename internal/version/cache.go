package version

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/mullvad/talpid-daemon/internal/core"
	"github.com/mullvad/talpid-daemon/internal/taperr"
)

// cacheFileName is the on-disk cache name, relative to the daemon's cache
// directory (§6 "Cache file").
const cacheFileName = "version-info.json"

// loadCache reads the on-disk cache, rejecting it (falling back to safe
// defaults) if it was written by a different product version than
// productVersion, or if it is missing or malformed. isDevBuild controls
// the `supported` default per §4.F.
func loadCache(cacheDir, productVersion string, isDevBuild bool) Info {
	info, err := tryLoadCache(cacheDir, productVersion)
	if err != nil {
		core.Log.Warnf("Version", "unable to load cached version info: %v", err)
		return Info{
			Supported:    isDevBuild,
			LatestStable: productVersion,
			LatestBeta:   productVersion,
		}
	}
	return info
}

func tryLoadCache(cacheDir, productVersion string) (Info, error) {
	path := filepath.Join(cacheDir, cacheFileName)
	core.Log.Debugf("Version", "loading version check cache from %s", path)

	raw, err := os.ReadFile(path)
	if err != nil {
		return Info{}, taperr.New(taperr.KindTransient, "read version cache", err)
	}

	var cached cachedInfo
	if err := json.Unmarshal(raw, &cached); err != nil {
		return Info{}, taperr.New(taperr.KindTransient, "parse version cache", err)
	}

	if cached.CachedFromVersion != productVersion {
		return Info{}, taperr.ErrCacheVersionMismatch
	}
	return cached.Info, nil
}

// writeCache persists info to the on-disk cache as pretty-printed JSON,
// tagged with productVersion so a later load can detect a stale cache.
func writeCache(cacheDir, productVersion string, info Info) error {
	path := filepath.Join(cacheDir, cacheFileName)
	core.Log.Debugf("Version", "writing version check cache to %s", path)

	cached := cachedInfo{Info: info, CachedFromVersion: productVersion}
	buf, err := json.MarshalIndent(cached, "", "  ")
	if err != nil {
		return taperr.New(taperr.KindTransient, "serialize version cache", err)
	}

	if err := os.WriteFile(path, buf, 0o644); err != nil {
		return taperr.New(taperr.KindTransient, "write version cache", err)
	}
	return nil
}
