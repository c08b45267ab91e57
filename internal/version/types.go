package version

// CheckResponse mirrors the version-check endpoint's response body (§6):
// `{ supported, latest, latest_stable?, latest_beta }`.
type CheckResponse struct {
	Supported    bool   `json:"supported"`
	Latest       string `json:"latest"`
	LatestStable string `json:"latest_stable,omitempty"`
	LatestBeta   string `json:"latest_beta"`
}

// Info is what the updater publishes to the daemon and persists to disk:
// the response's supported/latest-stable/latest-beta fields plus the
// suggested upgrade computed against the running binary's own version.
type Info struct {
	Supported        bool   `json:"supported"`
	LatestStable     string `json:"latest_stable"`
	LatestBeta       string `json:"latest_beta"`
	SuggestedUpgrade string `json:"suggested_upgrade,omitempty"`
}

// cachedInfo is the on-disk shape (§4.F "Cache format"): Info flattened
// alongside the product version the cache was written under, so a stale
// cache left behind by an older or newer install can be detected and
// discarded on load.
type cachedInfo struct {
	Info
	CachedFromVersion string `json:"cached_from_version"`
}
