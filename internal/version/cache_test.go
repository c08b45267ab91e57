package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	info := Info{
		Supported:        true,
		LatestStable:     "2020.4",
		LatestBeta:       "2020.5-beta3",
		SuggestedUpgrade: "2020.4",
	}

	require.NoError(t, writeCache(dir, "2020.3", info))

	loaded := loadCache(dir, "2020.3", false)
	require.Equal(t, info, loaded)
}

func TestCacheRejectsVersionMismatch(t *testing.T) {
	dir := t.TempDir()
	info := Info{LatestStable: "2020.4", LatestBeta: "2020.4"}
	require.NoError(t, writeCache(dir, "2020.3", info))

	loaded := loadCache(dir, "2020.4", false)
	require.Equal(t, Info{
		Supported:    false,
		LatestStable: "2020.4",
		LatestBeta:   "2020.4",
	}, loaded)
}

func TestCacheMissingFallsBackToDevBuildDefaults(t *testing.T) {
	dir := t.TempDir()
	loaded := loadCache(dir, "2020.5-dev-abc123", true)
	require.Equal(t, Info{
		Supported:    true,
		LatestStable: "2020.5-dev-abc123",
		LatestBeta:   "2020.5-dev-abc123",
	}, loaded)
}
