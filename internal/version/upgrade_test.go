package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSuggestedUpgradeTable(t *testing.T) {
	resp := CheckResponse{
		Supported:    true,
		Latest:       "2020.5-beta3",
		LatestStable: "2020.4",
		LatestBeta:   "2020.5-beta3",
	}

	cases := []struct {
		current  string
		showBeta bool
		want     string
	}{
		{"2020.3", false, "2020.4"},
		{"2020.3", true, "2020.5-beta3"},
		{"2020.4", false, ""},
		{"2020.4", true, "2020.5-beta3"},
		{"2021.5", false, ""},
		{"2021.5", true, ""},
		{"2020.3-beta3", false, "2020.4"},
	}

	for _, c := range cases {
		current, ok := ParseAppVersion(c.current)
		require.True(t, ok, c.current)
		got := SuggestedUpgrade(current, resp, c.showBeta)
		require.Equal(t, c.want, got, "current=%s showBeta=%v", c.current, c.showBeta)
	}
}

func TestSuggestedUpgradeIgnoresUnparseableStable(t *testing.T) {
	resp := CheckResponse{LatestStable: "garbage", LatestBeta: "2020.5-beta3"}
	current, ok := ParseAppVersion("2020.3")
	require.True(t, ok)

	require.Equal(t, "", SuggestedUpgrade(current, resp, false))
	require.Equal(t, "2020.5-beta3", SuggestedUpgrade(current, resp, true))
}
