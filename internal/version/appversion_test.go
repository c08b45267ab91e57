package version

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseAppVersionRoundTrip(t *testing.T) {
	versions := []AppVersion{
		Stable(2020, 4),
		Beta(2020, 4, 3),
		Stable(2021, 1),
		Beta(1999, 0, 0),
	}
	for _, v := range versions {
		parsed, ok := ParseAppVersion(v.String())
		require.True(t, ok, "round trip for %s", v)
		require.Equal(t, v, parsed)
	}
}

func TestParseAppVersionRejectsDevBuildStrings(t *testing.T) {
	for _, s := range []string{
		"2020.5-beta1-dev-f16be4",
		"2020.5-dev-f16be4",
		"",
		"not-a-version",
	} {
		_, ok := ParseAppVersion(s)
		require.False(t, ok, "expected %q to fail to parse", s)
	}
}

func TestParseAppVersionRecognizesPlainShapes(t *testing.T) {
	v, ok := ParseAppVersion("2020.4")
	require.True(t, ok)
	require.Equal(t, Stable(2020, 4), v)

	v, ok = ParseAppVersion("2020.4-beta3")
	require.True(t, ok)
	require.Equal(t, Beta(2020, 4, 3), v)
}

func TestAppVersionOrdering(t *testing.T) {
	require.True(t, Beta(2020, 4, 99).Less(Stable(2020, 4)))
	require.True(t, Beta(2020, 4, 3).Less(Beta(2020, 4, 4)))
	require.True(t, Stable(2020, 99).Less(Stable(2021, 1)))
	require.False(t, Stable(2020, 4).Less(Stable(2020, 4)))
}
