package tunnel

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPostmortemDefaultsToChildProcessDied(t *testing.T) {
	err := postmortem("")
	require.ErrorIs(t, err, errChildProcessDied)
}

func TestPostmortemDetectsMissingTapAdapter(t *testing.T) {
	if runtime.GOOS != "windows" {
		t.Skip("TAP adapter postmortem scanning only runs on windows")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "openvpn.log")
	require.NoError(t, os.WriteFile(path, []byte("some preamble\n"+logMissingTapAdapter+"\n"), 0644))

	err := postmortem(path)
	require.ErrorIs(t, err, errMissingTapAdapter)
}

func TestPostmortemDetectsDisabledTapAdapter(t *testing.T) {
	if runtime.GOOS != "windows" {
		t.Skip("TAP adapter postmortem scanning only runs on windows")
	}
	dir := t.TempDir()
	path := filepath.Join(dir, "openvpn.log")
	require.NoError(t, os.WriteFile(path, []byte(logDisabledTapAdapter+"\n"), 0644))

	err := postmortem(path)
	require.ErrorIs(t, err, errDisabledTapAdapter)
}
