package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/depthcloud/internal/monitoring"
)

func init() {
	monitoring.SetLogger(nil)
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)
	return stdout.String(), err
}

func TestRun_Version(t *testing.T) {
	out, err := runCLI(t, "version")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "depthcloud dev"))
}

func TestRun_UnknownCommand(t *testing.T) {
	_, err := runCLI(t, "frobnicate")
	assert.ErrorContains(t, err, "unknown command")

	_, err = runCLI(t)
	assert.Error(t, err)
}

func TestRun_SynthAndReplay(t *testing.T) {
	dir := t.TempDir()
	stream := filepath.Join(dir, "frames.cbor")

	for _, compression := range []string{"none", "lz4", "zstd", "bg4_lz4"} {
		t.Run(compression, func(t *testing.T) {
			out, err := runCLI(t, "synth", "--out", stream, "--frames", "5", "--width", "8", "--height", "6",
				"--compression", compression, "--invalid-every", "5")
			require.NoError(t, err)
			assert.Contains(t, out, "wrote 5 frames")

			html := filepath.Join(dir, "last.html")
			png := filepath.Join(dir, "last.png")
			out, err = runCLI(t, "replay", "--in", stream, "--html", html, "--png", png)
			require.NoError(t, err)
			assert.Contains(t, out, "frames=5 invalid=1 errors=0")
			// Frame 5 is invalid, so the last valid frame is 4.
			assert.Contains(t, out, "last valid frame 4: 48 points")
			assert.FileExists(t, html)
			assert.FileExists(t, png)
		})
	}
}

func TestRun_ReplayXYZConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "xyz.jsonc")
	require.NoError(t, os.WriteFile(cfgPath, []byte(`{"record_type": "xyz", "buffer_capacity": 16}`), 0644))
	stream := filepath.Join(dir, "frames.cbor")

	_, err := runCLI(t, "--config", cfgPath, "synth", "-o", stream, "-n", "3", "--width", "4", "--height", "4")
	require.NoError(t, err)

	out, err := runCLI(t, "--config", cfgPath, "replay", "-i", stream)
	require.NoError(t, err)
	assert.Contains(t, out, "frames=3 invalid=0")
	assert.Contains(t, out, "last valid frame 3: 16 points")
}

func TestRun_ReplayErrors(t *testing.T) {
	_, err := runCLI(t, "replay")
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty.cbor")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = runCLI(t, "replay", "--in", empty)
	assert.ErrorContains(t, err, "no snapshots")
}

func TestRun_Profiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "profiles")
	profile := func(args ...string) (string, error) {
		return runCLI(t, append([]string{"profile", "--dir", dir}, args...)...)
	}

	out, err := profile("default")
	require.NoError(t, err)
	assert.Equal(t, "1\tDefault\n", out)

	out, err = profile("create", "Lab")
	require.NoError(t, err)
	assert.Equal(t, "2\tLab\n", out)

	_, err = profile("create", "lab")
	assert.ErrorContains(t, err, "already in use")

	require.NoError(t, ignoreOut(profile("select", "2")))
	require.NoError(t, ignoreOut(profile("rename", "2", "Workshop")))
	require.NoError(t, ignoreOut(profile("set-map", "2", "workshop.map")))
	require.NoError(t, ignoreOut(profile("set-meshes", "2", "a.obj", "b.obj")))

	out, err = profile("list")
	require.NoError(t, err)
	assert.Contains(t, out, "Workshop")
	assert.Contains(t, out, "a.obj,b.obj")
	assert.Contains(t, out, "Default (default)")

	// Referenced files do not exist yet.
	_, err = profile("verify", "2")
	assert.Error(t, err)
	for _, name := range []string{"workshop.map", "a.obj", "b.obj"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "2", name), []byte("x"), 0644))
	}
	out, err = profile("verify", "2")
	require.NoError(t, err)
	assert.Equal(t, "profile 2 ok\n", out)

	require.NoError(t, ignoreOut(profile("delete", "2")))
	assert.NoDirExists(t, filepath.Join(dir, "2"))

	_, err = profile("delete", "2")
	assert.ErrorContains(t, err, "not found")
	_, err = profile("select", "x")
	assert.ErrorContains(t, err, "invalid profile id")
	_, err = profile("bogus")
	assert.ErrorContains(t, err, "unknown profile command")
}

func TestRun_GridBox(t *testing.T) {
	out := filepath.Join(t.TempDir(), "box.png")
	stdout, err := runCLI(t, "gridbox", "--out", out, "--projection", "xz", "--half-extents", "2,1,0.5")
	require.NoError(t, err)
	assert.Contains(t, stdout, "12 edges, 32 grid lines, 6 colliders")
	assert.FileExists(t, out)

	_, err = runCLI(t, "gridbox", "--out", out, "--center", "1,2")
	assert.ErrorContains(t, err, "three values")
	_, err = runCLI(t, "gridbox", "--out", out, "--projection", "yx")
	assert.Error(t, err)
}

func ignoreOut(_ string, err error) error { return err }
