package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRun_ShouldExit(t *testing.T) {
	t.Parallel()

	args := []string{"-h"}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.NoError(t, err, "run() should return a nil error when shouldExit is true")
	require.Contains(t, out.String(), "Usage:", "Expected help text to be printed to the output buffer")
}

func TestRun_ParseError(t *testing.T) {
	t.Parallel()

	args := []string{"--this-is-not-a-valid-flag"}
	out := &bytes.Buffer{}

	err := run(out, args)

	require.Error(t, err, "run() should return an error when argument parsing fails")
	require.Contains(t, err.Error(), "flag provided but not defined: -this-is-not-a-valid-flag")
}

func TestRun_DumpTable(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(out, []string{"-dump-table"})

	require.NoError(t, err)
	require.Contains(t, out.String(), "object_disposed")
	require.Contains(t, out.String(), "var2bytes")
}

func TestRun_Smoke(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(out, nil)

	require.NoError(t, err)
	require.Contains(t, out.String(), "round-trip")
	require.Contains(t, out.String(), "equal=true")
	require.Contains(t, out.String(), "live handles=0 bindings=0 objects=0",
		"the scenario must tear everything down")
}

func TestRun_SmokeWithManifests(t *testing.T) {
	t.Parallel()

	tempDir := t.TempDir()
	manifest := `
class "Sprite" {
  extends = "Node"
  signal "frame_changed" { args = ["frame"] }
}
`
	require.NoError(t, os.WriteFile(filepath.Join(tempDir, "sprite.hcl"), []byte(manifest), 0600))

	out := &bytes.Buffer{}
	err := run(out, []string{"-manifests", tempDir})

	require.NoError(t, err)
	require.Contains(t, out.String(), "live handles=0 bindings=0 objects=0")
}

func TestRun_BadManifestDir(t *testing.T) {
	t.Parallel()

	out := &bytes.Buffer{}
	err := run(out, []string{"-manifests", filepath.Join(t.TempDir(), "missing")})

	require.Error(t, err)
}
