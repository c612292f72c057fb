package main

import (
	"bytes"
	"path/filepath"
	"testing"

	voyager "github.com/nullvoyager/voyager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetErr(&buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "voyager version "+voyager.Version+"\n", out)
}

func TestPromptCommand(t *testing.T) {
	out, err := execute(t, "prompt", "--mode", "planning")
	require.NoError(t, err)
	assert.Contains(t, out, "Current User Context:")
	assert.Contains(t, out, "- Travelers: 1")
	assert.Contains(t, out, "CURRENT MODE: PLANNING")
}

func TestSessionCommands(t *testing.T) {
	t.Chdir(t.TempDir())
	dir := filepath.Join(t.TempDir(), "sessions")
	store := []string{"--store", "file", "--store-dir", dir}

	out, err := execute(t, append([]string{"session", "ls"}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "No sessions found.")

	out, err = execute(t, append([]string{"session", "mode", "trip-1", "booking"}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Session 'trip-1' is now in BOOKING mode")

	out, err = execute(t, append([]string{"session", "inspect", "trip-1"}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, `"mode": "BOOKING"`)

	out, err = execute(t, append([]string{"session", "ls"}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "- trip-1")

	_, err = execute(t, append([]string{"session", "mode", "trip-1", "sleeping"}, store...)...)
	assert.Error(t, err)

	out, err = execute(t, append([]string{"session", "rm", "trip-1"}, store...)...)
	require.NoError(t, err)
	assert.Contains(t, out, "Removed session 'trip-1'")

	_, err = execute(t, append([]string{"session", "inspect", "trip-1"}, store...)...)
	assert.ErrorContains(t, err, "not found")
}
