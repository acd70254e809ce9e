package app

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPaths(t *testing.T) {
	p := NewPaths("/project")
	assert.Equal(t, filepath.Join("/project", ".geoloc"), p.Root)
	assert.Equal(t, filepath.Join("/project", ".geoloc", "results.db"), p.DB)
	assert.Equal(t, filepath.Join("/project", ".geoloc", "log"), p.LogDir)
	assert.Equal(t, filepath.Join("/project", ".geoloc", "log", "geoloc.log"), p.Log)
	assert.Equal(t, filepath.Join("/project", ".geoloc", "inbox"), p.InboxDir)
}

func TestEnsureDirs(t *testing.T) {
	dir := t.TempDir()
	p := NewPaths(dir)

	// First call creates directories.
	require.NoError(t, p.EnsureDirs())
	for _, d := range []string{p.Root, p.LogDir, p.InboxDir} {
		info, err := os.Stat(d)
		require.NoError(t, err, "dir %s should exist", d)
		assert.True(t, info.IsDir())
	}

	// Second call is idempotent.
	require.NoError(t, p.EnsureDirs())
}

func TestCleanOutputs(t *testing.T) {
	p := NewPaths(t.TempDir())
	require.NoError(t, p.EnsureDirs())

	keep := filepath.Join(p.InboxDir, "batch.jsonl")
	require.NoError(t, os.WriteFile(keep, []byte("{}\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(p.InboxDir, "a.resolved.jsonl"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(p.InboxDir, "b.resolved.jsonl"), nil, 0644))

	n, err := p.CleanOutputs()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = os.Stat(keep)
	assert.NoError(t, err, "input batches stay")

	n, err = p.CleanOutputs()
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}
