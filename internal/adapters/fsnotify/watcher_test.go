package fsnotify

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Inbox watcher: batch files reported once, after they settle
// =============================================================================

// waitForCallback waits up to timeout for the callback channel to receive a value.
func waitForCallback(ch <-chan string, timeout time.Duration) (string, bool) {
	select {
	case v := <-ch:
		return v, true
	case <-time.After(timeout):
		return "", false
	}
}

func startWatcher(t *testing.T, dir string) (*Watcher, <-chan string) {
	t.Helper()
	w, err := NewWatcher(WithDebounce(50 * time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { w.Stop() })

	changed := make(chan string, 10)
	require.NoError(t, w.Watch(dir, func(path string) {
		changed <- path
	}))
	// Give watcher time to start
	time.Sleep(50 * time.Millisecond)
	return w, changed
}

func TestWatcher_DetectsNewBatch(t *testing.T) {
	dir := t.TempDir()
	_, changed := startWatcher(t, dir)

	batch := filepath.Join(dir, "records.jsonl")
	require.NoError(t, os.WriteFile(batch, []byte(`{"dataset_identifier":"a"}`+"\n"), 0644))

	path, ok := waitForCallback(changed, 2*time.Second)
	require.True(t, ok, "expected callback for new batch")
	assert.Equal(t, batch, path)
}

func TestWatcher_DebouncesBurstOfWrites(t *testing.T) {
	dir := t.TempDir()
	_, changed := startWatcher(t, dir)

	batch := filepath.Join(dir, "records.csv")
	f, err := os.Create(batch)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		_, err := f.WriteString("dataset_identifier\n")
		require.NoError(t, err)
		require.NoError(t, f.Sync())
		time.Sleep(10 * time.Millisecond)
	}
	require.NoError(t, f.Close())

	path, ok := waitForCallback(changed, 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, batch, path)

	_, again := waitForCallback(changed, 300*time.Millisecond)
	assert.False(t, again, "one burst reports the file once")
}

func TestWatcher_IgnoresNonBatchFiles(t *testing.T) {
	dir := t.TempDir()
	_, changed := startWatcher(t, dir)

	os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644)
	os.WriteFile(filepath.Join(dir, "records.resolved.jsonl"), []byte("{}"), 0644)
	os.WriteFile(filepath.Join(dir, ".partial.jsonl"), []byte("{}"), 0644)

	_, ok := waitForCallback(changed, 400*time.Millisecond)
	assert.False(t, ok, "should not have received callback for ignored files")

	batch := filepath.Join(dir, "more.CSV")
	require.NoError(t, os.WriteFile(batch, []byte("dataset_identifier\n"), 0644))
	path, ok := waitForCallback(changed, 2*time.Second)
	assert.True(t, ok, "expected callback for batch file")
	assert.Equal(t, batch, path)
}

func TestWatcher_RemovedBeforeSettlingIsDropped(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(WithDebounce(300 * time.Millisecond))
	require.NoError(t, err)
	defer w.Stop()

	changed := make(chan string, 10)
	require.NoError(t, w.Watch(dir, func(path string) { changed <- path }))
	time.Sleep(50 * time.Millisecond)

	batch := filepath.Join(dir, "gone.jsonl")
	require.NoError(t, os.WriteFile(batch, []byte("{}"), 0644))
	require.NoError(t, os.Remove(batch))

	_, ok := waitForCallback(changed, 700*time.Millisecond)
	assert.False(t, ok)
}

func TestWatcher_MissingDirectory(t *testing.T) {
	w, err := NewWatcher()
	require.NoError(t, err)
	defer w.Stop()

	err = w.Watch(filepath.Join(t.TempDir(), "nope"), func(string) {})
	assert.Error(t, err)
}

func TestWatcher_StopCleanup(t *testing.T) {
	// After Stop(), no more callbacks fire.
	dir := t.TempDir()

	w, err := NewWatcher(WithDebounce(20 * time.Millisecond))
	require.NoError(t, err)

	callCount := 0
	var mu sync.Mutex
	err = w.Watch(dir, func(path string) {
		mu.Lock()
		callCount++
		mu.Unlock()
	})
	require.NoError(t, err)

	time.Sleep(50 * time.Millisecond)

	require.NoError(t, w.Stop())

	os.WriteFile(filepath.Join(dir, "after_stop.jsonl"), []byte("{}"), 0644)
	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	assert.Zero(t, callCount, "callbacks fired after Stop()")
	mu.Unlock()

	// Double-stop should be safe
	assert.NoError(t, w.Stop())
}

func TestIsBatchFile(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"in/records.jsonl", true},
		{"in/records.csv", true},
		{"in/RECORDS.CSV", true},
		{"in/records.resolved.jsonl", false},
		{"in/.hidden.csv", false},
		{"in/records.json", false},
		{"in/records.csv.swp", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, IsBatchFile(tt.path), tt.path)
	}
}

func TestOutputPath(t *testing.T) {
	assert.Equal(t, filepath.Join("in", "batch.resolved.jsonl"), OutputPath(filepath.Join("in", "batch.csv")))
	assert.Equal(t, "batch.resolved.jsonl", OutputPath("batch.jsonl"))
}
