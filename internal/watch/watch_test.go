package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startWatcher(t *testing.T, roots []Root, debounce time.Duration, onSync func() error) {
	t.Helper()
	w, err := New(roots, debounce, 6000, onSync)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		w.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Error("watcher did not shut down")
		}
	})
}

func waitSync(synced <-chan struct{}, timeout time.Duration) bool {
	select {
	case <-synced:
		return true
	case <-time.After(timeout):
		return false
	}
}

func TestWatcherSyncsOnWrite(t *testing.T) {
	dir := t.TempDir()
	synced := make(chan struct{}, 1)
	startWatcher(t, []Root{{Path: dir}}, 20*time.Millisecond, func() error {
		select {
		case synced <- struct{}{}:
		default:
		}
		return nil
	})

	path := filepath.Join(dir, "session.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))

	assert.True(t, waitSync(synced, 2*time.Second), "expected a sync after writing a log file")
}

func TestWatcherIgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	synced := make(chan struct{}, 1)
	startWatcher(t, []Root{{Path: dir}}, 20*time.Millisecond, func() error {
		select {
		case synced <- struct{}{}:
		default:
		}
		return nil
	})

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	assert.False(t, waitSync(synced, 300*time.Millisecond), "non-jsonl files should not trigger a sync")
}

func TestWatcherDebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	var count atomic.Int32
	startWatcher(t, []Root{{Path: dir}}, 100*time.Millisecond, func() error {
		count.Add(1)
		return nil
	})

	path := filepath.Join(dir, "busy.jsonl")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o644))
	}

	deadline := time.Now().Add(2 * time.Second)
	for count.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	require.GreaterOrEqual(t, count.Load(), int32(1))

	// The burst collapses into a single sync once the file goes quiet.
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, int32(1), count.Load())
}

func TestWatcherFollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	synced := make(chan struct{}, 1)
	startWatcher(t, []Root{{Path: dir, Depth: 3}}, 20*time.Millisecond, func() error {
		select {
		case synced <- struct{}{}:
		default:
		}
		return nil
	})

	day := filepath.Join(dir, "2026", "01", "05")
	require.NoError(t, os.MkdirAll(day, 0o755))
	// Give the watcher time to pick up the new directory tree.
	time.Sleep(200 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(day, "rollout.jsonl"), []byte("{}\n"), 0o644))

	assert.True(t, waitSync(synced, 2*time.Second), "expected a sync from a file in a new directory")
}

func TestWatcherDepthLimitsWatches(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "a", "b", "c"), 0o755))

	w, err := New([]Root{{Path: dir, Depth: 1}}, 0, 0, func() error { return nil })
	require.NoError(t, err)
	defer w.fsw.Close()

	watched := w.fsw.WatchList()
	assert.Contains(t, watched, dir)
	assert.Contains(t, watched, filepath.Join(dir, "a"))
	assert.NotContains(t, watched, filepath.Join(dir, "a", "b"))
}

func TestWatcherSkipsMissingRoot(t *testing.T) {
	dir := t.TempDir()
	w, err := New([]Root{
		{Path: filepath.Join(dir, "does-not-exist")},
		{Path: dir},
	}, 0, 0, func() error { return nil })
	require.NoError(t, err)
	defer w.fsw.Close()

	assert.Equal(t, []string{dir}, w.fsw.WatchList())
}

func TestNewDefaults(t *testing.T) {
	w, err := New(nil, 0, 0, func() error { return nil })
	require.NoError(t, err)
	defer w.fsw.Close()

	assert.Equal(t, 300*time.Millisecond, w.debounce)
	assert.Equal(t, float64(0.5), float64(w.limiter.Limit()))
}
