package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type changeRecorder struct {
	mu      sync.Mutex
	configs []Config
}

func (r *changeRecorder) record(cfg Config) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.configs = append(r.configs, cfg)
}

func (r *changeRecorder) snapshot() []Config {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Config(nil), r.configs...)
}

func newTestWatcher(t *testing.T, initial string) (*Watcher, string, *changeRecorder) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sysmon.yaml")
	writeFile(t, path, initial)

	current, err := Load(path)
	require.NoError(t, err)

	rec := &changeRecorder{}
	w := NewWatcher(path, current, rec.record, zerolog.Nop())
	w.debounce = time.Millisecond
	return w, path, rec
}

func TestWatcherReloadOnlyReportsChanges(t *testing.T) {
	w, path, rec := newTestWatcher(t, "cpu:\n  max_samples: 4\n")

	assert.False(t, w.Reload(), "identical file must not trigger a restart")
	assert.Empty(t, rec.snapshot())

	writeFile(t, path, "cpu:\n  max_samples: 6\n")
	assert.True(t, w.Reload())

	changes := rec.snapshot()
	require.Len(t, changes, 1)
	assert.Equal(t, 6, changes[0].CPU.MaxSamples)
	assert.Equal(t, 6, w.Current().CPU.MaxSamples)
}

func TestWatcherReloadKeepsConfigOnError(t *testing.T) {
	w, path, rec := newTestWatcher(t, "memory:\n  max_samples: 5\n")

	writeFile(t, path, "memory: [broken\n")
	assert.False(t, w.Reload())
	assert.Empty(t, rec.snapshot())
	assert.Equal(t, 5, w.Current().Memory.MaxSamples)
}

func TestWatcherHandleEvents(t *testing.T) {
	w, path, rec := newTestWatcher(t, "disk:\n  enabled: true\n")

	events := make(chan fsnotify.Event)
	errs := make(chan error)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.handleEvents(ctx, events, errs) }()

	// Unrelated files in the same directory are ignored.
	events <- fsnotify.Event{Name: filepath.Join(filepath.Dir(path), "other.yaml"), Op: fsnotify.Write}
	errs <- errors.New("transient watcher error")

	writeFile(t, path, "disk:\n  enabled: false\n")
	events <- fsnotify.Event{Name: path, Op: fsnotify.Write}

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, rec.snapshot()[0].Disk.Enabled)

	// Chmod alone is not a content change.
	events <- fsnotify.Event{Name: path, Op: fsnotify.Chmod}

	cancel()
	require.NoError(t, <-done)
	assert.Len(t, rec.snapshot(), 1)
}

func TestWatcherHandleEventsDotEnv(t *testing.T) {
	w, path, rec := newTestWatcher(t, "")

	events := make(chan fsnotify.Event)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.handleEvents(ctx, events, nil) }()

	envPath := filepath.Join(filepath.Dir(path), ".env")
	writeFile(t, envPath, "PULSE_SYSMON_NETWORK_ENABLED=false\n")
	events <- fsnotify.Event{Name: envPath, Op: fsnotify.Create}

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.False(t, rec.snapshot()[0].Network.Enabled)
}

func TestWatcherPollFallback(t *testing.T) {
	w, path, rec := newTestWatcher(t, "cpu:\n  interval: 1s\n")
	w.pollInterval = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.pollForChanges(ctx) }()

	writeFile(t, path, "cpu:\n  interval: 3s\n")
	future := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(path, future, future))

	require.Eventually(t, func() bool { return len(rec.snapshot()) == 1 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, 3*time.Second, rec.snapshot()[0].CPU.Interval)

	cancel()
	require.NoError(t, <-done)
}

func TestWatcherRun(t *testing.T) {
	w, path, rec := newTestWatcher(t, "memory:\n  max_samples: 2\n")

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Give the watcher a moment to register the directory.
	require.Eventually(t, func() bool {
		writeFile(t, path, "memory:\n  max_samples: 8\n")
		return len(rec.snapshot()) > 0
	}, 5*time.Second, 100*time.Millisecond)
	assert.Equal(t, 8, w.Current().Memory.MaxSamples)

	cancel()
	require.NoError(t, <-done)
}
