package config

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"
)

const (
	defaultDebounce     = 100 * time.Millisecond
	defaultPollInterval = 5 * time.Second
)

// Watcher reloads the configuration when the config file or its .env
// changes, and reports only reloads whose normalized result differs from the
// configuration currently in force.
type Watcher struct {
	path     string
	envPath  string
	logger   zerolog.Logger
	onChange func(Config)

	debounce     time.Duration
	pollInterval time.Duration

	mu          sync.Mutex
	current     Config
	lastModTime time.Time
}

// NewWatcher creates a watcher for the config file at path. current is the
// configuration already applied; onChange receives every differing reload.
func NewWatcher(path string, current Config, onChange func(Config), logger zerolog.Logger) *Watcher {
	if path != "" {
		path = filepath.Clean(path)
	}
	w := &Watcher{
		path:         path,
		envPath:      filepath.Clean(DotEnvPath(path)),
		logger:       logger.With().Str("component", "config_watcher").Logger(),
		onChange:     onChange,
		debounce:     defaultDebounce,
		pollInterval: defaultPollInterval,
		current:      current,
	}
	w.lastModTime = w.latestModTime()
	return w
}

// Current returns the configuration most recently applied.
func (w *Watcher) Current() Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Run watches until ctx is cancelled. If fsnotify is unavailable it falls
// back to polling modification times.
func (w *Watcher) Run(ctx context.Context) error {
	if w.path == "" {
		w.logger.Debug().Msg("No config file configured, only explicit reloads apply")
		<-ctx.Done()
		return nil
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		w.logger.Warn().Err(err).Msg("Failed to create file watcher, falling back to polling for config changes")
		return w.pollForChanges(ctx)
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		w.logger.Warn().Err(err).Str("path", dir).Msg("Failed to watch config directory, falling back to polling")
		return w.pollForChanges(ctx)
	}

	w.logger.Info().
		Str("config_path", w.path).
		Str("env_path", w.envPath).
		Msg("Started watching config files for changes")
	return w.handleEvents(ctx, fw.Events, fw.Errors)
}

// Reload re-reads the configuration immediately (e.g. on SIGHUP) and reports
// whether it changed.
func (w *Watcher) Reload() bool {
	cfg, err := Load(w.path)
	if err != nil {
		w.logger.Error().Err(err).Str("config_path", w.path).Msg("Failed to reload configuration, keeping current settings")
		return false
	}

	w.mu.Lock()
	if cfg == w.current {
		w.mu.Unlock()
		w.logger.Debug().Msg("No relevant configuration changes detected")
		return false
	}
	w.current = cfg
	w.mu.Unlock()

	w.logger.Info().Strs("enabled", familyNames(cfg)).Msg("Configuration changed")
	if w.onChange != nil {
		w.onChange(cfg)
	}
	return true
}

func (w *Watcher) handleEvents(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if !w.relevant(event.Name) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}

			// Debounce - wait a bit for the write to complete
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(w.debounce):
			}

			w.logger.Debug().Str("file", event.Name).Str("event", event.Op.String()).Msg("Detected config file change")
			w.Reload()

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			w.logger.Error().Err(err).Msg("Config watcher error")
		}
	}
}

// pollForChanges is a fallback that polls for changes
func (w *Watcher) pollForChanges(ctx context.Context) error {
	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			mod := w.latestModTime()
			if !mod.After(w.lastModTime) {
				continue
			}
			w.lastModTime = mod
			w.logger.Debug().Msg("Detected config file change via polling")
			w.Reload()
		}
	}
}

func (w *Watcher) relevant(name string) bool {
	name = filepath.Clean(name)
	return name == w.path || name == w.envPath
}

func (w *Watcher) latestModTime() time.Time {
	var latest time.Time
	for _, p := range []string{w.path, w.envPath} {
		if stat, err := os.Stat(p); err == nil && stat.ModTime().After(latest) {
			latest = stat.ModTime()
		}
	}
	return latest
}

func familyNames(cfg Config) []string {
	families := cfg.EnabledFamilies()
	names := make([]string, len(families))
	for i, f := range families {
		names[i] = string(f)
	}
	return names
}
