package shared

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// WatchConfig watches the config file at path and calls onChange with the reloaded [Config]
// whenever it is written, created or renamed into place.
//
// The parent directory is watched rather than the file so editors that replace the file atomically are still seen.
// Parse failures are logged and the previous config stays in effect. Blocks until ctx is cancelled.
func WatchConfig(ctx context.Context, path string, logger *log.Logger, onChange func(*Config)) error {
	if logger == nil {
		logger = NopLogger()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to resolve config path: %w", err)
	}

	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	logger.Debug("watching config", "path", abs)

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != abs {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			config, err := LoadConfig(abs)
			if err != nil {
				logger.Warn("config changed but could not be loaded", "path", abs, "error", err)
				continue
			}
			logger.Info("config reloaded", "path", abs)
			onChange(config)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("config watch error", "error", err)
		}
	}
}
