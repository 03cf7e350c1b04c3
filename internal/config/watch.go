package config

import (
	"context"
	"log/slog"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow absorbs the bursts of events editors emit on save.
const debounceWindow = 200 * time.Millisecond

// Watch monitors path and calls onChange with the freshly loaded Config
// after each write. It blocks until ctx is cancelled.
//
// A failed reload (invalid YAML, validation error) is logged and skipped;
// the caller keeps running on its previous config.
func Watch(ctx context.Context, path string, logger *slog.Logger, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	logger.Info("config: watching for changes", "path", path)

	var pending <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			// Writes and creates both matter: atomic saves replace the
			// file via rename, which surfaces as a create.
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			pending = time.After(debounceWindow)

		case <-pending:
			pending = nil
			cfg, err := Load(path)
			if err != nil {
				logger.Error("config: reload failed, keeping previous config",
					"path", path, "err", err)
				continue
			}
			logger.Info("config: reloaded", "path", path)
			onChange(cfg)

			// The rename during an atomic save detaches the original
			// inode, so re-register the path.
			_ = watcher.Add(path)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("config: watcher error", "err", err)
		}
	}
}
