package snapshot

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long the watcher waits after the last change
// before reloading. The pipeline writes its files in several steps.
const DefaultDebounce = 2 * time.Second

// Watch calls onChange once per burst of writes to any of paths. It blocks
// until ctx is cancelled and returns ctx.Err(). onChange errors are logged
// and do not stop the watch.
//
// The parent directories are watched rather than the files, so files that
// are replaced by rename keep being tracked.
func Watch(ctx context.Context, paths []string, debounce time.Duration, onChange func(context.Context) error, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer watcher.Close()

	targets := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		if p == "" {
			continue
		}
		abs, err := filepath.Abs(p)
		if err != nil {
			return fmt.Errorf("resolving %s: %w", p, err)
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}

	pending := false
	batchTimer := time.NewTimer(debounce)
	batchTimer.Stop()
	defer batchTimer.Stop()

	logger.Info("watching snapshot files", zap.Strings("paths", paths))

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isRelevant(event, targets) {
				continue
			}
			logger.Debug("snapshot file changed",
				zap.String("path", event.Name),
				zap.String("op", event.Op.String()),
			)
			pending = true
			batchTimer.Reset(debounce)

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))

		case <-batchTimer.C:
			if !pending {
				continue
			}
			pending = false
			if err := onChange(ctx); err != nil && ctx.Err() == nil {
				logger.Error("reloading snapshot", zap.Error(err))
			}
		}
	}
}

// isRelevant reports whether event creates or rewrites one of targets.
// Removals are ignored: the pipeline removes before it rewrites, and the
// old snapshot stays served until the new file lands.
func isRelevant(event fsnotify.Event, targets map[string]bool) bool {
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
		return false
	}
	abs, err := filepath.Abs(event.Name)
	if err != nil {
		return false
	}
	return targets[abs]
}
