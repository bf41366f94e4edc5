package storage

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDelay lets writers finish replacing the file before it is reopened.
const reloadDelay = 500 * time.Millisecond

// Watch reloads store whenever its database file is written, created or
// renamed into place. It watches the parent directory because index
// rebuilds usually replace the file atomically. Watch blocks until ctx is
// done.
func Watch(ctx context.Context, store *EntryStore) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer func() {
		if err := watcher.Close(); err != nil {
			logger.Warnf("failed to close watcher: %v", err)
		}
	}()

	target, err := filepath.Abs(store.Path())
	if err != nil {
		return fmt.Errorf("resolving %s: %w", store.Path(), err)
	}
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}
	logger.Infof("watching %s for changes", target)

	var timer *time.Timer
	reload := func() {
		if err := store.Reload(context.Background()); err != nil {
			logger.Errorf("reload failed, keeping previous database: %v", err)
		}
	}
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || name != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			logger.Debugf("database file changed (%s)", event.Op.String())
			if timer == nil {
				timer = time.AfterFunc(reloadDelay, reload)
			} else {
				timer.Reset(reloadDelay)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Warnf("watcher error: %v", err)
		}
	}
}
