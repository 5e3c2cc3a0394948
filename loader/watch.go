package loader

import (
	"context"

	"github.com/fsnotify/fsnotify"

	"github.com/c360/comptree/errors"
)

// descWatcher is the slice of fsnotify the loader uses, kept behind a small
// struct so tracking works whether or not a watch is running.
type descWatcher struct {
	fs     *fsnotify.Watcher
	cancel context.CancelFunc
}

// trackFile remembers which cache key a path backs and, when a watch is
// running, registers the path with fsnotify.
func (l *Loader) trackFile(name, path string) {
	l.mu.Lock()
	l.watched[path] = name
	l.mu.Unlock()

	l.watchMu.Lock()
	defer l.watchMu.Unlock()
	if l.watcher.fs != nil {
		if err := l.watcher.fs.Add(path); err != nil {
			l.logger.Warn("description watch failed", "path", path, "error", err)
		}
	}
}

// WatchDescriptions starts invalidating cached descriptions when their
// backing files change on disk. It watches every file loaded so far and
// every file loaded later, until ctx is cancelled or CloseWatch is called.
func (l *Loader) WatchDescriptions(ctx context.Context) error {
	l.watchMu.Lock()
	defer l.watchMu.Unlock()
	if l.watcher.fs != nil {
		return errors.Wrap(errors.ErrAlreadyStarted, "Loader", "WatchDescriptions", "watch setup")
	}

	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "Loader", "WatchDescriptions", "watcher creation")
	}

	l.mu.RLock()
	for path := range l.watched {
		if err := fs.Add(path); err != nil {
			l.logger.Warn("description watch failed", "path", path, "error", err)
		}
	}
	l.mu.RUnlock()

	watchCtx, cancel := context.WithCancel(ctx)
	l.watcher = descWatcher{fs: fs, cancel: cancel}

	go l.watchLoop(watchCtx, fs)
	return nil
}

func (l *Loader) watchLoop(ctx context.Context, fs *fsnotify.Watcher) {
	defer fs.Close()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fs.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			l.mu.Lock()
			if name, tracked := l.watched[event.Name]; tracked {
				delete(l.descCache, name)
				l.logger.Info("description cache invalidated",
					"name", name, "path", event.Name, "op", event.Op.String())
			}
			l.mu.Unlock()
		case err, ok := <-fs.Errors:
			if !ok {
				return
			}
			l.logger.Warn("description watch error", "error", err)
		}
	}
}

// CloseWatch stops the description watch, if one is running.
func (l *Loader) CloseWatch() {
	l.watchMu.Lock()
	defer l.watchMu.Unlock()
	if l.watcher.cancel != nil {
		l.watcher.cancel()
	}
	l.watcher = descWatcher{}
}
