// Package watch drives incremental polling from filesystem events.
//
// It observes every watchable source root with fsnotify and, after a
// debounced burst of changes, asks the manager to poll. The watcher never
// decides what changed; timestamp comparison stays the manager's job, so a
// missed or duplicated event costs at most one redundant poll.
package watch

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Poller is the slice of the manager the watcher drives.
type Poller interface {
	Poll(ctx context.Context) (int, error)
}

// Watch blocks until ctx is cancelled, polling after each debounced burst
// of filesystem events under roots. Directories created at runtime are
// added to the watch list.
func Watch(ctx context.Context, p Poller, roots []string, debounce time.Duration, logger *zap.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	for _, root := range roots {
		if err := addDirsRecursive(w, root); err != nil {
			return err
		}
	}
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	logger.Info("watcher started",
		zap.Strings("roots", roots),
		zap.Duration("debounce", debounce))

	var pollTimer *time.Timer
	var pollCh <-chan time.Time

	schedulePoll := func() {
		if pollTimer == nil {
			pollTimer = time.NewTimer(debounce)
			pollCh = pollTimer.C
		} else {
			pollTimer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if pollTimer != nil {
				pollTimer.Stop()
			}
			logger.Info("watcher stopped")
			return nil

		case <-pollCh:
			n, pollErr := p.Poll(ctx)
			if pollErr != nil {
				logger.Error("poll failed", zap.Error(pollErr))
				continue
			}
			if n > 0 {
				logger.Info("hot reload applied", zap.Int("reloaded", n))
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watch new dir failed",
							zap.String("path", ev.Name),
							zap.Error(addErr))
					}
				}
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedulePoll()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watcher error", zap.Error(watchErr))
		}
	}
}

func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, de fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if de.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
