package ic

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
)

const defaultWatchPattern = "**/*.{html,css}"

type WatchConfig struct {
	Dir string

	// Glob patterns, relative to Dir, of files that trigger a re-run.
	// Defaults to every HTML and CSS file.
	Patterns []string
	// Glob patterns, relative to Dir, that never trigger a re-run.
	Ignore []string

	Debounce time.Duration
	Logger   Logger

	// IsOwnWrite reports whether the current content of name is what the
	// last run wrote there. Such events are skipped.
	IsOwnWrite func(name string, content []byte) bool

	Run func(ctx context.Context) error
}

// Watch re-runs wc.Run whenever a matching file under wc.Dir changes, until
// ctx is done. Run errors are logged, never returned.
func Watch(ctx context.Context, wc WatchConfig) error {
	if wc.Logger == nil {
		wc.Logger = Log
	}
	if len(wc.Patterns) == 0 {
		wc.Patterns = []string{defaultWatchPattern}
	}
	if wc.Debounce <= 0 {
		wc.Debounce = 100 * time.Millisecond
	}
	root := filepath.Clean(wc.Dir)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("error creating watcher: %w", err)
	}
	defer watcher.Close()

	if err := addDirs(watcher, root, root, wc.Ignore); err != nil {
		return fmt.Errorf("error adding directories to watcher: %w", err)
	}
	wc.Logger.Infof("watching %s for changes", root)

	timer := time.NewTimer(wc.Debounce)
	timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			wc.Logger.Errorf("watcher error: %v", err)

		case evt, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if evt.Has(fsnotify.Create) {
				if info, err := os.Stat(evt.Name); err == nil && info.IsDir() {
					if err := addDirs(watcher, root, evt.Name, wc.Ignore); err != nil {
						wc.Logger.Errorf("error watching new directory: %v", err)
					}
					continue
				}
			}
			if !evt.Has(fsnotify.Write) && !evt.Has(fsnotify.Create) {
				continue
			}
			if wc.shouldTrigger(root, evt.Name) {
				wc.Logger.Debugf("change detected: %s", evt.Name)
				timer.Reset(wc.Debounce)
			}

		case <-timer.C:
			if err := wc.Run(ctx); err != nil {
				wc.Logger.Errorf("re-run failed: %v", err)
			}
		}
	}
}

func (wc *WatchConfig) shouldTrigger(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	if matchAny(wc.Ignore, rel) || !matchAny(wc.Patterns, rel) {
		return false
	}
	if wc.IsOwnWrite != nil {
		if content, err := os.ReadFile(path); err == nil && wc.IsOwnWrite(rel, content) {
			return false
		}
	}
	return true
}

// addDirs watches dir and its subdirectories. Ignore patterns are relative
// to root.
func addDirs(watcher *fsnotify.Watcher, root, dir string, ignore []string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if rel, err := filepath.Rel(root, path); err == nil && rel != "." && matchAny(ignore, filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func matchAny(patterns []string, rel string) bool {
	for _, p := range patterns {
		if ok, err := doublestar.Match(p, rel); err == nil && ok {
			return true
		}
	}
	return false
}
