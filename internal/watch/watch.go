// Package watch re-runs an export whenever a source file is created or written.
package watch

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"tex-mesh-exporter/internal/logging"
)

// Watcher follows a source tree recursively, ignoring one directory (the output)
// unless that directory is the root itself.
type Watcher struct {
	fsnotify *fsnotify.Watcher
	ignore   string
	accept   func(path string) bool
	changed  func(path string)
}

// New starts watching root. accept filters which files matter; changed is
// called from Run's goroutine for every accepted Create or Write event.
func New(root, ignore string, accept func(string) bool, changed func(string)) (*Watcher, error) {
	fsWatch, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: %w", err)
	}

	w := &Watcher{
		fsnotify: fsWatch,
		accept:   accept,
		changed:  changed,
	}
	if ignore != "" {
		absRoot, _ := filepath.Abs(root)
		if absIgnore, _ := filepath.Abs(ignore); absIgnore != absRoot {
			w.ignore = absIgnore
		}
	}
	if err := w.addRecursive(root); err != nil {
		fsWatch.Close()
		return nil, err
	}
	return w, nil
}

// Run dispatches events until ctx is done, then closes the watcher.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsnotify.Close()

	for {
		select {
		case e, ok := <-w.fsnotify.Events:
			if !ok {
				return nil
			}
			w.handle(e)

		case err, ok := <-w.fsnotify.Errors:
			if !ok {
				return nil
			}
			logging.Error("watch", "err", err)

		case <-ctx.Done():
			return nil
		}
	}
}

func (w *Watcher) handle(e fsnotify.Event) {
	if w.ignored(e.Name) {
		return
	}

	if e.Op&fsnotify.Create != 0 {
		if s, err := os.Stat(e.Name); err == nil && s.IsDir() {
			if err := w.addRecursive(e.Name); err != nil {
				logging.Warn("watch: cannot follow new directory", "dir", e.Name, "err", err)
			}
			return
		}
	}

	if e.Op&(fsnotify.Create|fsnotify.Write) != 0 && w.accept(e.Name) {
		w.changed(e.Name)
	}
}

func (w *Watcher) ignored(path string) bool {
	if w.ignore == "" {
		return false
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(w.ignore, abs)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// addRecursive adds root and every directory below it.
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if w.ignored(path) {
			return filepath.SkipDir
		}
		if err := w.fsnotify.Add(path); err != nil {
			return fmt.Errorf("watch: add %s: %w", path, err)
		}
		return nil
	})
}
