package assetstore

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// Invalidator drops cached modification times.
type Invalidator interface {
	Invalidate(ctx context.Context, folder, name string) error
}

// Watcher invalidates cached modification times when files under the watched
// static folders change.
type Watcher struct {
	watcher     *fsnotify.Watcher
	invalidator Invalidator
	folders     []watchedFolder
	logger      *slog.Logger
}

// watchedFolder keeps the folder as configured, since cache keys are built from it.
type watchedFolder struct {
	configured string
	abs        string
}

// NewWatcher registers every directory below each folder with fsnotify.
func NewWatcher(invalidator Invalidator, folders []string, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		watcher:     fw,
		invalidator: invalidator,
		logger:      logger.With("component", "assetstore.watcher"),
	}
	for _, folder := range folders {
		abs, err := filepath.Abs(folder)
		if err != nil {
			_ = fw.Close()
			return nil, fmt.Errorf("resolve %s: %w", folder, err)
		}
		if err := w.addTree(abs); err != nil {
			_ = fw.Close()
			return nil, err
		}
		w.folders = append(w.folders, watchedFolder{configured: folder, abs: abs})
	}
	return w, nil
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}

// Run processes events until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	defer func() { _ = w.watcher.Close() }()
	w.logger.Info("watching static folders", "count", len(w.folders))
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ctx, event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *Watcher) handle(ctx context.Context, event fsnotify.Event) {
	if event.Has(fsnotify.Create) {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				w.logger.Warn("watch new directory failed", "path", event.Name, "error", err)
			}
			return
		}
	}
	folder, name, ok := w.locate(event.Name)
	if !ok {
		return
	}
	if err := w.invalidator.Invalidate(ctx, folder, name); err != nil {
		w.logger.Warn("invalidate mtime failed", "folder", folder, "name", name, "error", err)
		return
	}
	w.logger.Debug("mtime invalidated", "folder", folder, "name", name, "op", event.Op.String())
}

// locate maps an event path back to the configured folder and a slash-separated name.
func (w *Watcher) locate(path string) (string, string, bool) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", "", false
	}
	for _, folder := range w.folders {
		rel, err := filepath.Rel(folder.abs, abs)
		if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			continue
		}
		return folder.configured, filepath.ToSlash(rel), true
	}
	return "", "", false
}
