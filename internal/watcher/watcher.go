// Package watcher re-renders examples when their source files change.
package watcher

import (
	"context"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"codewalk/internal/crawler"
)

// Watcher watches an example root and invokes a callback for changed source
// files. Editors fire several events per save, so changes are debounced
// per path.
type Watcher struct {
	fs          *fsnotify.Watcher
	onChange    func(path string)
	debounce    map[string]time.Time
	debounceDur time.Duration
	log         *zap.Logger
}

// New creates a watcher that calls onChange for every (debounced) write or
// create of an example source file.
func New(onChange func(path string), log *zap.Logger) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	return &Watcher{
		fs:          fsw,
		onChange:    onChange,
		debounce:    make(map[string]time.Time),
		debounceDur: 500 * time.Millisecond,
		log:         log,
	}, nil
}

// Close releases the underlying filesystem watcher.
func (w *Watcher) Close() error {
	return w.fs.Close()
}

// Watch blocks, watching root and all its subdirectories until ctx is done.
func (w *Watcher) Watch(ctx context.Context, root string) error {
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.fs.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("watch error", zap.Error(err))
		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			w.handle(event)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	if event.Op&fsnotify.Create != 0 {
		// New directories need to be added to the watch set.
		if err := w.fs.Add(event.Name); err == nil {
			w.log.Debug("watching new path", zap.String("path", event.Name))
		}
	}
	if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
		return
	}
	if !crawler.IsSourceFile(event.Name) {
		return
	}

	now := time.Now()
	if last, ok := w.debounce[event.Name]; ok && now.Sub(last) < w.debounceDur {
		return
	}
	w.debounce[event.Name] = now
	w.onChange(event.Name)
}
