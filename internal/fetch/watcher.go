package fetch

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// Watcher invalidates cached responses when a user's source documents
// change on disk. It watches the data root plus every per-user
// subdirectory and calls onChange with the user id owning the changed
// file.
type Watcher struct {
	dir      string
	watcher  *fsnotify.Watcher
	onChange func(userID string)
	log      *zap.Logger
	done     chan struct{}
}

// NewWatcher starts watching dir. onChange is invoked from the watch
// goroutine; it must be safe for concurrent use.
func NewWatcher(dir string, onChange func(userID string), log *zap.Logger) (*Watcher, error) {
	if log == nil {
		log = zap.NewNop()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	w := &Watcher{
		dir:      dir,
		watcher:  fsw,
		onChange: onChange,
		log:      log.Named("watcher"),
		done:     make(chan struct{}),
	}

	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", dir, err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		fsw.Close()
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			if err := fsw.Add(filepath.Join(dir, e.Name())); err != nil {
				w.log.Warn("cannot watch user directory",
					zap.String("user", e.Name()), zap.Error(err))
			}
		}
	}

	go w.run()
	return w, nil
}

func (w *Watcher) run() {
	defer close(w.done)
	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.log.Warn("watch error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
		return
	}
	rel, err := filepath.Rel(w.dir, ev.Name)
	if err != nil || strings.HasPrefix(rel, "..") {
		return
	}

	// A new user directory appearing needs its own watch.
	if ev.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
			if err := w.watcher.Add(ev.Name); err != nil {
				w.log.Warn("cannot watch new directory", zap.String("dir", ev.Name), zap.Error(err))
			}
			return
		}
	}

	userID := strings.Split(filepath.ToSlash(rel), "/")[0]
	if userID == "" || userID == "." {
		return
	}
	w.log.Debug("source data changed", zap.String("user", userID), zap.String("file", rel))
	w.onChange(userID)
}

// Close stops the watcher and waits for its goroutine to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}
