package host

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// DocumentTracker is an Editor for hosts without a real editor: the active
// document is the file under the workspace root that was written most
// recently, or whatever SetActive last recorded.
type DocumentTracker struct {
	root    string
	watcher *fsnotify.Watcher
	log     *slog.Logger
	done    chan struct{}
	ready   chan struct{}
	stopped chan struct{}

	mu     sync.RWMutex
	active string

	closeOnce sync.Once
}

// NewDocumentTracker watches root and all of its non-hidden subdirectories.
func NewDocumentTracker(root string, log *slog.Logger) (*DocumentTracker, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace %s: %w", root, err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != abs && ignored(d.Name()) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch workspace %s: %w", abs, err)
	}

	t := &DocumentTracker{
		root:    abs,
		watcher: watcher,
		log:     log.With("component", "document-tracker", "root", abs),
		done:    make(chan struct{}),
		ready:   make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go t.watch()
	return t, nil
}

// ignored reports whether a file or directory name is editor or VCS noise.
func ignored(name string) bool {
	return strings.HasPrefix(name, ".") || strings.HasSuffix(name, "~")
}

// Root returns the absolute workspace root.
func (t *DocumentTracker) Root() string {
	return t.root
}

// Ready is closed once the watch goroutine is receiving events.
func (t *DocumentTracker) Ready() <-chan struct{} {
	return t.ready
}

// ActiveDocumentPath implements Editor.
func (t *DocumentTracker) ActiveDocumentPath() (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.active, t.active != ""
}

// SetActive records path as the active document.
func (t *DocumentTracker) SetActive(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.active = path
}

func (t *DocumentTracker) watch() {
	defer close(t.stopped)
	close(t.ready)

	for {
		select {
		case <-t.done:
			return

		case event, ok := <-t.watcher.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			if ignored(filepath.Base(event.Name)) {
				continue
			}
			t.handle(event)

		case err, ok := <-t.watcher.Errors:
			if !ok {
				return
			}
			t.log.Warn("watch error", "error", err)
		}
	}
}

func (t *DocumentTracker) handle(event fsnotify.Event) {
	info, err := os.Stat(event.Name)
	if err != nil {
		// Removed again before we got to it.
		return
	}

	if info.IsDir() {
		if event.Op&fsnotify.Create != 0 {
			if err := t.watcher.Add(event.Name); err != nil {
				t.log.Warn("failed to watch new directory", "path", event.Name, "error", err)
			}
		}
		return
	}

	if !info.Mode().IsRegular() {
		return
	}
	t.SetActive(event.Name)
	t.log.Debug("active document changed", "path", event.Name)
}

// Close stops watching. It is safe to call more than once.
func (t *DocumentTracker) Close() error {
	var err error
	t.closeOnce.Do(func() {
		close(t.done)
		err = t.watcher.Close()
		<-t.stopped
	})
	return err
}
