// Package watcher observes a package's source tree and delivers debounced
// change batches, so manifest resynthesis runs once per burst of edits.
package watcher

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/conneroisu/pkgshape/internal/config"
	"github.com/conneroisu/pkgshape/internal/logging"
)

// FileWatcher watches directories recursively and delivers debounced change
// batches to registered handlers.
type FileWatcher struct {
	watcher   *fsnotify.Watcher
	debouncer *Debouncer
	log       logging.Logger
	filters   []FileFilter
	handlers  []ChangeHandler
	mutex     sync.RWMutex
}

// ChangeEvent is one observed file change.
type ChangeEvent struct {
	Type    EventType
	Path    string
	ModTime time.Time
}

// EventType classifies a file change.
type EventType int

const (
	EventTypeCreated EventType = iota
	EventTypeModified
	EventTypeDeleted
	EventTypeRenamed
)

func (e EventType) String() string {
	switch e {
	case EventTypeCreated:
		return "created"
	case EventTypeModified:
		return "modified"
	case EventTypeDeleted:
		return "deleted"
	case EventTypeRenamed:
		return "renamed"
	default:
		return "unknown"
	}
}

// FileFilter reports whether a path is interesting. Every filter must accept
// a path for it to produce an event.
type FileFilter func(path string) bool

// ChangeHandler receives a debounced batch of changes.
type ChangeHandler func(events []ChangeEvent) error

// NewFileWatcher creates a watcher with the given debounce window.
func NewFileWatcher(debounceDelay time.Duration, log logging.Logger) (*FileWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &FileWatcher{
		watcher:   watcher,
		debouncer: newDebouncer(debounceDelay),
		log:       log.WithComponent("watcher"),
	}, nil
}

// AddFilter adds a path filter.
func (fw *FileWatcher) AddFilter(filter FileFilter) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.filters = append(fw.filters, filter)
}

// AddHandler adds a change handler.
func (fw *FileWatcher) AddHandler(handler ChangeHandler) {
	fw.mutex.Lock()
	defer fw.mutex.Unlock()
	fw.handlers = append(fw.handlers, handler)
}

// AddRecursive watches root and every directory below it. Directories
// created later inside root are picked up as they appear.
func (fw *FileWatcher) AddRecursive(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fw.watcher.Add(path)
		}

		return nil
	})
}

// Start launches the watch loops. They run until ctx is canceled.
func (fw *FileWatcher) Start(ctx context.Context) {
	go fw.debouncer.start(ctx)
	go fw.processEvents(ctx)
	go fw.watchLoop(ctx)
}

// Stop closes the underlying watcher.
func (fw *FileWatcher) Stop() error {
	fw.debouncer.stop()

	return fw.watcher.Close()
}

func (fw *FileWatcher) watchLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			fw.handleEvent(event)
		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			fw.log.Warn("watch error", "error", err.Error())
		}
	}
}

func (fw *FileWatcher) handleEvent(event fsnotify.Event) {
	// New directories join the watch before filtering: filters are written
	// for files.
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := fw.watcher.Add(event.Name); err != nil {
				fw.log.Warn("watching new directory", "path", event.Name, "error", err.Error())
			}

			return
		}
	}

	fw.mutex.RLock()
	filters := fw.filters
	fw.mutex.RUnlock()

	for _, filter := range filters {
		if !filter(event.Name) {
			return
		}
	}

	var modTime time.Time
	if info, err := os.Stat(event.Name); err == nil {
		modTime = info.ModTime()
	}

	var eventType EventType
	switch {
	case event.Op&fsnotify.Create != 0:
		eventType = EventTypeCreated
	case event.Op&fsnotify.Write != 0:
		eventType = EventTypeModified
	case event.Op&fsnotify.Remove != 0:
		eventType = EventTypeDeleted
	case event.Op&fsnotify.Rename != 0:
		eventType = EventTypeRenamed
	default:
		eventType = EventTypeModified
	}

	fw.debouncer.add(ChangeEvent{Type: eventType, Path: event.Name, ModTime: modTime})
}

func (fw *FileWatcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case events := <-fw.debouncer.output:
			fw.mutex.RLock()
			handlers := fw.handlers
			fw.mutex.RUnlock()

			for _, handler := range handlers {
				if err := handler(events); err != nil {
					fw.log.Error(err, "change handler failed")
				}
			}
		}
	}
}

// SourceFilter accepts files with one of the configured source extensions.
func SourceFilter(cfg *config.Config) FileFilter {
	return func(path string) bool {
		ext := filepath.Ext(path)
		for _, configured := range cfg.Source.Extensions {
			if ext == configured {
				return true
			}
		}

		return false
	}
}
