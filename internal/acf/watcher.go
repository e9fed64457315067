package acf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// SyncOp is what happened to a local JSON file.
type SyncOp int

const (
	// SyncLoaded means the group was (re)loaded into the store.
	SyncLoaded SyncOp = iota
	// SyncRemoved means groups loaded from the file were unregistered.
	SyncRemoved
	// SyncFailed means the file could not be loaded.
	SyncFailed
)

func (op SyncOp) String() string {
	switch op {
	case SyncLoaded:
		return "loaded"
	case SyncRemoved:
		return "removed"
	case SyncFailed:
		return "failed"
	}
	return "unknown"
}

// SyncEvent reports a local JSON change applied to the store.
type SyncEvent struct {
	Op        SyncOp
	Path      string
	GroupKey  string
	Err       error
	Timestamp time.Time
}

// Watcher keeps the store in sync with the local JSON directories.
type Watcher struct {
	store   *Store
	dirs    []string
	watcher *fsnotify.Watcher
	events  chan SyncEvent
	stop    chan struct{}
	logger  *zap.Logger
}

// NewWatcher creates a watcher over the existing directories in dirs.
func NewWatcher(store *Store, dirs []string, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	return &Watcher{
		store:   store,
		dirs:    existingDirs(dirs),
		watcher: w,
		events:  make(chan SyncEvent, 16),
		stop:    make(chan struct{}),
		logger:  logger,
	}, nil
}

// Dirs returns the watched directories.
func (w *Watcher) Dirs() []string {
	return append([]string(nil), w.dirs...)
}

// Start watches the directories in a background goroutine until ctx is
// done or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	for _, dir := range w.dirs {
		if err := w.watcher.Add(dir); err != nil {
			return fmt.Errorf("watching %s: %w", dir, err)
		}
	}
	go w.processEvents(ctx)
	return nil
}

// Stop stops the watcher and releases its resources.
func (w *Watcher) Stop() {
	select {
	case <-w.stop:
		return
	default:
		close(w.stop)
		_ = w.watcher.Close()
	}
}

// Events returns the channel of applied changes. Events are dropped when
// nobody reads them.
func (w *Watcher) Events() <-chan SyncEvent {
	return w.events
}

func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if strings.ToLower(filepath.Ext(event.Name)) != ".json" {
				continue
			}
			w.handle(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("[ACF] local JSON watcher error", zap.Error(err))
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if n := w.store.RemoveSource(event.Name); n > 0 {
			w.emit(SyncEvent{Op: SyncRemoved, Path: event.Name})
		}
	case event.Has(fsnotify.Create), event.Has(fsnotify.Write):
		g, err := LoadFieldGroupFile(event.Name)
		if err != nil {
			w.logger.Warn("[ACF] failed to sync local JSON", zap.String("path", event.Name), zap.Error(err))
			w.emit(SyncEvent{Op: SyncFailed, Path: event.Name, Err: err})
			return
		}
		w.store.AddFieldGroup(g)
		w.logger.Debug("[ACF] local JSON synced", zap.String("path", event.Name), zap.String("group", g.Key))
		w.emit(SyncEvent{Op: SyncLoaded, Path: event.Name, GroupKey: g.Key})
	}
}

func (w *Watcher) emit(e SyncEvent) {
	e.Timestamp = time.Now()
	select {
	case w.events <- e:
	default:
	}
}
