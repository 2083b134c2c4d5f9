package java

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// WatcherConfig configures the source watcher.
type WatcherConfig struct {
	// Loader whose cache is kept in sync with its roots.
	Loader *SourceLoader

	// DebounceDelay is how long to wait for more changes before processing.
	DebounceDelay time.Duration

	// Logger for logging events.
	Logger *slog.Logger
}

// WatchEvent reports a processed source change.
type WatchEvent struct {
	// Path is the absolute file path.
	Path string

	// Op is the last fsnotify operation seen for the path.
	Op fsnotify.Op

	// Invalidated is true if a cached unit was dropped.
	Invalidated bool
}

// Watcher drops cached compilation units of a SourceLoader when their files
// change on disk, so later loads see the new declarations. Selectors that
// already resolved keep their handles.
type Watcher struct {
	config  WatcherConfig
	loader  *SourceLoader
	watcher *fsnotify.Watcher
	logger  *slog.Logger

	// Debouncing: collect changes before processing
	pendingMu sync.Mutex
	pending   map[string]fsnotify.Op // path → most recent operation

	events chan WatchEvent
}

// NewWatcher creates a new source watcher.
func NewWatcher(config WatcherConfig) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if config.DebounceDelay == 0 {
		config.DebounceDelay = 100 * time.Millisecond
	}

	return &Watcher{
		config:  config,
		loader:  config.Loader,
		watcher: fsw,
		logger:  logger,
		pending: make(map[string]fsnotify.Op),
		events:  make(chan WatchEvent, 100),
	}, nil
}

// Events returns the channel of processed changes. It is closed when the
// watcher stops.
func (w *Watcher) Events() <-chan WatchEvent {
	return w.events
}

// Start begins watching every loader root.
func (w *Watcher) Start(ctx context.Context) error {
	for _, root := range w.loader.Roots() {
		if err := w.addWatchesRecursive(root); err != nil {
			return err
		}
	}

	go w.processEvents(ctx)

	w.logger.Info("Source watcher started",
		"loader", w.loader.Name(),
		"roots", len(w.loader.Roots()),
		"debounce", w.config.DebounceDelay)

	return nil
}

// Stop stops the watcher.
func (w *Watcher) Stop() error {
	return w.watcher.Close()
}

// addWatchesRecursive adds watches to all directories under root.
func (w *Watcher) addWatchesRecursive(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() {
			return nil
		}

		if path != root && skipDir(filepath.Base(path)) {
			return filepath.SkipDir
		}

		if err := w.watcher.Add(path); err != nil {
			w.logger.Warn("Failed to watch directory",
				"path", path,
				"error", err)
		} else {
			w.logger.Debug("Watching directory", "path", path)
		}

		return nil
	})
}

// skipDir returns true for hidden directories. Names such as "build" or
// "target" are legal package segments below a source root and are watched.
func skipDir(base string) bool {
	return strings.HasPrefix(base, ".")
}

// processEvents handles fsnotify events with debouncing.
func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.events)

	ticker := time.NewTicker(w.config.DebounceDelay)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleFSEvent(event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error("Watcher error", "error", err)

		case <-ticker.C:
			w.flushPending(ctx)
		}
	}
}

// handleFSEvent processes a single fsnotify event.
func (w *Watcher) handleFSEvent(event fsnotify.Event) {
	path := event.Name

	if !strings.HasSuffix(path, ".java") {
		// New directories need their own watch
		if event.Has(fsnotify.Create) {
			if info, err := os.Stat(path); err == nil && info.IsDir() && !skipDir(filepath.Base(path)) {
				if err := w.addWatchesRecursive(path); err != nil {
					w.logger.Warn("Failed to watch new directory",
						"path", path,
						"error", err)
				}
			}
		}
		return
	}

	w.pendingMu.Lock()
	w.pending[path] = event.Op
	w.pendingMu.Unlock()

	w.logger.Debug("Source change detected",
		"path", path,
		"op", event.Op.String())
}

// flushPending processes accumulated changes.
func (w *Watcher) flushPending(ctx context.Context) {
	w.pendingMu.Lock()
	if len(w.pending) == 0 {
		w.pendingMu.Unlock()
		return
	}
	toProcess := w.pending
	w.pending = make(map[string]fsnotify.Op)
	w.pendingMu.Unlock()

	for path, op := range toProcess {
		select {
		case <-ctx.Done():
			return
		default:
		}

		var invalidated bool
		if op.Has(fsnotify.Remove) || op.Has(fsnotify.Rename) {
			invalidated = w.loader.Invalidate(path)
		} else {
			invalidated = w.loader.Refresh(path)
		}

		if invalidated {
			w.logger.Info("Invalidated compilation unit",
				"loader", w.loader.Name(),
				"path", path)
		}

		w.sendEvent(WatchEvent{Path: path, Op: op, Invalidated: invalidated})
	}
}

// sendEvent sends an event to the output channel.
func (w *Watcher) sendEvent(event WatchEvent) {
	select {
	case w.events <- event:
	default:
		w.logger.Warn("Event channel full, dropping event",
			"path", event.Path)
	}
}
