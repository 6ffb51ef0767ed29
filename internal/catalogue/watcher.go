package catalogue

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debounceInterval coalesces the burst of filesystem events editors emit
// when rewriting a file.
const debounceInterval = 250 * time.Millisecond

// Watcher reloads the catalogue when its file changes on disk. A reload
// that fails validation keeps the previous snapshot active; the error is an
// operator concern, never a request failure.
type Watcher struct {
	path    string
	store   *Store
	logger  *zap.Logger
	watcher *fsnotify.Watcher

	// OnSwap is called after a successful reload; optional.
	OnSwap func(old, next *Catalogue)

	// OnError is called when a reload is rejected; optional.
	OnError func(err error)
}

// NewWatcher creates a watcher for the catalogue file backing the store.
func NewWatcher(path string, store *Store, logger *zap.Logger) (*Watcher, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize filesystem watcher: %w", err)
	}

	// Watch the directory, not the file: editors and config management
	// tools typically replace the file, which drops a file-level watch.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch catalogue directory: %w", err)
	}

	return &Watcher{
		path:    path,
		store:   store,
		logger:  logger,
		watcher: fw,
	}, nil
}

// Run processes filesystem events until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceInterval)
				timerC = timer.C
			} else {
				timer.Reset(debounceInterval)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("catalogue watcher error", zap.Error(err))

		case <-timerC:
			timer = nil
			timerC = nil
			w.reload()
		}
	}
}

// reload loads the file and swaps the snapshot on success.
func (w *Watcher) reload() {
	old := w.store.Snapshot()

	next, err := LoadFile(w.path)
	if err != nil {
		w.logger.Error("catalogue reload rejected, previous version stays active",
			zap.String("path", w.path),
			zap.String("active_version", old.Version()),
			zap.Error(err))
		if w.OnError != nil {
			w.OnError(err)
		}
		return
	}

	w.store.Swap(next)
	w.logger.Info("catalogue reloaded",
		zap.String("old_version", old.Version()),
		zap.String("new_version", next.Version()),
		zap.Int("patterns", next.Len()))
	if w.OnSwap != nil {
		w.OnSwap(old, next)
	}
}
