package library

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"personid/internal/logging"
)

// Handler processes a newly settled folder.
type Handler func(ctx context.Context, folder Folder)

// Watcher reports sub-folders created in a library directory once they have
// stopped changing for the settle period.
type Watcher struct {
	root   string
	opts   ListOptions
	settle time.Duration
	handle Handler
	logger *slog.Logger

	mu     sync.Mutex
	timers map[string]*time.Timer
	own    map[string]struct{}
	ready  chan string
}

// NewWatcher builds a watcher for root. Handlers run one at a time.
func NewWatcher(root string, opts ListOptions, settle time.Duration, handle Handler, logger *slog.Logger) *Watcher {
	if settle <= 0 {
		settle = time.Second
	}
	return &Watcher{
		root:   root,
		opts:   opts,
		settle: settle,
		handle: handle,
		logger: logging.NewComponentLogger(logger, "watch"),
		timers: make(map[string]*time.Timer),
		own:    make(map[string]struct{}),
		ready:  make(chan string, 64),
	}
}

// MarkOwnRename suppresses the next event for path, so a folder renamed by
// the handler is not resolved again.
func (w *Watcher) MarkOwnRename(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.own[filepath.Clean(path)] = struct{}{}
}

// ClearOwnRename drops a mark set by MarkOwnRename, for a rename that did
// not happen.
func (w *Watcher) ClearOwnRename(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.own, filepath.Clean(path))
}

func (w *Watcher) checkOwnRename(path string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.own[path]; ok {
		delete(w.own, path)
		return true
	}
	return false
}

// Run watches until ctx is cancelled.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create fsnotify watcher: %w", err)
	}
	defer fsw.Close()
	if err := fsw.Add(w.root); err != nil {
		return fmt.Errorf("watch %s: %w", w.root, err)
	}

	var consumer sync.WaitGroup
	consumer.Add(1)
	go func() {
		defer consumer.Done()
		w.consume(ctx)
	}()
	defer func() {
		w.stopTimers()
		consumer.Wait()
	}()

	logger := logging.WithContext(ctx, w.logger)
	logger.Info("watching library", logging.String("root", w.root), logging.Duration("settle", w.settle))
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			w.schedule(ctx, event.Name)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logging.WarnWithContext(logger, "watcher error", "watch_error",
				logging.Error(err),
				logging.String(logging.FieldImpact, "some folder events may be missed"),
			)
		}
	}
}

// schedule (re)starts the settle timer for the top-level entry containing
// path.
func (w *Watcher) schedule(ctx context.Context, path string) {
	rel, err := filepath.Rel(w.root, path)
	if err != nil || rel == "." || rel == ".." {
		return
	}
	top := filepath.Join(w.root, firstElement(rel))

	w.mu.Lock()
	defer w.mu.Unlock()
	if timer, ok := w.timers[top]; ok {
		timer.Reset(w.settle)
		return
	}
	w.timers[top] = time.AfterFunc(w.settle, func() {
		w.mu.Lock()
		delete(w.timers, top)
		w.mu.Unlock()
		select {
		case w.ready <- top:
		case <-ctx.Done():
		}
	})
}

func (w *Watcher) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case path := <-w.ready:
			if w.checkOwnRename(path) {
				continue
			}
			info, err := os.Stat(path)
			if err != nil || !info.IsDir() {
				continue
			}
			filter, err := newFilter(w.root, w.opts)
			if err != nil {
				logging.WarnWithContext(w.logger, "ignore file unreadable", "ignore_file_unreadable", logging.Error(err))
				continue
			}
			name := filepath.Base(path)
			if filter.skip(name) {
				continue
			}
			w.handle(ctx, Folder{Name: name, Path: path})
		}
	}
}

func (w *Watcher) stopTimers() {
	w.mu.Lock()
	defer w.mu.Unlock()
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
}

func firstElement(rel string) string {
	for i := 0; i < len(rel); i++ {
		if os.IsPathSeparator(rel[i]) {
			return rel[:i]
		}
	}
	return rel
}
