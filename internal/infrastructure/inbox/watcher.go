// Package inbox watches a directory for text files and hands their contents
// to a callback once writes have settled.
package inbox

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a file must be quiet before it is read.
const DefaultDebounce = 300 * time.Millisecond

// Handler receives the path and trimmed contents of a settled file.
type Handler func(ctx context.Context, path, text string)

// Watcher delivers new or modified .txt files from a directory.
type Watcher struct {
	dir      string
	debounce time.Duration
	logger   *zap.Logger
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// New creates a Watcher for dir. The directory is created if missing.
func New(dir string, opts ...Option) (*Watcher, error) {
	if dir == "" {
		return nil, fmt.Errorf("inbox directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating inbox directory: %w", err)
	}

	w := &Watcher{
		dir:      dir,
		debounce: DefaultDebounce,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string {
	return w.dir
}

// Run blocks until ctx is done, calling fn for each settled .txt file.
// Calls to fn are sequential. Empty files are skipped.
func (w *Watcher) Run(ctx context.Context, fn Handler) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	pending := make(map[string]time.Time)
	ticker := time.NewTicker(w.tick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !relevant(event) {
				continue
			}
			w.logger.Debug("inbox event", zap.String("path", event.Name), zap.Stringer("op", event.Op))
			pending[event.Name] = time.Now()

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("inbox watcher error", zap.Error(err))

		case now := <-ticker.C:
			for path, seen := range pending {
				if now.Sub(seen) < w.debounce {
					continue
				}
				delete(pending, path)
				w.deliver(ctx, path, fn)
			}
		}
	}
}

func (w *Watcher) deliver(ctx context.Context, path string, fn Handler) {
	content, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			w.logger.Warn("reading inbox file", zap.String("path", path), zap.Error(err))
		}
		return
	}

	text := strings.TrimSpace(string(content))
	if text == "" {
		return
	}
	fn(ctx, path, text)
}

func (w *Watcher) tick() time.Duration {
	t := w.debounce / 4
	if t < 10*time.Millisecond {
		t = 10 * time.Millisecond
	}
	return t
}

func relevant(event fsnotify.Event) bool {
	if !strings.EqualFold(filepath.Ext(event.Name), ".txt") {
		return false
	}
	return event.Has(fsnotify.Create) || event.Has(fsnotify.Write)
}
