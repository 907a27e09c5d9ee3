// Package watch reports which category folders under a storage root changed
// on disk. It only observes; callers decide what to recompute.
package watch

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"assetsync/internal/logging"
)

// DefaultDebounce is how long a category must stay quiet before a change is emitted.
const DefaultDebounce = 500 * time.Millisecond

// Change names a category folder whose contents changed and the file names
// seen in the burst of events that preceded it.
type Change struct {
	Category string
	Files    []string
}

// Option customizes a Watcher.
type Option func(*Watcher)

// WithDebounce overrides DefaultDebounce.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// WithIgnore skips file names matching any filepath.Match pattern.
func WithIgnore(patterns []string) Option {
	return func(w *Watcher) { w.ignore = slices.Clone(patterns) }
}

// WithLogger sets the logger used for watch errors.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Watcher) { w.logger = logging.NewComponentLogger(logger, "watch") }
}

// Watcher monitors a storage root and its category folders with fsnotify.
type Watcher struct {
	Root    string
	Changes <-chan Change

	changes  chan Change
	stop     chan struct{}
	done     chan struct{}
	watcher  *fsnotify.Watcher
	debounce time.Duration
	ignore   []string
	logger   *slog.Logger
	started  bool
}

type pendingChange struct {
	last  time.Time
	files map[string]struct{}
}

// NewWatcher creates a watcher for root. Call Start to begin delivering changes.
func NewWatcher(root string, opts ...Option) (*Watcher, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, errors.New("watch root is not a directory: " + root)
	}
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ch := make(chan Change, 16)
	w := &Watcher{
		Root:     root,
		Changes:  ch,
		changes:  ch,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
		watcher:  fw,
		debounce: DefaultDebounce,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Start watches the root and every existing category folder.
func (w *Watcher) Start() error {
	if err := w.watcher.Add(w.Root); err != nil {
		return err
	}
	entries, err := os.ReadDir(w.Root)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if err := w.watcher.Add(filepath.Join(w.Root, entry.Name())); err != nil {
			return err
		}
	}
	w.started = true
	go w.loop()
	return nil
}

// Stop closes the watcher and the Changes channel. It is safe to call after
// Start failed.
func (w *Watcher) Stop() {
	close(w.stop)
	_ = w.watcher.Close()
	if w.started {
		<-w.done
	}
	close(w.changes)
}

func (w *Watcher) loop() {
	defer close(w.done)

	pending := make(map[string]*pendingChange)
	ticker := time.NewTicker(w.debounce / 2)
	defer ticker.Stop()

	for {
		select {
		case <-w.stop:
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			category, file, ok := w.classify(event)
			if !ok {
				continue
			}
			p := pending[category]
			if p == nil {
				p = &pendingChange{files: make(map[string]struct{})}
				pending[category] = p
			}
			p.last = time.Now()
			if file != "" {
				p.files[file] = struct{}{}
			}

		case <-ticker.C:
			now := time.Now()
			for category, p := range pending {
				if now.Sub(p.last) < w.debounce {
					continue
				}
				delete(pending, category)
				if !w.emit(category, p) {
					return
				}
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", logging.Error(err))
		}
	}
}

// classify maps an event to its category. Directory creation directly under
// the root registers a new category folder with the watcher.
func (w *Watcher) classify(event fsnotify.Event) (string, string, bool) {
	rel, err := filepath.Rel(w.Root, event.Name)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", "", false
	}
	parts := strings.Split(rel, string(filepath.Separator))
	category := parts[0]
	if strings.HasPrefix(category, ".") {
		return "", "", false
	}

	if len(parts) == 1 {
		if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
			return "", "", false
		}
		info, statErr := os.Stat(event.Name)
		switch {
		case statErr == nil && info.IsDir():
			if err := w.watcher.Add(event.Name); err != nil {
				w.logger.Warn("watch category failed",
					logging.String(logging.FieldCategory, category), logging.Error(err))
			}
			return category, "", true
		case statErr != nil && (event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)):
			return category, "", true
		}
		return "", "", false
	}
	if len(parts) != 2 {
		return "", "", false
	}

	file := parts[1]
	if w.ignored(file) {
		return "", "", false
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) &&
		!event.Has(fsnotify.Remove) && !event.Has(fsnotify.Rename) {
		return "", "", false
	}
	return category, file, true
}

func (w *Watcher) ignored(name string) bool {
	for _, pattern := range w.ignore {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func (w *Watcher) emit(category string, p *pendingChange) bool {
	files := make([]string, 0, len(p.files))
	for name := range p.files {
		files = append(files, name)
	}
	slices.Sort(files)
	select {
	case w.changes <- Change{Category: category, Files: files}:
		return true
	case <-w.stop:
		return false
	}
}
