// Package fsnotify implements the ports.Watcher interface using github.com/fsnotify/fsnotify.
// It watches a single inbox directory, filters out everything that is not a
// record batch, and debounces bursts of events (a copy or an editor save
// often fires several writes) so each file is reported once it settles.
package fsnotify

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/loopercamera/4M/internal/ports"
)

// ResolvedSuffix marks output files written next to a batch.
const ResolvedSuffix = ".resolved.jsonl"

// DefaultDebounce is the quiet period a file needs before it is reported.
const DefaultDebounce = 200 * time.Millisecond

// Watcher implements ports.Watcher using fsnotify.
type Watcher struct {
	fw       *fsnotify.Watcher
	debounce time.Duration
	done     chan struct{}
	stopped  bool
	pending  map[string]*time.Timer
	mu       sync.Mutex
}

var _ ports.Watcher = (*Watcher)(nil)

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period. d <= 0 keeps the default.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) {
		if d > 0 {
			w.debounce = d
		}
	}
}

// NewWatcher creates a new inbox watcher.
func NewWatcher(opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &Watcher{
		fw:       fw,
		debounce: DefaultDebounce,
		done:     make(chan struct{}),
		pending:  make(map[string]*time.Timer),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Watch starts monitoring dir. onFile is called with the absolute path of
// each batch file once it has been quiet for the debounce period.
func (w *Watcher) Watch(dir string, onFile func(path string)) error {
	absPath, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if err := w.fw.Add(absPath); err != nil {
		return err
	}

	go func() {
		for {
			select {
			case event, ok := <-w.fw.Events:
				if !ok {
					return
				}
				if !IsBatchFile(event.Name) {
					continue
				}
				switch {
				case event.Has(fsnotify.Create) || event.Has(fsnotify.Write):
					w.schedule(event.Name, onFile)
				case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
					w.cancel(event.Name)
				}

			case _, ok := <-w.fw.Errors:
				if !ok {
					return
				}
				// Errors are swallowed: fsnotify recovers automatically

			case <-w.done:
				return
			}
		}
	}()

	return nil
}

// schedule (re)arms the timer for path.
func (w *Watcher) schedule(path string, onFile func(string)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return
	}
	if t, ok := w.pending[path]; ok {
		t.Stop()
	}
	w.pending[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		if w.stopped {
			w.mu.Unlock()
			return
		}
		delete(w.pending, path)
		w.mu.Unlock()

		if info, err := os.Stat(path); err != nil || !info.Mode().IsRegular() {
			return
		}
		onFile(path)
	})
}

func (w *Watcher) cancel(path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if t, ok := w.pending[path]; ok {
		t.Stop()
		delete(w.pending, path)
	}
}

// Stop ends monitoring and releases all resources.
// Safe to call multiple times.
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	for path, t := range w.pending {
		t.Stop()
		delete(w.pending, path)
	}
	close(w.done)
	return w.fw.Close()
}

// IsBatchFile reports whether path names a record batch the inbox accepts:
// a visible .jsonl or .csv file that is not itself resolver output.
func IsBatchFile(path string) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, ResolvedSuffix) {
		return false
	}
	switch strings.ToLower(filepath.Ext(base)) {
	case ".jsonl", ".csv":
		return true
	}
	return false
}

// OutputPath returns the result file written for a batch:
// "in/batch.csv" -> "in/batch.resolved.jsonl".
func OutputPath(batch string) string {
	return strings.TrimSuffix(batch, filepath.Ext(batch)) + ResolvedSuffix
}
