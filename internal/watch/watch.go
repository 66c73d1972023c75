// Package watch notices changes under the dataset roots so the session can
// re-pair without the reviewer reopening the folders.
package watch

import (
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/MostafaAbdelmegeed/medical-dataset-reviewer/internal/logger"
)

const DefaultDebounce = 500 * time.Millisecond

// Watcher calls onChange once a burst of file-system events under its roots
// has been quiet for the debounce interval.
type Watcher struct {
	roots    []string
	debounce time.Duration
	onChange func()
	logger   logger.Logger

	fsw  *fsnotify.Watcher
	done chan struct{}
	wg   sync.WaitGroup

	mu     sync.Mutex
	timer  *time.Timer
	closed bool
}

func New(roots []string, debounce time.Duration, onChange func(), log logger.Logger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	var clean []string
	for _, r := range roots {
		if r != "" {
			clean = append(clean, filepath.Clean(r))
		}
	}

	return &Watcher{
		roots:    clean,
		debounce: debounce,
		onChange: onChange,
		logger:   logger.OrNop(log),
		fsw:      fsw,
		done:     make(chan struct{}),
	}, nil
}

// Start subscribes to every directory under the roots and begins dispatching
func (w *Watcher) Start() error {
	var errs []error
	for _, r := range w.roots {
		if err := w.addTree(r); err != nil {
			errs = append(errs, err)
		}
	}

	w.wg.Add(1)
	go w.loop()

	w.logger.Info("Watcher", "watching dataset roots", map[string]interface{}{
		"roots":    w.roots,
		"debounce": w.debounce.String(),
	})
	return errors.Join(errs...)
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		return w.fsw.Add(path)
	})
}

func (w *Watcher) loop() {
	defer w.wg.Done()
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warning("Watcher", "watch error", map[string]interface{}{"error": err.Error()})
		case <-w.done:
			return
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod || ignored(ev.Name) {
		return
	}
	if ev.Has(fsnotify.Create) {
		// new subdirectories are subscribed too; failures mean it is a file or already gone
		_ = w.addTree(ev.Name)
	}

	w.logger.Debug("Watcher", "change detected", map[string]interface{}{
		"path": ev.Name,
		"op":   ev.Op.String(),
	})
	w.schedule()
}

func (w *Watcher) schedule() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	if w.timer != nil {
		w.timer.Reset(w.debounce)
		return
	}
	w.timer = time.AfterFunc(w.debounce, w.fire)
}

func (w *Watcher) fire() {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if !closed && w.onChange != nil {
		w.onChange()
	}
}

// Shutdown stops the watcher; it is safe to call more than once
func (w *Watcher) Shutdown() {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return
	}
	w.closed = true
	if w.timer != nil {
		w.timer.Stop()
	}
	w.mu.Unlock()

	close(w.done)
	_ = w.fsw.Close()
	w.wg.Wait()
}

// hidden and temporary files written by atomic copies
func ignored(path string) bool {
	return strings.HasPrefix(filepath.Base(path), ".")
}
