// Package watch reruns a handler when a scene file changes on disk.
//
// The watcher observes the file's directory rather than the file itself, so
// editors that save by writing a temporary file and renaming it over the
// original are still seen. Bursts of events are coalesced: the handler runs
// once the file has been quiet for the debounce window.
//
//	w, err := watch.New("level1.yaml", srv.Rescan, watch.Options{Logger: logger})
//	if err != nil {
//	    return err
//	}
//	return w.Run(ctx)
package watch

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is the quiet period before the handler runs.
const DefaultDebounce = 200 * time.Millisecond

// Handler is called after the watched file changed. Errors are logged and do
// not stop the watcher.
type Handler func(ctx context.Context) error

// Options configures a [Watcher].
type Options struct {
	// Debounce is the quiet period before the handler runs. Zero means DefaultDebounce.
	Debounce time.Duration
	// Logger receives change and handler errors. Nil disables logging.
	Logger *log.Logger
}

// Watcher watches one file.
type Watcher struct {
	path    string
	fsw     *fsnotify.Watcher
	handler Handler
	opts    Options
}

// New starts watching the directory containing path.
func New(path string, handler Handler, opts Options) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.Logger == nil {
		opts.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(abs)); err != nil {
		fsw.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}
	return &Watcher{path: abs, fsw: fsw, handler: handler, opts: opts}, nil
}

// Path returns the absolute path of the watched file.
func (w *Watcher) Path() string { return w.path }

// Run delivers debounced changes to the handler until ctx is cancelled or
// the watcher is closed. It closes the watcher before returning.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	var timer *time.Timer
	var timerC <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(ev) {
				continue
			}
			w.opts.Logger.Debug("scene changed", "path", ev.Name, "op", ev.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.opts.Debounce)
				timerC = timer.C
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.opts.Debounce)
			}

		case <-timerC:
			timer, timerC = nil, nil
			if err := w.handler(ctx); err != nil {
				w.opts.Logger.Error("reload failed", "path", w.path, "err", err)
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.opts.Logger.Warn("watch error", "path", w.path, "err", err)
		}
	}
}

// Close stops the watcher; a running Run returns.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if filepath.Clean(ev.Name) != w.path {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}
