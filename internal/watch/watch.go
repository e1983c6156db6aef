// Package watch re-runs work when a file changes.
package watch

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

// DefaultDelay is how long a file must stay quiet before a change fires.
const DefaultDelay = 100 * time.Millisecond

// Watcher calls a function after a file is written. Bursts of events are
// collapsed into one call.
type Watcher struct {
	Path   string
	Delay  time.Duration
	Logger zerolog.Logger
	Clock  clock.Clock
}

// New returns a Watcher for path with the default delay.
func New(path string, logger zerolog.Logger) *Watcher {
	return &Watcher{Path: path, Delay: DefaultDelay, Logger: logger, Clock: clock.New()}
}

// Run blocks until ctx is done, calling onChange after each debounced write
// or create of the watched file. The parent directory is watched so editors
// that replace the file are seen too. Calls to onChange never overlap.
func (w *Watcher) Run(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create watcher")
	}
	defer watcher.Close()

	dir := filepath.Dir(w.Path)
	name := filepath.Base(w.Path)
	if err := watcher.Add(dir); err != nil {
		return errors.Wrapf(err, "watch %s", dir)
	}

	d := newDebouncer(w.clock(), w.delay(), onChange)
	defer d.stop()

	w.Logger.Debug().Str("path", w.Path).Msg("watching for changes")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Base(event.Name) != name {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			w.Logger.Debug().Str("path", event.Name).Str("op", event.Op.String()).Msg("file changed")
			d.trigger()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			w.Logger.Warn().Err(err).Msg("watcher error")
		}
	}
}

func (w *Watcher) clock() clock.Clock {
	if w.Clock == nil {
		return clock.New()
	}
	return w.Clock
}

func (w *Watcher) delay() time.Duration {
	if w.Delay <= 0 {
		return DefaultDelay
	}
	return w.Delay
}

type debouncer struct {
	clock clock.Clock
	delay time.Duration
	fn    func()

	mu      sync.Mutex
	timer   *clock.Timer
	running sync.Mutex
	stopped bool
}

func newDebouncer(clk clock.Clock, delay time.Duration, fn func()) *debouncer {
	return &debouncer{clock: clk, delay: delay, fn: fn}
}

func (d *debouncer) trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = d.clock.AfterFunc(d.delay, func() {
		d.running.Lock()
		defer d.running.Unlock()

		d.mu.Lock()
		stopped := d.stopped
		d.mu.Unlock()
		if !stopped {
			d.fn()
		}
	})
}

// stop cancels a pending call and waits for a running one to finish.
func (d *debouncer) stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.mu.Unlock()

	d.running.Lock()
	d.running.Unlock()
}
