// Package watch reports changes to the pyproject.toml that governs a
// directory, so the project can be identified again.
package watch

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/fyrsmithlabs/pyproject-kernel/internal/logging"
	"github.com/fyrsmithlabs/pyproject-kernel/internal/manifest"
)

// ErrWatcherFailed indicates the filesystem watcher failed to initialize.
var ErrWatcherFailed = errors.New("failed to initialize filesystem watcher")

// DefaultDebounce coalesces editors' write bursts into one event.
const DefaultDebounce = 200 * time.Millisecond

const relevantOps = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename

// Event is a coalesced manifest change.
type Event struct {
	// Path is the manifest that changed.
	Path string

	// Op is the last operation seen in the burst.
	Op fsnotify.Op

	Time time.Time
}

// Watcher watches a directory and its ancestors for manifest changes. A
// manifest created in any ancestor can change which project governs the
// directory, so all of them are watched.
type Watcher struct {
	dirs     []string
	fileName string
	debounce time.Duration
	logger   *logging.Logger

	watcher *fsnotify.Watcher
	events  chan Event
	stop    chan struct{}
	done    chan struct{}

	stopOnce sync.Once
	started  bool
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithDebounce sets the quiet period before an event is emitted.
func WithDebounce(d time.Duration) Option {
	return func(w *Watcher) { w.debounce = d }
}

// WithLogger sets the logger.
func WithLogger(l *logging.Logger) Option {
	return func(w *Watcher) { w.logger = l }
}

// WithFileName overrides the manifest name watched for.
func WithFileName(name string) Option {
	return func(w *Watcher) { w.fileName = name }
}

// New creates a Watcher for dir.
func New(dir string, opts ...Option) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatcherFailed, err)
	}
	w := &Watcher{
		dirs:     manifest.Ancestors(dir),
		fileName: manifest.FileName,
		debounce: DefaultDebounce,
		logger:   logging.NewNop(),
		watcher:  fw,
		events:   make(chan Event, 10),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	return w, nil
}

// Dirs returns the watched directories, nearest first.
func (w *Watcher) Dirs() []string {
	return append([]string(nil), w.dirs...)
}

// Start begins watching. The start directory must be watchable; ancestors
// that cannot be watched are skipped. Events are delivered until Stop is
// called or ctx is done, after which the Events channel is closed.
func (w *Watcher) Start(ctx context.Context) error {
	for i, dir := range w.dirs {
		if err := w.watcher.Add(dir); err != nil {
			if i == 0 {
				return fmt.Errorf("watching %s: %w", dir, err)
			}
			w.logger.Debug(ctx, "skipping unwatchable directory", zap.String("dir", dir), zap.Error(err))
		}
	}
	w.started = true
	go w.processEvents(ctx)
	return nil
}

// Stop stops the watcher and waits for the event loop to exit.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stop)
		_ = w.watcher.Close()
		if w.started {
			<-w.done
		} else {
			close(w.events)
		}
	})
}

// Events returns the channel of coalesced manifest changes.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	return ev.Op&relevantOps != 0 && filepath.Base(ev.Name) == w.fileName
}

func (w *Watcher) processEvents(ctx context.Context) {
	defer close(w.done)
	defer close(w.events)

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending Event
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-w.stop:
			return
		case <-ctx.Done():
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			pending = Event{Path: ev.Name, Op: ev.Op, Time: time.Now()}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			timerC = timer.C
		case <-timerC:
			timerC = nil
			select {
			case w.events <- pending:
			default:
				w.logger.Warn(ctx, "dropping manifest event, consumer is behind", zap.String("path", pending.Path))
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn(ctx, "filesystem watcher error", zap.Error(err))
		}
	}
}
