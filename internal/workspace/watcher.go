package workspace

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/petrel-ls/petrel/internal/debug"
	"github.com/petrel-ls/petrel/internal/errors"
	"github.com/petrel-ls/petrel/internal/parse"
)

// Watcher feeds file system changes back into a workspace. Events are
// debounced so an editor's save burst reindexes each file once.
type Watcher struct {
	ws        *Workspace
	notifier  *fsnotify.Watcher
	debouncer *eventDebouncer
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

type fileEvent int

const (
	eventWrite fileEvent = iota
	eventRemove
)

// NewWatcher creates a watcher over the workspace's roots. Call Start to
// begin processing events.
func NewWatcher(ws *Workspace) (*Watcher, error) {
	notifier, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.NewScanError("watch", "", "", err)
	}
	w := &Watcher{
		ws:       ws,
		notifier: notifier,
	}
	debounce := time.Duration(ws.cfg.Index.WatchDebounceMs) * time.Millisecond
	w.debouncer = newEventDebouncer(debounce, w.flush)
	return w, nil
}

// Start registers watches for every directory under the workspace roots
// and launches the event loop. The loop stops when ctx is canceled or
// Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	ctx, w.cancel = context.WithCancel(ctx)

	for _, root := range w.ws.Roots() {
		if err := w.addWatches(root); err != nil {
			return err
		}
	}

	w.wg.Add(1)
	go w.run(ctx)
	debug.LogWatch("watcher started over %d roots\n", len(w.ws.Roots()))
	return nil
}

// Stop shuts the watcher down and waits for the event loop to exit.
// Pending debounced events are dropped; a torn-down index has no use for
// them.
func (w *Watcher) Stop() error {
	if w.cancel != nil {
		w.cancel()
	}
	err := w.notifier.Close()
	w.wg.Wait()
	w.debouncer.stop()
	return err
}

// addWatches registers every non-excluded directory under root. fsnotify
// watches are per-directory, not recursive.
func (w *Watcher) addWatches(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || !d.IsDir() {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr == nil && path != root && w.ws.excluded(filepath.ToSlash(rel)) {
			return filepath.SkipDir
		}
		if err := w.notifier.Add(path); err != nil {
			debug.LogWatch("failed to watch %s: %v\n", path, err)
		}
		return nil
	})
}

func (w *Watcher) run(ctx context.Context) {
	defer w.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.notifier.Events:
			if !ok {
				return
			}
			w.handle(event)
		case err, ok := <-w.notifier.Errors:
			if !ok {
				return
			}
			debug.LogWatch("notifier error: %v\n", err)
		}
	}
}

func (w *Watcher) handle(event fsnotify.Event) {
	path := event.Name

	if event.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		if parse.Indexable(path) {
			w.debouncer.add(path, eventRemove)
		}
		return
	}

	info, err := os.Stat(path)
	if err != nil {
		return
	}
	if info.IsDir() {
		// new directories need their own watch
		if event.Op&fsnotify.Create != 0 {
			if err := w.notifier.Add(path); err != nil {
				debug.LogWatch("failed to watch new directory %s: %v\n", path, err)
			}
		}
		return
	}

	if !parse.Indexable(path) || info.Size() > w.ws.cfg.Index.MaxFileSize {
		return
	}
	if event.Op&(fsnotify.Create|fsnotify.Write) != 0 {
		w.debouncer.add(path, eventWrite)
	}
}

// flush applies a debounced batch. Removals run first so a rename seen as
// remove+create never leaves stale entities behind.
func (w *Watcher) flush(events map[string]fileEvent) {
	debug.LogWatch("processing %d debounced events\n", len(events))

	for path, ev := range events {
		if ev == eventRemove {
			w.ws.RemoveFile(path)
		}
	}
	for path, ev := range events {
		if ev != eventWrite {
			continue
		}
		if err := w.ws.ReplaceFile(path); err != nil {
			debug.LogWatch("reindex of %s failed: %v\n", path, err)
		}
	}
}

// eventDebouncer coalesces per-path events: the last event for a path
// within the window wins.
type eventDebouncer struct {
	mu       sync.Mutex
	events   map[string]fileEvent
	debounce time.Duration
	timer    *time.Timer
	stopped  bool
	flush    func(map[string]fileEvent)
}

func newEventDebouncer(debounce time.Duration, flush func(map[string]fileEvent)) *eventDebouncer {
	return &eventDebouncer{
		events:   make(map[string]fileEvent),
		debounce: debounce,
		flush:    flush,
	}
}

func (d *eventDebouncer) add(path string, ev fileEvent) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.events[path] = ev
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.debounce, d.fire)
}

func (d *eventDebouncer) fire() {
	d.mu.Lock()
	if d.stopped || len(d.events) == 0 {
		d.mu.Unlock()
		return
	}
	events := d.events
	d.events = make(map[string]fileEvent)
	d.mu.Unlock()

	d.flush(events)
}

func (d *eventDebouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
}
