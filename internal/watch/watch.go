// Package watch keeps the session index fresh by reindexing after log
// files change on disk.
package watch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/zbsdsb/ai-session-viewer/internal/logging"
)

// maxWatchDepth covers the deepest log layout (codex sessions/YYYY/MM/DD).
const maxWatchDepth = 3

// Root is a directory tree to watch. Depth limits how many levels of
// subdirectories get their own watches; log files only live at known
// depths, and watching everything leaks file descriptors on kqueue
// platforms.
type Root struct {
	Path  string
	Depth int
}

// Watcher debounces file events per path and coalesces them into
// rate-limited calls of the sync callback.
type Watcher struct {
	fsw      *fsnotify.Watcher
	debounce time.Duration
	limiter  *rate.Limiter
	onSync   func() error
	kick     chan struct{}
	log      *slog.Logger
}

// New builds a watcher over the given roots. Missing roots are skipped
// so a machine without one of the tools still watches the rest.
func New(roots []Root, debounce time.Duration, perMinute float64, onSync func() error) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	if perMinute <= 0 {
		perMinute = 30
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watch: create watcher: %w", err)
	}

	w := &Watcher{
		fsw:      fsw,
		debounce: debounce,
		limiter:  rate.NewLimiter(rate.Limit(perMinute/60), 1),
		onSync:   onSync,
		kick:     make(chan struct{}, 1),
		log:      logging.ForComponent(logging.CompWatch),
	}
	for _, root := range roots {
		w.addTree(root.Path, root.Depth)
	}
	return w, nil
}

// Run blocks until the context is cancelled, dispatching file events
// into debounced sync calls.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.fsw.Close()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return w.eventLoop(ctx) })
	g.Go(func() error { return w.syncLoop(ctx) })
	return g.Wait()
}

func (w *Watcher) eventLoop(ctx context.Context) error {
	timers := make(map[string]*time.Timer)
	var mu sync.Mutex

	for {
		select {
		case <-ctx.Done():
			// Pending debounce timers would leak their goroutines
			mu.Lock()
			for _, timer := range timers {
				timer.Stop()
			}
			mu.Unlock()
			return nil

		case event, ok := <-w.fsw.Events:
			if !ok {
				return nil
			}

			// New directories (a fresh project, a new codex day) need
			// their own watches before their files produce events.
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					w.addTree(event.Name, maxWatchDepth)
					continue
				}
			}

			if !strings.HasSuffix(event.Name, ".jsonl") {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			// Debounce: wait for the quiet period after the last event
			// for this file.
			mu.Lock()
			if timer, exists := timers[event.Name]; exists {
				timer.Stop()
			}
			timers[event.Name] = time.AfterFunc(w.debounce, func() {
				mu.Lock()
				delete(timers, event.Name)
				mu.Unlock()
				w.notify()
			})
			mu.Unlock()

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("file watcher error", "error", err)
		}
	}
}

func (w *Watcher) syncLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-w.kick:
			if err := w.limiter.Wait(ctx); err != nil {
				return nil
			}
			if err := w.onSync(); err != nil {
				w.log.Warn("reindex after change failed", "error", err)
			}
		}
	}
}

// notify marks the index dirty. The buffered channel coalesces bursts
// from many files changing at once into a single pending sync.
func (w *Watcher) notify() {
	select {
	case w.kick <- struct{}{}:
	default:
	}
}

func (w *Watcher) addTree(root string, depth int) {
	if _, err := os.Stat(root); err != nil {
		return
	}
	if err := w.fsw.Add(root); err != nil {
		w.log.Warn("watch add failed", "dir", root, "error", err)
		return
	}
	if depth <= 0 {
		return
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return
	}
	for _, entry := range entries {
		if entry.IsDir() {
			w.addTree(filepath.Join(root, entry.Name()), depth-1)
		}
	}
}
