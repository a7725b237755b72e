// watcher.go filesystem watcher that reloads artifacts on change
package artifact

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"

	"github.com/mgarzon/floracast-go/internal/errors"
)

// Debounce and reload pacing for the artifact watcher. The trainer writes
// three files per export, the debounce window collapses that burst into a
// single reload and the limiter spaces out reloads when exports arrive
// back to back.
const (
	watchDebounce     = 500 * time.Millisecond
	watchReloadMinGap = 5 * time.Second
	watchEventBuffer  = 64
)

// Watcher reloads a store when its artifact files change on disk. The
// trainer replaces files in place or via rename, either way the three
// writes of one export land within the debounce window and trigger one
// reload.
type Watcher struct {
	store   *Store
	fsw     *fsnotify.Watcher
	limiter *rate.Limiter

	events   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewWatcher creates a watcher for the store's artifact directory.
// Call Start to begin watching.
func NewWatcher(store *Store) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategorySystem).
			Context("domain", store.Domain()).
			Context("operation", "create-watcher").
			Build()
	}

	return &Watcher{
		store:   store,
		fsw:     fsw,
		limiter: rate.NewLimiter(rate.Every(watchReloadMinGap), 1),
		events:  make(chan struct{}, watchEventBuffer),
		done:    make(chan struct{}),
	}, nil
}

// Start watches the artifact directory and reloads the store on change.
// It spawns the event and debounce goroutines, both exit when ctx is
// canceled or Stop is called.
func (w *Watcher) Start(ctx context.Context) error {
	if err := w.fsw.Add(w.store.Dir()); err != nil {
		return errors.New(err).
			Category(errors.CategoryFileIO).
			Context("domain", w.store.Domain()).
			Context("dir", w.store.Dir()).
			Context("operation", "watch-dir").
			Build()
	}

	w.wg.Go(func() { w.processEvents(ctx) })
	w.wg.Go(func() { w.debounceLoop(ctx) })

	artifactLogger.Info("artifact watcher started",
		"domain", w.store.Domain(),
		"dir", w.store.Dir())
	return nil
}

// Stop stops watching. Safe to call more than once and concurrently with
// context cancellation, the goroutines are joined before Stop returns.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		if err := w.fsw.Close(); err != nil {
			artifactLogger.Warn("Failed to close fsnotify watcher", "error", err)
		}
	})
	w.wg.Wait()
}

// processEvents filters raw fsnotify events down to artifact file changes.
func (w *Watcher) processEvents(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case event, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !isArtifactFile(event.Name) {
				continue
			}
			if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) && !event.Has(fsnotify.Rename) {
				continue
			}
			select {
			case w.events <- struct{}{}:
			default:
				// A reload is already pending, dropping the event loses nothing.
			}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			artifactLogger.Warn("artifact watcher error",
				"domain", w.store.Domain(),
				"error", err)
		}
	}
}

// debounceLoop waits out the write burst of an export, then reloads.
func (w *Watcher) debounceLoop(ctx context.Context) {
	timer := time.NewTimer(watchDebounce)
	if !timer.Stop() {
		<-timer.C
	}
	pending := false

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.done:
			return
		case <-w.events:
			// Each event extends the window, the export may still be writing.
			if !timer.Stop() && pending {
				<-timer.C
			}
			timer.Reset(watchDebounce)
			pending = true
		case <-timer.C:
			pending = false
			if !w.limiter.Allow() {
				// Too soon after the previous reload, rearm and retry.
				timer.Reset(watchReloadMinGap)
				pending = true
				continue
			}
			if err := w.store.Reload(); err != nil {
				artifactLogger.Warn("watcher triggered reload failed",
					"domain", w.store.Domain(),
					"error", err)
			}
		}
	}
}

// isArtifactFile reports whether a changed path is one of the three
// artifact files.
func isArtifactFile(path string) bool {
	switch filepath.Base(path) {
	case RegressorFile, EncodersFile, MetadataFile:
		return true
	}
	return false
}
