package watcher

import (
	"context"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/solveya/console/pkg/logger"
)

// Artifact is a file in the drop folder that has settled after its last
// create or write event.
type Artifact struct {
	Path      string
	Timestamp time.Time
}

// Watcher monitors the drop folder and reports new binary artifacts once
// writes to them have quiesced. Rapid event bursts for the same file are
// debounced so a file being copied in is reported once, after the copy
// finishes.
type Watcher struct {
	watchPath     string
	filter        Filter
	artifacts     chan Artifact
	errors        chan error
	fsWatcher     *fsnotify.Watcher
	debounceMap   map[string]*time.Timer
	debounceMu    sync.Mutex
	debounceDelay time.Duration
	ctx           context.Context
	cancel        context.CancelFunc
	wg            sync.WaitGroup
}

func NewWatcher(watchPath string, filter Filter, parentCtx context.Context) (*Watcher, error) {
	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(parentCtx)
	return &Watcher{
		watchPath:     watchPath,
		filter:        filter,
		artifacts:     make(chan Artifact, 100),
		errors:        make(chan error, 10),
		fsWatcher:     fsWatcher,
		debounceMap:   make(map[string]*time.Timer),
		debounceDelay: 500 * time.Millisecond,
		ctx:           ctx,
		cancel:        cancel,
	}, nil
}

// Start begins watching the drop folder.
func (w *Watcher) Start() error {
	if err := w.fsWatcher.Add(w.watchPath); err != nil {
		return err
	}
	logger.Log.Info("Drop folder watcher started", "path", w.watchPath)
	w.wg.Add(2)
	go w.eventLoop()
	go w.errorLoop()
	return nil
}

// Stop stops the watcher and cleans up resources.
func (w *Watcher) Stop() {
	w.cancel()
	w.fsWatcher.Close()
	w.wg.Wait()
	w.debounceMu.Lock()
	for _, timer := range w.debounceMap {
		timer.Stop()
	}
	w.debounceMap = nil
	w.debounceMu.Unlock()
	close(w.artifacts)
	close(w.errors)
	logger.Log.Info("Drop folder watcher stopped")
}

// Artifacts returns the channel of settled artifacts.
func (w *Watcher) Artifacts() <-chan Artifact {
	return w.artifacts
}

// Errors returns the channel of watcher errors.
func (w *Watcher) Errors() <-chan error {
	return w.errors
}

func (w *Watcher) eventLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		}
	}
}

func (w *Watcher) errorLoop() {
	defer w.wg.Done()
	for {
		select {
		case <-w.ctx.Done():
			return
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errors <- err:
			default:
				logger.Log.Error("Error channel full, dropping error", "err", err)
			}
		}
	}
}

// handleEvent processes a single fsnotify event. Only creates and writes
// matter here; a removed or renamed file is no longer a submittable artifact.
func (w *Watcher) handleEvent(event fsnotify.Event) {
	if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
		return
	}
	if !w.filter.Accepts(event.Name) {
		return
	}
	w.debounce(event.Name)
}

// debounce restarts the settle timer for a file on every event it produces.
func (w *Watcher) debounce(filePath string) {
	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()
	if timer, exists := w.debounceMap[filePath]; exists {
		timer.Stop()
	}
	timer := time.AfterFunc(w.debounceDelay, func() {
		w.debounceMu.Lock()
		defer w.debounceMu.Unlock()
		if w.debounceMap == nil {
			// Stop ran; the artifacts channel is closed or about to be.
			return
		}
		delete(w.debounceMap, filePath)
		artifact := Artifact{
			Path:      filePath,
			Timestamp: time.Now(),
		}
		select {
		case w.artifacts <- artifact:
		default:
			logger.Log.Warn("Artifact channel full, dropping artifact", "path", filePath)
		}
	})
	w.debounceMap[filePath] = timer
}
