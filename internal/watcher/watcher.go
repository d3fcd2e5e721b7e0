// Package watcher detects out-of-band modification of the file behind
// an open buffer.
package watcher

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Debounce window for event bursts. Most editors produce several
// events per save (create, write, rename).
const debounceDelay = 100 * time.Millisecond

// Handler is called when the watched file changes on disk. It runs on
// the watcher's goroutine, so it must not touch single-owner state
// like buffers directly.
type Handler func(path string)

// FileWatcher watches a single file using fsnotify. The parent
// directory is watched and events filtered by name, so saves done via
// a temp file and rename are still seen.
type FileWatcher struct {
	mu      sync.Mutex
	w       *fsnotify.Watcher
	path    string
	handler Handler
	ignores int

	closeOnce sync.Once
	done      chan struct{}
}

// New creates a watcher for path and starts delivering events to
// handler until Close.
func New(path string, handler Handler) (*FileWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, err
	}

	fw := &FileWatcher{
		w:       w,
		path:    abs,
		handler: handler,
		done:    make(chan struct{}),
	}
	go fw.loop()
	return fw, nil
}

// Path returns the absolute path being watched.
func (fw *FileWatcher) Path() string {
	return fw.path
}

// IgnoreNext suppresses the next change event. Callers use it right
// before writing the file themselves, so their own saves don't read as
// external modification.
func (fw *FileWatcher) IgnoreNext() {
	fw.mu.Lock()
	fw.ignores++
	fw.mu.Unlock()
}

func (fw *FileWatcher) loop() {
	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-fw.w.Events:
			if !ok {
				return
			}
			if filepath.Clean(ev.Name) != fw.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			if timer != nil {
				timer.Stop()
			}
			timer = time.AfterFunc(debounceDelay, fw.fire)
		case _, ok := <-fw.w.Errors:
			if !ok {
				return
			}
		case <-fw.done:
			return
		}
	}
}

// fire delivers one debounced change, honoring pending ignores.
func (fw *FileWatcher) fire() {
	fw.mu.Lock()
	if fw.ignores > 0 {
		fw.ignores--
		fw.mu.Unlock()
		return
	}
	handler := fw.handler
	fw.mu.Unlock()

	if handler != nil {
		handler(fw.path)
	}
}

// Close stops watching. It is safe to call more than once.
func (fw *FileWatcher) Close() error {
	var err error
	fw.closeOnce.Do(func() {
		close(fw.done)
		err = fw.w.Close()
	})
	return err
}
