// Package app assembles the editing engine, persistence, plugins, and
// file watching into one session per open document.
package app

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/dshills/markstorm/internal/config"
	"github.com/dshills/markstorm/internal/editor"
	"github.com/dshills/markstorm/internal/engine/buffer"
	"github.com/dshills/markstorm/internal/engine/undo"
	"github.com/dshills/markstorm/internal/plugin/lua"
	"github.com/dshills/markstorm/internal/storage/kv"
	"github.com/dshills/markstorm/internal/watcher"
)

// Session is one open document: its buffer, undo controller, markup
// actions, history store, plugin engine, and file watcher.
//
// Session follows the engine's single-owner model. The only concurrent
// touchpoint is the external-modification flag, which the watcher
// goroutine sets and the owner polls.
type Session struct {
	path    string
	cfg     config.Config
	buf     *buffer.Buffer
	undo    *undo.Controller
	actions *editor.Actions
	store   kv.Store
	prefix  string
	plugins *lua.Engine
	watch   *watcher.FileWatcher

	external atomic.Bool
}

// Open loads path into a fresh session. History for the document is
// restored from the configured store when its snapshot still matches
// the text on disk.
func Open(path string, cfg config.Config) (*Session, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	text, err := editor.Load(abs)
	if err != nil {
		return nil, err
	}

	buf := buffer.NewBufferFromString(text,
		buffer.WithLineEnding(lineEnding(cfg.Editor.LineEnding)),
		buffer.WithTabWidth(cfg.Editor.TabWidth),
	)

	ctrl := undo.New()
	ctrl.SetMaxHistorySize(cfg.History.MaxSize)
	ctrl.Attach(buf)

	store, err := openStore(cfg.Storage)
	if err != nil {
		return nil, err
	}

	s := &Session{
		path:    abs,
		cfg:     cfg,
		buf:     buf,
		undo:    ctrl,
		actions: editor.NewActions(buf),
		store:   store,
		prefix:  historyPrefix(abs),
	}

	// A stale or corrupt snapshot just means starting with empty
	// history; it never blocks opening the document.
	_ = s.undo.Restore(store, s.prefix)

	if cfg.Plugins.Dir != "" {
		eng := lua.NewEngine()
		if err := eng.LoadDir(cfg.Plugins.Dir); err != nil {
			eng.Close()
			s.closeStore()
			return nil, err
		}
		s.plugins = eng
	}

	w, err := watcher.New(abs, func(string) {
		s.external.Store(true)
	})
	if err != nil {
		if s.plugins != nil {
			s.plugins.Close()
		}
		s.closeStore()
		return nil, fmt.Errorf("watching %s: %w", abs, err)
	}
	s.watch = w

	return s, nil
}

// Buffer returns the session's text buffer.
func (s *Session) Buffer() *buffer.Buffer { return s.buf }

// Undo returns the session's undo controller.
func (s *Session) Undo() *undo.Controller { return s.undo }

// Actions returns the markup commands bound to the buffer.
func (s *Session) Actions() *editor.Actions { return s.actions }

// Plugins returns the Lua engine, or nil when no plugin directory is
// configured.
func (s *Session) Plugins() *lua.Engine { return s.plugins }

// Path returns the absolute path of the open document.
func (s *Session) Path() string { return s.path }

// Save writes the buffer to disk and snapshots the undo history. The
// watcher is told to skip the event our own write produces.
func (s *Session) Save() error {
	if s.watch != nil {
		s.watch.IgnoreNext()
	}
	if err := editor.Save(s.path, s.buf.Text()); err != nil {
		return err
	}
	if err := s.undo.Store(s.store, s.prefix); err != nil {
		return err
	}
	return kv.Sync(s.store)
}

// ExternallyModified reports whether the file changed on disk since
// the last Open, Save, or Reload.
func (s *Session) ExternallyModified() bool {
	return s.external.Load()
}

// Reload replaces the buffer content with the file's current text and
// clears the undo history, which no longer describes the document.
func (s *Session) Reload() error {
	text, err := editor.Load(s.path)
	if err != nil {
		return err
	}
	if _, err := s.buf.Replace(0, s.buf.Len(), text); err != nil {
		return err
	}
	s.undo.ClearHistory()
	s.external.Store(false)
	return s.buf.SetCursor(0)
}

// Close snapshots the history, stops the watcher, and releases the
// store and plugin engine. The document itself is not saved.
func (s *Session) Close() error {
	storeErr := s.undo.Store(s.store, s.prefix)
	if storeErr == nil {
		storeErr = kv.Sync(s.store)
	}

	if s.watch != nil {
		s.watch.Close()
	}
	if s.plugins != nil {
		s.plugins.Close()
	}
	s.undo.Disconnect()

	if err := s.closeStore(); err != nil && storeErr == nil {
		storeErr = err
	}
	return storeErr
}

func (s *Session) closeStore() error {
	if c, ok := s.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// openStore builds the configured history store, resolving an empty
// path to a per-user default under the OS config directory.
func openStore(cfg config.StorageConfig) (kv.Store, error) {
	switch cfg.Backend {
	case "memory":
		return kv.NewMemory(), nil
	case "json":
		path := cfg.Path
		if path == "" {
			dir, err := os.UserConfigDir()
			if err != nil {
				return nil, fmt.Errorf("resolving store path: %w", err)
			}
			path = filepath.Join(dir, "markstorm", "history.json")
		}
		return kv.NewJSONFile(path)
	case "badger":
		dir := cfg.Path
		if dir == "" {
			base, err := os.UserConfigDir()
			if err != nil {
				return nil, fmt.Errorf("resolving store path: %w", err)
			}
			dir = filepath.Join(base, "markstorm", "history.badger")
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating store directory %s: %w", dir, err)
		}
		return kv.OpenBadger(dir)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

// historyPrefix derives a store key prefix from the document path so
// every document keeps its own snapshot in the shared store.
func historyPrefix(path string) string {
	sanitized := strings.NewReplacer("/", "_", "\\", "_", ":", "_").Replace(path)
	return "history." + sanitized
}

func lineEnding(name string) buffer.LineEnding {
	switch name {
	case "crlf":
		return buffer.LineEndingCRLF
	case "cr":
		return buffer.LineEndingCR
	default:
		return buffer.LineEndingLF
	}
}
