package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dshills/markstorm/internal/config"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Storage.Backend = "json"
	cfg.Storage.Path = filepath.Join(t.TempDir(), "history.json")
	return cfg
}

func mustInsert(t *testing.T, s *Session, offset int, text string) {
	t.Helper()
	if _, err := s.Buffer().Insert(offset, text); err != nil {
		t.Fatalf("Insert(%d, %q) failed: %v", offset, text, err)
	}
}

func TestHistorySurvivesSessions(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "notes.md")

	s, err := Open(path, cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	mustInsert(t, s, 0, "Hello")
	mustInsert(t, s, 5, " world")
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s2, err := Open(path, cfg)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	if s2.Buffer().Text() != "Hello world" {
		t.Fatalf("text = %q, want %q", s2.Buffer().Text(), "Hello world")
	}
	if !s2.Undo().CanUndo() {
		t.Fatal("restored session should have undoable history")
	}
	if err := s2.Undo().Undo(); err != nil {
		t.Fatalf("Undo failed: %v", err)
	}
	if s2.Buffer().Text() != "Hello" {
		t.Errorf("text after undo = %q, want %q", s2.Buffer().Text(), "Hello")
	}
}

func TestStaleSnapshotYieldsEmptyHistory(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "notes.md")

	s, err := Open(path, cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	mustInsert(t, s, 0, "original")
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// The file changes behind the session's back.
	if err := os.WriteFile(path, []byte("rewritten elsewhere"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	s2, err := Open(path, cfg)
	if err != nil {
		t.Fatalf("second Open failed: %v", err)
	}
	defer s2.Close()

	if s2.Buffer().Text() != "rewritten elsewhere" {
		t.Errorf("text = %q, want the on-disk content", s2.Buffer().Text())
	}
	if s2.Undo().CanUndo() {
		t.Error("stale snapshot should not restore history")
	}
}

func TestReloadPicksUpExternalChange(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "notes.md")
	if err := os.WriteFile(path, []byte("before"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	s, err := Open(path, cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	mustInsert(t, s, 6, " edits")
	if err := os.WriteFile(path, []byte("after"), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for !s.ExternallyModified() {
		if time.Now().After(deadline) {
			t.Fatal("external modification never detected")
		}
		time.Sleep(10 * time.Millisecond)
	}

	if err := s.Reload(); err != nil {
		t.Fatalf("Reload failed: %v", err)
	}
	if s.Buffer().Text() != "after" {
		t.Errorf("text = %q, want %q", s.Buffer().Text(), "after")
	}
	if s.Undo().CanUndo() {
		t.Error("reload should clear the undo history")
	}
	if s.ExternallyModified() {
		t.Error("reload should reset the external flag")
	}
	if s.Buffer().Cursor() != 0 {
		t.Errorf("cursor = %d, want 0", s.Buffer().Cursor())
	}
}

func TestOwnSaveIsNotExternal(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "notes.md")

	s, err := Open(path, cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	mustInsert(t, s, 0, "content")
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	time.Sleep(500 * time.Millisecond)
	if s.ExternallyModified() {
		t.Error("the session's own save should not read as external")
	}
}

func TestOpenWithMemoryBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "memory"
	path := filepath.Join(t.TempDir(), "notes.md")

	s, err := Open(path, cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	mustInsert(t, s, 0, "ephemeral")
	if err := s.Save(); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "ephemeral" {
		t.Errorf("on-disk content = %q, want %q", data, "ephemeral")
	}
}

func TestPluginsLoadedFromConfiguredDir(t *testing.T) {
	cfg := testConfig(t)
	cfg.Plugins.Dir = t.TempDir()
	script := `markstorm.register("shout", function(text, s, e)
  return { start = 0, stop = #text, text = string.upper(text) }
end)`
	if err := os.WriteFile(filepath.Join(cfg.Plugins.Dir, "shout.lua"), []byte(script), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	s, err := Open(filepath.Join(t.TempDir(), "notes.md"), cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	if s.Plugins() == nil {
		t.Fatal("plugin engine should be loaded")
	}
	mustInsert(t, s, 0, "quiet")
	if err := s.Plugins().Apply("shout", s.Buffer()); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if s.Buffer().Text() != "QUIET" {
		t.Errorf("text = %q, want QUIET", s.Buffer().Text())
	}
}
