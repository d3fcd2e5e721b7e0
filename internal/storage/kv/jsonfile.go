package kv

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// JSONFile is a Store persisted as one flat JSON document. Reads go
// through gjson and writes through sjson; the document only reaches
// disk on Sync, written atomically via a temp file and rename.
type JSONFile struct {
	mu   sync.Mutex
	path string
	doc  string
}

// NewJSONFile opens the store at path, reading the existing document
// if there is one.
func NewJSONFile(path string) (*JSONFile, error) {
	f := &JSONFile{path: path, doc: "{}"}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return f, nil
		}
		return nil, fmt.Errorf("reading store %s: %w", path, err)
	}
	if len(data) > 0 {
		if !gjson.ValidBytes(data) {
			return nil, fmt.Errorf("store %s: not valid JSON", path)
		}
		f.doc = string(data)
	}
	return f, nil
}

// Get returns the value stored under key.
func (f *JSONFile) Get(key string) (string, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	res := gjson.Get(f.doc, escapeKey(key))
	if !res.Exists() {
		return "", false, nil
	}
	return res.String(), true, nil
}

// Set stores value under key.
func (f *JSONFile) Set(key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := sjson.Set(f.doc, escapeKey(key), value)
	if err != nil {
		return fmt.Errorf("setting %s: %w", key, err)
	}
	f.doc = doc
	return nil
}

// Delete removes key.
func (f *JSONFile) Delete(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := sjson.Delete(f.doc, escapeKey(key))
	if err != nil {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	f.doc = doc
	return nil
}

// Sync writes the document to disk.
func (f *JSONFile) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating store directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".store-*")
	if err != nil {
		return fmt.Errorf("syncing store %s: %w", f.path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(f.doc); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("syncing store %s: %w", f.path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("syncing store %s: %w", f.path, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("syncing store %s: %w", f.path, err)
	}
	return nil
}

// escapeKey neutralizes gjson/sjson path syntax so an arbitrary key
// addresses a single flat field, dots included.
func escapeKey(key string) string {
	var b strings.Builder
	for i := 0; i < len(key); i++ {
		switch key[i] {
		case '.', '*', '?', '\\', '|', '#', '@':
			b.WriteByte('\\')
		}
		b.WriteByte(key[i])
	}
	return b.String()
}
