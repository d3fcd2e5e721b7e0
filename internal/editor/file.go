package editor

import (
	"fmt"
	"os"
	"path/filepath"
)

// Save writes content to path atomically: the text goes to a temp file
// in the same directory which is then renamed over the target.
func Save(path, content string) error {
	dir := filepath.Dir(path)

	tmp, err := os.CreateTemp(dir, ".markstorm-*")
	if err != nil {
		return fmt.Errorf("saving %s: %w", path, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("saving %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("saving %s: %w", path, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("saving %s: %w", path, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("saving %s: %w", path, err)
	}
	return nil
}

// Load reads the file at path. A missing file is not an error; it
// yields an empty document, as when opening a file yet to be created.
func Load(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("loading %s: %w", path, err)
	}
	return string(data), nil
}
