// Package kv provides the flat key-value stores the editor persists
// state into, such as undo history snapshots.
package kv

// Store is a flat string-to-string namespace. Get reports whether the
// key was present; absence is not an error.
type Store interface {
	Get(key string) (value string, ok bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// Syncer is implemented by stores that buffer writes in memory.
type Syncer interface {
	Sync() error
}

// Sync flushes st if it supports it.
func Sync(st Store) error {
	if s, ok := st.(Syncer); ok {
		return s.Sync()
	}
	return nil
}
