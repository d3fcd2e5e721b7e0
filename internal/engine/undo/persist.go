package undo

import (
	"errors"
	"fmt"
	"hash/fnv"
	"strconv"

	"github.com/dshills/markstorm/internal/engine/history"
	"github.com/dshills/markstorm/internal/storage/kv"
)

// Errors returned by Restore.
var (
	ErrSnapshotMismatch = errors.New("snapshot was taken against different buffer contents")
	ErrSnapshotCorrupt  = errors.New("snapshot is missing or has malformed keys")
)

// Store writes the history to st under prefix, keyed by a hash of the
// live buffer text so a later Restore can tell whether the buffer
// diverged while the snapshot sat on disk.
//
// Key layout, all values flat strings:
//
//	{prefix}.hash       hash of the full buffer text
//	{prefix}.maxSize    history size bound (-1 when unbounded)
//	{prefix}.position   position cursor
//	{prefix}.size       record count
//	{prefix}.{i}.start  per-record start offset
//	{prefix}.{i}.before per-record removed text
//	{prefix}.{i}.after  per-record inserted text
func (c *Controller) Store(st kv.Store, prefix string) error {
	if c.buf == nil {
		return ErrNotAttached
	}

	if err := st.Set(prefix+".hash", textHash(c.buf.Text())); err != nil {
		return fmt.Errorf("storing history: %w", err)
	}
	if err := setInt(st, prefix+".maxSize", c.log.MaxSize()); err != nil {
		return err
	}
	if err := setInt(st, prefix+".position", c.log.Position()); err != nil {
		return err
	}
	if err := setInt(st, prefix+".size", c.log.Len()); err != nil {
		return err
	}

	for i, e := range c.log.Records() {
		pre := prefix + "." + strconv.Itoa(i)
		if err := setInt(st, pre+".start", e.Start); err != nil {
			return err
		}
		if err := st.Set(pre+".before", e.Removed); err != nil {
			return fmt.Errorf("storing history: %w", err)
		}
		if err := st.Set(pre+".after", e.Inserted); err != nil {
			return fmt.Errorf("storing history: %w", err)
		}
	}
	return nil
}

// Restore rebuilds the history from a snapshot stored under prefix.
//
// A missing snapshot is not an error: the history is simply left
// empty. A snapshot whose hash does not match the live buffer text, or
// one with any required key missing or malformed, fails — and the
// history is reset to empty before returning, so a partial restore is
// never visible.
func (c *Controller) Restore(st kv.Store, prefix string) error {
	if c.buf == nil {
		return ErrNotAttached
	}
	if err := c.restore(st, prefix); err != nil {
		c.log.Clear()
		return err
	}
	return nil
}

func (c *Controller) restore(st kv.Store, prefix string) error {
	hash, ok, err := st.Get(prefix + ".hash")
	if err != nil {
		return fmt.Errorf("restoring history: %w", err)
	}
	if !ok {
		// Nothing to restore.
		return nil
	}
	if hash != textHash(c.buf.Text()) {
		return ErrSnapshotMismatch
	}

	c.log.Clear()

	// An absent size bound means the snapshot predates one; treat it
	// as unbounded rather than corrupt.
	maxSize := history.Unbounded
	if raw, ok, err := st.Get(prefix + ".maxSize"); err != nil {
		return fmt.Errorf("restoring history: %w", err)
	} else if ok {
		maxSize, err = strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("%w: maxSize=%q", ErrSnapshotCorrupt, raw)
		}
	}
	c.log.SetMaxSize(maxSize)

	size, err := getInt(st, prefix+".size")
	if err != nil {
		return err
	}

	for i := 0; i < size; i++ {
		pre := prefix + "." + strconv.Itoa(i)
		start, err := getInt(st, pre+".start")
		if err != nil {
			return err
		}
		before, ok, err := st.Get(pre + ".before")
		if err != nil {
			return fmt.Errorf("restoring history: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %s.before", ErrSnapshotCorrupt, pre)
		}
		after, ok, err := st.Get(pre + ".after")
		if err != nil {
			return fmt.Errorf("restoring history: %w", err)
		}
		if !ok {
			return fmt.Errorf("%w: %s.after", ErrSnapshotCorrupt, pre)
		}

		// Records go through the normal Add path so the same
		// truncation and eviction rules apply as during live editing.
		c.log.Add(history.Edit{Start: start, Removed: before, Inserted: after})
	}

	position, err := getInt(st, prefix+".position")
	if err != nil {
		return err
	}
	if position < 0 || position > c.log.Len() {
		return fmt.Errorf("%w: position=%d with %d records", ErrSnapshotCorrupt, position, c.log.Len())
	}
	c.log.SetPosition(position)
	return nil
}

// setInt stores n in decimal form so every kv backend carries a flat
// string namespace.
func setInt(st kv.Store, key string, n int) error {
	if err := st.Set(key, strconv.Itoa(n)); err != nil {
		return fmt.Errorf("storing history: %w", err)
	}
	return nil
}

// getInt reads a required decimal value. Absence and parse failure are
// both corruption.
func getInt(st kv.Store, key string) (int, error) {
	raw, ok, err := st.Get(key)
	if err != nil {
		return 0, fmt.Errorf("restoring history: %w", err)
	}
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrSnapshotCorrupt, key)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrSnapshotCorrupt, key, raw)
	}
	return n, nil
}

// textHash returns the FNV-1a digest of s in decimal form.
func textHash(s string) string {
	h := fnv.New64a()
	h.Write([]byte(s))
	return strconv.FormatUint(h.Sum64(), 10)
}
