package undo

import (
	"errors"
	"fmt"

	"github.com/dshills/markstorm/internal/engine/buffer"
	"github.com/dshills/markstorm/internal/engine/history"
)

// ErrNotAttached is returned by operations that need a buffer before
// Attach has been called.
var ErrNotAttached = errors.New("controller is not attached to a buffer")

// Controller records buffer mutations as deltas and applies them back
// on Undo/Redo.
//
// Like the buffer it attaches to, a Controller is single-owner: all
// operations run on the goroutine that owns the text surface.
type Controller struct {
	buf *buffer.Buffer
	log *history.Log
	obs *observer

	// suppress guards re-entrant notification handling: it is held
	// across both phases of the change notification an Undo/Redo
	// splice triggers, so the corrective mutation is not recorded as
	// a fresh forward edit.
	suppress bool
}

// New creates a detached controller with an empty, unbounded log.
func New() *Controller {
	return &Controller{log: history.NewLog()}
}

// Attach registers the controller's change observer on buf and clears
// the log. A previous attachment, if any, is disconnected first. The
// configured history size bound carries over.
func (c *Controller) Attach(buf *buffer.Buffer) {
	c.Disconnect()
	c.buf = buf
	c.obs = &observer{ctrl: c}
	c.log.Clear()
	c.suppress = false
	buf.AddListener(c.obs)
}

// Disconnect deregisters the observer. The log remains addressable
// until the controller is dropped.
func (c *Controller) Disconnect() {
	if c.buf != nil && c.obs != nil {
		c.buf.RemoveListener(c.obs)
	}
	c.buf = nil
	c.obs = nil
}

// record appends one observed mutation to the log. No-ops are never
// recorded, and nothing is recorded while suppression is held.
func (c *Controller) record(start int, removed, inserted string) {
	if c.suppress {
		return
	}
	e := history.Edit{Start: start, Removed: removed, Inserted: inserted}
	if e.IsNoOp() {
		return
	}
	c.log.Add(e)
}

// Undo rolls the buffer back by one recorded edit and moves the cursor
// to the end of the restored text. At the fully-undone boundary it is
// a silent no-op.
func (c *Controller) Undo() error {
	if c.buf == nil {
		return ErrNotAttached
	}
	e, ok := c.log.Previous()
	if !ok {
		return nil
	}

	// The span currently occupied by the post-edit text.
	end := e.Start + len(e.Inserted)
	if err := c.replaceSuppressed(e.Start, end, e.Removed); err != nil {
		c.log.Next() // put the record back
		return fmt.Errorf("undo %s: %w", e, err)
	}
	return c.buf.SetCursor(e.Start + len(e.Removed))
}

// Redo reapplies the next undone edit and moves the cursor to the end
// of the reinserted text. At the fully-applied boundary it is a silent
// no-op.
func (c *Controller) Redo() error {
	if c.buf == nil {
		return ErrNotAttached
	}
	e, ok := c.log.Next()
	if !ok {
		return nil
	}

	end := e.Start + len(e.Removed)
	if err := c.replaceSuppressed(e.Start, end, e.Inserted); err != nil {
		c.log.Previous() // put the record back
		return fmt.Errorf("redo %s: %w", e, err)
	}
	return c.buf.SetCursor(e.Start + len(e.Inserted))
}

// replaceSuppressed splices text into the buffer with recording
// suppressed for the full duration of the re-entrant notification the
// splice triggers. The flag is restored on every exit path so a failed
// splice can never leave recording disabled.
func (c *Controller) replaceSuppressed(start, end int, text string) error {
	c.suppress = true
	defer func() { c.suppress = false }()
	_, err := c.buf.Replace(start, end, text)
	return err
}

// CanUndo reports whether an undoable record exists.
func (c *Controller) CanUndo() bool {
	return c.log.CanUndo()
}

// CanRedo reports whether a redoable record exists.
func (c *Controller) CanRedo() bool {
	return c.log.CanRedo()
}

// ClearHistory discards every recorded edit.
func (c *Controller) ClearHistory() {
	c.log.Clear()
}

// SetMaxHistorySize bounds the number of retained records. A negative
// size leaves the history limited only by memory.
func (c *Controller) SetMaxHistorySize(n int) {
	c.log.SetMaxSize(n)
}
