// Package buffer provides the in-memory text surface the editing
// engine operates on.
//
// A Buffer holds the document text, the selection, and a registry of
// change listeners. Every mutation funnels through a single splice that
// emits a two-phase notification: BeforeChange with the slice about to
// be removed, then AfterChange with the slice that was inserted at the
// same offset. Both phases are delivered synchronously, back to back,
// on the mutating goroutine — including for mutations a listener's
// owner performs re-entrantly, which is what lets the undo engine
// suppress recording of its own corrective edits.
//
// Buffers are single-owner: all operations must run on the goroutine
// that owns the buffer. The engine is cooperative and nothing blocks,
// so no locking is involved.
package buffer
