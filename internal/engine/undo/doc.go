// Package undo wires a history log to a text buffer.
//
// A Controller observes the buffer's two-phase change stream, pairs
// each pre/post notification into one delta, and records it. Undo and
// Redo walk the log one record at a time, splicing the inverse or
// forward delta back into the buffer. While the controller performs
// one of these corrective splices it holds a suppression flag across
// both phases of the resulting re-entrant notification, so its own
// mutations are never re-recorded.
//
//	ctrl := undo.New()
//	ctrl.Attach(buf)
//	// ...edits flow in through the buffer...
//	ctrl.Undo()
//	ctrl.Redo()
//
// The controller can snapshot its log into any kv.Store and restore it
// later, gated by a hash of the buffer text: a snapshot taken against
// different contents describes offsets that no longer mean anything,
// so restoring it fails and leaves the history empty.
package undo
