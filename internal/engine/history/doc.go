// Package history records buffer mutations as minimal deltas and lets
// callers traverse the record linearly backward and forward.
//
// # Edits
//
// An Edit is an immutable (start, removed, inserted) triple: at byte
// offset start, the text removed was replaced by the text inserted.
// Either side may be empty, making the edit a pure insert or a pure
// delete.
//
// # The Log
//
// A Log holds edits in exact chronological mutation order together with
// a single position cursor. Records below the cursor have been applied
// and can be undone; records at or above it have been undone and can be
// redone:
//
//	log := history.NewLog()
//	log.Add(history.Edit{Start: 0, Inserted: "Hi"})
//
//	edit, ok := log.Previous() // step toward fully-undone
//	edit, ok = log.Next()      // step toward fully-applied
//
// Appending a fresh edit discards any records above the cursor: a new
// mutation invalidates the previously-undone future. An optional size
// bound evicts the oldest records, dragging the cursor along.
//
// The Log holds deltas only. Applying them to a text surface is the job
// of the undo package.
package history
