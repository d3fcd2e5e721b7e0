package history

import "fmt"

// Edit records a single buffer mutation: at byte offset Start, the text
// Removed was replaced by the text Inserted. Edits are immutable once
// recorded.
type Edit struct {
	Start    int    // Byte offset the mutation happened at
	Removed  string // Text that was removed (empty for a pure insert)
	Inserted string // Text that was inserted (empty for a pure delete)
}

// IsNoOp reports whether the edit changes nothing.
func (e Edit) IsNoOp() bool {
	return e.Removed == "" && e.Inserted == ""
}

// IsInsert reports whether the edit only adds text.
func (e Edit) IsInsert() bool {
	return e.Removed == "" && e.Inserted != ""
}

// IsDelete reports whether the edit only removes text.
func (e Edit) IsDelete() bool {
	return e.Removed != "" && e.Inserted == ""
}

// Delta returns the change in buffer length caused by the edit.
func (e Edit) Delta() int {
	return len(e.Inserted) - len(e.Removed)
}

// String returns a human-readable representation of the edit.
func (e Edit) String() string {
	switch {
	case e.IsInsert():
		return fmt.Sprintf("Insert(%d, %q)", e.Start, e.Inserted)
	case e.IsDelete():
		return fmt.Sprintf("Delete(%d, %q)", e.Start, e.Removed)
	default:
		return fmt.Sprintf("Replace(%d, %q -> %q)", e.Start, e.Removed, e.Inserted)
	}
}
