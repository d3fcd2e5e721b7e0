package history

// Unbounded disables the history size limit.
const Unbounded = -1

// Log is an ordered sequence of edits plus a position cursor marking
// the boundary between applied records (indices below the cursor) and
// records available for redo (indices at or above it).
//
// Log is not safe for concurrent use. The editing engine is
// cooperative: every operation runs on the goroutine that owns the
// text surface.
type Log struct {
	records  []Edit
	position int
	maxSize  int
}

// NewLog creates an empty, unbounded log.
func NewLog() *Log {
	return &Log{maxSize: Unbounded}
}

// NewLogWithMaxSize creates an empty log holding at most maxSize records.
func NewLogWithMaxSize(maxSize int) *Log {
	l := NewLog()
	l.SetMaxSize(maxSize)
	return l
}

// Add appends an edit at the position cursor. Records at or above the
// cursor are discarded first: a fresh edit invalidates any
// previously-undone future. The cursor always ends at the top of the
// log, and if a size bound is set the oldest records are evicted to
// honor it.
func (l *Log) Add(e Edit) {
	l.records = append(l.records[:l.position], e)
	l.position = len(l.records)
	if l.maxSize >= 0 {
		l.trim()
	}
}

// trim evicts records from the front until the size bound holds,
// dragging the position cursor along (clamped at zero).
func (l *Log) trim() {
	excess := len(l.records) - l.maxSize
	if excess <= 0 {
		return
	}
	rest := make([]Edit, len(l.records)-excess)
	copy(rest, l.records[excess:])
	l.records = rest
	l.position -= excess
	if l.position < 0 {
		l.position = 0
	}
}

// Previous steps the position cursor back by one and returns the
// record now under it. It reports false at the fully-undone boundary.
func (l *Log) Previous() (Edit, bool) {
	if l.position == 0 {
		return Edit{}, false
	}
	l.position--
	return l.records[l.position], true
}

// Next returns the record at the position cursor and steps the cursor
// forward. It reports false at the fully-applied boundary.
func (l *Log) Next() (Edit, bool) {
	if l.position == len(l.records) {
		return Edit{}, false
	}
	e := l.records[l.position]
	l.position++
	return e, true
}

// CanUndo reports whether any applied record remains behind the cursor.
func (l *Log) CanUndo() bool {
	return l.position > 0
}

// CanRedo reports whether any undone record remains ahead of the cursor.
func (l *Log) CanRedo() bool {
	return l.position < len(l.records)
}

// Clear discards every record and resets the cursor.
func (l *Log) Clear() {
	l.records = nil
	l.position = 0
}

// Len returns the number of recorded edits.
func (l *Log) Len() int {
	return len(l.records)
}

// Position returns the position cursor.
func (l *Log) Position() int {
	return l.position
}

// SetPosition moves the position cursor, clamped into [0, Len].
func (l *Log) SetPosition(n int) {
	if n < 0 {
		n = 0
	}
	if n > len(l.records) {
		n = len(l.records)
	}
	l.position = n
}

// MaxSize returns the configured size bound, or Unbounded.
func (l *Log) MaxSize() int {
	return l.maxSize
}

// SetMaxSize bounds the number of retained records. Any negative value
// removes the bound. A bound smaller than the current size evicts the
// oldest records immediately.
func (l *Log) SetMaxSize(n int) {
	if n < 0 {
		n = Unbounded
	}
	l.maxSize = n
	if l.maxSize >= 0 {
		l.trim()
	}
}

// Records returns a copy of the recorded edits in chronological order.
func (l *Log) Records() []Edit {
	out := make([]Edit, len(l.records))
	copy(out, l.records)
	return out
}
