package buffer

import (
	"errors"
	"strings"

	"github.com/google/uuid"
)

// Errors returned by buffer operations.
var (
	ErrOffsetOutOfRange = errors.New("offset out of range")
	ErrRangeInvalid     = errors.New("invalid range")
)

// Listener receives the two-phase change notification the buffer emits
// for every mutation. BeforeChange carries the slice about to be
// removed at start; AfterChange carries the slice that was inserted at
// that same offset. The two calls are not transactional on their own:
// a consumer pairing them must cache the BeforeChange payload until the
// matching AfterChange arrives.
type Listener interface {
	BeforeChange(start int, removed string)
	AfterChange(start int, inserted string)
}

// Buffer is a plain text surface with a selection and a change
// notification stream.
//
// Buffer is not safe for concurrent use: all operations, including
// listener callbacks, run synchronously on the owning goroutine.
type Buffer struct {
	content    string
	selStart   int
	selEnd     int
	revisionID string
	lineEnding LineEnding
	tabWidth   int
	listeners  []Listener
}

// NewBuffer creates a new empty buffer.
func NewBuffer(opts ...Option) *Buffer {
	b := &Buffer{
		revisionID: uuid.NewString(),
		lineEnding: LineEndingLF,
		tabWidth:   4,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// NewBufferFromString creates a buffer with initial content.
func NewBufferFromString(s string, opts ...Option) *Buffer {
	b := NewBuffer(opts...)
	b.content = b.normalizeLineEndings(s)
	return b
}

// Read Operations

// Text returns the full buffer content.
func (b *Buffer) Text() string {
	return b.content
}

// TextRange returns the text in [start, end). Out-of-range bounds are
// clamped.
func (b *Buffer) TextRange(start, end int) string {
	if start < 0 {
		start = 0
	}
	if end > len(b.content) {
		end = len(b.content)
	}
	if start >= end {
		return ""
	}
	return b.content[start:end]
}

// Len returns the buffer length in bytes.
func (b *Buffer) Len() int {
	return len(b.content)
}

// IsEmpty reports whether the buffer holds no text.
func (b *Buffer) IsEmpty() bool {
	return len(b.content) == 0
}

// LineCount returns the number of lines.
func (b *Buffer) LineCount() int {
	return strings.Count(b.content, b.lineEnding.Sequence()) + 1
}

// RevisionID identifies the current buffer content. It changes on
// every mutation.
func (b *Buffer) RevisionID() string {
	return b.revisionID
}

// Write Operations

// Insert inserts text at the given offset and returns the end offset
// of the inserted text.
func (b *Buffer) Insert(offset int, text string) (int, error) {
	if offset < 0 || offset > len(b.content) {
		return 0, ErrOffsetOutOfRange
	}
	return b.Replace(offset, offset, text)
}

// Delete removes the text in [start, end).
func (b *Buffer) Delete(start, end int) error {
	_, err := b.Replace(start, end, "")
	return err
}

// Replace replaces the text in [start, end) with text and returns the
// end offset of the replacement. The removed and inserted slices are
// announced to every listener, BeforeChange first, then AfterChange
// once the splice has landed.
func (b *Buffer) Replace(start, end int, text string) (int, error) {
	if start < 0 || start > end || end > len(b.content) {
		return 0, ErrRangeInvalid
	}

	text = b.normalizeLineEndings(text)
	removed := b.content[start:end]
	if removed == "" && text == "" {
		return start, nil
	}

	for _, l := range b.listeners {
		l.BeforeChange(start, removed)
	}

	b.content = b.content[:start] + text + b.content[end:]
	b.revisionID = uuid.NewString()
	b.clampSelection()

	for _, l := range b.listeners {
		l.AfterChange(start, text)
	}

	return start + len(text), nil
}

// Selection

// Selection returns the selection bounds. Start and end are equal for
// a bare cursor.
func (b *Buffer) Selection() (start, end int) {
	return b.selStart, b.selEnd
}

// SetSelection selects [start, end).
func (b *Buffer) SetSelection(start, end int) error {
	if start < 0 || start > end || end > len(b.content) {
		return ErrRangeInvalid
	}
	b.selStart = start
	b.selEnd = end
	return nil
}

// Cursor returns the selection head.
func (b *Buffer) Cursor() int {
	return b.selEnd
}

// SetCursor collapses the selection to a cursor at pos.
func (b *Buffer) SetCursor(pos int) error {
	if pos < 0 || pos > len(b.content) {
		return ErrOffsetOutOfRange
	}
	b.selStart = pos
	b.selEnd = pos
	return nil
}

// clampSelection keeps the selection inside the content after a splice.
func (b *Buffer) clampSelection() {
	if b.selStart > len(b.content) {
		b.selStart = len(b.content)
	}
	if b.selEnd > len(b.content) {
		b.selEnd = len(b.content)
	}
	if b.selStart > b.selEnd {
		b.selStart = b.selEnd
	}
}

// Listeners

// AddListener registers a change listener. Listeners are notified in
// registration order.
func (b *Buffer) AddListener(l Listener) {
	b.listeners = append(b.listeners, l)
}

// RemoveListener deregisters a previously added listener.
func (b *Buffer) RemoveListener(l Listener) {
	for i, reg := range b.listeners {
		if reg == l {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			return
		}
	}
}

// Line Endings

// LineEnding returns the buffer's line ending style.
func (b *Buffer) LineEnding() LineEnding {
	return b.lineEnding
}

// TabWidth returns the buffer's tab width.
func (b *Buffer) TabWidth() int {
	return b.tabWidth
}

// normalizeLineEndings converts all line endings to the buffer's
// preferred style.
func (b *Buffer) normalizeLineEndings(s string) string {
	switch b.lineEnding {
	case LineEndingCRLF:
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
		s = strings.ReplaceAll(s, "\n", "\r\n")
	case LineEndingCR:
		s = strings.ReplaceAll(s, "\r\n", "\r")
		s = strings.ReplaceAll(s, "\n", "\r")
	default:
		s = strings.ReplaceAll(s, "\r\n", "\n")
		s = strings.ReplaceAll(s, "\r", "\n")
	}
	return s
}
