// Package editor implements the commands a markdown editor offers on
// top of the text surface: markup insertion, file save/load, and text
// statistics.
package editor

import (
	"strings"

	"github.com/dshills/markstorm/internal/engine/buffer"
)

// Actions implements the markdown markup commands. Every command
// splices text through the buffer, so each one lands in the undo
// history exactly like a hand-typed edit.
type Actions struct {
	buf *buffer.Buffer
}

// NewActions creates the command set for buf.
func NewActions(buf *buffer.Buffer) *Actions {
	return &Actions{buf: buf}
}

// Heading inserts a "#" at the start of the cursor's line, followed by
// a space unless one (or a further "#") is already there.
func (a *Actions) Heading() error {
	start, _ := a.buf.Selection()
	text := a.buf.Text()

	insertPos := 0
	if i := strings.LastIndex(text[:start], "\n"); i >= 0 {
		insertPos = i + 1
	}

	if _, err := a.buf.Insert(insertPos, "#"); err != nil {
		return err
	}
	rest := a.buf.Text()[insertPos+1:]
	if !strings.HasPrefix(rest, "#") && !strings.HasPrefix(rest, " ") {
		if _, err := a.buf.Insert(insertPos+1, " "); err != nil {
			return err
		}
	}
	return a.buf.SetCursor(a.buf.Len())
}

// Bold wraps the selection in "**" markers. With nothing selected it
// inserts the marker pair and parks the cursor between them. A "*"
// immediately before the insertion point gets a separating space so the
// markers don't merge.
func (a *Actions) Bold() error {
	return a.wrap("**")
}

// Italic wraps the selection in "*" markers, with the same empty
// selection and adjacent-marker handling as Bold.
func (a *Actions) Italic() error {
	return a.wrap("*")
}

func (a *Actions) wrap(marker string) error {
	start, end := a.buf.Selection()

	if start > 0 && strings.HasSuffix(a.buf.Text()[:start], "*") {
		if _, err := a.buf.Insert(start, " "); err != nil {
			return err
		}
		start++
		end++
	}

	if start == end {
		if _, err := a.buf.Insert(start, marker+marker); err != nil {
			return err
		}
		return a.buf.SetCursor(start + len(marker))
	}

	if _, err := a.buf.Insert(start, marker); err != nil {
		return err
	}
	if _, err := a.buf.Insert(end+len(marker), marker); err != nil {
		return err
	}
	return a.buf.SetCursor(end + 2*len(marker))
}

// Code wraps the selection in inline code markers, or inserts a fenced
// block for lang when nothing is selected, leaving the cursor on the
// empty line inside the fence.
func (a *Actions) Code(lang string) error {
	start, end := a.buf.Selection()

	if start == end {
		content := "\n```" + lang + "\n\n```\n"
		if _, err := a.buf.Insert(end, content); err != nil {
			return err
		}
		return a.buf.SetCursor(end + 5 + len(lang))
	}

	if _, err := a.buf.Insert(start, "`"); err != nil {
		return err
	}
	if _, err := a.buf.Insert(end+1, "`"); err != nil {
		return err
	}
	return a.buf.SetCursor(end + 2)
}

// Quote inserts a block quote marker on a fresh line (or at the start
// of the text on the first line).
func (a *Actions) Quote() error {
	start, end := a.buf.Selection()

	if start == end {
		if start == 0 {
			if _, err := a.buf.Insert(start, "> "); err != nil {
				return err
			}
			return a.buf.SetCursor(start + 2)
		}
		if _, err := a.buf.Insert(start, "\n> "); err != nil {
			return err
		}
		return a.buf.SetCursor(start + 3)
	}

	if _, err := a.buf.Insert(start, "\n> "); err != nil {
		return err
	}
	return a.buf.SetCursor(end + 3)
}

// OrderedList inserts an ordered list marker on a fresh line.
func (a *Actions) OrderedList() error {
	start, _ := a.buf.Selection()
	_, err := a.buf.Insert(start, "\n1. ")
	return err
}

// UnorderedList inserts an unordered list marker on a fresh line.
func (a *Actions) UnorderedList() error {
	start, _ := a.buf.Selection()
	_, err := a.buf.Insert(start, "\n* ")
	return err
}

// Link inserts markdown link markup. A non-empty selection becomes the
// display text; with an empty url the cursor is left inside the
// parentheses, ready for typing.
func (a *Actions) Link(display, url string) error {
	start, end := a.buf.Selection()

	if display == "" {
		if start < end {
			display = a.buf.TextRange(start, end)
		} else {
			display = "Link"
		}
	}

	content := "[" + display + "](" + url + ")"
	if start == end {
		if _, err := a.buf.Insert(start, content); err != nil {
			return err
		}
	} else {
		if _, err := a.buf.Replace(start, end, content); err != nil {
			return err
		}
	}

	if url == "" {
		return a.buf.SetCursor(start + len(content) - 1)
	}
	return a.buf.SetCursor(start + len(content))
}

// Image inserts image markup on its own paragraph. With an empty uri
// the cursor is left inside the parentheses.
func (a *Actions) Image(alt, uri string) error {
	start, _ := a.buf.Selection()
	content := "\n\n![" + alt + "](" + uri + ")\n\n"

	if _, err := a.buf.Insert(start, content); err != nil {
		return err
	}
	if uri == "" {
		return a.buf.SetCursor(start + len(content) - 3)
	}
	return a.buf.SetCursor(start + len(content))
}

// ClearAll wipes the buffer. The deletion is recorded, so it can be
// undone like any other edit.
func (a *Actions) ClearAll() error {
	if a.buf.IsEmpty() {
		return nil
	}
	if _, err := a.buf.Replace(0, a.buf.Len(), ""); err != nil {
		return err
	}
	return a.buf.SetCursor(0)
}
