// Package tui renders a session in the terminal and translates key
// events into buffer edits and commands.
package tui

import (
	"fmt"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/dshills/markstorm/internal/app"
	"github.com/dshills/markstorm/internal/editor"
)

// Editor drives the terminal UI for one session. It owns the buffer
// for the duration of Run, keeping the engine's single-owner model.
type Editor struct {
	screen tcell.Screen
	sess   *app.Session

	top    int    // first visible line
	status string // transient status message, cleared on next key
}

// New creates an editor for sess on an initialized screen.
func New(screen tcell.Screen, sess *app.Session) *Editor {
	return &Editor{screen: screen, sess: sess}
}

// Run draws the session and processes events until the user quits.
func (e *Editor) Run() error {
	for {
		if e.sess.ExternallyModified() {
			if err := e.sess.Reload(); err != nil {
				return err
			}
			e.status = "reloaded: file changed on disk"
		}

		e.draw()

		ev := e.screen.PollEvent()
		switch ev := ev.(type) {
		case *tcell.EventResize:
			e.screen.Sync()
		case *tcell.EventKey:
			quit, err := e.handleKey(ev)
			if err != nil {
				return err
			}
			if quit {
				return nil
			}
		}
	}
}

func (e *Editor) handleKey(ev *tcell.EventKey) (quit bool, err error) {
	e.status = ""
	buf := e.sess.Buffer()

	switch ev.Key() {
	case tcell.KeyCtrlQ, tcell.KeyEscape:
		return true, nil
	case tcell.KeyCtrlS:
		if err := e.sess.Save(); err != nil {
			e.status = "save failed: " + err.Error()
			return false, nil
		}
		e.status = "saved " + filepath.Base(e.sess.Path())
	case tcell.KeyCtrlZ:
		err = e.sess.Undo().Undo()
	case tcell.KeyCtrlY:
		err = e.sess.Undo().Redo()
	case tcell.KeyCtrlB:
		err = e.sess.Actions().Bold()
	case tcell.KeyCtrlT:
		err = e.sess.Actions().Italic()
	case tcell.KeyCtrlK:
		err = e.sess.Actions().Code("")
	case tcell.KeyEnter:
		err = e.insert(buf.LineEnding().Sequence())
	case tcell.KeyTab:
		err = e.insert("\t")
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		err = e.backspace()
	case tcell.KeyLeft:
		e.moveHorizontal(-1)
	case tcell.KeyRight:
		e.moveHorizontal(+1)
	case tcell.KeyUp:
		e.moveVertical(-1)
	case tcell.KeyDown:
		e.moveVertical(+1)
	case tcell.KeyRune:
		err = e.insert(string(ev.Rune()))
	}
	return false, err
}

// insert splices text at the cursor and advances past it.
func (e *Editor) insert(text string) error {
	buf := e.sess.Buffer()
	end, err := buf.Insert(buf.Cursor(), text)
	if err != nil {
		return err
	}
	return buf.SetCursor(end)
}

// backspace deletes the rune before the cursor.
func (e *Editor) backspace() error {
	buf := e.sess.Buffer()
	cur := buf.Cursor()
	if cur == 0 {
		return nil
	}
	_, size := utf8.DecodeLastRuneInString(buf.Text()[:cur])
	if err := buf.Delete(cur-size, cur); err != nil {
		return err
	}
	return buf.SetCursor(cur - size)
}

// moveHorizontal shifts the cursor by one rune in either direction.
func (e *Editor) moveHorizontal(dir int) {
	buf := e.sess.Buffer()
	cur := buf.Cursor()
	text := buf.Text()

	if dir < 0 && cur > 0 {
		_, size := utf8.DecodeLastRuneInString(text[:cur])
		buf.SetCursor(cur - size)
	}
	if dir > 0 && cur < len(text) {
		_, size := utf8.DecodeRuneInString(text[cur:])
		buf.SetCursor(cur + size)
	}
}

// moveVertical shifts the cursor a line up or down, clamping the
// column to the target line's length.
func (e *Editor) moveVertical(dir int) {
	buf := e.sess.Buffer()
	lines := e.lines()
	line, col := e.cursorLineCol(lines)

	target := line + dir
	if target < 0 || target >= len(lines) {
		return
	}
	if col > len(lines[target]) {
		col = len(lines[target])
	}

	offset := col
	eol := len(buf.LineEnding().Sequence())
	for i := 0; i < target; i++ {
		offset += len(lines[i]) + eol
	}
	buf.SetCursor(offset)
}

func (e *Editor) lines() []string {
	buf := e.sess.Buffer()
	return strings.Split(buf.Text(), buf.LineEnding().Sequence())
}

// cursorLineCol locates the cursor as a line index and byte column.
func (e *Editor) cursorLineCol(lines []string) (line, col int) {
	cur := e.sess.Buffer().Cursor()
	eol := len(e.sess.Buffer().LineEnding().Sequence())

	for i, l := range lines {
		if cur <= len(l) {
			return i, cur
		}
		cur -= len(l) + eol
	}
	last := len(lines) - 1
	return last, len(lines[last])
}

func (e *Editor) draw() {
	e.screen.Clear()
	width, height := e.screen.Size()
	if height < 2 {
		e.screen.Show()
		return
	}

	lines := e.lines()
	line, col := e.cursorLineCol(lines)

	// Keep the cursor's line on screen.
	visible := height - 1
	if line < e.top {
		e.top = line
	}
	if line >= e.top+visible {
		e.top = line - visible + 1
	}

	style := tcell.StyleDefault
	for row := 0; row < visible; row++ {
		idx := e.top + row
		if idx >= len(lines) {
			break
		}
		x := 0
		for _, r := range lines[idx] {
			if x >= width {
				break
			}
			if r == '\t' {
				x += e.sess.Buffer().TabWidth()
				continue
			}
			e.screen.SetContent(x, row, r, nil, style)
			x++
		}
	}

	e.drawStatus(width, height-1)
	e.screen.ShowCursor(e.screenCol(lines[line], col), line-e.top)
	e.screen.Show()
}

// screenCol converts a byte column into a screen column, expanding
// tabs and counting runes.
func (e *Editor) screenCol(line string, col int) int {
	x := 0
	for _, r := range line[:col] {
		if r == '\t' {
			x += e.sess.Buffer().TabWidth()
			continue
		}
		x++
	}
	return x
}

func (e *Editor) drawStatus(width, row int) {
	stats := editor.Count(e.sess.Buffer().Text())

	indicators := ""
	if e.sess.Undo().CanUndo() {
		indicators += "u"
	}
	if e.sess.Undo().CanRedo() {
		indicators += "r"
	}

	left := fmt.Sprintf(" %s  %dw %dc", filepath.Base(e.sess.Path()), stats.Words, stats.Characters)
	if indicators != "" {
		left += "  [" + indicators + "]"
	}
	if e.status != "" {
		left += "  " + e.status
	}

	style := tcell.StyleDefault.Reverse(true)
	x := 0
	for _, r := range left {
		if x >= width {
			break
		}
		e.screen.SetContent(x, row, r, nil, style)
		x++
	}
	for ; x < width; x++ {
		e.screen.SetContent(x, row, ' ', nil, style)
	}
}
