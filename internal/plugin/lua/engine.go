// Package lua runs user scripts that extend the editor with custom
// markup commands.
//
// Scripts call markstorm.register(name, fn) to add a command. The
// function receives the buffer text and the selection bounds, and
// returns a table describing the splice to perform:
//
//	markstorm.register("strike", function(text, sel_start, sel_end)
//	  local selected = string.sub(text, sel_start + 1, sel_end)
//	  return {
//	    start = sel_start,
//	    stop = sel_end,
//	    text = "~~" .. selected .. "~~",
//	    cursor = sel_end + 4,
//	  }
//	end)
//
// Applied splices go through the buffer's normal mutation path, so
// scripted edits are observed and recorded by the undo engine exactly
// like built-in commands.
//
// The interpreter is sandboxed: only the base, table, string, and math
// libraries are opened, and the load family of globals is removed so
// scripts cannot pull code from disk.
package lua

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	lua "github.com/yuin/gopher-lua"

	"github.com/dshills/markstorm/internal/engine/buffer"
)

// Errors returned by Apply.
var (
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadResult      = errors.New("command returned a malformed result")
)

// Engine hosts the Lua state and the commands scripts have registered.
//
// Engine is single-owner, like the buffers it operates on: gopher-lua
// states are not goroutine-safe.
type Engine struct {
	L        *lua.LState
	commands map[string]*lua.LFunction
}

// NewEngine creates a sandboxed engine with the markstorm module
// installed.
func NewEngine() *Engine {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})

	// Safe subset of the standard libraries.
	libs := []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	}
	for _, lib := range libs {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}

	// Remove globals that could load code from outside the script.
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring"} {
		L.SetGlobal(name, lua.LNil)
	}

	e := &Engine{L: L, commands: make(map[string]*lua.LFunction)}

	mod := L.NewTable()
	L.SetField(mod, "register", L.NewFunction(e.luaRegister))
	L.SetGlobal("markstorm", mod)

	return e
}

// luaRegister implements markstorm.register(name, fn).
func (e *Engine) luaRegister(L *lua.LState) int {
	name := L.CheckString(1)
	fn := L.CheckFunction(2)
	e.commands[name] = fn
	return 0
}

// LoadString runs an in-memory script.
func (e *Engine) LoadString(src string) error {
	return e.L.DoString(src)
}

// LoadFile runs a script from disk.
func (e *Engine) LoadFile(path string) error {
	return e.L.DoFile(path)
}

// LoadDir runs every *.lua script in dir, in lexical order. A missing
// directory is not an error.
func (e *Engine) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading plugin directory %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.LoadFile(path); err != nil {
			return fmt.Errorf("loading plugin %s: %w", path, err)
		}
	}
	return nil
}

// Commands returns the registered command names, sorted.
func (e *Engine) Commands() []string {
	names := make([]string, 0, len(e.commands))
	for name := range e.commands {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply invokes a registered command against the buffer's current text
// and selection, then splices the returned replacement through the
// buffer. A command may return nil to decline.
func (e *Engine) Apply(name string, buf *buffer.Buffer) error {
	fn, ok := e.commands[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, name)
	}

	selStart, selEnd := buf.Selection()
	err := e.L.CallByParam(
		lua.P{Fn: fn, NRet: 1, Protect: true},
		lua.LString(buf.Text()),
		lua.LNumber(selStart),
		lua.LNumber(selEnd),
	)
	if err != nil {
		return fmt.Errorf("command %s: %w", name, err)
	}

	ret := e.L.Get(-1)
	e.L.Pop(1)
	if ret == lua.LNil {
		return nil
	}
	tbl, ok := ret.(*lua.LTable)
	if !ok {
		return fmt.Errorf("%w: command %s returned %s", ErrBadResult, name, ret.Type())
	}

	start, ok := tableInt(tbl, "start")
	if !ok {
		return fmt.Errorf("%w: command %s: missing start", ErrBadResult, name)
	}
	stop, ok := tableInt(tbl, "stop")
	if !ok {
		return fmt.Errorf("%w: command %s: missing stop", ErrBadResult, name)
	}
	text := lua.LVAsString(tbl.RawGetString("text"))

	if _, err := buf.Replace(start, stop, text); err != nil {
		return fmt.Errorf("command %s: %w", name, err)
	}
	if cursor, ok := tableInt(tbl, "cursor"); ok {
		if err := buf.SetCursor(cursor); err != nil {
			return fmt.Errorf("command %s: %w", name, err)
		}
	}
	return nil
}

// Close releases the Lua state.
func (e *Engine) Close() {
	e.L.Close()
}

func tableInt(tbl *lua.LTable, key string) (int, bool) {
	v := tbl.RawGetString(key)
	n, ok := v.(lua.LNumber)
	if !ok {
		return 0, false
	}
	return int(n), true
}
