// Package script loads command sources written in Lua. Each *.lua file is
// one source; its state is the owner of every command it declares:
//
//	command {
//	  aliases = {"greet", "hi"},
//	  usage = "<player>",
//	  pattern = [[(\S+)]],
//	  description = "Greet someone",
//	  permission = "script.greet",
//	  run = function(inv)
//	    local name = inv:player(1)
//	    if not name then return inv:reply("&cNo such player") end
//	    inv:send(name, "&e" .. inv.actor .. " says hi!")
//	  end,
//	}
//
// The inv table has the fields command, message, size and actor, and the
// methods reply(text), arg(i) (1-based), group(i|name) (0 is the whole
// match), int(i), player(i), has(node) and send(player, text).
package script

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/keshon/chatcmd/pkg/chat"
	"github.com/keshon/chatcmd/pkg/cmd"
	lua "github.com/yuin/gopher-lua"
)

// DefaultCallTimeout bounds a single handler call.
const DefaultCallTimeout = 2 * time.Second

var ErrNoCommands = errors.New("script declares no commands")

// Script is a loaded Lua file. Calls into it are serialized.
type Script struct {
	name    string
	path    string
	timeout time.Duration

	mu       sync.Mutex
	L        *lua.LState
	handlers []*lua.LFunction
	decls    []cmd.Declaration
}

// Load runs the file at path and collects its command declarations.
func Load(path string, timeout time.Duration) (*Script, error) {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}
	s := &Script{
		name:    strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)),
		path:    path,
		timeout: timeout,
		L:       newState(),
	}
	s.L.SetGlobal("command", s.L.NewFunction(s.declare))

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	s.L.SetContext(ctx)
	err := s.L.DoFile(path)
	s.L.RemoveContext()

	if err != nil {
		s.L.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if len(s.decls) == 0 {
		s.L.Close()
		return nil, fmt.Errorf("%s: %w", path, ErrNoCommands)
	}
	return s, nil
}

func newState() *lua.LState {
	L := lua.NewState(lua.Options{SkipOpenLibs: true})
	for _, lib := range []struct {
		name string
		open lua.LGFunction
	}{
		{lua.BaseLibName, lua.OpenBase},
		{lua.TabLibName, lua.OpenTable},
		{lua.StringLibName, lua.OpenString},
		{lua.MathLibName, lua.OpenMath},
	} {
		L.Push(L.NewFunction(lib.open))
		L.Push(lua.LString(lib.name))
		L.Call(1, 0)
	}
	for _, name := range []string{"dofile", "loadfile", "load", "loadstring", "require", "module"} {
		L.SetGlobal(name, lua.LNil)
	}
	return L
}

// Name is the file name without its extension.
func (s *Script) Name() string { return s.name }

// Source returns the registration table of the script.
func (s *Script) Source() cmd.Source {
	return cmd.Source{
		Name:     s.name,
		New:      func() (any, error) { return s, nil },
		Commands: s.decls,
	}
}

// Close releases the Lua state.
func (s *Script) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.L.Close()
}

// declare implements command{...}.
func (s *Script) declare(L *lua.LState) int {
	tbl := L.CheckTable(1)

	aliases := stringList(tbl.RawGetString("aliases"))
	if len(aliases) == 0 {
		L.ArgError(1, "aliases must be a string or a list of strings")
		return 0
	}
	run, ok := tbl.RawGetString("run").(*lua.LFunction)
	if !ok {
		L.ArgError(1, "run must be a function")
		return 0
	}

	idx := len(s.handlers)
	s.handlers = append(s.handlers, run)
	s.decls = append(s.decls, cmd.Declaration{
		Aliases:     aliases,
		Usage:       optString(tbl, "usage"),
		Pattern:     optString(tbl, "pattern"),
		Description: optString(tbl, "description"),
		Permission:  optString(tbl, "permission"),
		Method: cmd.Bind(func(owner *Script, ctx context.Context, inv *cmd.Invocation) error {
			return owner.call(ctx, idx, inv)
		}),
	})
	return 0
}

func (s *Script) call(ctx context.Context, idx int, inv *cmd.Invocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	s.L.SetContext(ctx)
	defer s.L.RemoveContext()

	err := s.L.CallByParam(lua.P{Fn: s.handlers[idx], NRet: 0, Protect: true}, s.invocation(inv))
	if err != nil {
		return fmt.Errorf("script %s: %w", s.name, err)
	}
	return nil
}

// invocation exposes inv to Lua. Methods are called with ':' so argument 1 is
// the table itself.
func (s *Script) invocation(inv *cmd.Invocation) *lua.LTable {
	L := s.L
	t := L.NewTable()
	t.RawSetString("command", lua.LString(inv.Command))
	t.RawSetString("message", lua.LString(inv.Message))
	t.RawSetString("size", lua.LNumber(inv.Size()))
	if inv.Actor != nil {
		t.RawSetString("actor", lua.LString(inv.Actor.Name()))
	}

	method := func(name string, fn lua.LGFunction) {
		t.RawSetString(name, L.NewFunction(fn))
	}
	pushString := func(s string, ok bool) int {
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(s))
		return 1
	}

	method("reply", func(L *lua.LState) int {
		inv.Reply(chat.Format(L.CheckString(2)))
		return 0
	})
	method("arg", func(L *lua.LState) int {
		return pushString(inv.String(L.CheckInt(2) - 1))
	})
	method("group", func(L *lua.LState) int {
		if name, ok := L.Get(2).(lua.LString); ok {
			return pushString(inv.MatchNamed(string(name)))
		}
		return pushString(inv.MatchString(L.CheckInt(2)))
	})
	method("int", func(L *lua.LState) int {
		n, ok := inv.MatchInt(L.CheckInt(2))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LNumber(n))
		return 1
	})
	method("player", func(L *lua.LState) int {
		a, ok := inv.MatchPlayer(L.CheckInt(2))
		if !ok {
			L.Push(lua.LNil)
			return 1
		}
		L.Push(lua.LString(a.Name()))
		return 1
	})
	method("has", func(L *lua.LState) int {
		node := L.CheckString(2)
		L.Push(lua.LBool(inv.Actor != nil && inv.Actor.HasPermission(node)))
		return 1
	})
	method("send", func(L *lua.LState) int {
		a, ok := inv.FindPlayer(L.CheckString(2))
		if !ok || !a.Reachable() {
			L.Push(lua.LFalse)
			return 1
		}
		a.Send(chat.Format(L.CheckString(3)))
		L.Push(lua.LTrue)
		return 1
	})
	return t
}

func optString(t *lua.LTable, key string) string {
	if v, ok := t.RawGetString(key).(lua.LString); ok {
		return string(v)
	}
	return ""
}

func stringList(v lua.LValue) []string {
	switch v := v.(type) {
	case lua.LString:
		return []string{string(v)}
	case *lua.LTable:
		var out []string
		for i := 1; i <= v.Len(); i++ {
			if s, ok := v.RawGetInt(i).(lua.LString); ok {
				out = append(out, string(s))
			}
		}
		return out
	}
	return nil
}
