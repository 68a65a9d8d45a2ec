package cmd

import (
	"strconv"
	"strings"
)

// Invocation is one parsed dispatch. It is built fresh per Dispatch call and
// must not be retained by handlers after they return.
type Invocation struct {
	Line

	Actor      Actor
	Extra      []any
	Descriptor *Descriptor

	// Match is set only when the command declares a grammar and it matched.
	Match *Match

	directory ActorDirectory
}

// NewInvocation builds an invocation for a tokenized line. Dispatcher does this
// itself; it is exported for hosts and tests that call handlers directly.
func NewInvocation(line Line, actor Actor, dir ActorDirectory, extra ...any) *Invocation {
	return &Invocation{Line: line, Actor: actor, Extra: extra, directory: dir}
}

// Matches reports whether name is the command token, ignoring case.
func (inv *Invocation) Matches(name string) bool {
	return fold(inv.Command) == fold(name)
}

// Reply sends a formatted message to the invoking actor if it is reachable.
func (inv *Invocation) Reply(text string) {
	if inv.Actor != nil && inv.Actor.Reachable() {
		inv.Actor.Send(text)
	}
}

// String returns argument i.
func (inv *Invocation) String(i int) (string, bool) {
	if i < 0 || i >= inv.Size() {
		return "", false
	}
	return inv.Args[i], true
}

// Lower returns argument i in lower case.
func (inv *Invocation) Lower(i int) (string, bool) {
	s, ok := inv.String(i)
	if !ok {
		return "", false
	}
	return strings.ToLower(s), true
}

// Join rejoins arguments [start, end) with single spaces. end == -1 means up
// to the last argument.
func (inv *Invocation) Join(start, end int) (string, bool) {
	if end == -1 {
		end = inv.Size()
	}
	if start < 0 || start >= end || end > inv.Size() {
		return "", false
	}
	return strings.Join(inv.Args[start:end], " "), true
}

// Int returns argument i as a non-negative integer.
func (inv *Invocation) Int(i int) (int, bool) {
	s, ok := inv.String(i)
	if !ok {
		return 0, false
	}
	return parseUint(s)
}

// Player resolves argument i as an actor name.
func (inv *Invocation) Player(i int) (Actor, bool) {
	s, ok := inv.String(i)
	if !ok {
		return nil, false
	}
	return inv.lookup(s)
}

// MatchString returns capture group i of the grammar match.
func (inv *Invocation) MatchString(i int) (string, bool) {
	return inv.Match.Group(i)
}

// MatchNamed returns a named capture group of the grammar match.
func (inv *Invocation) MatchNamed(name string) (string, bool) {
	return inv.Match.Named(name)
}

// MatchInt returns capture group i as a non-negative integer.
func (inv *Invocation) MatchInt(i int) (int, bool) {
	s, ok := inv.Match.Group(i)
	if !ok {
		return 0, false
	}
	return parseUint(s)
}

// MatchPlayer resolves capture group i as an actor name.
func (inv *Invocation) MatchPlayer(i int) (Actor, bool) {
	s, ok := inv.Match.Group(i)
	if !ok {
		return nil, false
	}
	return inv.lookup(s)
}

// FindPlayer resolves name against the actor directory.
func (inv *Invocation) FindPlayer(name string) (Actor, bool) {
	return inv.lookup(name)
}

func (inv *Invocation) lookup(name string) (Actor, bool) {
	if inv.directory == nil || name == "" {
		return nil, false
	}
	return inv.directory.FindByName(name)
}

// parseUint accepts \d+ only; signs and overflow are rejected.
func parseUint(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}
