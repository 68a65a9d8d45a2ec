package server

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/keshon/chatcmd/pkg/chat"
	"github.com/keshon/chatcmd/pkg/cmd"
	"golang.org/x/text/cases"
)

// Players is the set of online players, keyed by case-folded name.
type Players struct {
	mu     sync.RWMutex
	byName map[string]*Player
}

func NewPlayers() *Players {
	return &Players{byName: make(map[string]*Player)}
}

func foldName(name string) string {
	return cases.Fold().String(name)
}

// Join adds p. Names are unique regardless of case.
func (ps *Players) Join(p *Player) error {
	key := foldName(p.Name())
	ps.mu.Lock()
	defer ps.mu.Unlock()
	if _, exists := ps.byName[key]; exists {
		return fmt.Errorf("player %q is already online", p.Name())
	}
	ps.byName[key] = p
	return nil
}

// Leave removes and disconnects the player called name.
func (ps *Players) Leave(name string) (*Player, bool) {
	key := foldName(name)
	ps.mu.Lock()
	p, ok := ps.byName[key]
	delete(ps.byName, key)
	ps.mu.Unlock()
	if ok {
		p.Disconnect()
	}
	return p, ok
}

// Get returns the player with exactly this name, ignoring case.
func (ps *Players) Get(name string) (*Player, bool) {
	ps.mu.RLock()
	defer ps.mu.RUnlock()
	p, ok := ps.byName[foldName(name)]
	return p, ok
}

// Find resolves name exactly, then as a prefix matching a single player.
func (ps *Players) Find(name string) (*Player, bool) {
	if name == "" {
		return nil, false
	}
	if p, ok := ps.Get(name); ok {
		return p, true
	}

	prefix := foldName(name)
	ps.mu.RLock()
	defer ps.mu.RUnlock()

	var found *Player
	for key, p := range ps.byName {
		if !strings.HasPrefix(key, prefix) {
			continue
		}
		if found != nil {
			return nil, false
		}
		found = p
	}
	return found, found != nil
}

// FindByName implements cmd.ActorDirectory.
func (ps *Players) FindByName(name string) (cmd.Actor, bool) {
	p, ok := ps.Find(name)
	if !ok {
		return nil, false
	}
	return p, true
}

// Online returns every player sorted by name.
func (ps *Players) Online() []*Player {
	ps.mu.RLock()
	out := make([]*Player, 0, len(ps.byName))
	for _, p := range ps.byName {
		out = append(out, p)
	}
	ps.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return foldName(out[i].Name()) < foldName(out[j].Name())
	})
	return out
}

// Names returns the names of online players, sorted.
func (ps *Players) Names() []string {
	online := ps.Online()
	names := make([]string, len(online))
	for i, p := range online {
		names[i] = p.Name()
	}
	return names
}

// Broadcast formats a message once and sends it to every online player.
func (ps *Players) Broadcast(format string, args ...any) {
	text := chat.Format(format, args...)
	for _, p := range ps.Online() {
		p.Send(text)
	}
}
