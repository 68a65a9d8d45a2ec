package server

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// PermissionChecker resolves permission nodes by player name.
type PermissionChecker interface {
	Has(player, node string) bool
}

// Player is a connected chat participant.
type Player struct {
	id     uuid.UUID
	name   string
	online atomic.Bool

	mu   sync.Mutex
	out  func(text string)
	perm PermissionChecker
}

// NewPlayer returns an online player whose messages go to out.
func NewPlayer(name string, out func(text string), perm PermissionChecker) *Player {
	p := &Player{id: uuid.New(), name: name, out: out, perm: perm}
	p.online.Store(true)
	return p
}

func (p *Player) ID() uuid.UUID { return p.id }

func (p *Player) Name() string { return p.name }

// Reachable reports whether the player is still online.
func (p *Player) Reachable() bool { return p.online.Load() }

// Send delivers text. Deliveries to one player are serialized.
func (p *Player) Send(text string) {
	if !p.Reachable() || p.out == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.out(text)
}

func (p *Player) HasPermission(node string) bool {
	if p.perm == nil {
		return false
	}
	return p.perm.Has(p.name, node)
}

// Disconnect marks the player offline. Further messages are dropped.
func (p *Player) Disconnect() {
	p.online.Store(false)
}
