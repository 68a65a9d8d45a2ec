// Package chat provides private messages and emotes.
package chat

import (
	"context"
	"strings"
	"sync"

	"github.com/keshon/chatcmd/internal/command"
	"github.com/keshon/chatcmd/pkg/chat"
	"github.com/keshon/chatcmd/pkg/cmd"
)

// Broadcaster sends a message to everyone online.
type Broadcaster interface {
	Broadcast(format string, args ...any)
}

// Messenger remembers who last messaged whom so replies can be addressed.
type Messenger struct {
	broadcast Broadcaster

	mu   sync.Mutex
	last map[string]string
}

func NewMessenger(b Broadcaster) *Messenger {
	return &Messenger{broadcast: b, last: make(map[string]string)}
}

// Source declares the chat commands.
func Source(b Broadcaster) cmd.Source {
	return cmd.Source{
		Name: "chat",
		New:  func() (any, error) { return NewMessenger(b), nil },
		Commands: []cmd.Declaration{
			{
				Aliases:     []string{"msg", "tell", "w", "whisper"},
				Usage:       "<player> <message>",
				Pattern:     `(\S+) (.+)`,
				Description: "Send a private message",
				Permission:  "chatcmd.msg",
				Method:      cmd.Bind((*Messenger).Whisper),
			},
			{
				Aliases:     []string{"reply"},
				Usage:       "<message>",
				Pattern:     `.+`,
				Description: "Reply to the last private message",
				Permission:  "chatcmd.msg",
				Method:      cmd.Bind((*Messenger).Reply),
			},
			{
				Aliases:     []string{"me", "emote"},
				Usage:       "<action>",
				Pattern:     `.+`,
				Description: "Describe what you are doing",
				Permission:  "chatcmd.me",
				Method:      cmd.Bind((*Messenger).Emote),
			},
		},
	}
}

func (m *Messenger) Whisper(ctx context.Context, inv *cmd.Invocation) error {
	name, _ := inv.MatchString(1)
	text, _ := inv.MatchString(2)
	target, ok := inv.MatchPlayer(1)
	if !ok || !target.Reachable() {
		inv.Reply(chat.Format("&cPlayer &f%s&c is not online.", name))
		return nil
	}
	m.deliver(inv, target, text)
	return nil
}

func (m *Messenger) Reply(ctx context.Context, inv *cmd.Invocation) error {
	m.mu.Lock()
	name, ok := m.last[key(inv.Actor.Name())]
	m.mu.Unlock()

	if !ok {
		inv.Reply(chat.Format("&cNobody has messaged you yet. Use &f%smsg <player> <message>&c.", command.Prefix(inv)))
		return nil
	}
	target, found := inv.FindPlayer(name)
	if !found || !target.Reachable() {
		inv.Reply(chat.Format("&cPlayer &f%s&c is not online.", name))
		return nil
	}
	m.deliver(inv, target, inv.Message)
	return nil
}

func (m *Messenger) Emote(ctx context.Context, inv *cmd.Invocation) error {
	if m.broadcast == nil {
		inv.Reply(chat.Format("&d* %s %s", inv.Actor.Name(), inv.Message))
		return nil
	}
	m.broadcast.Broadcast("&d* %s %s", inv.Actor.Name(), inv.Message)
	return nil
}

func (m *Messenger) deliver(inv *cmd.Invocation, target cmd.Actor, text string) {
	chat.Send(target, "&7[%s -> you]&f %s", inv.Actor.Name(), text)
	inv.Reply(chat.Format("&7[you -> %s]&f %s", target.Name(), text))

	m.mu.Lock()
	m.last[key(target.Name())] = inv.Actor.Name()
	m.last[key(inv.Actor.Name())] = target.Name()
	m.mu.Unlock()
}

func key(name string) string { return strings.ToLower(name) }
