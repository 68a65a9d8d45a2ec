package server

import (
	"context"
	"strings"

	"github.com/keshon/chatcmd/pkg/cmd"
	"github.com/rs/zerolog"
)

// Listener feeds chat lines that start with the command prefix to the
// dispatcher.
type Listener struct {
	prefix     string
	dispatcher *cmd.Dispatcher
	log        zerolog.Logger
}

func NewListener(prefix string, d *cmd.Dispatcher, logger zerolog.Logger) *Listener {
	return &Listener{prefix: prefix, dispatcher: d, log: logger}
}

// IsCommand reports whether message is addressed to the command system.
func (l *Listener) IsCommand(message string) bool {
	return strings.HasPrefix(message, l.prefix) && len(message) > len(l.prefix)
}

// OnChat dispatches a prefixed line for p. It returns true when the line was
// consumed and default chat handling must be cancelled.
func (l *Listener) OnChat(ctx context.Context, p *Player, message string) bool {
	if !l.IsCommand(message) {
		return false
	}
	line := strings.TrimPrefix(message, l.prefix)
	command, _, _ := strings.Cut(line, " ")
	if !l.dispatcher.HasCommand(command) {
		return false
	}

	res := l.dispatcher.Dispatch(ctx, line, p, l.prefix)
	l.log.Debug().
		Str("player", p.Name()).
		Str("command", command).
		Str("outcome", res.Outcome.String()).
		Msg("chat command")
	return res.Handled()
}
