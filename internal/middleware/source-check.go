package middleware

import (
	"context"

	"github.com/keshon/chatcmd/internal/command"
	"github.com/keshon/chatcmd/pkg/chat"
	"github.com/keshon/chatcmd/pkg/cmd"
	"github.com/rs/zerolog"
)

// SourceToggle reports whether a handler source has been switched off.
type SourceToggle interface {
	IsSourceDisabled(source string) (bool, error)
}

// WithSourceCheck refuses commands whose source is disabled. Sources listed
// in always are never refused so the toggle can be undone.
func WithSourceCheck(toggle SourceToggle, logger zerolog.Logger, always ...string) cmd.Middleware {
	keep := make(map[string]bool, len(always))
	for _, s := range always {
		keep[s] = true
	}
	return func(h cmd.Handler) cmd.Handler {
		return cmd.Wrap(h, func(ctx context.Context, inv *cmd.Invocation) error {
			if inv.Descriptor == nil || keep[inv.Descriptor.Source] {
				return h.Invoke(ctx, inv)
			}
			disabled, err := toggle.IsSourceDisabled(inv.Descriptor.Source)
			if err != nil {
				logger.Warn().Err(err).Str("source", inv.Descriptor.Source).Msg("failed to read disabled sources")
				return h.Invoke(ctx, inv)
			}
			if disabled {
				chat.Send(inv.Actor, "&cThis command is disabled on this server. &7Use &f%scommands status&7 to check which commands are disabled.", command.Prefix(inv))
				return nil
			}
			return h.Invoke(ctx, inv)
		})
	}
}
