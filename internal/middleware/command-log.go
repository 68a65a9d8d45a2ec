package middleware

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/keshon/chatcmd/internal/storage"
	"github.com/keshon/chatcmd/pkg/cmd"
	"github.com/rs/zerolog"
)

// HistoryRecorder stores what a player ran.
type HistoryRecorder interface {
	AppendCommandToHistory(player string, record storage.CommandHistoryRecord) error
}

// WithCommandLogger logs every executed command and, when history is not nil,
// appends it to the player's command history.
func WithCommandLogger(logger zerolog.Logger, history HistoryRecorder) cmd.Middleware {
	return func(h cmd.Handler) cmd.Handler {
		return cmd.Wrap(h, func(ctx context.Context, inv *cmd.Invocation) error {
			id := uuid.NewString()
			started := time.Now()

			err := h.Invoke(ctx, inv)

			elapsed := time.Since(started)
			player := actorName(inv)
			command := inv.Command
			if inv.Descriptor != nil {
				command = inv.Descriptor.Name()
			}

			ev := logger.Info()
			outcome := "success"
			if err != nil {
				ev = logger.Warn().Err(err)
				outcome = "failed"
			}
			ev.Str("invocation", id).
				Str("actor", player).
				Str("command", command).
				Str("args", inv.Message).
				Dur("took", elapsed).
				Msg("command executed")

			if history != nil && player != "" {
				rec := storage.CommandHistoryRecord{
					Command:  command,
					Param:    inv.Message,
					Outcome:  outcome,
					Duration: elapsed,
					Datetime: started,
				}
				if e := history.AppendCommandToHistory(player, rec); e != nil {
					logger.Warn().Err(e).Str("command", command).Msg("failed to record command history")
				}
			}
			return err
		})
	}
}

func actorName(inv *cmd.Invocation) string {
	if inv.Actor == nil {
		return ""
	}
	return inv.Actor.Name()
}
