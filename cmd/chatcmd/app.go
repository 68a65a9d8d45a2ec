package main

import (
	"context"
	"fmt"

	"github.com/keshon/chatcmd/internal/command/admin"
	"github.com/keshon/chatcmd/internal/command/chat"
	"github.com/keshon/chatcmd/internal/command/core"
	"github.com/keshon/chatcmd/internal/command/roll"
	"github.com/keshon/chatcmd/internal/config"
	"github.com/keshon/chatcmd/internal/perms"
	"github.com/keshon/chatcmd/internal/script"
	"github.com/keshon/chatcmd/internal/server"
	"github.com/keshon/chatcmd/internal/storage"
	"github.com/rs/zerolog"
)

type app struct {
	srv     *server.Server
	scripts *script.Set
}

// newApp opens storage and permissions, builds the server and registers the
// built-in and scripted command sources.
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*app, error) {
	store, err := storage.New(cfg.StoragePath, logger)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	policy, found, err := perms.LoadFile(cfg.PermissionsFile)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("load permissions: %w", err)
	}
	if !found {
		logger.Warn().Str("file", cfg.PermissionsFile).Msg("[WARN] No permissions file, only runtime grants apply")
	}
	permissions := perms.NewService(policy, store, logger)

	srv := server.New(server.Options{
		Prefix:         cfg.CommandPrefix,
		GrammarTimeout: cfg.GrammarTimeout,
		CooldownRate:   cfg.CooldownRate,
		CooldownBurst:  cfg.CooldownBurst,
		CooldownIdle:   cfg.CooldownIdle,
	}, permissions, store, logger)

	kick := func(name, reason string) (string, error) {
		p, err := srv.Kick(name, reason)
		if err != nil {
			return "", err
		}
		return p.Name(), nil
	}

	// Registration errors are logged per source; the server starts with
	// whatever registered.
	_ = srv.Register(
		core.Source(srv.Registry(), srv.Players()),
		chat.Source(srv.Players()),
		roll.Source(),
		admin.Source(admin.Deps{
			Perms:    permissions,
			Store:    store,
			Kick:     kick,
			Registry: srv.Registry(),
		}),
	)

	// Broken scripts are logged by LoadDir and left out of the set.
	scripts, err := script.LoadDir(ctx, cfg.ScriptsDir, script.Options{
		Timeout: cfg.ScriptTimeout,
		Workers: cfg.ScriptWorkers,
		Logger:  logger,
	})
	if scripts == nil {
		logger.Error().Err(err).Str("dir", cfg.ScriptsDir).Msg("[ERR] Failed to read scripts directory")
		scripts = &script.Set{}
	}
	_ = srv.Register(scripts.Sources()...)

	return &app{srv: srv, scripts: scripts}, nil
}

func (a *app) Close() error {
	a.scripts.Close()
	return a.srv.Stop()
}
