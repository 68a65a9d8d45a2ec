// Package server hosts the command dispatcher: it tracks online players,
// routes their chat through the command listener and runs background jobs.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/keshon/chatcmd/internal/middleware"
	"github.com/keshon/chatcmd/internal/perms"
	"github.com/keshon/chatcmd/internal/storage"
	"github.com/keshon/chatcmd/pkg/chat"
	"github.com/keshon/chatcmd/pkg/cmd"
	"github.com/keshon/chatcmd/pkg/jobmgr"
	"github.com/rs/zerolog"
)

// AdminSource is never disabled by the source toggle.
const AdminSource = "admin"

// Options configures a Server.
type Options struct {
	Prefix         string
	GrammarTimeout time.Duration
	CooldownRate   float64
	CooldownBurst  int
	CooldownIdle   time.Duration
}

// Server owns the registry, dispatcher and player list.
type Server struct {
	opts  Options
	log   zerolog.Logger
	perms *perms.Service
	store *storage.Storage

	players   *Players
	cooldowns *middleware.Cooldowns
	registry  *cmd.Registry

	dispatcher *cmd.Dispatcher
	listener   *Listener
	jobs       *jobmgr.Manager
}

// New returns a server that accepts command sources until Start.
// store may be nil, which disables history and source toggles.
func New(opts Options, permissions *perms.Service, store *storage.Storage, logger zerolog.Logger) *Server {
	if opts.Prefix == "" {
		opts.Prefix = "/"
	}
	return &Server{
		opts:      opts,
		log:       logger,
		perms:     permissions,
		store:     store,
		players:   NewPlayers(),
		cooldowns: middleware.NewCooldowns(opts.CooldownRate, opts.CooldownBurst),
		registry: cmd.NewRegistry(
			cmd.WithRegistryLogger(logger),
			cmd.WithMatchTimeout(opts.GrammarTimeout),
		),
	}
}

func (s *Server) Players() *Players          { return s.players }
func (s *Server) Permissions() *perms.Service { return s.perms }
func (s *Server) Storage() *storage.Storage  { return s.store }
func (s *Server) Registry() *cmd.Registry    { return s.registry }
func (s *Server) Prefix() string             { return s.opts.Prefix }

// Register adds command sources. Failing sources are logged and skipped.
func (s *Server) Register(srcs ...cmd.Source) error {
	return s.registry.RegisterAll(srcs...)
}

// Start freezes the registry and starts background jobs. The jobs stop when
// ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	if s.dispatcher != nil {
		return errors.New("server already started")
	}

	// Gates run outside the logger so skipped commands are not recorded.
	mws := []cmd.Middleware{}
	var history middleware.HistoryRecorder
	if s.store != nil {
		mws = append(mws, middleware.WithSourceCheck(s.store, s.log, AdminSource))
		history = s.store
	}
	mws = append(mws,
		middleware.WithCooldown(s.cooldowns),
		middleware.WithCommandLogger(s.log, history),
	)

	s.dispatcher = cmd.NewDispatcher(s.registry,
		cmd.WithLogger(s.log),
		cmd.WithDirectory(s.players),
		cmd.WithMiddleware(mws...),
	)
	s.listener = NewListener(s.opts.Prefix, s.dispatcher, s.log)
	s.jobs = jobmgr.NewManager(ctx, jobmgr.LogReporter(s.log))

	if s.opts.CooldownRate > 0 && s.opts.CooldownIdle > 0 {
		err := s.jobs.Every("cooldown-prune", time.Minute, func(context.Context) error {
			if n := s.cooldowns.Prune(s.opts.CooldownIdle); n > 0 {
				s.log.Debug().Int("actors", n).Msg("pruned idle cooldowns")
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	s.log.Info().
		Int("commands", len(s.registry.All())).
		Str("prefix", s.opts.Prefix).
		Msg("[INFO] Command dispatcher ready")
	return nil
}

// Go runs fn as a named background job.
func (s *Server) Go(name string, fn func(ctx context.Context) error) error {
	if s.jobs == nil {
		return errors.New("server not started")
	}
	return s.jobs.StartAsync(name, fn)
}

// Stop cancels background jobs, waits for them and closes the store.
func (s *Server) Stop() error {
	if s.jobs != nil {
		s.jobs.StopAll()
		s.jobs.Wait()
	}
	for _, p := range s.players.Online() {
		p.Disconnect()
	}
	if s.store != nil {
		return s.store.Close()
	}
	return nil
}

// Connect creates an online player.
func (s *Server) Connect(name string, out func(text string)) (*Player, error) {
	var checker PermissionChecker
	if s.perms != nil {
		checker = s.perms
	}
	p := NewPlayer(name, out, checker)
	if err := s.players.Join(p); err != nil {
		return nil, err
	}
	s.players.Broadcast("&e%s joined the game", p.Name())
	return p, nil
}

// ConnectOperator creates an online player that holds every permission.
func (s *Server) ConnectOperator(name string, out func(text string)) (*Player, error) {
	p := NewPlayer(name, out, operator{})
	if err := s.players.Join(p); err != nil {
		return nil, err
	}
	return p, nil
}

// Disconnect removes a player.
func (s *Server) Disconnect(name string) bool {
	p, ok := s.players.Leave(name)
	if ok {
		s.players.Broadcast("&e%s left the game", p.Name())
	}
	return ok
}

// Kick tells the player why and disconnects them.
func (s *Server) Kick(name, reason string) (*Player, error) {
	p, ok := s.players.Find(name)
	if !ok {
		return nil, fmt.Errorf("player %q is not online", name)
	}
	if reason == "" {
		reason = "Kicked by an operator."
	}
	chat.Send(p, "&cYou were kicked: &f%s", reason)
	s.Disconnect(p.Name())
	return p, nil
}

// Chat handles one line typed by p. Commands go to the dispatcher; lines
// that look like commands but are not handled get a generic notice so that
// denied and unknown commands look the same. Anything else is broadcast.
func (s *Server) Chat(ctx context.Context, p *Player, message string) {
	if message == "" {
		return
	}
	if s.listener != nil && s.listener.OnChat(ctx, p, message) {
		return
	}
	if s.listener != nil && s.listener.IsCommand(message) {
		chat.Send(p, "&cUnknown command. Type \"%shelp\" for help.", s.opts.Prefix)
		return
	}
	s.players.Broadcast("&7<%s>&f %s", p.Name(), message)
}

type operator struct{}

func (operator) Has(string, string) bool { return true }
