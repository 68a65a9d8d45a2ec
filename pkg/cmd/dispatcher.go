package cmd

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"

	"github.com/keshon/chatcmd/pkg/chat"
	"github.com/rs/zerolog"
)

// Dispatcher turns input lines into handler calls. It is safe for concurrent
// use once constructed.
type Dispatcher struct {
	registry    *Registry
	directory   ActorDirectory
	authorize   Authorizer
	middlewares []Middleware
	log         zerolog.Logger
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithLogger sets the dispatcher logger.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) { d.log = l }
}

// WithDirectory sets the directory used for player arguments.
func WithDirectory(dir ActorDirectory) Option {
	return func(d *Dispatcher) { d.directory = dir }
}

// WithAuthorizer replaces ActorAuthorizer.
func WithAuthorizer(a Authorizer) Option {
	return func(d *Dispatcher) { d.authorize = a }
}

// WithMiddleware appends middleware around every handler invocation.
func WithMiddleware(mws ...Middleware) Option {
	return func(d *Dispatcher) { d.middlewares = append(d.middlewares, mws...) }
}

// NewDispatcher freezes reg and returns a dispatcher over it.
func NewDispatcher(reg *Registry, opts ...Option) *Dispatcher {
	reg.Freeze()
	d := &Dispatcher{
		registry:  reg,
		authorize: ActorAuthorizer,
		log:       zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Registry returns the frozen registry.
func (d *Dispatcher) Registry() *Registry { return d.registry }

// HasCommand reports whether alias is registered.
func (d *Dispatcher) HasCommand(alias string) bool {
	return d.registry.Has(alias)
}

// Dispatch resolves, authorizes, validates and invokes the command on line.
// Nothing escapes as a panic or error; everything is reported in the Result.
func (d *Dispatcher) Dispatch(ctx context.Context, line string, actor Actor, extra ...any) Result {
	tokens, err := Tokenize(line)
	if err != nil {
		return Result{Outcome: OutcomeEmpty, Err: err}
	}

	desc, ok := d.registry.Lookup(tokens.Command)
	if !ok {
		return Result{Outcome: OutcomeNotFound}
	}
	res := Result{Command: desc.Name()}

	// Permission precedes grammar so denied actors cannot probe usage.
	if err := Authorize(desc, actor, d.authorize); err != nil {
		res.Outcome, res.Err = OutcomeDenied, err
		return res
	}

	match, err := Validate(desc, tokens.Message)
	if err != nil {
		var ue *UsageError
		if errors.As(err, &ue) && ue.Cause != nil {
			d.log.Warn().Err(ue.Cause).Str("command", desc.Name()).Msg("grammar match failed")
		}
		chat.Send(actor, "%s", chat.Usage(tokens.Command, desc.Usage))
		chat.Send(actor, "%s", chat.Description(desc.Description))
		res.Outcome, res.Err = OutcomeUsage, err
		return res
	}

	inv := NewInvocation(tokens, actor, d.directory, extra...)
	inv.Descriptor = desc
	inv.Match = match

	if err := d.invoke(ctx, desc, inv); err != nil {
		d.log.Error().Err(err).
			Str("command", desc.Name()).
			Str("source", desc.Source).
			Str("actor", actorName(actor)).
			Msg("failed to execute command")
		chat.Send(actor, "%s", chat.Failure())
		res.Outcome, res.Err = OutcomeFailed, err
		return res
	}

	res.Outcome = OutcomeSuccess
	return res
}

func (d *Dispatcher) invoke(ctx context.Context, desc *Descriptor, inv *Invocation) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: panic: %v\n%s", ErrInvocation, rec, debug.Stack())
		}
	}()

	h := Apply(desc.Handler, d.middlewares...)
	if err := h.Invoke(ctx, inv); err != nil {
		return fmt.Errorf("%w: %w", ErrInvocation, err)
	}
	return nil
}

func actorName(a Actor) string {
	if a == nil {
		return ""
	}
	return a.Name()
}
