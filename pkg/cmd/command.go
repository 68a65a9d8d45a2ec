// Package cmd provides a transport-agnostic chat command core: a registry of
// handlers keyed by case-insensitive aliases, optional per-command argument
// grammars, permission gating and dispatch. How lines reach it (game chat,
// console, tests) and how actors are represented is defined by the host.
package cmd

import (
	"context"
	"fmt"
)

// Actor is whoever issued a command and receives its replies.
type Actor interface {
	Name() string
	Reachable() bool
	Send(text string)
	HasPermission(node string) bool
}

// ActorDirectory resolves actor names for argument extraction.
type ActorDirectory interface {
	FindByName(name string) (Actor, bool)
}

// HandlerFunc runs a static command.
type HandlerFunc func(ctx context.Context, inv *Invocation) error

// MethodFunc runs a command against the owner instance of its source.
type MethodFunc func(owner any, ctx context.Context, inv *Invocation) error

// Bind adapts a typed method to a MethodFunc. The owner is asserted to T at
// call time.
func Bind[T any](fn func(owner T, ctx context.Context, inv *Invocation) error) MethodFunc {
	return func(owner any, ctx context.Context, inv *Invocation) error {
		o, ok := owner.(T)
		if !ok {
			return fmt.Errorf("owner has type %T, want %T", owner, *new(T))
		}
		return fn(o, ctx, inv)
	}
}

// Handler is the invocable part of a descriptor.
type Handler interface {
	Invoke(ctx context.Context, inv *Invocation) error
}

// StaticHandler needs no owner.
type StaticHandler struct {
	Fn HandlerFunc
}

// Invoke calls Fn.
func (h StaticHandler) Invoke(ctx context.Context, inv *Invocation) error {
	if h.Fn == nil {
		return fmt.Errorf("static handler has no function")
	}
	return h.Fn(ctx, inv)
}

// BoundHandler carries the owner built once at registration.
type BoundHandler struct {
	Owner  any
	Method MethodFunc
}

// Invoke calls Method with the bound owner.
func (h BoundHandler) Invoke(ctx context.Context, inv *Invocation) error {
	if h.Method == nil {
		return fmt.Errorf("bound handler has no method")
	}
	return h.Method(h.Owner, ctx, inv)
}

// Declaration is one row of a source's registration table.
// Exactly one of Run or Method must be set.
type Declaration struct {
	Aliases     []string
	Usage       string
	Pattern     string
	Description string
	Permission  string

	Run    HandlerFunc
	Method MethodFunc
}

// Source is a handler-bearing unit registered at startup.
type Source struct {
	Name string

	// New builds the owner shared by every Method declaration of this source
	// and its parents. Nil for sources that only declare Run handlers.
	New func() (any, error)

	// Parent declarations are registered too, bound to this source's owner.
	Parent *Source

	Commands []Declaration
}

const notAvailable = "N/A"

// Descriptor is a registered command.
type Descriptor struct {
	Aliases     []string
	Usage       string
	Description string
	Permission  string
	Grammar     *Grammar
	Handler     Handler
	Source      string
}

// Name is the primary alias.
func (d *Descriptor) Name() string {
	if len(d.Aliases) == 0 {
		return ""
	}
	return d.Aliases[0]
}

// Static reports whether the handler runs without an owner.
func (d *Descriptor) Static() bool {
	_, bound := Root(d.Handler).(BoundHandler)
	return !bound
}
