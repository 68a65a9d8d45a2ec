package cmd_test

import (
	"context"
	"errors"
	"testing"

	"github.com/keshon/chatcmd/pkg/cmd"
)

func noop(ctx context.Context, inv *cmd.Invocation) error { return nil }

func TestRegistryLookupIgnoresCase(t *testing.T) {
	reg := cmd.NewRegistry()
	err := reg.Register(cmd.Source{Name: "core", Commands: []cmd.Declaration{
		{Aliases: []string{"Help", "?"}, Run: noop},
	}})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	for _, alias := range []string{"help", "HELP", "hElP", "?"} {
		if !reg.Has(alias) {
			t.Errorf("Has(%q) = false", alias)
		}
	}
	if reg.Has("hel") {
		t.Error("Has(hel) = true")
	}

	a, _ := reg.Lookup("help")
	b, _ := reg.Lookup("?")
	if a != b {
		t.Error("aliases of one declaration should share a descriptor")
	}
}

func TestRegistryDefaults(t *testing.T) {
	reg := cmd.NewRegistry()
	_ = reg.Register(cmd.Source{Name: "core", Commands: []cmd.Declaration{
		{Aliases: []string{"ping"}, Run: noop},
	}})
	d, _ := reg.Lookup("ping")
	if d.Usage != "N/A" || d.Description != "N/A" {
		t.Errorf("defaults = %q, %q", d.Usage, d.Description)
	}
	if d.Permission != "" || d.Grammar != nil {
		t.Errorf("unexpected permission or grammar: %+v", d)
	}
	if !d.Static() {
		t.Error("Run declaration should be static")
	}
	if d.Source != "core" {
		t.Errorf("Source = %q", d.Source)
	}
}

func TestRegistryLastWriteWins(t *testing.T) {
	reg := cmd.NewRegistry()
	_ = reg.Register(cmd.Source{Name: "first", Commands: []cmd.Declaration{
		{Aliases: []string{"spawn", "home"}, Run: noop},
	}})
	_ = reg.Register(cmd.Source{Name: "second", Commands: []cmd.Declaration{
		{Aliases: []string{"SPAWN"}, Run: noop},
	}})

	d, ok := reg.Lookup("spawn")
	if !ok || d.Source != "second" {
		t.Fatalf("Lookup(spawn) = %+v, want second", d)
	}
	home, _ := reg.Lookup("home")
	if home.Source != "first" {
		t.Errorf("Lookup(home) = %q, want first", home.Source)
	}
	if got := reg.Aliases(home); len(got) != 1 || got[0] != "home" {
		t.Errorf("Aliases(first) = %q, want [home]", got)
	}
	if n := len(reg.All()); n != 2 {
		t.Errorf("All() has %d descriptors, want 2", n)
	}
}

func TestRegistryInvalidDeclarations(t *testing.T) {
	tests := []struct {
		name string
		src  cmd.Source
		want error
	}{
		{
			name: "no aliases",
			src:  cmd.Source{Name: "bad", Commands: []cmd.Declaration{{Run: noop}}},
			want: cmd.ErrInvalidDeclaration,
		},
		{
			name: "blank aliases",
			src:  cmd.Source{Name: "bad", Commands: []cmd.Declaration{{Aliases: []string{" ", ""}, Run: noop}}},
			want: cmd.ErrInvalidDeclaration,
		},
		{
			name: "no handler",
			src:  cmd.Source{Name: "bad", Commands: []cmd.Declaration{{Aliases: []string{"x"}}}},
			want: cmd.ErrInvalidDeclaration,
		},
		{
			name: "method without constructor",
			src: cmd.Source{Name: "bad", Commands: []cmd.Declaration{{
				Aliases: []string{"x"},
				Method:  func(any, context.Context, *cmd.Invocation) error { return nil },
			}}},
			want: cmd.ErrInvalidDeclaration,
		},
		{
			name: "malformed pattern",
			src:  cmd.Source{Name: "bad", Commands: []cmd.Declaration{{Aliases: []string{"x"}, Pattern: `([a-z`, Run: noop}}},
			want: cmd.ErrInvalidGrammar,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := cmd.NewRegistry()
			err := reg.Register(tt.src)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Register error = %v, want %v", err, tt.want)
			}
			var se *cmd.SourceError
			if !errors.As(err, &se) || se.Source != "bad" {
				t.Errorf("error should name the source, got %v", err)
			}
			if n := len(reg.All()); n != 0 {
				t.Errorf("failed source left %d descriptors", n)
			}
		})
	}
}

func TestRegistryFailingSourceIsAtomic(t *testing.T) {
	reg := cmd.NewRegistry()
	err := reg.Register(cmd.Source{Name: "half", Commands: []cmd.Declaration{
		{Aliases: []string{"good"}, Run: noop},
		{Aliases: []string{"broken"}, Pattern: `(`, Run: noop},
	}})
	if err == nil {
		t.Fatal("expected an error")
	}
	if reg.Has("good") {
		t.Error("valid declarations of a failing source must not be registered")
	}
}

type counter struct{ hits int }

func TestRegistryBoundOwnerBuiltOnce(t *testing.T) {
	builds := 0
	hit := cmd.Bind(func(c *counter, ctx context.Context, inv *cmd.Invocation) error {
		c.hits++
		return nil
	})

	reg := cmd.NewRegistry()
	err := reg.Register(cmd.Source{
		Name: "counter",
		New: func() (any, error) {
			builds++
			return &counter{}, nil
		},
		Commands: []cmd.Declaration{
			{Aliases: []string{"a"}, Method: hit},
			{Aliases: []string{"b"}, Method: hit},
		},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if builds != 1 {
		t.Fatalf("constructor ran %d times, want 1", builds)
	}

	a, _ := reg.Lookup("a")
	b, _ := reg.Lookup("b")
	if a.Static() {
		t.Error("method declaration should be bound")
	}
	owner := cmd.Root(a.Handler).(cmd.BoundHandler).Owner
	if owner != cmd.Root(b.Handler).(cmd.BoundHandler).Owner {
		t.Error("declarations of one source should share the owner")
	}

	_ = a.Handler.Invoke(context.Background(), nil)
	_ = b.Handler.Invoke(context.Background(), nil)
	if got := owner.(*counter).hits; got != 2 {
		t.Errorf("hits = %d, want 2", got)
	}
}

func TestRegistryStaticSourceSkipsConstructor(t *testing.T) {
	built := false
	reg := cmd.NewRegistry()
	err := reg.Register(cmd.Source{
		Name:     "static",
		New:      func() (any, error) { built = true; return &counter{}, nil },
		Commands: []cmd.Declaration{{Aliases: []string{"s"}, Run: noop}},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if built {
		t.Error("constructor should not run when no declaration needs an owner")
	}
}

func TestRegistryInstantiationFailureSkipsSource(t *testing.T) {
	tests := []struct {
		name string
		New  func() (any, error)
	}{
		{"error", func() (any, error) { return nil, errors.New("no database") }},
		{"panic", func() (any, error) { panic("boom") }},
		{"nil owner", func() (any, error) { return nil, nil }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := cmd.NewRegistry()
			err := reg.Register(cmd.Source{
				Name: "warps",
				New:  tt.New,
				Commands: []cmd.Declaration{
					{Aliases: []string{"warp"}, Method: func(any, context.Context, *cmd.Invocation) error { return nil }},
					{Aliases: []string{"warps"}, Run: noop},
				},
			})
			if !errors.Is(err, cmd.ErrInstantiation) {
				t.Fatalf("Register error = %v, want ErrInstantiation", err)
			}
			if reg.Has("warp") || reg.Has("warps") {
				t.Error("a source whose owner failed must not register any alias")
			}
		})
	}
}

func TestRegistryParentDeclarationsShareOwner(t *testing.T) {
	type base struct{ name string }
	whoami := cmd.Bind(func(b *base, ctx context.Context, inv *cmd.Invocation) error {
		inv.Reply(b.name)
		return nil
	})

	parent := &cmd.Source{Name: "base", Commands: []cmd.Declaration{{Aliases: []string{"whoami"}, Method: whoami}}}
	reg := cmd.NewRegistry()
	err := reg.Register(cmd.Source{
		Name:     "child",
		New:      func() (any, error) { return &base{name: "child-owner"}, nil },
		Parent:   parent,
		Commands: []cmd.Declaration{{Aliases: []string{"own"}, Method: whoami}},
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	d, ok := reg.Lookup("whoami")
	if !ok {
		t.Fatal("inherited declaration was not registered")
	}
	actor := newActor("alice")
	tokens, _ := cmd.Tokenize("whoami")
	if err := d.Handler.Invoke(context.Background(), cmd.NewInvocation(tokens, actor, nil)); err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if got := actor.Messages(); len(got) != 1 || got[0] != "child-owner" {
		t.Errorf("messages = %q", got)
	}
}

func TestRegistryParentCycle(t *testing.T) {
	a := &cmd.Source{Name: "a", Commands: []cmd.Declaration{{Aliases: []string{"a"}, Run: noop}}}
	b := &cmd.Source{Name: "b", Parent: a}
	a.Parent = b

	reg := cmd.NewRegistry()
	if err := reg.Register(*a); !errors.Is(err, cmd.ErrInvalidDeclaration) {
		t.Errorf("expected ErrInvalidDeclaration for a cycle, got %v", err)
	}
}

func TestRegistryRegisterAllContinues(t *testing.T) {
	reg := cmd.NewRegistry()
	err := reg.RegisterAll(
		cmd.Source{Name: "broken", Commands: []cmd.Declaration{{Run: noop}}},
		cmd.Source{Name: "fine", Commands: []cmd.Declaration{{Aliases: []string{"ok"}, Run: noop}}},
	)
	if !errors.Is(err, cmd.ErrInvalidDeclaration) {
		t.Errorf("expected joined ErrInvalidDeclaration, got %v", err)
	}
	if !reg.Has("ok") {
		t.Error("a failing source must not stop the others")
	}
}

func TestRegistryFrozen(t *testing.T) {
	reg := cmd.NewRegistry()
	_ = reg.Register(cmd.Source{Name: "first", Commands: []cmd.Declaration{{Aliases: []string{"spawn"}, Run: noop}}})
	reg.Freeze()

	if !reg.Frozen() {
		t.Fatal("Frozen() = false after Freeze")
	}
	err := reg.Register(cmd.Source{Name: "late", Commands: []cmd.Declaration{
		{Aliases: []string{"spawn", "late"}, Run: noop},
	}})
	if !errors.Is(err, cmd.ErrRegistryFrozen) {
		t.Fatalf("expected ErrRegistryFrozen, got %v", err)
	}
	if reg.Has("late") {
		t.Error("late registration must not add aliases")
	}
	if d, _ := reg.Lookup("spawn"); d.Source != "first" {
		t.Errorf("late registration overwrote spawn with %q", d.Source)
	}
}
