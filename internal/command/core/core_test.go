package core

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/keshon/chatcmd/internal/command/commandtest"
	"github.com/keshon/chatcmd/internal/version"
	"github.com/keshon/chatcmd/pkg/cmd"
)

func filler(n int) cmd.Source {
	src := cmd.Source{Name: "filler"}
	for i := 0; i < n; i++ {
		src.Commands = append(src.Commands, cmd.Declaration{
			Aliases:     []string{fmt.Sprintf("cmd%02d", i)},
			Description: fmt.Sprintf("filler %d", i),
			Run:         func(context.Context, *cmd.Invocation) error { return nil },
		})
	}
	src.Commands = append(src.Commands, cmd.Declaration{
		Aliases:    []string{"hidden"},
		Permission: "test.hidden",
		Run:        func(context.Context, *cmd.Invocation) error { return nil },
	})
	return src
}

func harness(t *testing.T, dir commandtest.Directory) *commandtest.Harness {
	t.Helper()
	reg := cmd.NewRegistry()
	if err := reg.RegisterAll(Source(reg, dir), filler(10)); err != nil {
		t.Fatal(err)
	}
	return commandtest.NewFromRegistry(reg, dir)
}

func TestHelpPages(t *testing.T) {
	h := harness(t, commandtest.Directory{})
	alice := commandtest.NewActor("alice")

	if res := h.Run(alice, "help"); res.Outcome != cmd.OutcomeSuccess {
		t.Fatalf("outcome = %v (%v)", res.Outcome, res.Err)
	}
	msgs := alice.Messages()
	if !strings.Contains(msgs[0], "page 1/2") {
		t.Errorf("header = %q", msgs[0])
	}
	if msgs[1] != "core" {
		t.Errorf("core should sort first, got %q", msgs[1])
	}
	if !strings.Contains(alice.Last(), "/help 2") {
		t.Errorf("footer = %q", alice.Last())
	}

	alice.Reset()
	h.Run(alice, "help 2")
	joined := strings.Join(alice.Messages(), "\n")
	if !strings.Contains(joined, "page 2/2") || !strings.Contains(joined, "/cmd09 - filler 9") {
		t.Errorf("page 2:\n%s", joined)
	}
	if strings.Contains(joined, "hidden") {
		t.Error("help must not list commands the actor cannot run")
	}

	alice.Reset()
	h.Run(alice, "help 7")
	if !strings.Contains(alice.Last(), "Page 7 does not exist") {
		t.Errorf("got %q", alice.Last())
	}
}

func TestHelpCommand(t *testing.T) {
	h := harness(t, commandtest.Directory{})
	alice := commandtest.NewActor("alice")

	h.Run(alice, "help WHO")
	got := alice.Messages()
	want := []string{
		"--- /list ---",
		"Usage: /list N/A",
		"Description: Show who is online",
		"Aliases: who, online",
	}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %q\nwant %q", got, want)
	}

	alice.Reset()
	h.Run(alice, "help hidden")
	if alice.Last() != "No such command: hidden" {
		t.Errorf("got %q", alice.Last())
	}
}

func TestListAndAbout(t *testing.T) {
	bob := commandtest.NewActor("bob")
	h := harness(t, commandtest.Directory{}.Add(bob))

	h.Run(bob, "online")
	if bob.Last() != "Online (1): bob" {
		t.Errorf("list = %q", bob.Last())
	}

	bob.Reset()
	h.Run(bob, "version")
	if msgs := bob.Messages(); len(msgs) != 3 || !strings.HasPrefix(msgs[0], version.AppName) {
		t.Errorf("about = %q", msgs)
	}
}

func TestSourceNeedsRegistry(t *testing.T) {
	reg := cmd.NewRegistry()
	if err := reg.Register(Source(nil, nil)); err == nil {
		t.Error("expected an instantiation error")
	}
}
