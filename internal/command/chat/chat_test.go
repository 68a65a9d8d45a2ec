package chat

import (
	"fmt"
	"sync"
	"testing"

	"github.com/keshon/chatcmd/internal/command/commandtest"
	"github.com/keshon/chatcmd/pkg/cmd"
)

type recorder struct {
	mu  sync.Mutex
	out []string
}

func (r *recorder) Broadcast(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out = append(r.out, fmt.Sprintf(format, args...))
}

func setup(t *testing.T) (*commandtest.Harness, *commandtest.Actor, *commandtest.Actor, *recorder) {
	t.Helper()
	alice := commandtest.NewActor("Alice", "chatcmd.msg", "chatcmd.me")
	bob := commandtest.NewActor("Bob", "chatcmd.msg")
	rec := &recorder{}
	h := commandtest.New(t, commandtest.Directory{}.Add(alice, bob), Source(rec))
	return h, alice, bob, rec
}

func TestWhisperAndReply(t *testing.T) {
	h, alice, bob, _ := setup(t)

	if res := h.Run(alice, "tell bob hello  there"); res.Outcome != cmd.OutcomeSuccess {
		t.Fatalf("outcome = %v", res.Outcome)
	}
	if bob.Last() != "[Alice -> you] hello  there" {
		t.Errorf("bob got %q", bob.Last())
	}
	if alice.Last() != "[you -> Bob] hello  there" {
		t.Errorf("alice got %q", alice.Last())
	}

	h.Run(bob, "reply hi back")
	if alice.Last() != "[Bob -> you] hi back" {
		t.Errorf("alice got %q", alice.Last())
	}
}

func TestWhisperErrors(t *testing.T) {
	h, alice, bob, _ := setup(t)

	h.Run(alice, "msg carol hi")
	if alice.Last() != "Player carol is not online." {
		t.Errorf("got %q", alice.Last())
	}

	bob.Offline = true
	h.Run(alice, "msg bob hi")
	if alice.Last() != "Player bob is not online." {
		t.Errorf("got %q", alice.Last())
	}

	h.Run(alice, "reply anyone?")
	if alice.Last() != "Nobody has messaged you yet. Use /msg <player> <message>." {
		t.Errorf("got %q", alice.Last())
	}

	alice.Reset()
	if res := h.Run(alice, "msg bob"); res.Outcome != cmd.OutcomeUsage {
		t.Errorf("outcome = %v", res.Outcome)
	}
	if msgs := alice.Messages(); len(msgs) != 2 || msgs[0] != "Usage: msg <player> <message>" {
		t.Errorf("usage = %q", msgs)
	}
}

func TestEmote(t *testing.T) {
	h, alice, bob, rec := setup(t)

	h.Run(alice, "me waves")
	if len(rec.out) != 1 || rec.out[0] != "&d* Alice waves" {
		t.Errorf("broadcast = %q", rec.out)
	}

	if res := h.Run(bob, "me waves"); res.Handled() {
		t.Error("bob lacks chatcmd.me and must not be handled")
	}
}
