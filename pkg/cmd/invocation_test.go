package cmd_test

import (
	"testing"

	"github.com/keshon/chatcmd/pkg/cmd"
)

func invocationFor(t *testing.T, line string, dir cmd.ActorDirectory) *cmd.Invocation {
	t.Helper()
	tokens, err := cmd.Tokenize(line)
	if err != nil {
		t.Fatalf("Tokenize(%q): %v", line, err)
	}
	return cmd.NewInvocation(tokens, newActor("alice"), dir)
}

func TestInvocationString(t *testing.T) {
	inv := invocationFor(t, "give Bob 5 diamond", nil)

	if s, ok := inv.String(0); !ok || s != "Bob" {
		t.Errorf("String(0) = %q, %v", s, ok)
	}
	if s, ok := inv.Lower(0); !ok || s != "bob" {
		t.Errorf("Lower(0) = %q, %v", s, ok)
	}
	if _, ok := inv.String(3); ok {
		t.Error("String(3) should be out of range")
	}
	if _, ok := inv.String(-1); ok {
		t.Error("String(-1) should be out of range")
	}
}

func TestInvocationEmptyMessageHasNoArgs(t *testing.T) {
	inv := invocationFor(t, "list", nil)
	if inv.Size() != 0 {
		t.Errorf("Size() = %d, want 0", inv.Size())
	}
	if _, ok := inv.String(0); ok {
		t.Error("String(0) should fail without arguments")
	}
}

func TestInvocationJoin(t *testing.T) {
	inv := invocationFor(t, "msg bob hello big world", nil)

	tests := []struct {
		start, end int
		want       string
		ok         bool
	}{
		{1, -1, "hello big world", true},
		{0, 2, "bob hello", true},
		{3, -1, "world", true},
		{2, 2, "", false},
		{0, 5, "", false},
		{4, -1, "", false},
	}
	for _, tt := range tests {
		got, ok := inv.Join(tt.start, tt.end)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Join(%d, %d) = %q, %v; want %q, %v", tt.start, tt.end, got, ok, tt.want, tt.ok)
		}
	}
}

func TestInvocationInt(t *testing.T) {
	inv := invocationFor(t, "x 5 -5 +5 abc 99999999999999999999 007", nil)

	tests := []struct {
		index int
		want  int
		ok    bool
	}{
		{0, 5, true},
		{1, 0, false},
		{2, 0, false},
		{3, 0, false},
		{4, 0, false},
		{5, 7, true},
		{6, 0, false},
	}
	for _, tt := range tests {
		got, ok := inv.Int(tt.index)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Int(%d) = %d, %v; want %d, %v", tt.index, got, ok, tt.want, tt.ok)
		}
	}
}

func TestInvocationPlayer(t *testing.T) {
	bob := newActor("Bob")
	dir := fakeDirectory{"bob": bob}
	inv := invocationFor(t, "tp bob carol", dir)

	got, ok := inv.Player(0)
	if !ok || got.Name() != "Bob" {
		t.Errorf("Player(0) = %v, %v", got, ok)
	}
	if _, ok := inv.Player(1); ok {
		t.Error("unknown player should not resolve")
	}
}

func TestInvocationPlayerWithoutDirectory(t *testing.T) {
	inv := invocationFor(t, "tp bob", nil)
	if _, ok := inv.Player(0); ok {
		t.Error("expected no player without a directory")
	}
}

func TestInvocationMatches(t *testing.T) {
	inv := invocationFor(t, "HeLp 2", nil)
	if !inv.Matches("help") {
		t.Error("Matches should ignore case")
	}
	if inv.Matches("hel") {
		t.Error("Matches should compare whole tokens")
	}
}

func TestInvocationReplySkipsUnreachable(t *testing.T) {
	tokens, _ := cmd.Tokenize("ping")
	a := newActor("alice")
	a.offline = true
	inv := cmd.NewInvocation(tokens, a, nil)
	inv.Reply("pong")
	if len(a.Messages()) != 0 {
		t.Errorf("offline actor received %q", a.Messages())
	}
}
