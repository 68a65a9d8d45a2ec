package cmd_test

import (
	"strings"
	"sync"

	"github.com/keshon/chatcmd/pkg/cmd"
)

type fakeActor struct {
	name    string
	offline bool
	perms   map[string]bool

	mu       sync.Mutex
	messages []string
}

func newActor(name string, perms ...string) *fakeActor {
	a := &fakeActor{name: name, perms: map[string]bool{}}
	for _, p := range perms {
		a.perms[p] = true
	}
	return a
}

func (a *fakeActor) Name() string                   { return a.name }
func (a *fakeActor) Reachable() bool                { return !a.offline }
func (a *fakeActor) HasPermission(node string) bool { return a.perms[node] }

func (a *fakeActor) Send(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.messages = append(a.messages, text)
}

func (a *fakeActor) Messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.messages))
	copy(out, a.messages)
	return out
}

type fakeDirectory map[string]*fakeActor

func (d fakeDirectory) FindByName(name string) (cmd.Actor, bool) {
	a, ok := d[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return a, true
}
