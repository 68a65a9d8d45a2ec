// Package commandtest provides actors and a dispatcher harness for testing
// command sources.
package commandtest

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/keshon/chatcmd/pkg/chat"
	"github.com/keshon/chatcmd/pkg/cmd"
)

// Actor records what it is sent. Messages are stored without color codes.
type Actor struct {
	name    string
	perms   map[string]bool
	Offline bool

	mu   sync.Mutex
	sent []string
}

// NewActor returns an actor holding perms. "*" grants everything.
func NewActor(name string, perms ...string) *Actor {
	a := &Actor{name: name, perms: map[string]bool{}}
	for _, p := range perms {
		a.perms[p] = true
	}
	return a
}

func (a *Actor) Name() string    { return a.name }
func (a *Actor) Reachable() bool { return !a.Offline }

func (a *Actor) HasPermission(node string) bool {
	return a.perms["*"] || a.perms[node]
}

func (a *Actor) Send(text string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = append(a.sent, chat.Strip(text))
}

// Messages returns everything sent so far.
func (a *Actor) Messages() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]string(nil), a.sent...)
}

// Last returns the most recent message, or "".
func (a *Actor) Last() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.sent) == 0 {
		return ""
	}
	return a.sent[len(a.sent)-1]
}

// Reset forgets recorded messages.
func (a *Actor) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.sent = nil
}

// Directory resolves actors by case-insensitive name.
type Directory map[string]*Actor

// Add registers actors and returns d.
func (d Directory) Add(actors ...*Actor) Directory {
	for _, a := range actors {
		d[strings.ToLower(a.Name())] = a
	}
	return d
}

func (d Directory) FindByName(name string) (cmd.Actor, bool) {
	a, ok := d[strings.ToLower(name)]
	if !ok {
		return nil, false
	}
	return a, true
}

// Names returns the directory's actor names in no particular order.
func (d Directory) Names() []string {
	out := make([]string, 0, len(d))
	for _, a := range d {
		out = append(out, a.Name())
	}
	return out
}

// Harness dispatches lines against a set of sources.
type Harness struct {
	Registry   *cmd.Registry
	Dispatcher *cmd.Dispatcher
}

// New registers srcs and fails the test on any registration error.
func New(t *testing.T, dir cmd.ActorDirectory, srcs ...cmd.Source) *Harness {
	t.Helper()
	reg := cmd.NewRegistry()
	if err := reg.RegisterAll(srcs...); err != nil {
		t.Fatalf("register: %v", err)
	}
	return NewFromRegistry(reg, dir)
}

// NewFromRegistry freezes reg and builds a dispatcher over it.
func NewFromRegistry(reg *cmd.Registry, dir cmd.ActorDirectory) *Harness {
	var opts []cmd.Option
	if dir != nil {
		opts = append(opts, cmd.WithDirectory(dir))
	}
	return &Harness{Registry: reg, Dispatcher: cmd.NewDispatcher(reg, opts...)}
}

// Run dispatches line for actor with the "/" prefix as the extra argument.
func (h *Harness) Run(actor cmd.Actor, line string) cmd.Result {
	return h.Dispatcher.Dispatch(context.Background(), line, actor, "/")
}
