package server

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
)

// Console drives the server from a terminal. Plain lines are typed by the
// console operator; lines starting with ':' control simulated players:
//
//	:join <name>          connect a player
//	:leave <name>         disconnect a player
//	:as <name> <text>     type text as that player
//	:players              list online players
//	:quit                 stop reading
type Console struct {
	srv      *Server
	in       io.Reader
	render   *Renderer
	operator string

	mu  sync.Mutex
	out io.Writer
}

// NewConsole reads from in and writes rendered chat to out.
func NewConsole(srv *Server, operator string, in io.Reader, out io.Writer, render *Renderer) *Console {
	return &Console{srv: srv, in: in, out: out, render: render, operator: operator}
}

// Run reads lines until EOF, ":quit" or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	op, err := c.srv.ConnectOperator(c.operator, c.sink(""))
	if err != nil {
		return err
	}
	defer c.srv.players.Leave(op.Name())

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		sc := bufio.NewScanner(c.in)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- sc.Err()
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return <-errc
			}
			if !c.handle(ctx, op, strings.TrimRight(line, "\r")) {
				return nil
			}
		}
	}
}

// handle returns false when the console should stop.
func (c *Console) handle(ctx context.Context, op *Player, line string) bool {
	if line == "" {
		return true
	}
	if !strings.HasPrefix(line, ":") {
		c.srv.Chat(ctx, op, line)
		return true
	}

	verb, rest, _ := strings.Cut(strings.TrimPrefix(line, ":"), " ")
	switch verb {
	case "quit", "exit":
		return false
	case "join":
		if rest == "" {
			c.println("usage: :join <name>")
			return true
		}
		if _, err := c.srv.Connect(rest, c.sink(rest)); err != nil {
			c.println(err.Error())
		}
	case "leave":
		if !c.srv.Disconnect(rest) {
			c.println(fmt.Sprintf("%s is not online", rest))
		}
	case "as":
		name, text, _ := strings.Cut(rest, " ")
		p, ok := c.srv.players.Get(name)
		if !ok {
			c.println(fmt.Sprintf("%s is not online", name))
			return true
		}
		c.srv.Chat(ctx, p, text)
	case "players":
		c.println(strings.Join(c.srv.players.Names(), ", "))
	default:
		c.println(fmt.Sprintf("unknown console command :%s", verb))
	}
	return true
}

// sink renders messages for a player; simulated players get a name tag.
func (c *Console) sink(name string) func(string) {
	return func(text string) {
		text = c.render.Render(text)
		if name != "" {
			text = "[" + name + "] " + text
		}
		c.println(text)
	}
}

func (c *Console) println(s string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.out, s)
}
