// Package core provides help, player list and about commands.
package core

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/keshon/chatcmd/internal/command"
	"github.com/keshon/chatcmd/internal/config"
	"github.com/keshon/chatcmd/internal/version"
	"github.com/keshon/chatcmd/pkg/chat"
	"github.com/keshon/chatcmd/pkg/cmd"
)

const helpPageSize = 8

// Roster lists online player names.
type Roster interface {
	Names() []string
}

// Core is the owner of the core commands.
type Core struct {
	registry *cmd.Registry
	roster   Roster
}

// Source declares the core commands. The registry is read at invocation time,
// so help also lists sources registered after this one.
func Source(reg *cmd.Registry, roster Roster) cmd.Source {
	return cmd.Source{
		Name: "core",
		New: func() (any, error) {
			if reg == nil {
				return nil, fmt.Errorf("core commands need a registry")
			}
			return &Core{registry: reg, roster: roster}, nil
		},
		Commands: []cmd.Declaration{
			{
				Aliases:     []string{"help", "?"},
				Usage:       "[page|command]",
				Pattern:     `(?:(\d+)|(\S+))?`,
				Description: "List available commands or show one in detail",
				Method:      cmd.Bind((*Core).Help),
			},
			{
				Aliases:     []string{"list", "who", "online"},
				Description: "Show who is online",
				Method:      cmd.Bind((*Core).List),
			},
			{
				Aliases:     []string{"about", "version"},
				Description: "Show version information",
				Run:         About,
			},
		},
	}
}

// Help prints a page of commands the actor may run, grouped by source, or the
// details of a single command.
func (c *Core) Help(ctx context.Context, inv *cmd.Invocation) error {
	prefix := command.Prefix(inv)

	if name, ok := inv.MatchString(2); ok {
		d, found := c.registry.Lookup(name)
		if !found || !command.Allowed(d, inv.Actor) {
			inv.Reply(chat.Format("&cNo such command: &f%s", name))
			return nil
		}
		inv.Reply(chat.Format("&6--- &f%s%s &6---", prefix, d.Name()))
		inv.Reply(chat.Usage(prefix+d.Name(), d.Usage))
		inv.Reply(chat.Description(d.Description))
		if aliases := c.registry.Aliases(d); len(aliases) > 1 {
			inv.Reply(chat.Format("&4Aliases&f: %s", strings.Join(aliases[1:], ", ")))
		}
		return nil
	}

	lines := c.helpLines(inv.Actor, prefix)
	pages := (len(lines) + helpPageSize - 1) / helpPageSize
	if pages == 0 {
		inv.Reply(chat.Format("&7No commands available."))
		return nil
	}

	page := 1
	if n, ok := inv.MatchInt(1); ok {
		page = n
	}
	if page < 1 || page > pages {
		inv.Reply(chat.Format("&cPage %d does not exist. There are %d pages.", page, pages))
		return nil
	}

	inv.Reply(chat.Format("&6--- &f%s Help &6(page %d/%d) ---", version.AppName, page, pages))
	start := (page - 1) * helpPageSize
	end := min(start+helpPageSize, len(lines))
	for _, l := range lines[start:end] {
		inv.Reply(l)
	}
	if page < pages {
		inv.Reply(chat.Format("&7Type &f%shelp %d&7 for the next page.", prefix, page+1))
	}
	return nil
}

func (c *Core) helpLines(actor cmd.Actor, prefix string) []string {
	bySource := make(map[string][]*cmd.Descriptor)
	for _, d := range c.registry.All() {
		if !command.Allowed(d, actor) {
			continue
		}
		bySource[d.Source] = append(bySource[d.Source], d)
	}

	sources := make([]string, 0, len(bySource))
	for s := range bySource {
		sources = append(sources, s)
	}
	sort.Slice(sources, func(i, j int) bool {
		wi, wj := config.CategoryWeight(sources[i]), config.CategoryWeight(sources[j])
		if wi != wj {
			return wi < wj
		}
		return sources[i] < sources[j]
	})

	var lines []string
	for _, s := range sources {
		lines = append(lines, chat.Format("&6%s", s))
		for _, d := range bySource[s] {
			lines = append(lines, chat.Format("  &e%s%s &7- &f%s", prefix, d.Name(), d.Description))
		}
	}
	return lines
}

// List shows online players.
func (c *Core) List(ctx context.Context, inv *cmd.Invocation) error {
	var names []string
	if c.roster != nil {
		names = c.roster.Names()
	}
	inv.Reply(chat.Format("&6Online (%d)&f: %s", len(names), strings.Join(names, ", ")))
	return nil
}

// About shows the application name and build.
func About(ctx context.Context, inv *cmd.Invocation) error {
	inv.Reply(chat.Format("&6%s &f%s", version.AppName, version.Version))
	inv.Reply(chat.Format("&7%s", version.AppDescription))
	inv.Reply(chat.Format("&7Built %s with %s", version.BuildDate, runtime.Version()))
	return nil
}
