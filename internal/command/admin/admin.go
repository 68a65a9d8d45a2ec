// Package admin provides operator commands: runtime permission grants,
// kicking players, command history and toggling command sources.
package admin

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/keshon/chatcmd/internal/storage"
	"github.com/keshon/chatcmd/pkg/chat"
	"github.com/keshon/chatcmd/pkg/cmd"
)

// Permissions manages runtime grants.
type Permissions interface {
	Grant(player, node string) (bool, error)
	Revoke(player, node string) (bool, error)
	Nodes(player string) []string
	Groups(player string) []string
}

// Store keeps command history and disabled sources.
type Store interface {
	FetchCommandHistory(player string) ([]storage.CommandHistoryRecord, error)
	DisableSource(source string) error
	EnableSource(source string) error
	DisabledSources() ([]string, error)
}

// Kicker disconnects an online player and returns the name it resolved to.
type Kicker func(name, reason string) (string, error)

// Deps are the collaborators of the admin commands.
type Deps struct {
	Perms    Permissions
	Store    Store
	Kick     Kicker
	Registry *cmd.Registry
}

// Admin is the owner of the admin commands.
type Admin struct {
	Deps
}

// Source declares the admin commands. The source is called "admin" and is
// expected to be exempt from the source toggle.
func Source(deps Deps) cmd.Source {
	return cmd.Source{
		Name: "admin",
		New: func() (any, error) {
			if deps.Perms == nil || deps.Store == nil || deps.Kick == nil || deps.Registry == nil {
				return nil, fmt.Errorf("admin commands need permissions, storage, a kicker and the registry")
			}
			return &Admin{Deps: deps}, nil
		},
		Commands: []cmd.Declaration{
			{
				Aliases:     []string{"perm", "perms"},
				Usage:       "<grant|revoke|list> <player> [node]",
				Pattern:     `(?i:(grant|revoke|list)) (\S+)(?: (\S+))?`,
				Description: "Manage runtime permissions",
				Permission:  "chatcmd.perm",
				Method:      cmd.Bind((*Admin).Perm),
			},
			{
				Aliases:     []string{"kick"},
				Usage:       "<player> [reason]",
				Pattern:     `(\S+)(?: (.+))?`,
				Description: "Disconnect a player",
				Permission:  "chatcmd.kick",
				Method:      cmd.Bind((*Admin).KickPlayer),
			},
			{
				Aliases:     []string{"history"},
				Usage:       "<player>",
				Pattern:     `\S+`,
				Description: "Show the last commands a player ran",
				Permission:  "chatcmd.history",
				Method:      cmd.Bind((*Admin).History),
			},
			{
				Aliases:     []string{"commands"},
				Usage:       "<status|enable|disable> [source]",
				Pattern:     `(?i:(status)|(enable|disable) (\S+))`,
				Description: "Enable or disable command sources",
				Permission:  "chatcmd.commands",
				Method:      cmd.Bind((*Admin).Commands),
			},
		},
	}
}

func (a *Admin) Perm(ctx context.Context, inv *cmd.Invocation) error {
	action, _ := inv.MatchString(1)
	player, _ := inv.MatchString(2)
	node, hasNode := inv.MatchString(3)

	switch strings.ToLower(action) {
	case "list":
		groups := a.Perms.Groups(player)
		nodes := a.Perms.Nodes(player)
		inv.Reply(chat.Format("&6%s&f groups: %s", player, orNone(groups)))
		inv.Reply(chat.Format("&6%s&f nodes: %s", player, orNone(nodes)))
		return nil
	case "grant":
		if !hasNode {
			inv.Reply(chat.Usage(inv.Command, inv.Descriptor.Usage))
			return nil
		}
		added, err := a.Perms.Grant(player, node)
		if err != nil {
			return err
		}
		if !added {
			inv.Reply(chat.Format("&e%s already has %s.", player, node))
			return nil
		}
		inv.Reply(chat.Format("&aGranted %s to %s.", node, player))
	case "revoke":
		if !hasNode {
			inv.Reply(chat.Usage(inv.Command, inv.Descriptor.Usage))
			return nil
		}
		removed, err := a.Perms.Revoke(player, node)
		if err != nil {
			return err
		}
		if !removed {
			inv.Reply(chat.Format("&e%s has no runtime grant %s.", player, node))
			return nil
		}
		inv.Reply(chat.Format("&aRevoked %s from %s.", node, player))
	}
	return nil
}

func (a *Admin) KickPlayer(ctx context.Context, inv *cmd.Invocation) error {
	name, _ := inv.MatchString(1)
	reason, _ := inv.MatchString(2)

	kicked, err := a.Kick(name, reason)
	if err != nil {
		inv.Reply(chat.Format("&cPlayer &f%s&c is not online.", name))
		return nil
	}
	inv.Reply(chat.Format("&aKicked %s.", kicked))
	return nil
}

func (a *Admin) History(ctx context.Context, inv *cmd.Invocation) error {
	player := inv.Message
	records, err := a.Store.FetchCommandHistory(player)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		inv.Reply(chat.Format("&7No command history for %s.", player))
		return nil
	}
	inv.Reply(chat.Format("&6Last %d commands of %s:", len(records), player))
	for _, r := range records {
		line := r.Command
		if r.Param != "" {
			line += " " + r.Param
		}
		inv.Reply(chat.Format("&7%s &f%s &7(%s)", r.Datetime.Format(time.DateTime), line, r.Outcome))
	}
	return nil
}

func (a *Admin) Commands(ctx context.Context, inv *cmd.Invocation) error {
	if _, ok := inv.MatchString(1); ok {
		return a.status(inv)
	}

	action, _ := inv.MatchString(2)
	name, _ := inv.MatchString(3)

	source, ok := a.resolve(name)
	if !ok {
		inv.Reply(chat.Format("&cUnknown command source: &f%s", name))
		return nil
	}
	if strings.EqualFold(action, "disable") {
		if source == "admin" {
			inv.Reply(chat.Format("&cThe admin commands cannot be disabled."))
			return nil
		}
		if err := a.Store.DisableSource(source); err != nil {
			return err
		}
		inv.Reply(chat.Format("&eDisabled %s commands.", source))
		return nil
	}
	if err := a.Store.EnableSource(source); err != nil {
		return err
	}
	inv.Reply(chat.Format("&aEnabled %s commands.", source))
	return nil
}

func (a *Admin) status(inv *cmd.Invocation) error {
	disabled, err := a.Store.DisabledSources()
	if err != nil {
		return err
	}
	off := make(map[string]bool, len(disabled))
	for _, d := range disabled {
		off[d] = true
	}

	inv.Reply(chat.Format("&6Command sources:"))
	for _, s := range a.sources() {
		status := "&aenabled"
		if off[s] {
			status = "&cdisabled"
		}
		inv.Reply(chat.Format("&f%s: "+status, s))
	}
	return nil
}

func (a *Admin) sources() []string {
	set := map[string]bool{}
	for _, d := range a.Registry.All() {
		set[d.Source] = true
	}
	out := make([]string, 0, len(set))
	for s := range set {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// resolve returns the registered spelling of a source name.
func (a *Admin) resolve(name string) (string, bool) {
	for _, s := range a.sources() {
		if strings.EqualFold(s, name) {
			return s, true
		}
	}
	return "", false
}

func orNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
