// Package command holds helpers shared by the built-in command sources.
package command

import (
	"github.com/keshon/chatcmd/pkg/cmd"
)

// Prefix returns the chat prefix the host passed along with the line, or "/"
// when it passed none.
func Prefix(inv *cmd.Invocation) string {
	if len(inv.Extra) > 0 {
		if p, ok := inv.Extra[0].(string); ok && p != "" {
			return p
		}
	}
	return "/"
}

// Allowed reports whether actor may run d.
func Allowed(d *cmd.Descriptor, actor cmd.Actor) bool {
	return cmd.Authorize(d, actor, nil) == nil
}
