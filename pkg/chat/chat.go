// Package chat formats messages for players: '&' color codes are translated
// to the '§' form the game client renders.
package chat

import (
	"fmt"
	"strings"
)

// Section is the color code marker understood by the client.
const Section = '§'

// Color codes in their '&' form.
const (
	Black       = "&0"
	DarkBlue    = "&1"
	DarkGreen   = "&2"
	DarkAqua    = "&3"
	DarkRed     = "&4"
	DarkPurple  = "&5"
	Gold        = "&6"
	Gray        = "&7"
	DarkGray    = "&8"
	Blue        = "&9"
	Green       = "&a"
	Aqua        = "&b"
	Red         = "&c"
	LightPurple = "&d"
	Yellow      = "&e"
	White       = "&f"
	Reset       = "&r"
)

const codes = "0123456789abcdefklmnor"

// Recipient is anything that can receive chat.
type Recipient interface {
	Reachable() bool
	Send(text string)
}

// Colorize replaces alt followed by a valid code with the section marker.
func Colorize(alt rune, s string) string {
	if !strings.ContainsRune(s, alt) {
		return s
	}
	rs := []rune(s)
	for i := 0; i < len(rs)-1; i++ {
		if rs[i] != alt {
			continue
		}
		c := toLower(rs[i+1])
		if strings.ContainsRune(codes, c) {
			rs[i] = Section
			rs[i+1] = c
		}
	}
	return string(rs)
}

// Strip removes section color codes.
func Strip(s string) string {
	if !strings.ContainsRune(s, Section) {
		return s
	}
	var b strings.Builder
	rs := []rune(s)
	for i := 0; i < len(rs); i++ {
		if rs[i] == Section && i+1 < len(rs) && strings.ContainsRune(codes, toLower(rs[i+1])) {
			i++
			continue
		}
		b.WriteRune(rs[i])
	}
	return b.String()
}

// Format colorizes format and then applies args, so codes inside args are
// left untouched.
func Format(format string, args ...any) string {
	format = Colorize('&', format)
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}

// Send formats and delivers a message if r is reachable.
func Send(r Recipient, format string, args ...any) {
	if r == nil || !r.Reachable() {
		return
	}
	r.Send(Format(format, args...))
}

// Usage is the first line shown when arguments do not match a command.
func Usage(command, usage string) string {
	return Format("&4Usage&f: %s %s", command, usage)
}

// Description is the second line shown when arguments do not match.
func Description(description string) string {
	return Format("&4Description&f: %s", description)
}

// Failure is the only thing an actor learns about a failed handler.
func Failure() string {
	return Format("&cAn internal error occurred while running this command.")
}

func toLower(r rune) rune {
	if r >= 'A' && r <= 'Z' {
		return r + ('a' - 'A')
	}
	return r
}
