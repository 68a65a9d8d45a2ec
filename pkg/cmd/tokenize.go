package cmd

import "strings"

// Line is a tokenized input line.
type Line struct {
	// Command is the first space-delimited token.
	Command string
	// Message is everything after the first space, or "" if there is none.
	Message string
	// Args is Message split on single spaces. Runs of spaces yield empty tokens.
	Args []string
}

// Tokenize splits a raw line into command, message and arguments.
// Nothing is trimmed or collapsed: "a  b" yields Args ["", "b"].
func Tokenize(line string) (Line, error) {
	if line == "" {
		return Line{}, ErrEmptyInput
	}
	command, message, _ := strings.Cut(line, " ")
	return Line{
		Command: command,
		Message: message,
		Args:    strings.Split(message, " "),
	}, nil
}

// Size is the number of usable arguments. An empty message has none even
// though splitting it yields one empty token.
func (l Line) Size() int {
	if l.Message == "" {
		return 0
	}
	return len(l.Args)
}
