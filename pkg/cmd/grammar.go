package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/dlclark/regexp2"
)

// DefaultMatchTimeout bounds a single grammar match.
const DefaultMatchTimeout = 100 * time.Millisecond

// Grammar is a compiled usage pattern. It always matches the whole message.
// \d, \w and \s are ASCII only. Groups are numbered left to right by their
// opening parenthesis, named or not.
type Grammar struct {
	pattern string
	re      *regexp2.Regexp

	// slots[i] is the regexp2 group number of group i; names[i] its name.
	slots []int
	names []string
}

// CompileGrammar compiles pattern for full-string matching. A zero timeout
// uses DefaultMatchTimeout.
func CompileGrammar(pattern string, timeout time.Duration) (*Grammar, error) {
	re, err := regexp2.Compile(`\A(?:`+pattern+`)\z`, regexp2.RE2)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidGrammar, pattern, err)
	}
	if timeout <= 0 {
		timeout = DefaultMatchTimeout
	}
	re.MatchTimeout = timeout

	g := &Grammar{pattern: pattern, re: re}
	if err := g.number(); err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidGrammar, pattern, err)
	}
	return g, nil
}

// number maps groups in pattern order onto regexp2's numbering, which puts
// every unnamed group before the named ones.
func (g *Grammar) number() error {
	groups, err := captureGroups(g.pattern)
	if err != nil {
		return err
	}
	if len(groups)+1 != len(g.re.GetGroupNames()) {
		return fmt.Errorf("unsupported group construct")
	}

	g.slots = make([]int, 0, len(groups)+1)
	g.names = make([]string, 0, len(groups)+1)
	g.slots = append(g.slots, 0)
	g.names = append(g.names, "")

	unnamed := 0
	for _, name := range groups {
		if name == "" {
			unnamed++
			if g.re.GroupNameFromNumber(unnamed) != strconv.Itoa(unnamed) {
				return fmt.Errorf("unsupported group construct")
			}
			g.slots = append(g.slots, unnamed)
			g.names = append(g.names, "")
			continue
		}
		num := g.re.GroupNumberFromName(name)
		if num < 0 {
			return fmt.Errorf("unsupported group name %q", name)
		}
		g.slots = append(g.slots, num)
		g.names = append(g.names, name)
	}
	return nil
}

// captureGroups lists the capturing groups of pattern in the order their
// opening parentheses appear. Unnamed groups are "".
func captureGroups(pattern string) ([]string, error) {
	var groups []string
	rs := []rune(pattern)
	inClass := false

	for i := 0; i < len(rs); i++ {
		switch c := rs[i]; {
		case c == '\\':
			i++
		case inClass:
			if c == ']' {
				inClass = false
			}
		case c == '[':
			inClass = true
			// A ']' right after '[' or '[^' is a literal.
			if i+1 < len(rs) && rs[i+1] == '^' {
				i++
			}
			if i+1 < len(rs) && rs[i+1] == ']' {
				i++
			}
		case c == '(':
			if i+1 >= len(rs) || rs[i+1] != '?' {
				groups = append(groups, "")
				continue
			}
			name, ok := groupName(rs[i+2:])
			if !ok {
				continue
			}
			if _, err := strconv.Atoi(name); err == nil {
				return nil, fmt.Errorf("numbered group (?<%s>) is not supported", name)
			}
			groups = append(groups, name)
		}
	}
	return groups, nil
}

// groupName reads the name of (?<name>, (?'name' or (?P<name>; rest starts
// right after "(?". Lookbehinds are not names.
func groupName(rest []rune) (string, bool) {
	if len(rest) > 1 && rest[0] == 'P' && rest[1] == '<' {
		rest = rest[1:]
	}
	if len(rest) < 2 {
		return "", false
	}
	var end rune
	switch rest[0] {
	case '<':
		end = '>'
	case '\'':
		end = '\''
	default:
		return "", false
	}
	if rest[1] == '=' || rest[1] == '!' {
		return "", false
	}
	for j := 1; j < len(rest); j++ {
		if rest[j] == end {
			if j == 1 {
				return "", false
			}
			return string(rest[1:j]), true
		}
	}
	return "", false
}

// String returns the source pattern.
func (g *Grammar) String() string { return g.pattern }

// Match applies the grammar. A nil Match with a nil error means no match; an
// error is only returned when matching timed out.
func (g *Grammar) Match(message string) (*Match, error) {
	m, err := g.re.FindStringMatch(message)
	if err != nil {
		return nil, err
	}
	if m == nil {
		return nil, nil
	}
	out := &Match{groups: make([]group, len(g.slots))}
	for i, num := range g.slots {
		gr := m.GroupByNumber(num)
		if gr == nil {
			continue
		}
		out.groups[i] = group{name: g.names[i], value: gr.String(), ok: len(gr.Captures) > 0}
	}
	return out, nil
}

type group struct {
	name  string
	value string
	ok    bool
}

// Match holds the capture groups of a successful grammar match.
// Group 0 is the whole message.
type Match struct {
	groups []group
}

// Len returns the number of groups including group 0.
func (m *Match) Len() int {
	if m == nil {
		return 0
	}
	return len(m.groups)
}

// Group returns group i; false when it does not exist or did not participate.
func (m *Match) Group(i int) (string, bool) {
	if m == nil || i < 0 || i >= len(m.groups) || !m.groups[i].ok {
		return "", false
	}
	return m.groups[i].value, true
}

// Named returns the group called name.
func (m *Match) Named(name string) (string, bool) {
	if m == nil {
		return "", false
	}
	for _, g := range m.groups {
		if g.name == name && g.ok {
			return g.value, true
		}
	}
	return "", false
}

// Validate checks message against the descriptor's grammar. Descriptors
// without one always pass with a nil match. A mismatch returns *UsageError.
func Validate(d *Descriptor, message string) (*Match, error) {
	if d.Grammar == nil {
		return nil, nil
	}
	m, err := d.Grammar.Match(message)
	if err != nil {
		// A timed out match counts as a mismatch; the cause is kept for logging.
		ue := usageError(d)
		ue.Cause = err
		return nil, ue
	}
	if m == nil {
		return nil, usageError(d)
	}
	return m, nil
}

func usageError(d *Descriptor) *UsageError {
	return &UsageError{Command: d.Name(), Usage: d.Usage, Description: d.Description}
}
