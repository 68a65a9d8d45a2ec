package server

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/keshon/chatcmd/pkg/chat"
)

var ansiColors = map[rune]lipgloss.Color{
	'0': lipgloss.Color("0"),
	'1': lipgloss.Color("4"),
	'2': lipgloss.Color("2"),
	'3': lipgloss.Color("6"),
	'4': lipgloss.Color("1"),
	'5': lipgloss.Color("5"),
	'6': lipgloss.Color("3"),
	'7': lipgloss.Color("7"),
	'8': lipgloss.Color("8"),
	'9': lipgloss.Color("12"),
	'a': lipgloss.Color("10"),
	'b': lipgloss.Color("14"),
	'c': lipgloss.Color("9"),
	'd': lipgloss.Color("13"),
	'e': lipgloss.Color("11"),
	'f': lipgloss.Color("15"),
}

// Renderer turns '§' coded chat into terminal output.
type Renderer struct {
	r       *lipgloss.Renderer
	noColor bool
}

// NewRenderer renders for r. With noColor set codes are stripped.
func NewRenderer(r *lipgloss.Renderer, noColor bool) *Renderer {
	return &Renderer{r: r, noColor: noColor}
}

// Render converts every line of text separately.
func (rd *Renderer) Render(text string) string {
	if rd.noColor || rd.r == nil {
		return chat.Strip(text)
	}
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = rd.renderLine(l)
	}
	return strings.Join(lines, "\n")
}

func (rd *Renderer) renderLine(line string) string {
	var out strings.Builder
	var seg strings.Builder
	style := rd.r.NewStyle()

	flush := func() {
		if seg.Len() == 0 {
			return
		}
		out.WriteString(style.Render(seg.String()))
		seg.Reset()
	}

	rs := []rune(line)
	for i := 0; i < len(rs); i++ {
		if rs[i] != chat.Section || i+1 >= len(rs) {
			seg.WriteRune(rs[i])
			continue
		}
		code := rs[i+1]
		next, ok := rd.apply(style, code)
		if !ok {
			seg.WriteRune(rs[i])
			continue
		}
		flush()
		style = next
		i++
	}
	flush()
	return out.String()
}

func (rd *Renderer) apply(style lipgloss.Style, code rune) (lipgloss.Style, bool) {
	if c, ok := ansiColors[code]; ok {
		// A color code resets formatting.
		return rd.r.NewStyle().Foreground(c), true
	}
	switch code {
	case 'l':
		return style.Bold(true), true
	case 'm':
		return style.Strikethrough(true), true
	case 'n':
		return style.Underline(true), true
	case 'o':
		return style.Italic(true), true
	case 'k':
		return style, true
	case 'r':
		return rd.r.NewStyle(), true
	}
	return style, false
}
