package render

import (
	"strings"

	"github.com/charmbracelet/glamour"
)

// markdownRenderer wraps glamour for finished assistant messages.
type markdownRenderer struct {
	renderer *glamour.TermRenderer
	width    int
	style    string
}

func newMarkdownRenderer(width int, style string) (*markdownRenderer, error) {
	if style == "" {
		style = "auto"
	}
	r, err := glamour.NewTermRenderer(
		glamourOption(style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, err
	}
	return &markdownRenderer{renderer: r, width: width, style: style}, nil
}

// render returns text rendered for the terminal without glamour's
// surrounding blank lines.
func (m *markdownRenderer) render(text string) (string, error) {
	out, err := m.renderer.Render(text)
	if err != nil {
		return "", err
	}
	return strings.Trim(out, "\n"), nil
}

// setWidth updates the word wrap width and recreates the renderer.
func (m *markdownRenderer) setWidth(width int) error {
	if width == m.width {
		return nil
	}
	r, err := glamour.NewTermRenderer(
		glamourOption(m.style),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return err
	}
	m.renderer = r
	m.width = width
	return nil
}

// glamourOption returns the glamour TermRendererOption for a style name.
func glamourOption(style string) glamour.TermRendererOption {
	if style == "auto" {
		return glamour.WithAutoStyle()
	}
	return glamour.WithStandardStyle(style)
}
