package render

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/bazelment/yoloswe/ptystream/ansi"
)

// ColorMode controls whether output is styled.
type ColorMode int

const (
	// ColorAuto styles output when it goes to a terminal.
	ColorAuto ColorMode = iota
	// ColorAlways styles output even when it is redirected.
	ColorAlways
	// ColorNever writes plain text.
	ColorNever
)

// ParseColorMode parses "auto", "always" or "never".
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	}
	return ColorAuto, fmt.Errorf("unknown color mode %q", s)
}

// Styles holds the lipgloss styles used for each kind of output. Colors
// are ANSI palette indexes so they follow the user's terminal theme.
type Styles struct {
	Dim       lipgloss.Style
	Prompt    lipgloss.Style
	UserInput lipgloss.Style
	Tool      lipgloss.Style
	ToolDone  lipgloss.Style
	CodeLang  lipgloss.Style
	Code      lipgloss.Style
	Thinking  lipgloss.Style
	Error     lipgloss.Style
}

func newStyles(re *lipgloss.Renderer) Styles {
	return Styles{
		Dim:       re.NewStyle().Faint(true),
		Prompt:    re.NewStyle().Foreground(lipgloss.Color("8")),
		UserInput: re.NewStyle().Bold(true),
		Tool:      re.NewStyle().Foreground(lipgloss.Color("6")),
		ToolDone:  re.NewStyle().Foreground(lipgloss.Color("2")),
		CodeLang:  re.NewStyle().Foreground(lipgloss.Color("5")).Bold(true),
		Code:      re.NewStyle().Foreground(lipgloss.Color("4")),
		Thinking:  re.NewStyle().Faint(true).Italic(true),
		Error:     re.NewStyle().Foreground(lipgloss.Color("1")),
	}
}

// newLipglossRenderer picks the color profile for out according to mode.
func newLipglossRenderer(out io.Writer, mode ColorMode) *lipgloss.Renderer {
	re := lipgloss.NewRenderer(out)
	switch mode {
	case ColorAlways:
		if re.ColorProfile() == termenv.Ascii {
			re.SetColorProfile(termenv.ANSI256)
		}
	case ColorNever:
		re.SetColorProfile(termenv.Ascii)
	}
	return re
}

// spanStyle converts a decoded SGR style into a lipgloss style.
func spanStyle(re *lipgloss.Renderer, st ansi.Style) lipgloss.Style {
	s := re.NewStyle()
	if st.Bold {
		s = s.Bold(true)
	}
	if st.Dim {
		s = s.Faint(true)
	}
	if st.Italic {
		s = s.Italic(true)
	}
	if st.Underline {
		s = s.Underline(true)
	}
	if st.Inverse {
		s = s.Reverse(true)
	}
	if st.Strikethrough {
		s = s.Strikethrough(true)
	}
	if st.Foreground != nil {
		s = s.Foreground(lipgloss.Color(st.Foreground.String()))
	}
	if st.Background != nil {
		s = s.Background(lipgloss.Color(st.Background.String()))
	}
	return s
}
